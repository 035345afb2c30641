// Package datacontext is the entry point of gx: a Context ties a project
// directory (gx.yml, data files, data docs sites) to its metadata store and
// exposes registration, dry-run and execution of datasources, expectation
// suites and checkpoints.
package datacontext
