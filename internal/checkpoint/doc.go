// Package checkpoint resolves and runs checkpoints.
//
// A run resolves the template chain, layers run-time overrides, substitutes
// config variables, names the run, then validates each batch against its
// suite and runs the validation's action list. The outcome is a Result
// keyed by ir.ValidationResultIdentifier in validation order.
package checkpoint
