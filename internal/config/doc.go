// Package config defines the declarative documents gx consumes: checkpoint
// configs (Checkpoint and SimpleCheckpoint) and datasource configs.
//
// It parses YAML, checks documents against an embedded CUE schema, runs
// semantic validation with stable error codes, and implements the layering
// rules used for templates, per-validation defaults and run-time overrides:
//
//   - scalars: the upper layer wins when set
//   - validations: concatenated, lower layer first
//   - action_list: merged by action name, upper wins, a null action removes
//   - evaluation_parameters, runtime_configuration, batch_request: deep merge
//
// A SimpleCheckpoint is expanded into the equivalent explicit Checkpoint
// before anything else looks at it.
package config
