// Package harness runs documentation examples as executable scenarios.
//
// A scenario drives a fresh project through the data context, step by
// step, then evaluates assertions on what the steps produced.
//
// # Scenario Format
//
//	name: checkpoints_and_actions
//	description: "What this scenario validates"
//	files:
//	  data/yellow_tripdata_sample_2019-01.csv: |
//	    vendor_id,fare_amount
//	    1,12.5
//	steps:
//	  - op: setenv
//	    env: { MY_PARAM: "1000" }
//	  - op: add_datasource
//	    config: |
//	      name: taxi_datasource
//	      ...
//	  - op: create_expectation_suite
//	    name: my_expectation_suite
//	  - op: test_yaml_config
//	    file: configs/no_nesting.yaml
//	    as: no_nesting
//	  - op: add_checkpoint
//	    config: |
//	      name: test_checkpoint
//	      ...
//	  - op: run_checkpoint
//	    name: test_checkpoint
//	assertions:
//	  - type: list_checkpoints
//	    names: [test_checkpoint]
//	  - type: run_success
//	    run: test_checkpoint
//	  - type: result_shape
//	    run: test_checkpoint
//	    expect: { run_id: RunIdentifier }
//	  - type: actions_equal
//	    dry_runs: [simple, explicit]
//
// Documents come inline (config) or from a file relative to the scenario
// (file). A step that sets expect_error must fail with an error containing
// that text; any other failing step stops the scenario.
//
// # Assertion Types
//
//   - list_datasources: registered datasource names, in order
//   - list_checkpoints: registered checkpoint names, in order
//   - run_success: the success flag of a labelled run (default true)
//   - result_shape: subset match of a run's type shape
//   - actions_equal: dry runs resolve to the same action list
//
// # Deterministic Testing
//
// Runs use a stepping clock (testutil.DeterministicClock) and sequential
// record ids, and setenv only affects the scenario's own variables, so a
// scenario's snapshot is identical across runs and can be compared with a
// golden file.
package harness
