// Package store provides SQLite-backed persistence for gx metadata.
//
// Tables:
//   - datasources, expectation_suites, checkpoints: named configs
//   - validation_results: suite validation results keyed by
//     ValidationResultIdentifier
//   - evaluation_parameters: resolved parameters and observed metrics per
//     run and suite
//   - checkpoint_runs: one summary row per checkpoint run
//
// # Ordering
//
// Listings use seq INTEGER (insertion order), never timestamps. Replacing
// a named config keeps its original position.
//
// # Encoding
//
// Documents are stored as canonical JSON (ir.MarshalCanonical), so equal
// documents have equal bytes and equal fingerprints.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
