// Package expectation holds expectation suites and the validator that
// checks a batch against a suite.
//
// Only a compact set of expectation types is implemented (see Types).
// Results follow the requested result format (BOOLEAN_ONLY, BASIC,
// SUMMARY, COMPLETE). Kwargs may reference evaluation parameters with
// {"$PARAMETER": "<expression>"}; expressions are evaluated with expr.
package expectation
