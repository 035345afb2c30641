// Package ir provides the identifier and canonical encoding types shared by
// every other package.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Identifiers are value types and safe to use as map keys via String()
//   - Run times are always UTC
//   - Content-addressed ids use canonical JSON and SHA-256 with domain separation
//   - All JSON tags use snake_case
package ir
