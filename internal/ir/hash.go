package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainBatch  = "gx/batch/v1"
	DomainConfig = "gx/config/v1"
)

// batchIDLength is the number of hex characters kept for batch identifiers.
// Batch ids appear in file names and store keys.
const batchIDLength = 32

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BatchID computes the identifier of a batch from its batch spec
// (datasource, connector, asset and the identifying values of the batch).
// Same spec, same id, across processes and restarts.
func BatchID(spec map[string]any) (string, error) {
	canonical, err := MarshalCanonical(spec)
	if err != nil {
		return "", fmt.Errorf("BatchID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBatch, canonical)[:batchIDLength], nil
}

// Fingerprint computes a content hash of any config document.
// Used to detect whether a stored config changed.
func Fingerprint(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// MustBatchID is like BatchID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBatchID(spec map[string]any) string {
	id, err := BatchID(spec)
	if err != nil {
		panic(err)
	}
	return id
}
