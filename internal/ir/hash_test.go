package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchIDDeterminism(t *testing.T) {
	spec := map[string]any{
		"datasource_name":     "taxi_datasource",
		"data_connector_name": "default_inferred_data_connector_name",
		"data_asset_name":     "yellow_tripdata_sample_2019-01",
	}

	id1, err := BatchID(spec)
	require.NoError(t, err)
	id2, err := BatchID(spec)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "BatchID must be deterministic")
	assert.Len(t, id1, batchIDLength)
}

func TestBatchIDChangesWithInput(t *testing.T) {
	a := MustBatchID(map[string]any{"data_asset_name": "users"})
	b := MustBatchID(map[string]any{"data_asset_name": "orders"})
	assert.NotEqual(t, a, b)
}

func TestDomainSeparation(t *testing.T) {
	doc := map[string]any{"name": "x"}

	batch := MustBatchID(doc)
	fp, err := Fingerprint(doc)
	require.NoError(t, err)

	assert.Len(t, fp, 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, batch, fp[:batchIDLength], "domains must not collide")
}

func TestFingerprintKeyOrderIndependent(t *testing.T) {
	a, err := Fingerprint(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
