package datasource

import (
	"errors"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

var (
	// ErrUnknownConnector is returned for a data_connector_name the
	// datasource does not define.
	ErrUnknownConnector = errors.New("unknown data connector")

	// ErrNoBatch is returned when a batch request selects nothing.
	ErrNoBatch = errors.New("no batch matches the request")
)

// BatchDefinition identifies one batch.
type BatchDefinition struct {
	DatasourceName    string         `json:"datasource_name"`
	DataConnectorName string         `json:"data_connector_name"`
	DataAssetName     string         `json:"data_asset_name"`
	BatchIdentifiers  map[string]any `json:"batch_identifiers"`
}

// Spec returns the definition as a plain map, the input of ir.BatchID.
func (d BatchDefinition) Spec() map[string]any {
	ids := make(map[string]any, len(d.BatchIdentifiers))
	for k, v := range d.BatchIdentifiers {
		ids[k] = v
	}
	return map[string]any{
		"datasource_name":     d.DatasourceName,
		"data_connector_name": d.DataConnectorName,
		"data_asset_name":     d.DataAssetName,
		"batch_identifiers":   ids,
	}
}

// Batch is a materialized batch.
type Batch struct {
	ID         string          `json:"id"`
	Definition BatchDefinition `json:"batch_definition"`

	// Spec describes where the data came from (path, or "in_memory").
	Spec map[string]any `json:"batch_spec"`

	Data *Table `json:"-"`
}

func newBatch(def BatchDefinition, spec map[string]any, data *Table) (*Batch, error) {
	id, err := ir.BatchID(def.Spec())
	if err != nil {
		return nil, err
	}
	return &Batch{ID: id, Definition: def, Spec: spec, Data: data}, nil
}

// selectIndex applies a data_connector_query index to n candidates sorted
// oldest first. A nil index selects the last one.
func selectIndex(q *config.DataConnectorQuery, n int) (int, error) {
	if n == 0 {
		return 0, ErrNoBatch
	}
	if q == nil || q.Index == nil {
		return n - 1, nil
	}
	idx := *q.Index
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: index %d out of range for %d batch(es)", ErrNoBatch, *q.Index, n)
	}
	return idx, nil
}
