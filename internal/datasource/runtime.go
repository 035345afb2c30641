package datasource

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Runtime parameter keys understood by RuntimeConnector.
const (
	RuntimeBatchData = "batch_data"
	RuntimePath      = "path"
)

// RuntimeConnector builds batches from data passed in the request:
// runtime_parameters.batch_data (a *Table or a list of row mappings) or
// runtime_parameters.path (a CSV file). batch_identifiers must name
// exactly the identifiers the connector declares.
type RuntimeConnector struct {
	name        string
	datasource  string
	identifiers []string
	root        string
}

// NewRuntimeConnector builds a runtime connector.
func NewRuntimeConnector(datasource, name string, cfg config.DataConnectorConfig, root string) *RuntimeConnector {
	return &RuntimeConnector{
		name:        name,
		datasource:  datasource,
		identifiers: append([]string(nil), cfg.BatchIdentifiers...),
		root:        root,
	}
}

// Name returns the connector name.
func (c *RuntimeConnector) Name() string { return c.name }

// Assets is always empty: runtime assets exist only per request.
func (c *RuntimeConnector) Assets(context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

// GetBatch builds the batch described by req.
func (c *RuntimeConnector) GetBatch(_ context.Context, req *config.BatchRequest) (*Batch, error) {
	if req.DataAssetName == "" {
		return nil, fmt.Errorf("data connector %q: data_asset_name is required", c.name)
	}
	if err := c.checkIdentifiers(req.BatchIdentifiers); err != nil {
		return nil, err
	}

	var (
		data *Table
		spec map[string]any
		err  error
	)
	switch {
	case req.RuntimeParameters[RuntimeBatchData] != nil:
		data, err = tableFromRuntime(req.RuntimeParameters[RuntimeBatchData])
		spec = map[string]any{"batch_data": "in_memory"}
	case req.RuntimeParameters[RuntimePath] != nil:
		path := fmt.Sprint(req.RuntimeParameters[RuntimePath])
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.root, path)
		}
		data, err = ReadCSVFile(path)
		spec = map[string]any{"path": path}
	default:
		return nil, fmt.Errorf("data connector %q: runtime_parameters needs %q or %q", c.name, RuntimeBatchData, RuntimePath)
	}
	if err != nil {
		return nil, fmt.Errorf("data connector %q: %w", c.name, err)
	}

	def := BatchDefinition{
		DatasourceName:    c.datasource,
		DataConnectorName: c.name,
		DataAssetName:     req.DataAssetName,
		BatchIdentifiers:  map[string]any{},
	}
	for k, v := range req.BatchIdentifiers {
		def.BatchIdentifiers[k] = v
	}
	return newBatch(def, spec, data)
}

func (c *RuntimeConnector) checkIdentifiers(ids map[string]any) error {
	for _, k := range ir.SortedKeys(ids) {
		if !slices.Contains(c.identifiers, k) {
			return fmt.Errorf("data connector %q: unknown batch identifier %q", c.name, k)
		}
	}
	for _, k := range c.identifiers {
		if _, ok := ids[k]; !ok {
			return fmt.Errorf("data connector %q: missing batch identifier %q", c.name, k)
		}
	}
	return nil
}

func tableFromRuntime(v any) (*Table, error) {
	switch d := v.(type) {
	case *Table:
		return d, nil
	case Table:
		return &d, nil
	case []any:
		return TableFromRecords(d)
	case []map[string]any:
		records := make([]any, len(d))
		for i, m := range d {
			records[i] = m
		}
		return TableFromRecords(records)
	default:
		return nil, fmt.Errorf("unsupported batch_data type %T", v)
	}
}
