package datasource

import (
	"context"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Connector resolves batch requests for one data connector.
type Connector interface {
	Name() string
	Assets(ctx context.Context) (map[string]int, error)
	GetBatch(ctx context.Context, req *config.BatchRequest) (*Batch, error)
}

// Datasource is a configured datasource with live connectors.
type Datasource struct {
	Config     config.DatasourceConfig
	connectors map[string]Connector
}

// New builds a datasource. root anchors relative base directories.
func New(cfg *config.DatasourceConfig, root string) (*Datasource, error) {
	if errs := config.ValidateDatasource(cfg); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	ds := &Datasource{Config: *cfg, connectors: make(map[string]Connector, len(cfg.DataConnectors))}
	for _, name := range ir.SortedKeys(cfg.DataConnectors) {
		dc := cfg.DataConnectors[name]
		switch dc.ClassName {
		case config.ClassInferredAssetFilesystemDataConnector:
			c, err := NewFilesystemConnector(cfg.Name, name, dc, root)
			if err != nil {
				return nil, err
			}
			ds.connectors[name] = c
		case config.ClassRuntimeDataConnector:
			ds.connectors[name] = NewRuntimeConnector(cfg.Name, name, dc, root)
		}
	}
	return ds, nil
}

// Name returns the datasource name.
func (d *Datasource) Name() string { return d.Config.Name }

// Connector returns a connector by name.
func (d *Datasource) Connector(name string) (Connector, bool) {
	c, ok := d.connectors[name]
	return c, ok
}

// GetBatch routes req to its data connector.
func (d *Datasource) GetBatch(ctx context.Context, req *config.BatchRequest) (*Batch, error) {
	c, ok := d.connectors[req.DataConnectorName]
	if !ok {
		return nil, fmt.Errorf("datasource %q: %w %q", d.Name(), ErrUnknownConnector, req.DataConnectorName)
	}
	return c.GetBatch(ctx, req)
}

// ConnectorReport summarizes one connector for a dry run.
type ConnectorReport struct {
	ClassName string         `json:"class_name"`
	Assets    map[string]int `json:"data_assets"`
}

// Report summarizes a datasource for a dry run.
type Report struct {
	Name            string                     `json:"name"`
	ExecutionEngine string                     `json:"execution_engine"`
	DataConnectors  map[string]ConnectorReport `json:"data_connectors"`
}

// Describe lists the assets and batch counts each connector sees.
func (d *Datasource) Describe(ctx context.Context) (*Report, error) {
	r := &Report{
		Name:            d.Name(),
		ExecutionEngine: d.Config.ExecutionEngine.ClassName,
		DataConnectors:  make(map[string]ConnectorReport, len(d.connectors)),
	}
	for _, name := range ir.SortedKeys(d.connectors) {
		assets, err := d.connectors[name].Assets(ctx)
		if err != nil {
			return nil, err
		}
		r.DataConnectors[name] = ConnectorReport{
			ClassName: d.Config.DataConnectors[name].ClassName,
			Assets:    assets,
		}
	}
	return r, nil
}
