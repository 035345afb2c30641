package datacontext

import (
	"context"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datasource"
)

// AddDatasource validates cfg, registers it (replacing a datasource of the
// same name) and returns the live datasource.
func (c *Context) AddDatasource(ctx context.Context, cfg *config.DatasourceConfig) (*datasource.Datasource, error) {
	if cfg.ClassName == "" {
		cfg.ClassName = config.ClassDatasource
	}
	ds, err := datasource.New(cfg, c.root)
	if err != nil {
		return nil, err
	}
	if err := c.store.PutDatasource(ctx, cfg); err != nil {
		return nil, err
	}
	c.logger.Info("datasource added", "datasource", cfg.Name)
	return ds, nil
}

// ListDatasources returns the registered datasource configs in
// registration order.
func (c *Context) ListDatasources(ctx context.Context) ([]*config.DatasourceConfig, error) {
	names, err := c.store.ListDatasourceNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*config.DatasourceConfig, 0, len(names))
	for _, name := range names {
		cfg, err := c.store.GetDatasource(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// GetDatasource loads a registered datasource.
func (c *Context) GetDatasource(ctx context.Context, name string) (*datasource.Datasource, error) {
	cfg, err := c.store.GetDatasource(ctx, name)
	if err != nil {
		return nil, err
	}
	ds, err := datasource.New(cfg, c.root)
	if err != nil {
		return nil, fmt.Errorf("datasource %q: %w", name, err)
	}
	return ds, nil
}
