package datacontext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseignaciorc/great-expectations/internal/action"
	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datasource"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
	"github.com/joseignaciorc/great-expectations/internal/store"
)

// Context is a project bound to its metadata store.
//
// Thread-safety: safe for sequential use. Concurrent callers serialize on
// the store's single connection.
type Context struct {
	root    string
	project *ProjectConfig
	store   *store.Store
	actions *action.Registry
	runner  *checkpoint.Runner
	logger  *slog.Logger
	lookup  config.Lookup
	sites   map[string]string
}

type options struct {
	project    *ProjectConfig
	logger     *slog.Logger
	clock      ir.Clock
	ids        ir.IDGenerator
	registry   prometheus.Registerer
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	lookup     config.Lookup
	actions    *action.Registry
}

// Option configures Open.
type Option func(*options)

// WithProjectConfig uses p instead of reading gx.yml.
func WithProjectConfig(p *ProjectConfig) Option {
	return func(o *options) { o.project = p }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used for run times.
func WithClock(c ir.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator sets the store's record id generator.
func WithIDGenerator(g ir.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithRegistry registers run metrics on reg instead of a private registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithHTTPClient sets the client used for webhooks.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBackOff sets the retry schedule of webhook deliveries.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(o *options) { o.newBackOff = f }
}

// WithLookup consults lookup for $VAR references before config_variables
// and the process environment.
func WithLookup(lookup config.Lookup) Option {
	return func(o *options) { o.lookup = lookup }
}

// WithActions replaces the action registry.
func WithActions(r *action.Registry) Option {
	return func(o *options) { o.actions = r }
}

// Open opens the project rooted at root, creating its store if needed.
func Open(root string, opts ...Option) (*Context, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	project := o.project
	if project == nil {
		var err error
		project, err = LoadProjectConfig(root)
		if err != nil {
			return nil, err
		}
	} else {
		project.applyDefaults()
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var storeOpts []store.Option
	if o.ids != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(o.ids))
	}
	st, err := store.Open(resolvePath(root, project.Store.Path), storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sites := make(map[string]string, len(project.DataDocsSites))
	for name, site := range project.DataDocsSites {
		sites[name] = resolvePath(root, site.BaseDirectory)
	}

	envLookup := config.EnvLookup(project.ConfigVariables)
	lookup := envLookup
	if o.lookup != nil {
		lookup = func(name string) (string, bool) {
			if v, ok := o.lookup(name); ok {
				return v, true
			}
			return envLookup(name)
		}
	}

	actions := o.actions
	if actions == nil {
		actions = action.NewRegistry()
	}

	c := &Context{
		root:    root,
		project: project,
		store:   st,
		actions: actions,
		logger:  logger,
		lookup:  lookup,
		sites:   sites,
	}
	c.runner = checkpoint.NewRunner(checkpoint.Options{
		Catalog: storeCatalog{c},
		Actions: actions,
		Deps: action.Deps{
			Store:      st,
			Sites:      sites,
			HTTPClient: o.httpClient,
			NewBackOff: o.newBackOff,
			Logger:     logger,
		},
		Lookup:  lookup,
		Clock:   o.clock,
		Metrics: checkpoint.NewMetrics(o.registry),
		Logger:  logger,
	})
	return c, nil
}

// Close closes the store.
func (c *Context) Close() error {
	return c.store.Close()
}

// Root returns the project root.
func (c *Context) Root() string { return c.root }

// Project returns the project config in effect.
func (c *Context) Project() *ProjectConfig { return c.project }

// Store returns the metadata store.
func (c *Context) Store() *store.Store { return c.store }

// Sites returns data docs site base directories by name.
func (c *Context) Sites() map[string]string { return c.sites }

// storeCatalog serves the runner from the store.
type storeCatalog struct {
	c *Context
}

func (s storeCatalog) Checkpoint(ctx context.Context, name string) (*config.CheckpointConfig, error) {
	return s.c.store.GetCheckpoint(ctx, name)
}

func (s storeCatalog) Datasource(ctx context.Context, name string) (*datasource.Datasource, error) {
	return s.c.GetDatasource(ctx, name)
}

func (s storeCatalog) Suite(ctx context.Context, name string) (*expectation.Suite, error) {
	return s.c.store.GetSuite(ctx, name)
}
