package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joseignaciorc/great-expectations/internal/config"
)

// DefaultGlobDirective selects every file below the base directory.
const DefaultGlobDirective = "**/*"

// defaultRegex applies when a filesystem connector has no default_regex.
var defaultRegex = config.RegexConfig{
	Pattern:    `(.+)\.csv`,
	GroupNames: []string{assetGroup},
}

const assetGroup = "data_asset_name"

// FilesystemConnector infers data assets from file paths: the
// data_asset_name capture group names the asset, the other groups become
// batch identifiers.
type FilesystemConnector struct {
	name       string
	datasource string
	baseDir    string
	glob       string
	re         *regexp.Regexp
	groups     []string
}

// NewFilesystemConnector builds a connector. A relative base_directory is
// resolved against root.
func NewFilesystemConnector(datasource, name string, cfg config.DataConnectorConfig, root string) (*FilesystemConnector, error) {
	rx := defaultRegex
	if cfg.DefaultRegex != nil {
		rx = *cfg.DefaultRegex
	}
	re, err := regexp.Compile("^(?:" + rx.Pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("data connector %q: default_regex: %w", name, err)
	}
	if re.NumSubexp() != len(rx.GroupNames) {
		return nil, fmt.Errorf("data connector %q: default_regex has %d groups, %d names", name, re.NumSubexp(), len(rx.GroupNames))
	}

	base := cfg.BaseDirectory
	if !filepath.IsAbs(base) {
		base = filepath.Join(root, base)
	}
	glob := cfg.GlobDirective
	if glob == "" {
		glob = DefaultGlobDirective
	}

	return &FilesystemConnector{
		name:       name,
		datasource: datasource,
		baseDir:    base,
		glob:       glob,
		re:         re,
		groups:     rx.GroupNames,
	}, nil
}

// Name returns the connector name.
func (c *FilesystemConnector) Name() string { return c.name }

// BaseDirectory returns the resolved base directory.
func (c *FilesystemConnector) BaseDirectory() string { return c.baseDir }

type fileRef struct {
	rel string
	def BatchDefinition
}

// scan lists matching files, sorted by relative path.
func (c *FilesystemConnector) scan(ctx context.Context) ([]fileRef, error) {
	matches, err := doublestar.Glob(os.DirFS(c.baseDir), c.glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("data connector %q: glob %q: %w", c.name, c.glob, err)
	}
	sort.Strings(matches)

	var refs []fileRef
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sub := c.re.FindStringSubmatch(rel)
		if sub == nil {
			continue
		}
		def := BatchDefinition{
			DatasourceName:    c.datasource,
			DataConnectorName: c.name,
			BatchIdentifiers:  map[string]any{},
		}
		for i, g := range c.groups {
			if g == assetGroup {
				def.DataAssetName = sub[i+1]
			} else {
				def.BatchIdentifiers[g] = sub[i+1]
			}
		}
		if def.DataAssetName == "" {
			def.DataAssetName = "DEFAULT_ASSET_NAME"
		}
		refs = append(refs, fileRef{rel: rel, def: def})
	}
	return refs, nil
}

// Assets returns asset names with their batch counts.
func (c *FilesystemConnector) Assets(ctx context.Context) (map[string]int, error) {
	refs, err := c.scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, r := range refs {
		out[r.def.DataAssetName]++
	}
	return out, nil
}

// GetBatch loads the batch selected by req.
func (c *FilesystemConnector) GetBatch(ctx context.Context, req *config.BatchRequest) (*Batch, error) {
	refs, err := c.scan(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []fileRef
	for _, r := range refs {
		if r.def.DataAssetName != req.DataAssetName {
			continue
		}
		if req.DataConnectorQuery != nil && !matchFilter(r.def.BatchIdentifiers, req.DataConnectorQuery.BatchFilterParameters) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: asset %q in data connector %q", ErrNoBatch, req.DataAssetName, c.name)
	}

	idx, err := selectIndex(req.DataConnectorQuery, len(candidates))
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", req.DataAssetName, err)
	}
	ref := candidates[idx]

	path := filepath.Join(c.baseDir, filepath.FromSlash(ref.rel))
	data, err := ReadCSVFile(path)
	if err != nil {
		return nil, err
	}
	return newBatch(ref.def, map[string]any{"path": path}, data)
}

func matchFilter(ids map[string]any, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := ids[k]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
