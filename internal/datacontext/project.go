package datacontext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joseignaciorc/great-expectations/internal/action"
)

// ProjectFile is the project config file name inside a project root.
const ProjectFile = "gx.yml"

// Defaults applied when gx.yml leaves them out.
const (
	DefaultStorePath   = "gx.db"
	DefaultSiteName    = "local_site"
	DefaultSiteBaseDir = "data_docs/local_site"
)

// ProjectConfig is the content of gx.yml.
type ProjectConfig struct {
	Store            StoreConfig           `yaml:"store"`
	DataDocsSites    map[string]SiteConfig `yaml:"data_docs_sites"`
	ConfigVariables  map[string]string     `yaml:"config_variables"`
	PluginsDirectory string                `yaml:"plugins_directory"`
}

// StoreConfig locates the SQLite metadata store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SiteConfig is one data docs site.
type SiteConfig struct {
	BaseDirectory string `yaml:"base_directory"`
}

// DefaultProjectConfig returns the config of a project without gx.yml.
func DefaultProjectConfig() *ProjectConfig {
	p := &ProjectConfig{}
	p.applyDefaults()
	return p
}

func (p *ProjectConfig) applyDefaults() {
	if p.Store.Path == "" {
		p.Store.Path = DefaultStorePath
	}
	if len(p.DataDocsSites) == 0 {
		p.DataDocsSites = map[string]SiteConfig{DefaultSiteName: {BaseDirectory: DefaultSiteBaseDir}}
	}
	if p.ConfigVariables == nil {
		p.ConfigVariables = map[string]string{}
	}
}

// LoadProjectConfig reads <root>/gx.yml. A missing file yields defaults.
// Unknown keys are rejected.
func LoadProjectConfig(root string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(root, ProjectFile))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultProjectConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ProjectFile, err)
	}

	var p ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", ProjectFile, err)
	}
	for name, site := range p.DataDocsSites {
		if site.BaseDirectory == "" {
			return nil, fmt.Errorf("parse %s: data_docs_sites.%s: base_directory is required", ProjectFile, name)
		}
		if action.IsReservedResultKey(name) {
			return nil, fmt.Errorf("parse %s: data_docs_sites.%s: site name is reserved", ProjectFile, name)
		}
	}
	p.applyDefaults()
	return &p, nil
}

// resolvePath anchors a relative path at root.
func resolvePath(root, path string) string {
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
