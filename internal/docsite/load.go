package docsite

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
)

const (
	// DefaultSiteFile is where labrunner looks for the site configuration.
	DefaultSiteFile = "docs/site.yaml"
	// DefaultGenerator is the external generator binary.
	DefaultGenerator = "mkdocs"
	// DefaultSiteDir is where the generator writes the rendered site.
	DefaultSiteDir = "site"
)

// Load reads and normalizes a site configuration file.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.DocsConfigError(path, err)
	}

	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, errors.DocsConfigError(path, err)
	}

	site.Path = path
	site.Generator = DefaultGenerator
	if site.DocsDir == "" {
		site.DocsDir = "docs"
	}
	return &site, nil
}

// FromConfig loads the site configuration referenced by the main config.
func FromConfig(cfg *config.Config) (*Site, error) {
	path := cfg.Docs.Config
	if path == "" {
		path = DefaultSiteFile
	}

	site, err := Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Docs.Generator != "" {
		site.Generator = cfg.Docs.Generator
	}
	return site, nil
}

// DocsRoot resolves the docs dir against the site file's directory, the way
// the generator does.
func (s *Site) DocsRoot() string {
	if filepath.IsAbs(s.DocsDir) {
		return s.DocsDir
	}
	return filepath.Join(filepath.Dir(s.Path), s.DocsDir)
}

// SiteDir resolves the rendered output directory for a config, falling back
// to the generator default next to the site file.
func SiteDir(cfg *config.Config) string {
	if cfg != nil && cfg.Docs.SiteDir != "" {
		return cfg.Docs.SiteDir
	}
	return DefaultSiteDir
}

// ManifestPath resolves the fingerprint manifest location for a config.
func ManifestPath(cfg *config.Config) string {
	if cfg != nil && cfg.Docs.Manifest != "" {
		return cfg.Docs.Manifest
	}
	return DefaultManifestFile
}
