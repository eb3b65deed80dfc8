package docsite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/labrunner/internal/config"
)

const sampleSite = `
site_name: Sample Lab
site_description: Experiments and how to run them
site_url: https://docs.example.org/lab/
docs_dir: docs
theme:
  name: material
  features:
    - navigation.tabs
    - search.suggest
  palette:
    - scheme: default
      primary: teal
      accent: teal
      toggle:
        icon: material/brightness-7
        name: Switch to dark mode
    - scheme: slate
      primary: teal
      toggle:
        icon: material/brightness-4
        name: Switch to light mode
markdown_extensions:
  - admonition
  - pymdownx.superfences
  - toc:
      permalink: true
nav:
  - Home: index.md
  - User Guide:
      - Installation: guide/install.md
      - guide/getting-started.md
  - About: about.md
`

func TestSiteUnmarshal(t *testing.T) {
	var site Site
	require.NoError(t, yaml.Unmarshal([]byte(sampleSite), &site))

	require.Equal(t, "Sample Lab", site.Title)
	require.Equal(t, "https://docs.example.org/lab/", site.BaseURL)
	require.Equal(t, "material", site.Theme.Name)
	require.Equal(t, []string{"navigation.tabs", "search.suggest"}, site.Theme.Features)

	require.Len(t, site.Theme.Palettes, 2)
	require.Equal(t, "default", site.Theme.Palettes[0].Scheme)
	require.Equal(t, "teal", site.Theme.Palettes[0].Primary)
	require.Equal(t, "material/brightness-7", site.Theme.Palettes[0].Toggle.Icon)
	require.Equal(t, "slate", site.Theme.Palettes[1].Scheme)

	require.Len(t, site.Markdown, 3)
	require.Equal(t, "admonition", site.Markdown[0].Name)
	require.Nil(t, site.Markdown[0].Options)
	require.Equal(t, "toc", site.Markdown[2].Name)
	require.Equal(t, true, site.Markdown[2].Options["permalink"])
	require.True(t, site.Markdown.Enabled("pymdownx.superfences"))
	require.False(t, site.Markdown.Enabled("footnotes"))
}

func TestSinglePaletteMapping(t *testing.T) {
	input := `
theme:
  name: material
  palette:
    scheme: default
    primary: indigo
`
	var site Site
	require.NoError(t, yaml.Unmarshal([]byte(input), &site))
	require.Len(t, site.Theme.Palettes, 1)
	require.Equal(t, "indigo", site.Theme.Palettes[0].Primary)
}

func TestNavForms(t *testing.T) {
	var site Site
	require.NoError(t, yaml.Unmarshal([]byte(sampleSite), &site))

	require.Len(t, site.Nav, 3)
	require.Equal(t, "Home", site.Nav[0].Title)
	require.Equal(t, "index.md", site.Nav[0].DocPath)
	require.False(t, site.Nav[0].IsSection())

	guide := site.Nav[1]
	require.True(t, guide.IsSection())
	require.Equal(t, "User Guide", guide.Title)
	require.Len(t, guide.Children, 2)
	require.Equal(t, "Installation", guide.Children[0].Title)

	// Bare path derives its title from the filename.
	require.Equal(t, "guide/getting-started.md", guide.Children[1].DocPath)
	require.Equal(t, "Getting Started", guide.Children[1].Title)
}

func TestNavRejectsMultiKeyEntries(t *testing.T) {
	input := "nav:\n  - Home: index.md\n    About: about.md\n"
	var site Site
	require.Error(t, yaml.Unmarshal([]byte(input), &site))
}

func TestLeavesFlattenInOrder(t *testing.T) {
	var site Site
	require.NoError(t, yaml.Unmarshal([]byte(sampleSite), &site))

	leaves := site.Leaves()
	require.Len(t, leaves, 4)
	require.Equal(t, "index.md", leaves[0].DocPath)
	require.Equal(t, "guide/install.md", leaves[1].DocPath)
	require.Equal(t, "guide/getting-started.md", leaves[2].DocPath)
	require.Equal(t, "about.md", leaves[3].DocPath)
	require.Equal(t, "User Guide > Installation", leaves[1].Trail)
}

func TestTitleFromPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"index.md", "Index"},
		{"guide/getting-started.md", "Getting Started"},
		{"api/cfg_reference.md", "Cfg Reference"},
		{"07-custom_environments.md", "07 Custom Environments"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, TitleFromPath(tc.in), "TitleFromPath(%q)", tc.in)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "mkdocs.yml")
	require.NoError(t, os.WriteFile(sitePath, []byte("site_name: Lab\n"), 0o640))

	site, err := Load(sitePath)
	require.NoError(t, err)
	require.Equal(t, "Lab", site.Title)
	require.Equal(t, "docs", site.DocsDir)
	require.Equal(t, DefaultGenerator, site.Generator)
	require.Equal(t, filepath.Join(dir, "docs"), site.DocsRoot())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestFromConfigOverridesGenerator(t *testing.T) {
	dir := t.TempDir()
	sitePath := filepath.Join(dir, "site.yml")
	require.NoError(t, os.WriteFile(sitePath, []byte("site_name: Lab\n"), 0o640))

	cfg := &config.Config{}
	cfg.Docs.Config = sitePath
	cfg.Docs.Generator = "mkdocs-insiders"

	site, err := FromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, "mkdocs-insiders", site.Generator)
}
