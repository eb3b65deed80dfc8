// Package docsite loads and validates the declarative site configuration
// consumed by the external documentation generator. labrunner never renders
// docs itself: it checks the nav tree, the theme palettes and the markdown
// extension toggles, verifies that referenced documents and cross-links
// exist, and passes build/serve through to the generator binary.
package docsite

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Site is the full site configuration in the generator's own schema.
type Site struct {
	Title       string     `yaml:"site_name"`
	Description string     `yaml:"site_description,omitempty"`
	BaseURL     string     `yaml:"site_url,omitempty"`
	DocsDir     string     `yaml:"docs_dir,omitempty"`
	Theme       Theme      `yaml:"theme,omitempty"`
	Markdown    Extensions `yaml:"markdown_extensions,omitempty"`
	Nav         []NavEntry `yaml:"nav,omitempty"`

	// Set by Load, not part of the site file.
	Path      string `yaml:"-"` // site file location
	Generator string `yaml:"-"` // external generator binary
}

// Theme selects the generator theme and its palettes.
type Theme struct {
	Name     string   `yaml:"name,omitempty"`
	Features []string `yaml:"features,omitempty"`
	Palettes Palettes `yaml:"palette,omitempty"`
}

// Palettes accepts the generator's two palette forms: a single mapping or a
// list of scheme mappings (light/dark with toggles).
type Palettes []Palette

// Palette is one color scheme.
type Palette struct {
	Scheme  string `yaml:"scheme,omitempty"`
	Primary string `yaml:"primary,omitempty"`
	Accent  string `yaml:"accent,omitempty"`
	Toggle  Toggle `yaml:"toggle,omitempty"`
}

// Toggle is the control that switches to the other palette.
type Toggle struct {
	Icon string `yaml:"icon,omitempty"`
	Name string `yaml:"name,omitempty"`
}

func (p *Palettes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var single Palette
		if err := node.Decode(&single); err != nil {
			return err
		}
		*p = Palettes{single}
		return nil
	case yaml.SequenceNode:
		var many []Palette
		if err := node.Decode(&many); err != nil {
			return err
		}
		*p = many
		return nil
	default:
		return fmt.Errorf("line %d: palette must be a mapping or a list", node.Line)
	}
}

// Extension is one markdown extension toggle, optionally with options
// (for example toc with permalink).
type Extension struct {
	Name    string
	Options map[string]any
}

// Extensions preserves the declared extension order.
type Extensions []Extension

func (e *Extensions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: markdown_extensions must be a list", node.Line)
	}

	out := make(Extensions, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, Extension{Name: item.Value})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return fmt.Errorf("line %d: extension entry must have exactly one key", item.Line)
			}
			var options map[string]any
			if err := item.Content[1].Decode(&options); err != nil {
				return fmt.Errorf("line %d: extension options: %w", item.Line, err)
			}
			out = append(out, Extension{Name: item.Content[0].Value, Options: options})
		default:
			return fmt.Errorf("line %d: extension entry must be a name or a name with options", item.Line)
		}
	}
	*e = out
	return nil
}

// Enabled reports whether an extension is declared.
func (e Extensions) Enabled(name string) bool {
	for _, ext := range e {
		if ext.Name == name {
			return true
		}
	}
	return false
}

// NavEntry is one navigation node. A leaf carries a document path; a section
// carries children. The generator accepts three YAML forms:
//
//	- index.md                  bare path, title derived from the filename
//	- Home: index.md            titled leaf
//	- Guide:                    titled section with nested entries
//	    - install.md
type NavEntry struct {
	Title    string
	DocPath  string
	Children []NavEntry
}

// IsSection reports whether the entry groups children instead of pointing at
// a document.
func (n NavEntry) IsSection() bool { return len(n.Children) > 0 }

func (n *NavEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		n.DocPath = node.Value
		n.Title = TitleFromPath(node.Value)
		return nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: nav entry must have exactly one title", node.Line)
		}
		key, value := node.Content[0], node.Content[1]
		n.Title = key.Value

		switch value.Kind {
		case yaml.ScalarNode:
			n.DocPath = value.Value
			return nil
		case yaml.SequenceNode:
			return value.Decode(&n.Children)
		default:
			return fmt.Errorf("line %d: nav entry %q must map to a path or a list", value.Line, key.Value)
		}

	default:
		return fmt.Errorf("line %d: nav entry must be a path or a title mapping", node.Line)
	}
}

// Leaf is a flattened nav document reference.
type Leaf struct {
	Title   string
	DocPath string
	Trail   string // breadcrumb, "Guide > Install"
}

// Leaves flattens the nav tree into document references in declaration
// order.
func (s *Site) Leaves() []Leaf {
	var out []Leaf
	var walk func(entries []NavEntry, trail []string)
	walk = func(entries []NavEntry, trail []string) {
		for _, entry := range entries {
			if entry.IsSection() {
				walk(entry.Children, append(trail, entry.Title))
				continue
			}
			if entry.DocPath == "" {
				continue
			}
			out = append(out, Leaf{
				Title:   entry.Title,
				DocPath: entry.DocPath,
				Trail:   strings.Join(append(trail, entry.Title), " > "),
			})
		}
	}
	walk(s.Nav, nil)
	return out
}

var titleCaser = cases.Title(language.English)

// TitleFromPath derives a nav title from a document path: "user-guide/getting_started.md"
// becomes "Getting Started".
func TitleFromPath(docPath string) string {
	base := path.Base(docPath)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return titleCaser.String(base)
}
