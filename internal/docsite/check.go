package docsite

import (
	"bytes"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/frontmatter"
	"git.home.luguber.info/inful/labrunner/internal/util/sets"
)

// Checker validates a site configuration against the docs on disk. It is
// analysis only: no document is ever modified, and all findings of a pass
// are collected before reporting.
type Checker struct {
	site     *Site
	manifest *Manifest
}

// NewChecker builds a checker for a loaded site.
func NewChecker(site *Site) *Checker {
	return &Checker{site: site}
}

// WithManifest enables fingerprint drift reporting against a recorded
// manifest.
func (c *Checker) WithManifest(m *Manifest) *Checker {
	c.manifest = m
	return c
}

// Check runs every rule over the nav tree and the docs dir.
func (c *Checker) Check() (*Report, error) {
	root := c.site.DocsRoot()
	report := &Report{Root: root}

	docs, err := discoverDocs(root)
	if err != nil {
		return nil, err
	}
	report.FilesTotal = len(docs)

	onDisk := sets.New(docs...)

	leaves := c.site.Leaves()
	navTitle := make(map[string]string, len(leaves))
	seen := make(map[string]string, len(leaves))
	inNav := sets.New[string]()
	for _, leaf := range leaves {
		docPath := path.Clean(leaf.DocPath)
		if prev, dup := seen[docPath]; dup {
			report.add(docPath, SeverityWarning, "nav-duplicate",
				"referenced by both %q and %q", prev, leaf.Trail)
		} else {
			seen[docPath] = leaf.Trail
			navTitle[docPath] = leaf.Title
		}
		inNav.Add(docPath)

		if !onDisk.Has(docPath) {
			report.add(docPath, SeverityError, "nav-path-exists",
				"nav entry %q references a missing document", leaf.Trail)
		}
	}

	for _, doc := range docs {
		if !inNav.Has(doc) {
			report.add(doc, SeverityWarning, "orphan-doc",
				"document exists but is not referenced by the nav")
		}
	}

	fingerprints := make(map[string]string, len(docs))
	for _, doc := range docs {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(doc)))
		if err != nil {
			return nil, errors.WorkspaceError("read document", err).
				WithContext("path", doc)
		}
		fingerprints[doc] = c.checkDoc(report, onDisk, doc, data, navTitle[doc])
	}

	report.Fingerprints = fingerprints

	if c.manifest != nil {
		diff := c.manifest.Diff(fingerprints)
		for _, doc := range diff.Changed {
			report.add(doc, SeverityInfo, "manifest-drift", "content changed since the manifest was written")
		}
		for _, doc := range diff.Added {
			report.add(doc, SeverityInfo, "manifest-drift", "not recorded in the manifest")
		}
		for _, doc := range diff.Removed {
			report.add(doc, SeverityWarning, "manifest-drift", "recorded in the manifest but missing on disk")
		}
	}

	report.sortIssues()
	return report, nil
}

// checkDoc runs the per-document rules and returns the doc's fingerprint.
func (c *Checker) checkDoc(report *Report, onDisk sets.Set[string], doc string, data []byte, navTitle string) string {
	fm, body, _, err := frontmatter.Split(data)
	if err != nil {
		report.add(doc, SeverityError, "frontmatter", "%v", err)
		return Fingerprint(nil, data)
	}
	if len(fm) > 0 {
		if _, err := frontmatter.ParseYAML(fm); err != nil {
			report.add(doc, SeverityError, "frontmatter", "invalid YAML frontmatter: %v", err)
		}
	}

	root := goldmark.New().Parser().Parse(gmtext.NewReader(body))

	if navTitle != "" {
		if heading := firstHeading(root, body); heading != "" && heading != navTitle {
			report.add(doc, SeverityInfo, "title-mismatch",
				"first heading %q differs from nav title %q", heading, navTitle)
		}
	}

	for _, dest := range extractDestinations(root) {
		c.checkLink(report, onDisk, doc, dest)
	}

	return Fingerprint(fm, body)
}

// checkLink validates one markdown destination. Only relative references are
// resolved; external URLs, anchors and site-absolute paths belong to the
// generator.
func (c *Checker) checkLink(report *Report, onDisk sets.Set[string], doc, dest string) {
	u, err := url.Parse(dest)
	if err != nil {
		report.add(doc, SeverityWarning, "link-resolves", "unparseable link %q", dest)
		return
	}
	if u.Scheme != "" || u.Host != "" {
		return
	}
	target := u.Path
	if target == "" || strings.HasPrefix(target, "/") {
		return
	}

	resolved := path.Clean(path.Join(path.Dir(doc), target))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		report.add(doc, SeverityError, "link-resolves",
			"link %q escapes the docs dir", dest)
		return
	}

	if onDisk.Has(resolved) {
		return
	}
	// Directory links resolve to their index document.
	if strings.HasSuffix(target, "/") && onDisk.Has(path.Join(resolved, "index.md")) {
		return
	}
	if !strings.HasSuffix(resolved, ".md") {
		// Asset reference: anything on disk satisfies it.
		if _, err := os.Stat(filepath.Join(c.site.DocsRoot(), filepath.FromSlash(resolved))); err == nil {
			return
		}
	}
	report.add(doc, SeverityError, "link-resolves",
		"link %q does not resolve (looked for %s)", dest, resolved)
}

// discoverDocs walks the docs dir and returns every markdown file as a
// slash-separated relative path, sorted. Hidden files and directories are
// skipped.
func discoverDocs(root string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		docs = append(docs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WorkspaceError("walk docs dir", err).WithContext("path", root)
	}
	sort.Strings(docs)
	return docs, nil
}

// firstHeading returns the text of the first heading in the document.
func firstHeading(root gmast.Node, source []byte) string {
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if _, ok := n.(*gmast.Heading); ok {
			title = string(nodeText(n, source))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}

func nodeText(n gmast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.Write(nodeText(c, source))
	}
	return buf.Bytes()
}

// extractDestinations collects link and image destinations from a parsed
// document in source order.
func extractDestinations(root gmast.Node) []string {
	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			out = append(out, string(node.Destination))
		case *gmast.Image:
			out = append(out, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return out
}
