package docsite

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// htmlRef is one link-bearing attribute found in a rendered page.
type htmlRef struct {
	URL  string
	Tag  string // a, img, script, link, source, video, audio
	Attr string // href or src
}

// VerifySite walks a rendered site tree and checks that every internal link
// and asset reference resolves inside it. It runs after a generator build;
// external URLs are not fetched.
func VerifySite(siteDir string) (*Report, error) {
	report := &Report{Root: siteDir}

	pages, err := discoverPages(siteDir)
	if err != nil {
		return nil, err
	}
	report.FilesTotal = len(pages)

	for _, page := range pages {
		refs, err := extractPageRefs(filepath.Join(siteDir, filepath.FromSlash(page)))
		if err != nil {
			report.add(page, SeverityError, "html-parse", "%v", err)
			continue
		}
		for _, ref := range refs {
			verifyRef(report, siteDir, page, ref)
		}
	}

	report.sortIssues()
	return report, nil
}

// verifyRef resolves one reference against the site tree.
func verifyRef(report *Report, siteDir, page string, ref htmlRef) {
	raw := ref.URL
	if raw == "" || strings.HasPrefix(raw, "#") {
		return
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(raw, prefix) {
			return
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		report.add(page, SeverityWarning, "internal-link", "unparseable URL %q in <%s %s>", raw, ref.Tag, ref.Attr)
		return
	}
	if u.Scheme != "" || u.Host != "" {
		return
	}
	target := u.Path
	if target == "" {
		return
	}
	if isOptionalGeneratedFile(target) {
		return
	}

	var resolved string
	if strings.HasPrefix(target, "/") {
		resolved = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		resolved = path.Clean(path.Join(path.Dir(page), target))
	}
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		report.add(page, SeverityError, "internal-link", "%q escapes the site dir", raw)
		return
	}

	full := filepath.Join(siteDir, filepath.FromSlash(resolved))
	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		if _, err := os.Stat(filepath.Join(full, "index.html")); err != nil {
			report.add(page, SeverityError, "internal-link",
				"%q resolves to a directory without index.html", raw)
		}
	case err != nil:
		report.add(page, SeverityError, "internal-link",
			"%q does not resolve (looked for %s)", raw, resolved)
	}
}

// discoverPages lists rendered HTML files as sorted slash-relative paths.
func discoverPages(siteDir string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(siteDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(siteDir, p)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WorkspaceError("walk site dir", err).WithContext("path", siteDir)
	}
	sort.Strings(pages)
	return pages, nil
}

// extractPageRefs parses one page and collects link-bearing attributes in
// document order.
func extractPageRefs(htmlPath string) ([]htmlRef, error) {
	f, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var refs []htmlRef
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := attrValue(n, "href"); href != "" {
					refs = append(refs, htmlRef{URL: href, Tag: n.Data, Attr: "href"})
				}
			case "img", "script", "source", "video", "audio":
				if src := attrValue(n, "src"); src != "" {
					refs = append(refs, htmlRef{URL: src, Tag: n.Data, Attr: "src"})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// isOptionalGeneratedFile matches outputs the generator only emits when the
// matching feature is enabled (feeds, search index, sitemap).
func isOptionalGeneratedFile(target string) bool {
	switch {
	case strings.HasSuffix(target, ".xml"),
		strings.HasSuffix(target, ".json"),
		strings.Contains(target, "sitemap"),
		strings.HasSuffix(target, "robots.txt"):
		return true
	}
	return false
}
