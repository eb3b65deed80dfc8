package docsite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeRendered lays out a fake generator output tree.
func writeRendered(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o640))
	}
	return dir
}

func TestVerifyCleanSite(t *testing.T) {
	siteDir := writeRendered(t, map[string]string{
		"index.html": `<html><body>
			<a href="guide/">Guide</a>
			<a href="/about/index.html">About</a>
			<a href="https://example.org/">External</a>
			<a href="#top">Anchor</a>
			<a href="mailto:lab@example.org">Mail</a>
			<img src="assets/logo.png">
			<link href="assets/style.css" rel="stylesheet">
			<script src="search/search_index.json"></script>
		</body></html>`,
		"guide/index.html": `<html><body><a href="../index.html">Home</a></body></html>`,
		"about/index.html": `<html><body></body></html>`,
		"assets/logo.png":  "png bytes",
		"assets/style.css": "body {}",
	})

	report, err := VerifySite(siteDir)
	require.NoError(t, err)
	require.Empty(t, report.Issues)
	require.Equal(t, 3, report.FilesTotal)
}

func TestVerifyBrokenLinks(t *testing.T) {
	siteDir := writeRendered(t, map[string]string{
		"index.html": `<html><body>
			<a href="missing.html">Missing</a>
			<a href="empty-dir/">No index</a>
			<img src="../outside.png">
		</body></html>`,
		"empty-dir/placeholder.txt": "",
	})

	report, err := VerifySite(siteDir)
	require.NoError(t, err)
	require.True(t, report.HasErrors())

	broken := byRule(report, "internal-link")
	require.Len(t, broken, 3)

	var messages string
	for _, issue := range broken {
		require.Equal(t, "index.html", issue.Path)
		messages += issue.Message + "\n"
	}
	require.Contains(t, messages, "missing.html")
	require.Contains(t, messages, "without index.html")
	require.Contains(t, messages, "escapes the site dir")
}

func TestVerifySkipsOptionalGeneratedFiles(t *testing.T) {
	siteDir := writeRendered(t, map[string]string{
		"index.html": `<html><body>
			<a href="sitemap.xml">Sitemap</a>
			<a href="feed.xml">Feed</a>
			<a href="robots.txt">Robots</a>
			<script src="search/search_index.json"></script>
		</body></html>`,
	})

	report, err := VerifySite(siteDir)
	require.NoError(t, err)
	require.Empty(t, report.Issues)
}

func TestVerifyRelativeResolution(t *testing.T) {
	siteDir := writeRendered(t, map[string]string{
		"a/b/page.html": `<html><body><a href="../../index.html">Root</a></body></html>`,
		"index.html":    `<html><body></body></html>`,
	})

	report, err := VerifySite(siteDir)
	require.NoError(t, err)
	require.Empty(t, report.Issues)
}
