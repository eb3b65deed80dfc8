package docsite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m := NewManifest()
	m.Docs["index.md"] = Fingerprint(nil, []byte("# Home\n"))
	m.Docs["guide/install.md"] = Fingerprint([]byte("title: Install\n"), []byte("# Install\n"))
	require.NoError(t, m.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, m.Docs, loaded.Docs)
	require.False(t, loaded.GeneratedAt.IsZero())
}

func TestLoadManifestMissingFile(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestLoadManifestInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o640))

	_, err := LoadManifest(path)
	require.Error(t, err)
}

func TestManifestDiff(t *testing.T) {
	m := NewManifest()
	m.Docs["a.md"] = "fp-a"
	m.Docs["b.md"] = "fp-b"
	m.Docs["c.md"] = "fp-c"

	diff := m.Diff(map[string]string{
		"a.md": "fp-a",       // unchanged
		"b.md": "fp-b-prime", // changed
		"d.md": "fp-d",       // added
	})

	require.Equal(t, []string{"d.md"}, diff.Added)
	require.Equal(t, []string{"b.md"}, diff.Changed)
	require.Equal(t, []string{"c.md"}, diff.Removed)
	require.False(t, diff.Empty())

	require.True(t, m.Diff(map[string]string{"a.md": "fp-a", "b.md": "fp-b", "c.md": "fp-c"}).Empty())
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := Fingerprint(nil, []byte("# Home\n"))
	b := Fingerprint(nil, []byte("# Home\n\nEdited.\n"))
	require.NotEqual(t, a, b)
	require.Equal(t, a, Fingerprint(nil, []byte("# Home\n")))

	// Frontmatter participates in the fingerprint.
	withFM := Fingerprint([]byte("title: Home\n"), []byte("# Home\n"))
	require.NotEqual(t, a, withFM)
}
