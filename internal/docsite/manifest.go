package docsite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// DefaultManifestFile is the recorded fingerprint manifest location.
const DefaultManifestFile = ".labrunner/docs-manifest.json"

// Manifest records a fingerprint per document. Checking the current tree
// against it reports which docs changed since the manifest was written.
type Manifest struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Docs        map[string]string `json:"docs"`
}

// NewManifest builds an empty manifest stamped now.
func NewManifest() *Manifest {
	return &Manifest{GeneratedAt: time.Now(), Docs: map[string]string{}}
}

// LoadManifest reads a manifest file. A missing file is not an error: it
// returns nil so callers can skip drift reporting.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WorkspaceError("read manifest", err).WithContext("path", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.CategoryDocs, errors.SeverityError, "manifest is not valid JSON").
			WithContext("path", path)
	}
	if m.Docs == nil {
		m.Docs = map[string]string{}
	}
	return &m, nil
}

// Save writes the manifest as indented JSON, creating the parent directory
// if needed.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.InternalError("marshal manifest", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WorkspaceError("create manifest dir", err).WithContext("path", dir)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o640); err != nil {
		return errors.WorkspaceError("write manifest", err).WithContext("path", path)
	}
	return nil
}

// ManifestDiff lists documents by how they moved relative to the manifest.
type ManifestDiff struct {
	Added   []string // on disk, not in the manifest
	Changed []string // fingerprint differs
	Removed []string // in the manifest, gone from disk
}

// Empty reports whether nothing drifted.
func (d ManifestDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// Diff compares current fingerprints against the recorded ones. All three
// lists come back sorted.
func (m *Manifest) Diff(current map[string]string) ManifestDiff {
	var diff ManifestDiff
	for doc, fingerprint := range current {
		recorded, ok := m.Docs[doc]
		switch {
		case !ok:
			diff.Added = append(diff.Added, doc)
		case recorded != fingerprint:
			diff.Changed = append(diff.Changed, doc)
		}
	}
	for doc := range m.Docs {
		if _, ok := current[doc]; !ok {
			diff.Removed = append(diff.Removed, doc)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Removed)
	return diff
}

// Fingerprint computes a document's content fingerprint from its split
// parts. Callers that cannot split pass the whole content as body.
func Fingerprint(frontmatter, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(string(frontmatter), string(body))
}
