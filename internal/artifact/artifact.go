// Package artifact persists and restores the fitted recommendation model:
// the vectorizer state and weight matrix as gob blobs, and the restaurant
// index and profiles as JSON documents.
//
// Loading is all-or-nothing. A missing or corrupt file, or any shape
// mismatch between the loaded pieces, fails with ErrArtifactLoad; partial
// state is never returned, because a matrix paired with the wrong index
// would silently compute wrong similarities.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/forkcast/forkcast/internal/profile"
	"github.com/forkcast/forkcast/internal/tfidf"
)

// ErrArtifactLoad indicates a persisted artifact is missing, corrupt, or
// inconsistent with its companions. Fatal to startup; the model must be
// rebuilt.
var ErrArtifactLoad = errors.New("artifact load error")

// artifact file names within the model directory
const (
	vectorizerFile = "tfidf_vectorizer.gob"
	matrixFile     = "tfidf_matrix.gob"
	indexFile      = "restaurant_index.json"
	profilesFile   = "restaurant_profiles.json"
)

// Model is the complete set of persisted artifacts.
type Model struct {
	Vectorizer *tfidf.Vectorizer
	Matrix     *tfidf.Matrix
	Index      map[string]int
	Profiles   []profile.Profile
}

// Save writes all model artifacts into dir, creating it if needed.
func Save(dir string, m *Model) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	if err := writeGob(filepath.Join(dir, vectorizerFile), m.Vectorizer); err != nil {
		return fmt.Errorf("failed to save vectorizer: %w", err)
	}
	if err := writeGob(filepath.Join(dir, matrixFile), m.Matrix); err != nil {
		return fmt.Errorf("failed to save matrix: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, indexFile), m.Index); err != nil {
		return fmt.Errorf("failed to save restaurant index: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, profilesFile), m.Profiles); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}

	slog.Debug("Saved model artifacts", "dir", dir,
		"restaurants", m.Matrix.Rows, "vocabulary", m.Matrix.Cols)
	return nil
}

// Load restores a model from dir. The restored model reproduces
// bit-identical similarity results to the state that was saved.
func Load(dir string) (*Model, error) {
	m := &Model{Vectorizer: &tfidf.Vectorizer{}, Matrix: &tfidf.Matrix{}}

	if err := readGob(filepath.Join(dir, vectorizerFile), m.Vectorizer); err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", ErrArtifactLoad, err)
	}
	if err := readGob(filepath.Join(dir, matrixFile), m.Matrix); err != nil {
		return nil, fmt.Errorf("%w: matrix: %v", ErrArtifactLoad, err)
	}
	if err := readJSON(filepath.Join(dir, indexFile), &m.Index); err != nil {
		return nil, fmt.Errorf("%w: restaurant index: %v", ErrArtifactLoad, err)
	}
	if err := readJSON(filepath.Join(dir, profilesFile), &m.Profiles); err != nil {
		return nil, fmt.Errorf("%w: profiles: %v", ErrArtifactLoad, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactLoad, err)
	}

	slog.Debug("Loaded model artifacts", "dir", dir,
		"restaurants", m.Matrix.Rows, "vocabulary", m.Matrix.Cols)
	return m, nil
}

// validate cross-checks the shapes of the loaded pieces. The artifacts are
// versionless, so shape consistency is the only defense against loading a
// matrix with a stale index or vocabulary.
func (m *Model) validate() error {
	v, mat := m.Vectorizer, m.Matrix

	if len(v.Terms) != len(v.IDF) || len(v.Terms) != len(v.Vocabulary) {
		return fmt.Errorf("vectorizer state inconsistent: %d terms, %d idf weights, %d vocabulary entries",
			len(v.Terms), len(v.IDF), len(v.Vocabulary))
	}
	if mat.Cols != len(v.Terms) {
		return fmt.Errorf("matrix has %d columns but vocabulary has %d terms", mat.Cols, len(v.Terms))
	}
	if mat.Rows != len(m.Index) {
		return fmt.Errorf("matrix has %d rows but index has %d restaurants", mat.Rows, len(m.Index))
	}
	if len(mat.RowPtr) != mat.Rows+1 || len(mat.ColIdx) != len(mat.Val) {
		return fmt.Errorf("matrix storage inconsistent: %d row offsets for %d rows, %d columns for %d values",
			len(mat.RowPtr), mat.Rows, len(mat.ColIdx), len(mat.Val))
	}

	// row ids must be exactly 0..N-1 with no gaps or repeats
	seen := make([]bool, mat.Rows)
	for name, row := range m.Index {
		if row < 0 || row >= mat.Rows {
			return fmt.Errorf("restaurant %q has row id %d outside 0..%d", name, row, mat.Rows-1)
		}
		if seen[row] {
			return fmt.Errorf("row id %d assigned to more than one restaurant", row)
		}
		seen[row] = true
	}
	return nil
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(v)
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
