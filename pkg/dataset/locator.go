package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cg-gdsc/gdsc8/pkg/store"
	"github.com/pkg/errors"
)

const (
	// KindJobs holds job description files.
	KindJobs = "jobs"
	// KindTrainings holds training program files.
	KindTrainings = "trainings"

	// DefaultPrimary is tried first.
	DefaultPrimary = "./data"
	// DefaultFallback is tried when the primary root lacks the dataset.
	DefaultFallback = "../data"
)

// Document is a markdown dataset file.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Locator finds dataset directories under a primary root, falling back to a second root.
type Locator struct {
	Primary  string
	Fallback string
}

// NewLocator creates a locator. Empty roots use the defaults.
func NewLocator(primary, fallback string) (locator *Locator) {
	if primary == "" {
		primary = DefaultPrimary
	}
	if fallback == "" {
		fallback = DefaultFallback
	}
	locator = &Locator{
		Primary:  primary,
		Fallback: fallback,
	}
	return locator
}

// JobPaths returns the sorted job description files.
func (l *Locator) JobPaths() (paths []string, err error) {
	paths, err = l.Paths(KindJobs)
	return paths, err
}

// TrainingPaths returns the sorted training program files.
func (l *Locator) TrainingPaths() (paths []string, err error) {
	paths, err = l.Paths(KindTrainings)
	return paths, err
}

// Dir resolves the directory holding a dataset kind.
func (l *Locator) Dir(kind string) (dir string, err error) {
	dir = filepath.Join(l.Primary, kind)
	if isDir(dir) {
		return dir, err
	}

	dir = filepath.Join(l.Fallback, kind)
	if isDir(dir) {
		return dir, err
	}

	err = &store.NotFoundError{Path: dir, Kind: kind + " directory"}
	return dir, err
}

// Paths returns the sorted .md files of a dataset kind.
func (l *Locator) Paths(kind string) (paths []string, err error) {
	var dir string
	dir, err = l.Dir(kind)
	if err != nil {
		return paths, err
	}

	var entries []os.DirEntry
	entries, err = os.ReadDir(dir)
	if err != nil {
		err = errors.Wrapf(err, "failed to list %s directory: %s", kind, dir)
		return paths, err
	}

	paths = make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return paths, err
}

// Load reads every markdown file of a dataset kind.
func (l *Locator) Load(kind string) (docs []Document, err error) {
	var paths []string
	paths, err = l.Paths(kind)
	if err != nil {
		return docs, err
	}

	docs = make([]Document, 0, len(paths))
	for _, path := range paths {
		var content string
		content, err = store.LoadFileContent(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to load %s document", kind)
			return nil, err
		}

		docs = append(docs, Document{
			ID:      strings.TrimSuffix(filepath.Base(path), ".md"),
			Path:    path,
			Content: content,
		})
	}

	return docs, err
}

func isDir(path string) (ok bool) {
	info, err := os.Stat(path)
	ok = err == nil && info.IsDir()
	return ok
}
