package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Entry is one walked path, relative to the walk root and slash-separated.
type Entry struct {
	Path  string
	IsDir bool
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk yields every file and directory below root in lexical order, skipping .git, .jj and
// any entry whose base name matches one of the ignore patterns. The root itself is not yielded.
func (w *Walker) Walk(root string, ignores []string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}

			if skip, action := w.shouldSkip(d, ignores); skip {
				return action
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			if !yield(Entry{Path: filepath.ToSlash(rel), IsDir: d.IsDir()}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// WalkFiles yields only the files below root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for e := range w.Walk(root, ignores) {
			if e.IsDir {
				continue
			}
			if !yield(e.Path) {
				return
			}
		}
	}
}

// shouldSkip reports whether d is excluded and the WalkDir action that excludes it.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj") {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}

	return false, nil
}
