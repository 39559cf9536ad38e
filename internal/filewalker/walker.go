package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultExtensions lists the file types treated as item text dumps.
var DefaultExtensions = []string{".txt"}

// Walker discovers item text dumps under a directory.
type Walker struct {
	extensions map[string]bool
}

// NewWalker creates a Walker for the given extensions, or DefaultExtensions
// when none are given. Extensions are matched case-insensitively.
func NewWalker(extensions ...string) *Walker {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	w := &Walker{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = true
	}
	return w
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path string
	Ext  string
}

// Walk discovers all matching files under root, sorted by path.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !w.extensions[ext] {
			return nil
		}

		entries = append(entries, FileEntry{Path: path, Ext: ext})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// ReadFile returns the content of a discovered file.
func (w *Walker) ReadFile(entry FileEntry) (string, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", entry.Path, err)
	}
	return string(data), nil
}
