// Package walker discovers candidate files under a project root, applies
// include/exclude rules, and decides which files need (re)processing by
// comparing against the last known manifest state.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/localrag/localrag/internal/manifest"
)

const defaultMaxFileSize = 1 << 20 // 1 MiB

var codeIndicators = []string{
	"#!", "import ", "def ", "class ", "function ", "package main", "<?xml", "<?php", "using ", "namespace ",
}

// Options configures a Walker's discovery rules.
type Options struct {
	Root         string
	Include      []string
	Exclude      []string
	MaxFileSize  int64
	MinFileSize  int64
	IndexDirName string
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.IndexDirName == "" {
		o.IndexDirName = ".localrag"
	}
	if len(o.Include) == 0 {
		o.Include = []string{"**"}
	}
	return o
}

// Walker enumerates files under Root and classifies them against a manifest.
type Walker struct {
	opts    Options
	include []glob.Glob
	exclude []glob.Glob
}

// New compiles the include/exclude patterns once, at construction, exactly
// as the teacher's FileDiscovery does.
func New(opts Options) (*Walker, error) {
	opts = opts.withDefaults()
	w := &Walker{opts: opts}

	for _, p := range opts.Include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile include pattern %q: %w", p, err)
		}
		w.include = append(w.include, g)
	}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		w.exclude = append(w.exclude, g)
	}
	return w, nil
}

// Result is the output of a Scan: files needing (re)processing and files
// whose manifest entries no longer exist on disk.
type Result struct {
	ToProcess []string
	ToDelete  []string
}

// Scan walks opts.Root and classifies every candidate file against m.
func (w *Walker) Scan(m *manifest.Manifest) (Result, error) {
	seen := make(map[string]bool, len(m.Files))
	var toProcess []string

	err := filepath.Walk(w.opts.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("walker: skipping %s: %v", path, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(w.opts.Root, path)
		if relErr != nil {
			log.Printf("walker: skipping %s: %v", path, relErr)
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if w.shouldIgnore(relPath) {
			return nil
		}
		if !w.matchesInclude(relPath, path, info) {
			return nil
		}
		if info.Size() > w.opts.MaxFileSize {
			return nil
		}
		if info.Size() < w.opts.MinFileSize {
			return nil
		}

		seen[relPath] = true
		if w.needsProcessing(relPath, path, info, m) {
			toProcess = append(toProcess, relPath)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk %s: %w", w.opts.Root, err)
	}

	var toDelete []string
	for relPath := range m.Files {
		if !seen[relPath] {
			toDelete = append(toDelete, relPath)
		}
	}

	return Result{ToProcess: toProcess, ToDelete: toDelete}, nil
}

// Matches reports whether relPath is a candidate the Walker would include
// in a Scan, independent of manifest state — used by the Watcher to filter
// fsnotify events down to paths the Indexer actually cares about.
func (w *Walker) Matches(relPath, absPath string, info os.FileInfo) bool {
	if w.shouldIgnore(relPath) {
		return false
	}
	if !w.matchesInclude(relPath, absPath, info) {
		return false
	}
	if info.Size() > w.opts.MaxFileSize || info.Size() < w.opts.MinFileSize {
		return false
	}
	return true
}

func (w *Walker) shouldIgnore(relPath string) bool {
	if relPath == w.opts.IndexDirName || strings.HasPrefix(relPath, w.opts.IndexDirName+"/") {
		return true
	}
	if w.matchesAny(w.exclude, relPath) {
		return true
	}
	return w.matchesAny(w.exclude, relPath+"/**")
}

func (w *Walker) matchesInclude(relPath, absPath string, info os.FileInfo) bool {
	if w.matchesAny(w.include, relPath) {
		return true
	}
	if filepath.Ext(relPath) != "" {
		return false
	}
	return sniffExtensionless(absPath)
}

func (w *Walker) matchesAny(patterns []glob.Glob, path string) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// sniffExtensionless accepts an extensionless file only when the first 1KiB
// decodes as UTF-8 and contains at least one code indicator token.
func sniffExtensionless(absPath string) bool {
	f, err := os.Open(absPath)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, _ := f.Read(buf)
	sample := buf[:n]
	if !utf8.Valid(sample) {
		return false
	}
	text := string(sample)
	for _, indicator := range codeIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}

// needsProcessing implements §4.1's change detection. Note this is the
// inverse of a pure mtime-optimization: size or mtime mismatch is treated as
// an immediate signal to reprocess (no hash check needed to confirm it), and
// it is precisely when size and mtime both match that the hash is consulted
// — guarding against an edit that lands on the same size with a mtime the
// filesystem didn't update (or a caller deliberately preserved, e.g. a
// checkout that restores timestamps).
func (w *Walker) needsProcessing(relPath, absPath string, info os.FileInfo, m *manifest.Manifest) bool {
	rec, ok := m.Files[relPath]
	if !ok {
		return true
	}
	if rec.Size != info.Size() || !rec.Mtime.Equal(info.ModTime()) {
		return true
	}
	hash, err := HashFile(absPath)
	if err != nil {
		log.Printf("walker: hashing %s: %v", relPath, err)
		return true
	}
	return hash != rec.Hash
}

// HashFile returns the hex-encoded SHA-256 of path's contents. Exported so
// the Indexer can compute the same hash for a manifest record after a
// commit, without duplicating the walker's own change-detection hashing.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
