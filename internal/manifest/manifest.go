// Package manifest tracks per-file indexing state (hash, size, mtime, chunk
// count) so the walker and indexer can decide what needs reprocessing
// without rescanning the vector store.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const schemaVersion = "1.0"

// FileRecord is the manifest's per-file bookkeeping entry.
type FileRecord struct {
	Hash      string
	Size      int64
	Mtime     time.Time
	Chunks    int
	IndexedAt string
	Language  string
	Encoding  string
}

// fileRecordWire is FileRecord's on-disk shape per spec §6.4: mtime is a
// float of epoch seconds, not encoding/json's default RFC3339 string.
type fileRecordWire struct {
	Hash      string  `json:"hash"`
	Size      int64   `json:"size"`
	Mtime     float64 `json:"mtime"`
	Chunks    int     `json:"chunks"`
	IndexedAt string  `json:"indexed_at"`
	Language  string  `json:"language"`
	Encoding  string  `json:"encoding"`
}

func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileRecordWire{
		Hash:      r.Hash,
		Size:      r.Size,
		Mtime:     float64(r.Mtime.UnixNano()) / 1e9,
		Chunks:    r.Chunks,
		IndexedAt: r.IndexedAt,
		Language:  r.Language,
		Encoding:  r.Encoding,
	})
}

func (r *FileRecord) UnmarshalJSON(data []byte) error {
	var w fileRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sec := int64(w.Mtime)
	nsec := int64((w.Mtime - float64(sec)) * 1e9)
	r.Hash = w.Hash
	r.Size = w.Size
	r.Mtime = time.Unix(sec, nsec).UTC()
	r.Chunks = w.Chunks
	r.IndexedAt = w.IndexedAt
	r.Language = w.Language
	r.Encoding = w.Encoding
	return nil
}

// Manifest is the process-wide, per-index bookkeeping record described in
// spec.md §3.1/§6.4.
type Manifest struct {
	Version    string                 `json:"version"`
	IndexedAt  string                 `json:"indexed_at"`
	FileCount  int                    `json:"file_count"`
	ChunkCount int                    `json:"chunk_count"`
	Files      map[string]FileRecord  `json:"files"`
}

// New returns an empty manifest ready to be populated and saved.
func New() *Manifest {
	return &Manifest{
		Version: schemaVersion,
		Files:   make(map[string]FileRecord),
	}
}

func manifestPath(indexDir string) string {
	return filepath.Join(indexDir, "manifest.json")
}

// Load reads the manifest from indexDir/manifest.json. A missing or corrupt
// file degrades gracefully to an empty manifest rather than failing — the
// index directory may simply not exist yet, and a hand-edited or
// half-written manifest shouldn't block indexing.
func Load(indexDir string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath(indexDir))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return New(), nil
	}
	if m.Files == nil {
		m.Files = make(map[string]FileRecord)
	}
	if m.Version == "" {
		m.Version = schemaVersion
	}
	return &m, nil
}

// Save atomically writes the manifest (temp file + rename) to
// indexDir/manifest.json.
func (m *Manifest) Save(indexDir string) error {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	path := manifestPath(indexDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

// Put records or replaces a file's bookkeeping entry and recomputes the
// aggregate counters.
func (m *Manifest) Put(filePath string, rec FileRecord) {
	if m.Files == nil {
		m.Files = make(map[string]FileRecord)
	}
	m.Files[filePath] = rec
	m.recount()
}

// Remove deletes a file's manifest entry, if present.
func (m *Manifest) Remove(filePath string) {
	delete(m.Files, filePath)
	m.recount()
}

// Touch stamps IndexedAt with the current time and recomputes counters;
// called once per Indexer run after all per-file mutations are applied.
func (m *Manifest) Touch() {
	m.IndexedAt = time.Now().UTC().Format(time.RFC3339)
	m.recount()
}

func (m *Manifest) recount() {
	m.FileCount = len(m.Files)
	total := 0
	for _, rec := range m.Files {
		total += rec.Chunks
	}
	m.ChunkCount = total
}
