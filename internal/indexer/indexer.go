// Package indexer orchestrates the Walker -> Chunker -> Embedder ->
// VectorStore pipeline and owns the Manifest, per spec.md §4.5. It is the
// only component permitted to mutate the store or the manifest.
package indexer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localrag/localrag/internal/chunk"
	"github.com/localrag/localrag/internal/embed"
	"github.com/localrag/localrag/internal/manifest"
	"github.com/localrag/localrag/internal/store"
	"github.com/localrag/localrag/internal/walker"
)

// Stats is index_project's return value, per spec.md §4.5's contract.
type Stats struct {
	FilesIndexed   int
	FilesFailed    int
	ChunksCreated  int
	TimeTaken      time.Duration
	FilesPerSecond float64
}

// ProjectStats is stats()'s return value, per spec.md §4.5's contract.
type ProjectStats struct {
	ProjectPath    string
	IndexedAt      string
	FileCount      int
	ChunkCount     int
	IndexSizeBytes int64
}

// Config configures an Indexer.
type Config struct {
	RootDir  string
	IndexDir string // defaults to RootDir/.localrag
	Embedder embed.Embedder

	ChunkOptions  chunk.Options
	WalkerOptions walker.Options

	// WorkerCount bounds the file-processing pool; defaults to
	// min(4, runtime.NumCPU()) per spec.md §4.5 step 5.
	WorkerCount int

	// EmbedBatchSize bounds each embed_batch call; files beyond 500 in one
	// run are embedded in chunks of this size with a short pause between,
	// per spec.md's back-pressure note.
	EmbedBatchSize int

	Progress ProgressReporter
}

func (c Config) withDefaults() Config {
	if c.IndexDir == "" {
		c.IndexDir = filepath.Join(c.RootDir, ".localrag")
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = runtime.NumCPU()
		if c.WorkerCount > 4 {
			c.WorkerCount = 4
		}
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = 200
	}
	if c.Progress == nil {
		c.Progress = NoOpProgressReporter{}
	}
	c.WalkerOptions.Root = c.RootDir
	if c.WalkerOptions.IndexDirName == "" {
		c.WalkerOptions.IndexDirName = filepath.Base(c.IndexDir)
	}
	return c
}

// Indexer is the single writer for one project's store and manifest.
type Indexer struct {
	cfg Config

	walker *walker.Walker
	store  *store.Store

	mu       sync.Mutex
	manifest *manifest.Manifest
}

// New opens (or creates) the store and loads the manifest for cfg.RootDir.
func New(cfg Config) (*Indexer, error) {
	cfg = cfg.withDefaults()

	w, err := walker.New(cfg.WalkerOptions)
	if err != nil {
		return nil, fmt.Errorf("build walker: %w", err)
	}

	storeDir := filepath.Join(cfg.IndexDir, "code_vectors.lance")
	s, err := store.OpenOrCreate(storeDir, cfg.Embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	m, err := manifest.Load(cfg.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	return &Indexer{cfg: cfg, walker: w, store: s, manifest: m}, nil
}

// Store returns the underlying VectorStore, for read-only handles such as a
// Retriever.
func (idx *Indexer) Store() *store.Store { return idx.store }

// RootDir returns the project root this Indexer was opened against.
func (idx *Indexer) RootDir() string { return idx.cfg.RootDir }

// Matches reports whether relPath is a candidate file this Indexer would
// process, per the same include/exclude/size rules IndexProject's walk
// uses. Used by the Watcher to filter fsnotify events.
func (idx *Indexer) Matches(relPath, absPath string, info os.FileInfo) bool {
	return idx.walker.Matches(relPath, absPath, info)
}

// Manifest returns a snapshot copy of the current manifest, safe to read
// without holding the Indexer's lock — used by FileMtimes, which supplies
// the Retriever's recency re-ranking.
func (idx *Indexer) Manifest() *manifest.Manifest {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	snapshot := *idx.manifest
	snapshot.Files = make(map[string]manifest.FileRecord, len(idx.manifest.Files))
	for k, v := range idx.manifest.Files {
		snapshot.Files[k] = v
	}
	return &snapshot
}

// FileMtimes returns a relative-path -> mtime map suitable for
// retriever.Open's recency re-ranking input.
func (idx *Indexer) FileMtimes() map[string]time.Time {
	m := idx.Manifest()
	mtimes := make(map[string]time.Time, len(m.Files))
	for path, rec := range m.Files {
		mtimes[path] = rec.Mtime
	}
	return mtimes
}

// IndexProject runs the full walk -> chunk -> embed -> persist pipeline,
// per spec.md §4.5's 7-step algorithm.
func (idx *Indexer) IndexProject(ctx context.Context, force bool) (Stats, error) {
	start := time.Now()
	runID := uuid.New().String()[:8]

	idx.mu.Lock()
	if force {
		log.Printf("indexer[%s]: force reindex, dropping store and manifest", runID)
		if err := idx.store.Reset(ctx); err != nil {
			idx.mu.Unlock()
			return Stats{}, fmt.Errorf("reset store: %w", err)
		}
		idx.manifest = manifest.New()
	}
	m := idx.manifest
	idx.mu.Unlock()

	idx.cfg.Progress.OnWalkStart()
	phaseStart := time.Now()
	result, err := idx.walker.Scan(m)
	if err != nil {
		return Stats{}, fmt.Errorf("scan project: %w", err)
	}
	log.Printf("indexer[%s]: [TIMING] walk: %v (%d to process, %d to delete)",
		runID, time.Since(phaseStart), len(result.ToProcess), len(result.ToDelete))
	idx.cfg.Progress.OnWalkComplete(len(result.ToProcess), len(result.ToDelete))

	idx.mu.Lock()
	for _, relPath := range result.ToDelete {
		if err := idx.store.DeleteFile(ctx, relPath); err != nil {
			log.Printf("indexer[%s]: delete %s: %v", runID, relPath, err)
			continue
		}
		idx.manifest.Remove(relPath)
	}
	idx.mu.Unlock()

	stats := Stats{}
	if len(result.ToProcess) == 0 {
		idx.finishRun(runID, start, stats)
		return stats, nil
	}

	idx.cfg.Progress.OnFileProcessingStart(len(result.ToProcess))
	phaseStart = time.Now()
	outcomes := idx.chunkFilesConcurrently(ctx, result.ToProcess, runID)
	log.Printf("indexer[%s]: [TIMING] chunk: %v (%d files)", runID, time.Since(phaseStart), len(result.ToProcess))

	phaseStart = time.Now()
	if err := idx.embedAndCommit(ctx, outcomes, runID, &stats); err != nil {
		return stats, fmt.Errorf("embed and commit: %w", err)
	}
	log.Printf("indexer[%s]: [TIMING] embed+commit: %v", runID, time.Since(phaseStart))

	idx.finishRun(runID, start, stats)
	return stats, nil
}

func (idx *Indexer) finishRun(runID string, start time.Time, stats Stats) {
	idx.mu.Lock()
	idx.manifest.Touch()
	if err := idx.manifest.Save(idx.cfg.IndexDir); err != nil {
		log.Printf("indexer[%s]: save manifest: %v", runID, err)
	}
	idx.mu.Unlock()

	stats.TimeTaken = time.Since(start)
	if stats.TimeTaken > 0 {
		stats.FilesPerSecond = float64(stats.FilesIndexed) / stats.TimeTaken.Seconds()
	}
	idx.cfg.Progress.OnComplete(stats)
}

// fileOutcome is one worker's result for a single file: either a set of
// chunks awaiting embedding, or a contained failure.
type fileOutcome struct {
	relPath  string
	absPath  string
	chunks   []chunk.Chunk
	encoding string
	language string
	size     int64
	mtime    time.Time
	err      error
}

// chunkFilesConcurrently runs the read+chunk phase (steps 5a/5b) over a
// bounded worker pool, per spec.md §4.5 step 5 (`min(4, CPU cores)`). This
// phase is CPU/IO bound and has no shared state across files, unlike
// embedding, which is batched afterward against a single Embedder.
func (idx *Indexer) chunkFilesConcurrently(ctx context.Context, relPaths []string, runID string) []fileOutcome {
	jobs := make(chan string, len(relPaths))
	for _, p := range relPaths {
		jobs <- p
	}
	close(jobs)

	outcomes := make([]fileOutcome, len(relPaths))
	indexByPath := make(map[string]int, len(relPaths))
	for i, p := range relPaths {
		indexByPath[p] = i
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < idx.cfg.WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for relPath := range jobs {
				if ctx.Err() != nil {
					return
				}
				outcome := idx.processOneFile(relPath)
				mu.Lock()
				outcomes[indexByPath[relPath]] = outcome
				mu.Unlock()
				idx.cfg.Progress.OnFileProcessed(relPath)
				if outcome.err != nil {
					log.Printf("indexer[%s]: %s: %v", runID, relPath, outcome.err)
				}
			}
		}()
	}
	wg.Wait()
	return outcomes
}

// processOneFile reads, decodes, and chunks a single file. Reads proceed in
// 64 KiB increments per spec.md §4.5 step 5a; the chunker still needs the
// full content, so streaming here only bounds the read syscall size, not
// peak memory.
func (idx *Indexer) processOneFile(relPath string) fileOutcome {
	absPath := filepath.Join(idx.cfg.RootDir, relPath)

	info, err := os.Stat(absPath)
	if err != nil {
		return fileOutcome{relPath: relPath, absPath: absPath, err: fmt.Errorf("stat: %w", err)}
	}

	raw, err := readInChunks(absPath, 64*1024)
	if err != nil {
		return fileOutcome{relPath: relPath, absPath: absPath, err: fmt.Errorf("read: %w", err)}
	}

	content, encoding := chunk.DecodeWithFallback(raw)
	language := chunk.DetectLanguage(relPath, content)
	chunks := chunk.File(relPath, absPath, content, idx.cfg.ChunkOptions)
	for i := range chunks {
		chunks[i].Language = language
	}

	return fileOutcome{
		relPath:  relPath,
		absPath:  absPath,
		chunks:   chunks,
		encoding: encoding,
		language: language,
		size:     info.Size(),
		mtime:    info.ModTime(),
	}
}

// readInChunks reads path through a bufSize buffer (64 KiB per spec.md
// §4.5 step 5a), bounding the read syscall size rather than true streaming
// — the chunker needs the whole file's content regardless.
func readInChunks(path string, bufSize int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(bufio.NewReaderSize(f, bufSize))
}

// embedAndCommit embeds every outcome's chunk texts (steps 5c/6), batched
// at cfg.EmbedBatchSize with a short pause between batches for bulk runs
// (spec.md §4.5's back-pressure note), then upserts each file atomically
// and updates the manifest.
func (idx *Indexer) embedAndCommit(ctx context.Context, outcomes []fileOutcome, runID string, stats *Stats) error {
	type job struct {
		outcomeIdx int
		chunkIdx   int
	}
	var jobs []job
	var texts []string
	for oi, o := range outcomes {
		if o.err != nil {
			continue
		}
		for ci := range o.chunks {
			jobs = append(jobs, job{outcomeIdx: oi, chunkIdx: ci})
			texts = append(texts, o.chunks[ci].Content)
		}
	}

	idx.cfg.Progress.OnEmbeddingStart(len(texts))

	if len(texts) > 0 {
		batchSize := idx.cfg.EmbedBatchSize
		if len(outcomes) <= 500 {
			batchSize = len(texts)
		}

		progressCh := make(chan embed.BatchProgress, 10)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for p := range progressCh {
				idx.cfg.Progress.OnEmbeddingProgress(p.ProcessedChunks)
			}
		}()

		vectors, err := embedInPauseBatches(ctx, idx.cfg.Embedder, texts, batchSize, progressCh)
		close(progressCh)
		<-done
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}

		dim := idx.cfg.Embedder.Dimension()
		for i, j := range jobs {
			vec := vectors[i]
			if len(vec) != dim {
				log.Printf("indexer[%s]: %s: embedding dimension %d != %d, dropping file",
					runID, outcomes[j.outcomeIdx].relPath, len(vec), dim)
				outcomes[j.outcomeIdx].err = fmt.Errorf("embedding dimension mismatch")
				continue
			}
			outcomes[j.outcomeIdx].chunks[j.chunkIdx].Embedding = vec
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, o := range outcomes {
		if o.err != nil {
			stats.FilesFailed++
			continue
		}
		if err := idx.store.UpsertFile(ctx, o.relPath, o.chunks); err != nil {
			log.Printf("indexer[%s]: upsert %s: %v", runID, o.relPath, err)
			stats.FilesFailed++
			continue
		}
		idx.manifest.Put(o.relPath, manifest.FileRecord{
			Hash:      "", // recomputed below once per file to avoid rehashing in the hot loop
			Size:      o.size,
			Mtime:     o.mtime,
			Chunks:    len(o.chunks),
			IndexedAt: now,
			Language:  o.language,
			Encoding:  o.encoding,
		})
		stats.FilesIndexed++
		stats.ChunksCreated += len(o.chunks)
	}

	idx.rehashCommittedFiles(outcomes)
	return nil
}

// rehashCommittedFiles fills in each committed FileRecord's content hash —
// split out of the main commit loop so a hashing failure degrades to a
// warning (the file stays indexed; only change-detection on the *next* run
// is affected) rather than aborting an otherwise-successful commit.
func (idx *Indexer) rehashCommittedFiles(outcomes []fileOutcome) {
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		rec, ok := idx.manifest.Files[o.relPath]
		if !ok {
			continue
		}
		hash, err := walker.HashFile(o.absPath)
		if err != nil {
			log.Printf("indexer: hash %s for manifest: %v", o.relPath, err)
			continue
		}
		rec.Hash = hash
		idx.manifest.Files[o.relPath] = rec
	}
}

// UpdateFile re-processes a single file (by path relative to RootDir),
// equivalent to an incremental `index` scoped to one path. Returns false if
// the file no longer exists (its rows and manifest entry are removed) or if
// processing fails; a file that yields no chunks is recorded with zero
// chunks and returns true. See spec.md §4.5's `update_file(path) -> bool`.
func (idx *Indexer) UpdateFile(ctx context.Context, relPath string) (bool, error) {
	absPath := filepath.Join(idx.cfg.RootDir, relPath)
	if _, err := os.Stat(absPath); err != nil {
		return false, idx.DeleteFileErr(ctx, relPath)
	}

	outcome := idx.processOneFile(relPath)
	if outcome.err != nil {
		return false, outcome.err
	}

	for i := range outcome.chunks {
		outcome.chunks[i].Language = outcome.language
	}

	var vectors [][]float32
	var err error
	if len(outcome.chunks) > 0 {
		texts := make([]string, len(outcome.chunks))
		for i, c := range outcome.chunks {
			texts[i] = c.Content
		}
		vectors, err = idx.cfg.Embedder.EmbedBatch(ctx, texts, embed.ModePassage)
		if err != nil {
			return false, fmt.Errorf("embed %s: %w", relPath, err)
		}
		for i := range outcome.chunks {
			outcome.chunks[i].Embedding = vectors[i]
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.store.UpsertFile(ctx, relPath, outcome.chunks); err != nil {
		return false, fmt.Errorf("upsert %s: %w", relPath, err)
	}

	hash, _ := walker.HashFile(absPath)
	idx.manifest.Put(relPath, manifest.FileRecord{
		Hash:      hash,
		Size:      outcome.size,
		Mtime:     outcome.mtime,
		Chunks:    len(outcome.chunks),
		IndexedAt: time.Now().UTC().Format(time.RFC3339),
		Language:  outcome.language,
		Encoding:  outcome.encoding,
	})
	idx.manifest.Touch()
	if err := idx.manifest.Save(idx.cfg.IndexDir); err != nil {
		return false, fmt.Errorf("save manifest: %w", err)
	}

	return true, nil
}

// DeleteFile removes relPath's rows from the store and its manifest entry,
// per spec.md §4.5's `delete_file(path) -> bool` contract.
func (idx *Indexer) DeleteFile(ctx context.Context, relPath string) (bool, error) {
	if err := idx.DeleteFileErr(ctx, relPath); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteFileErr is DeleteFile's error-only form, reused by UpdateFile when
// the underlying file has vanished out from under it.
func (idx *Indexer) DeleteFileErr(ctx context.Context, relPath string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.store.DeleteFile(ctx, relPath); err != nil {
		return fmt.Errorf("delete %s: %w", relPath, err)
	}
	idx.manifest.Remove(relPath)
	idx.manifest.Touch()
	return idx.manifest.Save(idx.cfg.IndexDir)
}

// ProjectStats reports the stats() contract from spec.md §4.5.
func (idx *Indexer) ProjectStats(ctx context.Context) ProjectStats {
	idx.mu.Lock()
	m := idx.manifest
	idx.mu.Unlock()

	var size int64
	filepath.Walk(filepath.Join(idx.cfg.IndexDir, "code_vectors.lance"), func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return ProjectStats{
		ProjectPath:    idx.cfg.RootDir,
		IndexedAt:      m.IndexedAt,
		FileCount:      m.FileCount,
		ChunkCount:     m.ChunkCount,
		IndexSizeBytes: size,
	}
}

// Close releases the store and embedder.
func (idx *Indexer) Close() error {
	if err := idx.store.Close(); err != nil {
		return err
	}
	return idx.cfg.Embedder.Close()
}

// embedInPauseBatches embeds texts in fixed-size batches via
// embed.EmbedWithProgress, pausing briefly between batches once the run is
// large enough to warrant it — spec.md §4.5's back-pressure note ("for bulk
// batches >500 files, ... chunked in e.g. 200-file batches with a small
// sleep between").
func embedInPauseBatches(ctx context.Context, embedder embed.Embedder, texts []string, batchSize int, progressCh chan<- embed.BatchProgress) ([][]float32, error) {
	if len(texts) <= batchSize {
		return embed.EmbedWithProgress(ctx, embedder, texts, embed.ModePassage, batchSize, progressCh)
	}

	results := make([][]float32, 0, len(texts))
	processed := 0
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunkProgress := make(chan embed.BatchProgress, 4)
		relay := make(chan struct{})
		go func() {
			defer close(relay)
			for p := range chunkProgress {
				processed = start + p.ProcessedChunks
				if progressCh != nil {
					progressCh <- embed.BatchProgress{
						BatchIndex:      start/batchSize + p.BatchIndex,
						TotalBatches:    (len(texts) + batchSize - 1) / batchSize,
						ProcessedChunks: processed,
						TotalChunks:     len(texts),
					}
				}
			}
		}()

		vectors, err := embed.EmbedWithProgress(ctx, embedder, texts[start:end], embed.ModePassage, batchSize, chunkProgress)
		close(chunkProgress)
		<-relay
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)

		if end < len(texts) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
		}
	}
	return results, nil
}
