package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/localrag/localrag/internal/indexer"
)

// CLIProgressReporter renders indexing progress with progressbar/v3 bars,
// grounded in the teacher's internal/cli/progress.go shape, trimmed to the
// two phases this module's Indexer reports (file processing, embedding).
type CLIProgressReporter struct {
	quiet        bool
	startTime    time.Time
	fileBar      *progressbar.ProgressBar
	embeddingBar *progressbar.ProgressBar
	embedded     int
}

// NewCLIProgressReporter builds a progress reporter. quiet suppresses all
// bars and status lines, leaving only the final summary.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, startTime: time.Now()}
}

func (c *CLIProgressReporter) OnWalkStart() {
	if c.quiet {
		return
	}
	log.Println("Scanning project files...")
}

func (c *CLIProgressReporter) OnWalkComplete(toProcess, toDelete int) {
	if c.quiet {
		return
	}
	log.Printf("%d files to process, %d to remove\n", toProcess, toDelete)
}

func (c *CLIProgressReporter) OnFileProcessingStart(total int) {
	if c.quiet || total == 0 {
		return
	}
	c.fileBar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Chunking files"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(filePath string) {
	if c.quiet || c.fileBar == nil {
		return
	}
	c.fileBar.Add(1)
}

func (c *CLIProgressReporter) OnEmbeddingStart(totalChunks int) {
	if c.quiet || totalChunks == 0 {
		return
	}
	c.embedded = 0
	c.embeddingBar = progressbar.NewOptions(totalChunks,
		progressbar.OptionSetDescription("Generating embeddings"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("emb/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

func (c *CLIProgressReporter) OnEmbeddingProgress(processedChunks int) {
	if c.quiet || c.embeddingBar == nil {
		return
	}
	delta := processedChunks - c.embedded
	if delta > 0 {
		c.embeddingBar.Add(delta)
		c.embedded = processedChunks
	}
}

func (c *CLIProgressReporter) OnComplete(stats indexer.Stats) {
	if c.quiet {
		fmt.Printf("Indexing complete: %d chunks in %v\n", stats.ChunksCreated, stats.TimeTaken)
		return
	}
	fmt.Println()
	fmt.Printf("Indexing complete: %d files indexed, %d failed, %d chunks (%.1fs, %.1f files/s)\n",
		stats.FilesIndexed, stats.FilesFailed, stats.ChunksCreated,
		stats.TimeTaken.Seconds(), stats.FilesPerSecond)
}
