package indexer

// ProgressReporter receives indexing lifecycle callbacks, grounded in the
// teacher's internal/indexer/progress.go shape. A nil reporter is replaced
// with NoOpProgressReporter.
type ProgressReporter interface {
	OnWalkStart()
	OnWalkComplete(toProcess, toDelete int)
	OnFileProcessingStart(total int)
	OnFileProcessed(filePath string)
	OnEmbeddingStart(totalChunks int)
	OnEmbeddingProgress(processedChunks int)
	OnComplete(stats Stats)
}

// NoOpProgressReporter discards every callback — the default for
// UpdateFile/DeleteFile and for tests that don't care about progress.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnWalkStart()                             {}
func (NoOpProgressReporter) OnWalkComplete(toProcess, toDelete int)    {}
func (NoOpProgressReporter) OnFileProcessingStart(total int)          {}
func (NoOpProgressReporter) OnFileProcessed(filePath string)          {}
func (NoOpProgressReporter) OnEmbeddingStart(totalChunks int)         {}
func (NoOpProgressReporter) OnEmbeddingProgress(processedChunks int)  {}
func (NoOpProgressReporter) OnComplete(stats Stats)                   {}
