package ttsclient

import (
	"github.com/jamesrr39/goutil/humanise"
	"github.com/jamesrr39/goutil/logpkg"
)

// ProgressListener observes the fetch pipeline. Implementations must be safe
// for concurrent use when the client fetches files in parallel.
type ProgressListener interface {
	OnResolveDone(totalFiles int)
	OnFileFetched(key string, sizeBytes int64, fetchedFiles, totalFiles int)
	OnQueryDone(totalRows int)
}

type noopProgressListener struct{}

func (noopProgressListener) OnResolveDone(totalFiles int) {}
func (noopProgressListener) OnFileFetched(key string, sizeBytes int64, fetchedFiles, totalFiles int) {
}
func (noopProgressListener) OnQueryDone(totalRows int) {}

// NewNoopProgressListener is the default when no listener is injected.
func NewNoopProgressListener() ProgressListener {
	return noopProgressListener{}
}

type loggerProgressListener struct {
	logger *logpkg.Logger
}

// NewLoggerProgressListener reports progress through the given logger.
func NewLoggerProgressListener(logger *logpkg.Logger) ProgressListener {
	return &loggerProgressListener{logger: logger}
}

func (l *loggerProgressListener) OnResolveDone(totalFiles int) {
	l.logger.Info("resolved %d data file(s)", totalFiles)
}

func (l *loggerProgressListener) OnFileFetched(key string, sizeBytes int64, fetchedFiles, totalFiles int) {
	l.logger.Info("fetched %q (%s), %d/%d files", key, humanise.HumaniseBytes(sizeBytes), fetchedFiles, totalFiles)
}

func (l *loggerProgressListener) OnQueryDone(totalRows int) {
	l.logger.Info("query done, %d row(s)", totalRows)
}
