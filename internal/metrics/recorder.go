// Package metrics defines the observability hooks for the content pipeline
// and the document store.
package metrics

import "time"

// ResultLabel enumerates document processing outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultNotFound ResultLabel = "not_found"
	ResultError    ResultLabel = "error"
)

// Recorder defines observability hooks for document processing. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveRenderDuration(d time.Duration)
	ObserveScanDuration(d time.Duration)
	IncDocumentProcessed(result ResultLabel)
	IncIncludeMiss()
	IncCacheResult(hit bool)
	SetDocumentCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) ObserveScanDuration(time.Duration)   {}
func (NoopRecorder) IncDocumentProcessed(ResultLabel)    {}
func (NoopRecorder) IncIncludeMiss()                     {}
func (NoopRecorder) IncCacheResult(bool)                 {}
func (NoopRecorder) SetDocumentCount(int)                {}
