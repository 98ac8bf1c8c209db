package app

import "time"

// Recorder receives store and provider activity, usually for metrics.
type Recorder interface {
	// FetchCompleted reports a finished fetch. failed is empty on success.
	FetchCompleted(failed ExecutionStep, duration time.Duration)
	JokesFiltered(matched, total int)
	SessionsMounted(n int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) FetchCompleted(ExecutionStep, time.Duration) {}
func (NopRecorder) JokesFiltered(int, int)                      {}
func (NopRecorder) SessionsMounted(int)                         {}
