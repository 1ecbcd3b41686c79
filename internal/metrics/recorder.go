// ABOUTME: Recorder interface for store operation metrics
// ABOUTME: NoopRecorder is the default when metrics are disabled

package metrics

import "time"

// Result labels for operation counters.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected" // validation, auth or not-found outcomes
	ResultError    = "error"
)

// Recorder receives observations about board operations.
type Recorder interface {
	IncOperation(op, result string)
	ObserveOperation(op string, d time.Duration)
	SetCollectionSize(collection string, n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) IncOperation(string, string)            {}
func (NoopRecorder) ObserveOperation(string, time.Duration) {}
func (NoopRecorder) SetCollectionSize(string, int)          {}

var _ Recorder = NoopRecorder{}
