package fixpoint

import "time"

// Recorder receives search metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	SearchCompleted(outcome string, elapsed time.Duration)
	WorkersLaunched(n int)
	TraceFinished(mode Mode, converged bool, iterations int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) SearchCompleted(string, time.Duration) {}
func (NopRecorder) WorkersLaunched(int)                   {}
func (NopRecorder) TraceFinished(Mode, bool, int)         {}
