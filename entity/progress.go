package entity

// Phase is a pipeline state. A request walks Resolving → Downloading →
// Extracting → Uploading → Done; Failed is reachable from any non-terminal
// phase.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseResolving   Phase = "resolving"
	PhaseDownloading Phase = "downloading"
	PhaseExtracting  Phase = "extracting"
	PhaseUploading   Phase = "uploading"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// IndeterminatePercent marks progress with no known total.
const IndeterminatePercent = -1

// ProgressEvent is streamed to the transport; nothing is persisted.
type ProgressEvent struct {
	Phase   Phase
	Percent int
	Detail  string
}

// ProgressFunc reports byte-level progress inside a single phase.
type ProgressFunc func(written, total int64)

// ProgressNotifier receives pipeline phase transitions. Implementations must
// tolerate bursts of identical events.
type ProgressNotifier interface {
	Notify(ev ProgressEvent)
}

// ProgressNotifierFunc adapts a func to ProgressNotifier.
type ProgressNotifierFunc func(ev ProgressEvent)

func (f ProgressNotifierFunc) Notify(ev ProgressEvent) { f(ev) }
