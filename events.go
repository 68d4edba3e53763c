package framegrid

import "time"

// EventType identifies the kind of event emitted during generation.
type EventType string

const (
	EventTypeGenerationProgress EventType = "generation_progress"
	EventTypeExtractionProgress EventType = "extraction_progress"
	EventTypeExtractionDegraded EventType = "extraction_degraded"
	EventTypeValidationComplete EventType = "validation_complete"
	EventTypeGenerationComplete EventType = "generation_complete"
	EventTypeWarning            EventType = "warning"
	EventTypeError              EventType = "error"
	EventTypeBatchComplete      EventType = "batch_complete"
)

// Event is the interface implemented by all generation events. Concrete
// events embed BaseEvent and marshal cleanly to JSON, one object per
// event, so a handler can stream them as NDJSON.
type Event interface {
	Type() EventType
}

// EventHandler receives events during generation. Handlers are called
// synchronously from the generation goroutines; the returned error is
// currently ignored.
type EventHandler func(event Event) error

// BaseEvent carries the fields common to all events.
type BaseEvent struct {
	EventType EventType `json:"event_type"`
	Time      string    `json:"time"`
}

// Type returns the event's type tag.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// NewTimestamp returns the current time formatted as RFC 3339 UTC.
func NewTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// GenerationProgressEvent reports overall progress through the
// generation stages of one video.
type GenerationProgressEvent struct {
	BaseEvent
	Stage   string  `json:"stage"`
	Percent float32 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// ExtractionProgressEvent reports frame extraction progress.
type ExtractionProgressEvent struct {
	BaseEvent
	Done    int     `json:"done"`
	Total   int     `json:"total"`
	Percent float32 `json:"percent"`
}

// ExtractionDegradedEvent reports that some frames could not be
// extracted and were replaced with placeholder tiles.
type ExtractionDegradedEvent struct {
	BaseEvent
	Placeholders int `json:"placeholders"`
	Total        int `json:"total"`
}

// ValidationStep is a single output validation check.
type ValidationStep struct {
	Step    string `json:"step"`
	Passed  bool   `json:"passed"`
	Details string `json:"details,omitempty"`
}

// ValidationCompleteEvent reports the outcome of output validation.
type ValidationCompleteEvent struct {
	BaseEvent
	ValidationPassed bool             `json:"validation_passed"`
	ValidationSteps  []ValidationStep `json:"validation_steps"`
}

// GenerationCompleteEvent reports a finished mosaic.
type GenerationCompleteEvent struct {
	BaseEvent
	OutputFile   string `json:"output_file"`
	OutputSize   uint64 `json:"output_size"`
	FrameCount   int    `json:"frame_count"`
	Placeholders int    `json:"placeholders,omitempty"`
	ElapsedMS    int64  `json:"elapsed_ms"`
}

// WarningEvent reports a non-fatal condition.
type WarningEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// ErrorEvent reports a generation failure.
type ErrorEvent struct {
	BaseEvent
	Title      string `json:"title"`
	Message    string `json:"message"`
	Context    string `json:"context,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// BatchCompleteEvent reports the end of a batch run.
type BatchCompleteEvent struct {
	BaseEvent
	SuccessfulCount int    `json:"successful_count"`
	FailedCount     int    `json:"failed_count"`
	TotalFiles      int    `json:"total_files"`
	TotalOutputSize uint64 `json:"total_output_size"`
}
