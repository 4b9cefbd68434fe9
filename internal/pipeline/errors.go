package pipeline

import "fmt"

// Stage names, in execution order.
const (
	StageAcquire    = "acquire"
	StageAudio      = "audio"
	StageTranscribe = "transcribe"
	StageFrames     = "frames"
	StageOCR        = "ocr"
	StageEntities   = "entities"
	StageResolve    = "resolve"
	StagePersist    = "persist"
)

// StageError wraps a failure with the pipeline stage it happened in, so the
// job error and the reel record both say where processing stopped.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
