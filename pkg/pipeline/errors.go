package pipeline

import "fmt"

// Stage names the pipeline step an upstream failure occurred in.
type Stage string

const (
	StageTranscription Stage = "stt"
	StageConversation  Stage = "llm"
	StageSynthesis     Stage = "tts"
)

// BadInputError reports a request rejected before any upstream work was
// attempted. The caller's input is at fault, not the system.
type BadInputError struct {
	Reason string
}

func (e *BadInputError) Error() string {
	return fmt.Sprintf("bad audio input: %s", e.Reason)
}

// UpstreamError reports a dependent service failure at a specific pipeline
// stage.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
