package conversation

// UpstreamError reports a failed language-model invocation. The user turn is
// already persisted when this is returned; the reply turn is not. Callers
// must treat it as a recoverable failure, never as an empty reply.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return "language model call failed"
	}

	return "language model call failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
