// Package speech defines the speech-to-text and text-to-speech capabilities
// consumed by the audio pipeline. Both are opaque external services behind a
// stable request/response contract; whether an implementation blocks on
// network I/O or local inference is invisible to callers.
package speech

import "context"

// Transcriber converts a recorded audio file into text.
type Transcriber interface {
	// Transcribe reads the audio file at audioPath and returns its
	// transcript. The file is owned by the caller and may be removed as
	// soon as Transcribe returns.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer converts reply text into spoken audio.
type Synthesizer interface {
	// Synthesize returns the spoken rendition of text as MP3 bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
