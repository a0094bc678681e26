// Package pipeline implements the audio consultation flow: validate an
// uploaded recording, transcribe it, run the conversation round trip, and
// synthesize the reply as speech.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sanahealth/sana/pkg/conversation"
	"github.com/sanahealth/sana/pkg/speech"
)

// DefaultMaxUploadBytes caps uploaded recordings at 50 MiB.
const DefaultMaxUploadBytes = 50 << 20

// Replier is the conversation capability the pipeline consumes.
type Replier interface {
	Reply(ctx context.Context, subjectID, userMessage string, medicalContext map[string]string) (*conversation.Reply, error)
}

// AudioRequest is one uploaded recording plus its routing context.
type AudioRequest struct {
	SubjectID string

	// Filename is the upload's original name; the reply audio is named
	// after it.
	Filename string

	// MimeType is the declared content type of the upload.
	MimeType string

	Data []byte

	// MedicalContext is forwarded to the conversation engine; it only
	// takes effect on a subject's first turn.
	MedicalContext map[string]string
}

// AudioReply is the spoken consultation response.
type AudioReply struct {
	// Transcript is what the subject was heard to say.
	Transcript string

	// Text is the assistant's reply, also rendered as Audio.
	Text  string
	Audio []byte

	// Filename is the attachment name for Audio, derived from the
	// upload's original name.
	Filename string

	Symptoms   []string
	Categories []string
	Final      bool
}

// Config is the configuration options for the audio pipeline.
type Config struct {
	Engine      Replier
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer

	// MaxUploadBytes caps the accepted recording size (defaults to
	// DefaultMaxUploadBytes).
	MaxUploadBytes int64

	Logger *zap.Logger
}

// Pipeline turns an uploaded recording into a spoken reply.
type Pipeline struct {
	engine         Replier
	transcriber    speech.Transcriber
	synthesizer    speech.Synthesizer
	maxUploadBytes int64
	logger         *zap.Logger
}

// New creates a new audio pipeline.
func New(c Config) (*Pipeline, error) {
	if c.Engine == nil {
		return nil, errors.New("conversation engine is required")
	}
	if c.Transcriber == nil {
		return nil, errors.New("transcriber is required")
	}
	if c.Synthesizer == nil {
		return nil, errors.New("synthesizer is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	maxUploadBytes := c.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	return &Pipeline{
		engine:         c.Engine,
		transcriber:    c.Transcriber,
		synthesizer:    c.Synthesizer,
		maxUploadBytes: maxUploadBytes,
		logger:         c.Logger,
	}, nil
}

// Process runs one audio round trip. Validation happens before any upstream
// call or filesystem write, so a rejected request costs nothing. The upload
// is staged in a temp file for transcription and the file is removed before
// Process returns, on every path.
func (p *Pipeline) Process(ctx context.Context, req AudioRequest) (*AudioReply, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	transcript, err := p.transcribe(ctx, req)
	if err != nil {
		return nil, err
	}

	reply, err := p.engine.Reply(ctx, req.SubjectID, transcript, req.MedicalContext)
	if err != nil {
		return nil, &UpstreamError{Stage: StageConversation, Err: err}
	}

	audio, err := p.synthesizer.Synthesize(ctx, reply.Text)
	if err != nil {
		return nil, &UpstreamError{Stage: StageSynthesis, Err: err}
	}

	p.logger.Debug("audio round trip complete",
		zap.String("subject_id", req.SubjectID),
		zap.Int("transcript_len", len(transcript)),
		zap.Int("audio_bytes", len(audio)),
	)

	return &AudioReply{
		Transcript: transcript,
		Text:       reply.Text,
		Audio:      audio,
		Filename:   replyFilename(req.Filename),
		Symptoms:   reply.Symptoms,
		Categories: reply.Categories,
		Final:      reply.Final,
	}, nil
}

// validate rejects malformed uploads before any upstream work.
func (p *Pipeline) validate(req AudioRequest) error {
	if !strings.HasPrefix(req.MimeType, "audio/") {
		return &BadInputError{Reason: fmt.Sprintf("unsupported content type %q", req.MimeType)}
	}
	if len(req.Data) == 0 {
		return &BadInputError{Reason: "empty upload"}
	}
	if int64(len(req.Data)) > p.maxUploadBytes {
		return &BadInputError{Reason: fmt.Sprintf(
			"upload of %d bytes exceeds the %d byte limit", len(req.Data), p.maxUploadBytes,
		)}
	}
	return nil
}

// transcribe stages the upload in a temp file and runs speech-to-text.
func (p *Pipeline) transcribe(ctx context.Context, req AudioRequest) (string, error) {
	tmp, err := os.CreateTemp("", "sana-upload-*"+filepath.Ext(req.Filename))
	if err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			p.logger.Warn("removing staged upload failed",
				zap.String("path", tmp.Name()),
				zap.Error(err),
			)
		}
	}()

	if _, err := tmp.Write(req.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("staging upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}

	transcript, err := p.transcriber.Transcribe(ctx, tmp.Name())
	if err != nil {
		return "", &UpstreamError{Stage: StageTranscription, Err: err}
	}

	return transcript, nil
}

// replyFilename names the reply audio after the upload's original name.
func replyFilename(uploadName string) string {
	base := strings.TrimSuffix(filepath.Base(uploadName), filepath.Ext(uploadName))
	if base == "" || base == "." {
		base = "reply"
	}
	return base + ".mp3"
}
