// Package openai provides Whisper transcription and speech synthesis through
// the OpenAI audio APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config holds the settings for the OpenAI speech client.
type Config struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// STTModel is the transcription model (defaults to whisper-1).
	STTModel string

	// TTSModel is the synthesis model (defaults to tts-1).
	TTSModel string

	// Voice selects the synthesis voice (defaults to alloy).
	Voice string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string
}

// Client implements speech.Transcriber and speech.Synthesizer.
type Client struct {
	client   *goopenai.Client
	sttModel string
	ttsModel goopenai.SpeechModel
	voice    goopenai.SpeechVoice
}

// NewClient creates an OpenAI-backed speech client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	sttModel := cfg.STTModel
	if sttModel == "" {
		sttModel = goopenai.Whisper1
	}

	ttsModel := goopenai.SpeechModel(cfg.TTSModel)
	if ttsModel == "" {
		ttsModel = goopenai.TTSModel1
	}

	voice := goopenai.SpeechVoice(cfg.Voice)
	if voice == "" {
		voice = goopenai.VoiceAlloy
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:   goopenai.NewClientWithConfig(clientConfig),
		sttModel: sttModel,
		ttsModel: ttsModel,
		voice:    voice,
	}, nil
}

// Transcribe sends the audio file to the transcription API and returns the
// recognized text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.sttModel,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return resp.Text, nil
}

// Synthesize renders text as MP3 audio through the speech API.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}

	return audio, nil
}
