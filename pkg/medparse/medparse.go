// Package medparse extracts structured medical facts from free-form
// consultation text using the language model.
package medparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sanahealth/sana/pkg/llm"
)

const (
	assistantInstruction = "You are a medical assistant who structures information."

	promptTemplate = "Here is a text from a medical consultation. " +
		"Extract the important medical information as JSON with the following keys: " +
		"symptoms, duration, intensity, other. " +
		"Text: %q Respond only with the JSON."
)

// Consultation is the structured reading of a consultation text.
type Consultation struct {
	Symptoms  json.RawMessage `json:"symptoms,omitempty"`
	Duration  json.RawMessage `json:"duration,omitempty"`
	Intensity json.RawMessage `json:"intensity,omitempty"`
	Other     json.RawMessage `json:"other,omitempty"`

	// Raw holds the model's verbatim output when it was not valid JSON.
	// When Raw is set the structured fields are empty.
	Raw string `json:"raw,omitempty"`
}

// Structured reports whether the model produced parseable JSON.
func (c *Consultation) Structured() bool {
	return c.Raw == ""
}

// Parser asks the model to structure consultation text.
type Parser struct {
	client llm.Client
}

// NewParser creates a new consultation parser.
func NewParser(client llm.Client) (*Parser, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	return &Parser{client: client}, nil
}

// Parse structures the consultation text. Model output that is not valid
// JSON is not an error: it is returned verbatim in the Raw field. Only a
// failed model call errors.
func (p *Parser) Parse(ctx context.Context, text string) (*Consultation, error) {
	messages := []llm.Message{
		llm.NewSystemMessage(assistantInstruction),
		llm.NewUserMessage(fmt.Sprintf(promptTemplate, text)),
	}

	result, err := p.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("structuring consultation: %w", err)
	}

	var consultation Consultation
	if err := json.Unmarshal([]byte(strings.TrimSpace(result)), &consultation); err != nil {
		return &Consultation{Raw: result}, nil
	}

	return &consultation, nil
}
