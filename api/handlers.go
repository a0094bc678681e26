package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sanahealth/sana/pkg/conversation"
	"github.com/sanahealth/sana/pkg/pipeline"
	"github.com/sanahealth/sana/pkg/symptoms"
)

// MessageRequest is the body of a text consultation turn.
type MessageRequest struct {
	Message string `json:"message"`

	// MedicalContext seeds the consultation; it only takes effect on the
	// subject's first turn.
	MedicalContext map[string]string `json:"medical_context,omitempty"`
}

// MessageResponse is the engine's reply to a consultation turn.
type MessageResponse struct {
	Reply      string   `json:"reply"`
	Symptoms   []string `json:"symptoms"`
	Categories []string `json:"categories"`
	Final      bool     `json:"final"`
}

// SymptomScanRequest is the body of a taxonomy scan.
type SymptomScanRequest struct {
	Message string `json:"message"`
}

// SymptomScanResponse lists the taxonomy matches for a message.
type SymptomScanResponse struct {
	Symptoms   []string `json:"symptoms"`
	Categories []string `json:"categories"`
}

// ConsultationParseRequest is the body of a consultation parse.
type ConsultationParseRequest struct {
	Text string `json:"text"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleMessage runs one text consultation turn for a subject.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	subject := c.Params("subject")

	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	reply, err := s.engine.Reply(c.Context(), subject, req.Message, req.MedicalContext)
	if err != nil {
		return s.replyError(c, subject, err)
	}

	return c.JSON(MessageResponse{
		Reply:      reply.Text,
		Symptoms:   reply.Symptoms,
		Categories: reply.Categories,
		Final:      reply.Final,
	})
}

// handleAudio runs one spoken consultation turn: upload in, MP3 out.
func (s *Server) handleAudio(c *fiber.Ctx) error {
	subject := c.Params("subject")

	upload, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "file upload is required"})
	}

	data, err := readUpload(upload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "could not read upload"})
	}

	medicalContext, err := parseMedicalContext(c.FormValue("medical_context"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "medical_context must be a JSON object of strings"})
	}

	reply, err := s.pipeline.Process(c.Context(), pipeline.AudioRequest{
		SubjectID:      subject,
		Filename:       upload.Filename,
		MimeType:       upload.Header.Get(fiber.HeaderContentType),
		Data:           data,
		MedicalContext: medicalContext,
	})
	if err != nil {
		return s.replyError(c, subject, err)
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", reply.Filename))
	return c.Send(reply.Audio)
}

// handleHistory returns the subject's recent turns, oldest first.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	subject := c.Params("subject")

	turns, err := s.engine.History(c.Context(), subject)
	if err != nil {
		s.logger.Error("history fetch failed",
			zap.String("subject_id", subject),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to fetch history"})
	}

	return c.JSON(map[string]any{
		"subject_id": subject,
		"count":      len(turns),
		"turns":      turns,
	})
}

// handleSymptomScan matches a message against the symptom taxonomy without
// touching any subject's history.
func (s *Server) handleSymptomScan(c *fiber.Ctx) error {
	var req SymptomScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	labels, categories := symptoms.Extract(req.Message)

	return c.JSON(SymptomScanResponse{
		Symptoms:   labels,
		Categories: categories,
	})
}

// handleConsultationParse structures free-form consultation text.
func (s *Server) handleConsultationParse(c *fiber.Ctx) error {
	var req ConsultationParseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text is required"})
	}

	consultation, err := s.parser.Parse(c.Context(), req.Text)
	if err != nil {
		s.logger.Error("consultation parse failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "language model unavailable"})
	}

	return c.JSON(consultation)
}

// replyError maps round-trip failures onto HTTP statuses: the caller's
// input gets 400, a failed dependency gets 502, anything else 500.
func (s *Server) replyError(c *fiber.Ctx, subject string, err error) error {
	var badInput *pipeline.BadInputError
	if errors.As(err, &badInput) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: badInput.Reason})
	}

	var pipelineUpstream *pipeline.UpstreamError
	var engineUpstream *conversation.UpstreamError
	if errors.As(err, &pipelineUpstream) || errors.As(err, &engineUpstream) {
		s.logger.Error("upstream dependency failed",
			zap.String("subject_id", subject),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "upstream dependency unavailable"})
	}

	s.logger.Error("consultation turn failed",
		zap.String("subject_id", subject),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
}

// readUpload reads the multipart file into memory.
func readUpload(upload *multipart.FileHeader) ([]byte, error) {
	f, err := upload.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// parseMedicalContext decodes the optional medical_context form value.
func parseMedicalContext(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}

	var medicalContext map[string]string
	if err := json.Unmarshal([]byte(raw), &medicalContext); err != nil {
		return nil, err
	}

	return medicalContext, nil
}
