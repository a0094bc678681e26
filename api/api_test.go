package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/sanahealth/sana/pkg/conversation"
	"github.com/sanahealth/sana/pkg/history/inmemory"
	"github.com/sanahealth/sana/pkg/llm"
	"github.com/sanahealth/sana/pkg/medparse"
	"github.com/sanahealth/sana/pkg/pipeline"
)

type scriptedClient struct {
	reply string
	err   error
}

func (c *scriptedClient) Complete(_ context.Context, _ []llm.Message) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return t.transcript, nil
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (s *fakeSynthesizer) Synthesize(_ context.Context, _ string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

// audioUpload builds a multipart body with one file part carrying an
// explicit content type.
func audioUpload(filename, contentType string, data []byte) (io.Reader, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())

	return body, writer.FormDataContentType()
}

func decodeJSON(resp *http.Response, out any) {
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		server      *Server
		client      *scriptedClient
		transcriber *fakeTranscriber
		synthesizer *fakeSynthesizer
	)

	BeforeEach(func() {
		client = &scriptedClient{reply: "How long have you had the cough?"}
		transcriber = &fakeTranscriber{transcript: "I have a cough"}
		synthesizer = &fakeSynthesizer{audio: []byte("mp3-bytes")}

		engine, err := conversation.NewEngine(conversation.Config{
			Store:     inmemory.NewStore(),
			Client:    client,
			MaxWindow: 8,
			Logger:    zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		audio, err := pipeline.New(pipeline.Config{
			Engine:      engine,
			Transcriber: transcriber,
			Synthesizer: synthesizer,
			Logger:      zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		parser, err := medparse.NewParser(client)
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, engine, audio, parser, zap.NewNop())
	})

	Describe("GET /ping", func() {
		It("responds with pong", func() {
			resp, err := server.app.Test(httptest("GET", "/ping", nil, ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body string
			decodeJSON(resp, &body)
			Expect(body).To(Equal("pong"))
		})
	})

	Describe("POST /subjects/:subject/messages", func() {
		It("returns the reply with symptom matches", func() {
			resp, err := server.app.Test(httptest("POST", "/subjects/alice/messages",
				strings.NewReader(`{"message": "I have a cough"}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body MessageResponse
			decodeJSON(resp, &body)
			Expect(body.Reply).To(Equal("How long have you had the cough?"))
			Expect(body.Symptoms).To(Equal([]string{"COUGH"}))
			Expect(body.Categories).To(Equal([]string{"RespiratorySymptoms"}))
			Expect(body.Final).To(BeFalse())
		})

		It("rejects an empty message", func() {
			resp, err := server.app.Test(httptest("POST", "/subjects/alice/messages",
				strings.NewReader(`{"message": ""}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			resp, err := server.app.Test(httptest("POST", "/subjects/alice/messages",
				strings.NewReader(`{`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("maps a model failure to 502", func() {
			client.err = errors.New("429 rate limited")

			resp, err := server.app.Test(httptest("POST", "/subjects/alice/messages",
				strings.NewReader(`{"message": "hello"}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			var body ErrorResponse
			decodeJSON(resp, &body)
			Expect(body.Error).To(ContainSubstring("upstream"))
		})
	})

	Describe("POST /subjects/:subject/audio", func() {
		It("returns the spoken reply as an MP3 attachment", func() {
			body, contentType := audioUpload("voice.wav", "audio/wav", []byte("riff-bytes"))

			resp, err := server.app.Test(httptest("POST", "/subjects/alice/audio", body, contentType))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("audio/mpeg"))
			Expect(resp.Header.Get("Content-Disposition")).To(Equal(`attachment; filename="voice.mp3"`))

			audio, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(audio).To(Equal([]byte("mp3-bytes")))
		})

		It("rejects a request without a file", func() {
			resp, err := server.app.Test(httptest("POST", "/subjects/alice/audio",
				strings.NewReader(`{}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a non-audio upload", func() {
			body, contentType := audioUpload("report.pdf", "application/pdf", []byte("%PDF"))

			resp, err := server.app.Test(httptest("POST", "/subjects/alice/audio", body, contentType))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var errBody ErrorResponse
			decodeJSON(resp, &errBody)
			Expect(errBody.Error).To(ContainSubstring("application/pdf"))
		})

		It("maps a transcription failure to 502", func() {
			transcriber.err = errors.New("whisper unavailable")
			body, contentType := audioUpload("voice.wav", "audio/wav", []byte("riff-bytes"))

			resp, err := server.app.Test(httptest("POST", "/subjects/alice/audio", body, contentType))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("GET /subjects/:subject/history", func() {
		It("returns the persisted turns oldest first", func() {
			resp, err := server.app.Test(httptest("POST", "/subjects/alice/messages",
				strings.NewReader(`{"message": "I feel dizzy"}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = server.app.Test(httptest("GET", "/subjects/alice/history", nil, ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				SubjectID string `json:"subject_id"`
				Count     int    `json:"count"`
				Turns     []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"turns"`
			}
			decodeJSON(resp, &body)
			Expect(body.SubjectID).To(Equal("alice"))
			Expect(body.Count).To(Equal(2))
			Expect(body.Turns[0].Role).To(Equal("user"))
			Expect(body.Turns[0].Content).To(Equal("I feel dizzy"))
			Expect(body.Turns[1].Role).To(Equal("assistant"))
		})

		It("returns an empty list for an unknown subject", func() {
			resp, err := server.app.Test(httptest("GET", "/subjects/nobody/history", nil, ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count int `json:"count"`
			}
			decodeJSON(resp, &body)
			Expect(body.Count).To(BeZero())
		})
	})

	Describe("POST /symptoms/scan", func() {
		It("matches the taxonomy without touching history", func() {
			resp, err := server.app.Test(httptest("POST", "/symptoms/scan",
				strings.NewReader(`{"message": "shortness of breath"}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body SymptomScanResponse
			decodeJSON(resp, &body)
			Expect(body.Symptoms).To(Equal([]string{"SHORTNESS OF BREATH", "SHORTNESS OF BREATH"}))
			Expect(body.Categories).To(Equal([]string{
				"CardiovascularSymptoms",
				"RespiratorySymptoms",
			}))

			resp, err = server.app.Test(httptest("GET", "/subjects/alice/history", nil, ""))
			Expect(err).NotTo(HaveOccurred())
			var history struct {
				Count int `json:"count"`
			}
			decodeJSON(resp, &history)
			Expect(history.Count).To(BeZero())
		})
	})

	Describe("POST /consultations/parse", func() {
		It("returns the structured consultation", func() {
			client.reply = `{"symptoms": ["cough"], "duration": "3 days"}`

			resp, err := server.app.Test(httptest("POST", "/consultations/parse",
				strings.NewReader(`{"text": "a cough for three days"}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Symptoms []string `json:"symptoms"`
				Duration string   `json:"duration"`
			}
			decodeJSON(resp, &body)
			Expect(body.Symptoms).To(Equal([]string{"cough"}))
			Expect(body.Duration).To(Equal("3 days"))
		})

		It("maps a model failure to 502", func() {
			client.err = errors.New("503 upstream")

			resp, err := server.app.Test(httptest("POST", "/consultations/parse",
				strings.NewReader(`{"text": "some text"}`), fiberJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})
})

const fiberJSON = "application/json"

// httptest builds a request for fiber's in-process test harness.
func httptest(method, target string, body io.Reader, contentType string) *http.Request {
	req, err := http.NewRequest(method, target, body)
	Expect(err).NotTo(HaveOccurred())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}
