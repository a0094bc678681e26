package pipeline_test

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/sanahealth/sana/pkg/conversation"
	"github.com/sanahealth/sana/pkg/pipeline"
)

type fakeTranscriber struct {
	transcript string
	err        error

	calls     int
	seenPath  string
	seenBytes []byte
}

func (t *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	t.calls++
	t.seenPath = audioPath
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}
	t.seenBytes = data
	if t.err != nil {
		return "", t.err
	}
	return t.transcript, nil
}

type fakeSynthesizer struct {
	audio []byte
	err   error
	calls int
	seen  string
}

func (s *fakeSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.calls++
	s.seen = text
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

type fakeReplier struct {
	reply *conversation.Reply
	err   error

	calls       int
	seenSubject string
	seenMessage string
	seenContext map[string]string
}

func (r *fakeReplier) Reply(_ context.Context, subjectID, userMessage string, medicalContext map[string]string) (*conversation.Reply, error) {
	r.calls++
	r.seenSubject = subjectID
	r.seenMessage = userMessage
	r.seenContext = medicalContext
	if r.err != nil {
		return nil, r.err
	}
	return r.reply, nil
}

var _ = Describe("Pipeline", func() {
	var (
		transcriber *fakeTranscriber
		synthesizer *fakeSynthesizer
		replier     *fakeReplier
		p           *pipeline.Pipeline
	)

	request := func() pipeline.AudioRequest {
		return pipeline.AudioRequest{
			SubjectID: "subject-1",
			Filename:  "voice.wav",
			MimeType:  "audio/wav",
			Data:      []byte("riff-bytes"),
		}
	}

	BeforeEach(func() {
		transcriber = &fakeTranscriber{transcript: "I have a cough"}
		synthesizer = &fakeSynthesizer{audio: []byte("mp3-bytes")}
		replier = &fakeReplier{reply: &conversation.Reply{
			Text:       "How long have you had it?",
			Symptoms:   []string{"COUGH"},
			Categories: []string{"RespiratorySymptoms"},
		}}

		var err error
		p, err = pipeline.New(pipeline.Config{
			Engine:      replier,
			Transcriber: transcriber,
			Synthesizer: synthesizer,
			Logger:      zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("runs transcription, conversation and synthesis in order", func() {
		reply, err := p.Process(context.Background(), request())

		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Transcript).To(Equal("I have a cough"))
		Expect(reply.Text).To(Equal("How long have you had it?"))
		Expect(reply.Audio).To(Equal([]byte("mp3-bytes")))
		Expect(reply.Filename).To(Equal("voice.mp3"))
		Expect(reply.Symptoms).To(Equal([]string{"COUGH"}))
		Expect(reply.Categories).To(Equal([]string{"RespiratorySymptoms"}))

		Expect(replier.seenSubject).To(Equal("subject-1"))
		Expect(replier.seenMessage).To(Equal("I have a cough"))
		Expect(synthesizer.seen).To(Equal("How long have you had it?"))
	})

	It("stages the upload bytes for the transcriber and removes the file", func() {
		_, err := p.Process(context.Background(), request())

		Expect(err).NotTo(HaveOccurred())
		Expect(transcriber.seenBytes).To(Equal([]byte("riff-bytes")))
		Expect(transcriber.seenPath).NotTo(BeAnExistingFile())
	})

	It("forwards the medical context to the engine", func() {
		req := request()
		req.MedicalContext = map[string]string{"allergies": "penicillin"}

		_, err := p.Process(context.Background(), req)

		Expect(err).NotTo(HaveOccurred())
		Expect(replier.seenContext).To(Equal(req.MedicalContext))
	})

	Describe("validation", func() {
		It("rejects a non-audio content type before any upstream call", func() {
			req := request()
			req.MimeType = "application/pdf"

			reply, err := p.Process(context.Background(), req)

			Expect(reply).To(BeNil())
			var badInput *pipeline.BadInputError
			Expect(errors.As(err, &badInput)).To(BeTrue())
			Expect(badInput.Reason).To(ContainSubstring("application/pdf"))

			Expect(transcriber.calls).To(BeZero())
			Expect(replier.calls).To(BeZero())
			Expect(synthesizer.calls).To(BeZero())
		})

		It("rejects an empty upload", func() {
			req := request()
			req.Data = nil

			_, err := p.Process(context.Background(), req)

			var badInput *pipeline.BadInputError
			Expect(errors.As(err, &badInput)).To(BeTrue())
		})

		It("rejects an oversized upload", func() {
			small, err := pipeline.New(pipeline.Config{
				Engine:         replier,
				Transcriber:    transcriber,
				Synthesizer:    synthesizer,
				MaxUploadBytes: 4,
				Logger:         zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = small.Process(context.Background(), request())

			var badInput *pipeline.BadInputError
			Expect(errors.As(err, &badInput)).To(BeTrue())
			Expect(badInput.Reason).To(ContainSubstring("exceeds"))
			Expect(transcriber.calls).To(BeZero())
		})
	})

	Describe("upstream failures", func() {
		It("tags a transcription failure with its stage", func() {
			transcriber.err = errors.New("whisper unavailable")

			_, err := p.Process(context.Background(), request())

			var upstream *pipeline.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			Expect(upstream.Stage).To(Equal(pipeline.StageTranscription))
			Expect(replier.calls).To(BeZero())
		})

		It("tags a conversation failure with its stage and removes the temp file", func() {
			replier.err = &conversation.UpstreamError{Err: errors.New("429 rate limited")}

			_, err := p.Process(context.Background(), request())

			var upstream *pipeline.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			Expect(upstream.Stage).To(Equal(pipeline.StageConversation))
			Expect(errors.Is(err, replier.err)).To(BeTrue())

			Expect(transcriber.seenPath).NotTo(BeAnExistingFile())
			Expect(synthesizer.calls).To(BeZero())
		})

		It("tags a synthesis failure with its stage", func() {
			synthesizer.err = errors.New("tts unavailable")

			_, err := p.Process(context.Background(), request())

			var upstream *pipeline.UpstreamError
			Expect(errors.As(err, &upstream)).To(BeTrue())
			Expect(upstream.Stage).To(Equal(pipeline.StageSynthesis))
		})
	})

	Describe("reply filename", func() {
		It("swaps the upload extension for mp3", func() {
			req := request()
			req.Filename = "monday-checkin.ogg"

			reply, err := p.Process(context.Background(), req)

			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Filename).To(Equal("monday-checkin.mp3"))
		})

		It("falls back to a generic name for a bare extension", func() {
			req := request()
			req.Filename = ".wav"

			reply, err := p.Process(context.Background(), req)

			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Filename).To(Equal("reply.mp3"))
		})
	})
})
