package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanahealth/sana/pkg/eventstream"
	"github.com/sanahealth/sana/pkg/eventstream/worker"
	"github.com/sanahealth/sana/pkg/history"
	"github.com/sanahealth/sana/pkg/llm"
	"github.com/sanahealth/sana/pkg/symptoms"
	"github.com/sanahealth/sana/pkg/utils"
)

// DefaultMaxWindow is the round-trip pair budget for one consultation.
const DefaultMaxWindow = 8

// Config is the configuration options for the conversation engine.
type Config struct {
	// Store is the session history backend.
	Store history.Store

	// Client is the language-model capability.
	Client llm.Client

	// MaxWindow is the round-trip pair budget (defaults to DefaultMaxWindow).
	MaxWindow int

	// Events optionally receives a turn event after each persisted round
	// trip. May be nil.
	Events *worker.Pool

	// Logger is the provided zap logger.
	Logger *zap.Logger

	// AppendDelay, when set, runs between the history fetch and the
	// user-turn append. It exists to exercise the per-subject
	// serialization guarantee in tests.
	AppendDelay func()

	// Now overrides the turn timestamp source (defaults to time.Now).
	Now func() time.Time
}

// Reply is the outcome of one consultation round trip.
type Reply struct {
	// Text is the assistant's reply.
	Text string

	// Symptoms and Categories are the taxonomy matches found in the
	// user's utterance, in taxonomy-declaration order.
	Symptoms   []string
	Categories []string

	// Final reports whether the diagnosis instruction was in effect for
	// this turn.
	Final bool
}

// Engine produces a model reply for a subject's utterance. History reads and
// writes for one subject are serialized through a per-subject mutex; the
// model call itself happens outside the lock so one subject's slow
// completion never blocks another request phase for that subject's lock
// longer than the history mutation itself.
type Engine struct {
	store     history.Store
	client    llm.Client
	maxWindow int
	events    *worker.Pool
	logger    *zap.Logger

	appendDelay func()
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a new conversation engine.
func NewEngine(c Config) (*Engine, error) {
	if c.Store == nil {
		return nil, errors.New("history store is required")
	}
	if c.Client == nil {
		return nil, errors.New("llm client is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	maxWindow := c.MaxWindow
	if maxWindow <= 0 {
		maxWindow = DefaultMaxWindow
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		store:       c.Store,
		client:      c.Client,
		maxWindow:   maxWindow,
		events:      c.Events,
		logger:      c.Logger,
		appendDelay: c.AppendDelay,
		now:         now,
		locks:       make(map[string]*sync.Mutex),
	}, nil
}

// MaxWindow returns the configured round-trip pair budget.
func (e *Engine) MaxWindow() int {
	return e.maxWindow
}

// Reply runs one consultation round trip for the subject: fetch the recent
// window, persist the user turn, invoke the model with the policy preamble
// plus the window, persist the reply, and return it.
//
// An empty userMessage is persisted and sent unchanged; input validation
// belongs to the boundary, not the engine. A nil medicalContext and an empty
// one are equivalent. A failed model call returns an *UpstreamError; the
// user turn stays persisted, no reply turn is written, and no audio or text
// reply exists for the caller to use.
func (e *Engine) Reply(ctx context.Context, subjectID, userMessage string, medicalContext map[string]string) (*Reply, error) {
	userTurn := history.Turn{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Role:      history.RoleUser,
		Content:   userMessage,
		CreatedAt: e.now().UTC(),
	}

	window, turnsBefore, err := e.appendUserTurn(ctx, &userTurn)
	if err != nil {
		return nil, fmt.Errorf("persisting user turn: %w", err)
	}

	preamble := SystemPreamble(turnsBefore, medicalContext, e.maxWindow)
	final := turnsBefore+1 >= 2*e.maxWindow-1

	prompt := make([]llm.Message, 0, len(preamble)+len(window)+1)
	prompt = append(prompt, preamble...)
	for _, turn := range window {
		prompt = append(prompt, llm.Message{
			Role:    string(turn.Role),
			Content: promptContent(turn),
		})
	}
	prompt = append(prompt, llm.NewUserMessage(userMessage))

	// The model call runs outside the subject lock.
	text, err := e.client.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("model call failed",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return nil, &UpstreamError{Err: err}
	}

	replyTurn := history.Turn{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Role:      history.RoleAssistant,
		Content:   text,
		CreatedAt: e.now().UTC(),
	}

	if err := e.appendReplyTurn(ctx, &replyTurn); err != nil {
		return nil, fmt.Errorf("persisting reply turn: %w", err)
	}

	e.logger.Debug("reply produced",
		zap.String("subject_id", subjectID),
		zap.String("reply", utils.Truncate(text, 80)),
	)

	matched, categories := symptoms.Extract(userMessage)

	e.publishTurnEvent(subjectID, userTurn, replyTurn, matched, categories, final)

	return &Reply{
		Text:       text,
		Symptoms:   matched,
		Categories: categories,
		Final:      final,
	}, nil
}

// History returns the subject's recent window (most recent 2*maxWindow
// turns), oldest first.
func (e *Engine) History(ctx context.Context, subjectID string) ([]history.Turn, error) {
	return e.store.Recent(ctx, subjectID, 2*e.maxWindow)
}

// appendUserTurn reads the window and pre-append count and persists the user
// turn, all under the subject's lock so concurrent replies for one subject
// observe distinct pre-append counts.
func (e *Engine) appendUserTurn(ctx context.Context, turn *history.Turn) ([]history.Turn, int, error) {
	lock := e.subjectLock(turn.SubjectID)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.store.Recent(ctx, turn.SubjectID, 2*e.maxWindow)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching window: %w", err)
	}

	turnsBefore, err := e.store.Count(ctx, turn.SubjectID)
	if err != nil {
		return nil, 0, fmt.Errorf("counting turns: %w", err)
	}

	if e.appendDelay != nil {
		e.appendDelay()
	}

	if err := e.store.Append(ctx, turn); err != nil {
		return nil, 0, err
	}

	return window, turnsBefore, nil
}

// appendReplyTurn persists the assistant turn under the subject's lock.
func (e *Engine) appendReplyTurn(ctx context.Context, turn *history.Turn) error {
	lock := e.subjectLock(turn.SubjectID)
	lock.Lock()
	defer lock.Unlock()

	return e.store.Append(ctx, turn)
}

// subjectLock returns the mutex serializing history mutation for a subject.
func (e *Engine) subjectLock(subjectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[subjectID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[subjectID] = lock
	}

	return lock
}

// publishTurnEvent enqueues a turn event when an event pool is configured.
func (e *Engine) publishTurnEvent(subjectID string, userTurn, replyTurn history.Turn, matched, categories []string, final bool) {
	if e.events == nil {
		return
	}

	enqueued := e.events.Enqueue(worker.Job{Event: &eventstream.TurnPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     e.now().UTC(),
		SubjectID:     subjectID,
		UserTurn:      userTurn,
		AssistantTurn: replyTurn,
		Symptoms:      matched,
		Categories:    categories,
		FinalResponse: final,
	}})
	if !enqueued {
		e.logger.Warn("turn event dropped, queue full",
			zap.String("subject_id", subjectID),
		)
	}
}

// promptContent renders a persisted turn for the model, annotating the stored
// content with its timestamp.
func promptContent(turn history.Turn) string {
	return turn.Content + " timestamp: " + turn.CreatedAt.Format(time.RFC3339)
}
