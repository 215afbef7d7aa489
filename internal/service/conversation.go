package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"
	"doc-quiz/internal/presenter"

	"go.uber.org/zap"
)

const (
	uploadMessage     = "I have uploaded a document."
	subscriberBacklog = 64
)

// Conversation is the per-session state machine. It moves from idle to quiz-ready once,
// after the first successful generation, and then answers follow-up questions using the
// quiz as the only context.
//
// runMu serializes pipeline runs and is only ever try-locked. mu guards the session
// state, which the reveal goroutine also writes. Lock order is reveal -> subMu -> mu;
// never call into a Reveal while holding mu or subMu.
type Conversation struct {
	id      string
	quizzes QuizService
	ticks   presenter.TickerFunc
	now     func() time.Time

	runMu sync.Mutex

	mu           sync.Mutex
	phase        domain.SessionPhase
	quiz         domain.Quiz
	transcript   []domain.Message
	reveal       *presenter.Reveal
	revealing    bool
	createdAt    time.Time
	lastActiveAt time.Time
	closed       bool

	subMu       sync.Mutex
	subscribers map[uint64]chan presenter.Chunk
	nextSubID   uint64
}

// NewConversation creates an idle conversation with an empty transcript.
func NewConversation(id string, quizzes QuizService, ticks presenter.TickerFunc) *Conversation {
	return newConversation(id, quizzes, ticks, time.Now)
}

func newConversation(id string, quizzes QuizService, ticks presenter.TickerFunc, now func() time.Time) *Conversation {
	created := now()
	return &Conversation{
		id:           id,
		quizzes:      quizzes,
		ticks:        ticks,
		now:          now,
		phase:        domain.PhaseIdle,
		createdAt:    created,
		lastActiveAt: created,
		subscribers:  make(map[uint64]chan presenter.Chunk),
	}
}

// ID returns the session identifier.
func (c *Conversation) ID() string {
	return c.id
}

// SubmitDocument turns doc into the session's quiz. The upload message is recorded
// before the pipeline runs; on failure the session stays idle and the stage error is
// returned unchanged.
func (c *Conversation) SubmitDocument(ctx context.Context, doc domain.Document) (domain.Quiz, error) {
	if !c.runMu.TryLock() {
		return nil, domain.NewBusyError()
	}
	defer c.runMu.Unlock()
	c.completeReveal()

	l := logger.Get().With(zap.String("session_id", c.id))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.NewSessionNotFoundError(c.id)
	}
	if c.phase == domain.PhaseQuizReady {
		c.mu.Unlock()
		return nil, domain.NewQuizAlreadyGeneratedError()
	}
	c.appendLocked(domain.RoleUser, uploadText(doc.Filename))
	c.mu.Unlock()

	quiz, err := c.quizzes.GenerateQuiz(ctx, doc)
	if err != nil {
		l.Warn("Quiz generation failed, session stays idle", zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	c.quiz = quiz.Clone()
	c.phase = domain.PhaseQuizReady
	c.lastActiveAt = c.now()
	c.mu.Unlock()

	l.Info("Session has a quiz", zap.Int("quiz_lines", len(quiz)))
	c.startReveal(quiz.String())
	return quiz.Clone(), nil
}

// Ask answers question about the session's quiz. Rejected questions leave the
// transcript untouched.
func (c *Conversation) Ask(ctx context.Context, question string) (string, error) {
	if !c.runMu.TryLock() {
		return "", domain.NewBusyError()
	}
	defer c.runMu.Unlock()

	c.mu.Lock()
	phase, quiz, closed := c.phase, c.quiz, c.closed
	c.mu.Unlock()
	if closed {
		return "", domain.NewSessionNotFoundError(c.id)
	}
	if phase != domain.PhaseQuizReady {
		return "", domain.NewNoQuizContextError()
	}

	followUp, err := c.quizzes.PrepareFollowUp(quiz, question)
	if err != nil {
		return "", err
	}

	c.completeReveal()
	c.mu.Lock()
	c.appendLocked(domain.RoleUser, question)
	c.mu.Unlock()

	reply, err := c.quizzes.Answer(ctx, followUp)
	if err != nil {
		logger.Get().Warn("Follow-up failed",
			zap.String("session_id", c.id),
			zap.Error(err))
		return "", err
	}

	c.startReveal(reply)
	return reply, nil
}

// Snapshot returns a copy of the session state.
func (c *Conversation) Snapshot() domain.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	transcript := make([]domain.Message, len(c.transcript))
	copy(transcript, c.transcript)
	return domain.SessionSnapshot{
		ID:               c.id,
		Phase:            c.phase,
		HasQuiz:          c.phase == domain.PhaseQuizReady,
		Quiz:             c.quiz.Clone(),
		Transcript:       transcript,
		RevealInProgress: c.revealing,
		CreatedAt:        c.createdAt,
		LastActiveAt:     c.lastActiveAt,
	}
}

// Quiz returns the session quiz and whether one has been generated.
func (c *Conversation) Quiz() (domain.Quiz, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz.Clone(), c.phase == domain.PhaseQuizReady
}

// LastActiveAt is the time of the last accepted input or completed generation.
func (c *Conversation) LastActiveAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActiveAt
}

// SkipReveal jumps the running reveal, if any, to its full text.
func (c *Conversation) SkipReveal() {
	c.completeReveal()
}

// Subscribe streams reveal chunks until cancel is called or the session is closed.
// A slow subscriber loses intermediate chunks, never the most recent one.
func (c *Conversation) Subscribe() (<-chan presenter.Chunk, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan presenter.Chunk, subscriberBacklog)
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close completes any running reveal and disconnects subscribers. It is idempotent.
// Runs still in flight finish without starting a new reveal.
func (c *Conversation) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.completeReveal()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

// tryIdle reports whether no pipeline run is in flight, without blocking.
func (c *Conversation) tryIdle() bool {
	if !c.runMu.TryLock() {
		return false
	}
	c.runMu.Unlock()
	return true
}

func (c *Conversation) appendLocked(role domain.Role, text string) int {
	now := c.now()
	c.transcript = append(c.transcript, domain.Message{Role: role, Text: text, CreatedAt: now})
	c.lastActiveAt = now
	return len(c.transcript) - 1
}

func (c *Conversation) completeReveal() {
	c.mu.Lock()
	r := c.reveal
	c.mu.Unlock()
	if r != nil {
		r.SkipToEnd()
	}
}

// startReveal must be called with runMu held so reveals never overlap. The reveal is
// published before its first write so a concurrent SkipReveal always finds it.
func (c *Conversation) startReveal(text string) {
	c.completeReveal()
	r := presenter.New(text, &transcriptSink{c: c}, c.ticks, c.publish)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.reveal = r
	c.mu.Unlock()
	r.Start()
}

func (c *Conversation) publish(chunk presenter.Chunk) {
	c.mu.Lock()
	c.revealing = !chunk.Done
	c.mu.Unlock()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- chunk:
		default:
			// drop the oldest chunk; every chunk carries the full prefix
			select {
			case <-ch:
			default:
			}
			ch <- chunk
		}
	}
}

// transcriptSink writes a reveal into one assistant entry of the transcript.
type transcriptSink struct {
	c   *Conversation
	idx int
}

func (s *transcriptSink) Append(text string) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.idx = s.c.appendLocked(domain.RoleAssistant, text)
}

func (s *transcriptSink) Replace(text string) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.transcript[s.idx].Text = text
}

func uploadText(filename string) string {
	if filename == "" {
		return uploadMessage
	}
	return fmt.Sprintf("I have uploaded a document: %s.", filename)
}
