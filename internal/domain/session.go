package domain

import "time"

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionPhase is the conversation state of a session.
type SessionPhase string

const (
	// PhaseIdle means no quiz exists yet; only document submissions are accepted.
	PhaseIdle SessionPhase = "idle"
	// PhaseQuizReady means the quiz exists and follow-up questions are accepted.
	PhaseQuizReady SessionPhase = "quiz_ready"
)

// SessionSnapshot is a point-in-time copy of a session's state.
type SessionSnapshot struct {
	ID               string       `json:"id"`
	Phase            SessionPhase `json:"phase"`
	HasQuiz          bool         `json:"has_quiz"`
	Quiz             Quiz         `json:"quiz"`
	Transcript       []Message    `json:"transcript"`
	RevealInProgress bool         `json:"reveal_in_progress"`
	CreatedAt        time.Time    `json:"created_at"`
	LastActiveAt     time.Time    `json:"last_active_at"`
}
