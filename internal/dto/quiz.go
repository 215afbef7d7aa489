package dto

import (
	"encoding/json"
	"fmt"

	"doc-quiz/internal/domain"
)

// QuizResponse is returned once a document has been turned into a quiz
// @Description Generated quiz, one question or answer line per entry
type QuizResponse struct {
	Quiz []string `json:"quiz"`
}

// QuizLines accepts a quiz either as a JSON array of lines or as a single
// newline-separated string.
type QuizLines []string

func (q *QuizLines) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		*q = QuizLines(domain.NormalizeQuiz(lines))
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("quiz must be an array of strings or a string")
	}
	*q = QuizLines(domain.SegmentQuiz(text))
	return nil
}

// AskRequest is a stateless follow-up question about a quiz
// @Description Question about a previously generated quiz
type AskRequest struct {
	Question string    `json:"question" example:"What is the answer to question 1?"`
	Quiz     QuizLines `json:"quiz" swaggertype:"array,string"`
}

// AskResponse carries the oracle's answer
type AskResponse struct {
	Reply string `json:"reply"`
}

// SessionResponse is returned when a session is created
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// SessionMessageRequest is a follow-up question inside a session
type SessionMessageRequest struct {
	Question string `json:"question" example:"Why is Paris the answer?"`
}

// SessionQuizResponse is the quiz generated for a session
type SessionQuizResponse struct {
	SessionID string   `json:"session_id"`
	Quiz      []string `json:"quiz"`
}

// SessionReplyResponse is the reply to a session follow-up
type SessionReplyResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// HealthResponse reports liveness and optional dependency state
type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache,omitempty"`
}
