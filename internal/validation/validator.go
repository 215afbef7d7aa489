package validation

import (
	"strings"
	"unicode/utf8"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/util"
)

const (
	MaxQuestionLength = 2000
	MaxQuizLines      = 500
)

// Validator checks request shape. Emptiness of question and quiz is left to the prompt
// builder, which reports it as MISSING_INPUT.
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSessionID checks that id is a ULID.
func (v *Validator) ValidateSessionID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !util.IsULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", id))
	}
	return errors
}

// ValidateQuestion bounds the question length in runes.
func (v *Validator) ValidateQuestion(question string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if n := utf8.RuneCountInString(question); n > MaxQuestionLength {
		errors = append(errors, domain.NewOutOfRangeError("question", n, 1, MaxQuestionLength))
	}
	return errors
}

// ValidateAskRequest validates a stateless follow-up request.
func (v *Validator) ValidateAskRequest(question string, quiz []string) domain.ValidationErrors {
	errors := v.ValidateQuestion(question)
	if len(quiz) > MaxQuizLines {
		errors = append(errors, domain.NewOutOfRangeError("quiz", len(quiz), 1, MaxQuizLines))
	}
	return errors
}
