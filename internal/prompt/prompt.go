// Package prompt builds the oracle requests for quiz generation and follow-up questions.
// Both builders are pure: no I/O and the same input always yields the same prompt.
package prompt

import (
	"fmt"
	"strings"

	"doc-quiz/internal/domain"
)

const (
	generationTemplate = "Generate a quiz for the following text:\n\n%s."
	followUpTemplate   = "Below is a quiz generated from a PDF:\n\n%s\n\nAnswer the following question about the quiz:\n%s"
)

// BuildGenerationPrompt wraps extracted document text in the quiz generation instruction.
func BuildGenerationPrompt(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.NewMissingInputError("text")
	}
	return fmt.Sprintf(generationTemplate, text), nil
}

// BuildFollowUpPrompt embeds the quiz as the only context for answering question.
func BuildFollowUpPrompt(quiz domain.Quiz, question string) (string, error) {
	if strings.TrimSpace(quiz.String()) == "" {
		return "", domain.NewMissingInputError("quiz")
	}
	if strings.TrimSpace(question) == "" {
		return "", domain.NewMissingInputError("question")
	}
	return fmt.Sprintf(followUpTemplate, quiz.String(), question), nil
}
