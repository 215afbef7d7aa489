package prompt

import (
	"testing"

	"doc-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGenerationPrompt(t *testing.T) {
	texts := []string{
		"Paris is the capital of France.",
		"100% of the 50%s are %d formatted",
		"multi\nline\ttext",
	}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			p, err := BuildGenerationPrompt(text)
			require.NoError(t, err)
			assert.Contains(t, p, text)
			assert.Contains(t, p, "Generate a quiz")
		})
	}
}

func TestBuildGenerationPrompt_MissingInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := BuildGenerationPrompt(text)
		assert.True(t, domain.IsCode(err, domain.CodeMissingInput), "text %q", text)
	}
}

func TestBuildFollowUpPrompt(t *testing.T) {
	quiz := domain.Quiz{"Q1: What is the capital of France?", "A1: Paris"}
	question := "Why is Paris the answer?"

	p, err := BuildFollowUpPrompt(quiz, question)
	require.NoError(t, err)
	assert.Contains(t, p, quiz.String())
	assert.Contains(t, p, question)
	assert.Equal(t,
		"Below is a quiz generated from a PDF:\n\nQ1: What is the capital of France?\nA1: Paris\n\nAnswer the following question about the quiz:\nWhy is Paris the answer?",
		p)
}

func TestBuildFollowUpPrompt_Deterministic(t *testing.T) {
	quiz := domain.Quiz{"Q1", "A1"}
	first, err := BuildFollowUpPrompt(quiz, "q")
	require.NoError(t, err)
	second, err := BuildFollowUpPrompt(quiz, "q")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildFollowUpPrompt_MissingInput(t *testing.T) {
	tests := []struct {
		name     string
		quiz     domain.Quiz
		question string
		field    string
	}{
		{name: "nil quiz", quiz: nil, question: "why?", field: "quiz"},
		{name: "blank quiz", quiz: domain.Quiz{"  "}, question: "why?", field: "quiz"},
		{name: "empty question", quiz: domain.Quiz{"Q1"}, question: "", field: "question"},
		{name: "blank question", quiz: domain.Quiz{"Q1"}, question: " \n ", field: "question"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFollowUpPrompt(tt.quiz, tt.question)
			require.Error(t, err)
			var domainErr *domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domain.CodeMissingInput, domainErr.Code)
			assert.Equal(t, tt.field, domainErr.Context["field"])
		})
	}
}
