package service

import (
	"context"
	"time"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"
	"doc-quiz/internal/prompt"

	"go.uber.org/zap"
)

// FollowUp is a follow-up question that passed prompt validation and is ready to be
// sent to the oracle.
type FollowUp struct {
	prompt string
}

// QuizService runs the stateless pipeline stages. It keeps no session state.
type QuizService interface {
	// GenerateQuiz runs extract, generation prompt, generate and segment.
	GenerateQuiz(ctx context.Context, doc domain.Document) (domain.Quiz, error)
	// PrepareFollowUp validates the inputs and builds the follow-up prompt.
	PrepareFollowUp(quiz domain.Quiz, question string) (FollowUp, error)
	// Answer sends a prepared follow-up to the oracle.
	Answer(ctx context.Context, followUp FollowUp) (string, error)
	// AskFollowUp is PrepareFollowUp followed by Answer.
	AskFollowUp(ctx context.Context, quiz domain.Quiz, question string) (string, error)
}

type quizService struct {
	extractor domain.Extractor
	generator domain.Generator
}

// NewQuizService creates a new instance of quizService
func NewQuizService(extractor domain.Extractor, generator domain.Generator) QuizService {
	return &quizService{
		extractor: extractor,
		generator: generator,
	}
}

// GenerateQuiz implements QuizService. Stage errors are returned untouched.
func (s *quizService) GenerateQuiz(ctx context.Context, doc domain.Document) (domain.Quiz, error) {
	l := logger.Get()
	start := time.Now()

	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		l.Warn("Document extraction failed",
			zap.String("media_type", doc.MediaType),
			zap.String("filename", doc.Filename),
			zap.Error(err))
		return nil, err
	}

	p, err := prompt.BuildGenerationPrompt(text)
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, p)
	if err != nil {
		return nil, err
	}

	quiz := domain.SegmentQuiz(raw)
	l.Info("Quiz generated",
		zap.String("media_type", doc.MediaType),
		zap.Int("text_chars", len(text)),
		zap.Int("quiz_lines", len(quiz)),
		zap.Duration("duration", time.Since(start)))
	return quiz, nil
}

// PrepareFollowUp implements QuizService
func (s *quizService) PrepareFollowUp(quiz domain.Quiz, question string) (FollowUp, error) {
	p, err := prompt.BuildFollowUpPrompt(quiz, question)
	if err != nil {
		return FollowUp{}, err
	}
	return FollowUp{prompt: p}, nil
}

// Answer implements QuizService
func (s *quizService) Answer(ctx context.Context, followUp FollowUp) (string, error) {
	if followUp.prompt == "" {
		return "", domain.NewMissingInputError("question")
	}
	return s.generator.Generate(ctx, followUp.prompt)
}

// AskFollowUp implements QuizService
func (s *quizService) AskFollowUp(ctx context.Context, quiz domain.Quiz, question string) (string, error) {
	followUp, err := s.PrepareFollowUp(quiz, question)
	if err != nil {
		return "", err
	}
	return s.Answer(ctx, followUp)
}
