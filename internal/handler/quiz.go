package handler

import (
	"doc-quiz/internal/domain"
	"doc-quiz/internal/dto"
	"doc-quiz/internal/service"
	"doc-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler serves the stateless quiz endpoints. The caller carries the quiz
// between requests.
type QuizHandler struct {
	service        service.QuizService
	validator      *validation.Validator
	maxUploadBytes int64
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, maxUploadBytes int64) *QuizHandler {
	return &QuizHandler{
		service:        service,
		validator:      validation.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// GenerateQuiz godoc
// @Summary Generate a quiz from a document
// @Description Extracts the text of an uploaded PDF, DOCX, XLSX, Markdown or plain text document and asks the model for a quiz
// @Tags quiz
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Success 200 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 413 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /quiz [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	doc, err := readDocument(c, h.maxUploadBytes)
	if err != nil {
		return err
	}

	quiz, err := h.service.GenerateQuiz(c.UserContext(), doc)
	if err != nil {
		return err
	}

	return c.JSON(dto.QuizResponse{Quiz: quiz.Clone()})
}

// AskFollowUp godoc
// @Summary Ask a question about a quiz
// @Description Answers a question using the supplied quiz as the only context
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "Question and quiz"
// @Success 200 {object} dto.AskResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /quiz/ask [post]
func (h *QuizHandler) AskFollowUp(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.CodeValidation, "Invalid request body", err)
	}

	if errs := h.validator.ValidateAskRequest(req.Question, req.Quiz); len(errs) > 0 {
		return errs
	}

	reply, err := h.service.AskFollowUp(c.UserContext(), domain.Quiz(req.Quiz), req.Question)
	if err != nil {
		return err
	}

	return c.JSON(dto.AskResponse{Reply: reply})
}
