package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/dto"
	"doc-quiz/internal/logger"
	"doc-quiz/internal/middleware"
	"doc-quiz/internal/presenter"
	"doc-quiz/internal/service"
	"doc-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	quizDownloadName = "quiz.doc"
	quizDownloadType = "application/msword"
	sseKeepAlive     = 15 * time.Second
)

// SessionHandler serves the conversational endpoints. Each session keeps its own quiz
// and transcript on the server.
type SessionHandler struct {
	sessions       *service.SessionManager
	validator      *validation.Validator
	maxUploadBytes int64
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(sessions *service.SessionManager, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{
		sessions:       sessions,
		validator:      validation.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *SessionHandler) conversation(c *fiber.Ctx) (*service.Conversation, error) {
	return h.sessions.Get(middleware.SessionID(c))
}

// CreateSession godoc
// @Summary Start a session
// @Tags sessions
// @Produce json
// @Success 201 {object} dto.SessionResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	conv := h.sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(dto.SessionResponse{SessionID: conv.ID()})
}

// GetSession godoc
// @Summary Get session state
// @Description Returns the phase, quiz and transcript of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} domain.SessionSnapshot
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	return c.JSON(conv.Snapshot())
}

// DeleteSession godoc
// @Summary End a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.sessions.Delete(middleware.SessionID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitDocument godoc
// @Summary Generate the session quiz from a document
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Document"
// @Success 200 {object} dto.SessionQuizResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /sessions/{id}/document [post]
func (h *SessionHandler) SubmitDocument(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	doc, err := readDocument(c, h.maxUploadBytes)
	if err != nil {
		return err
	}

	quiz, err := conv.SubmitDocument(c.UserContext(), doc)
	if err != nil {
		return err
	}
	return c.JSON(dto.SessionQuizResponse{SessionID: conv.ID(), Quiz: quiz})
}

// Ask godoc
// @Summary Ask a follow-up question in a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SessionMessageRequest true "Question"
// @Success 200 {object} dto.SessionReplyResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /sessions/{id}/messages [post]
func (h *SessionHandler) Ask(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	var req dto.SessionMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.CodeValidation, "Invalid request body", err)
	}
	if errs := h.validator.ValidateQuestion(req.Question); len(errs) > 0 {
		return errs
	}

	reply, err := conv.Ask(c.UserContext(), req.Question)
	if err != nil {
		return err
	}
	return c.JSON(dto.SessionReplyResponse{SessionID: conv.ID(), Reply: reply})
}

// StreamReveal godoc
// @Summary Stream the reveal of the latest reply
// @Description Server-Sent Events, one "chunk" event per revealed rune. The stream ends when the reveal completes or the session ends.
// @Tags sessions
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Success 200 {object} presenter.Chunk
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id}/reveal [get]
func (h *SessionHandler) StreamReveal(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	chunks, cancel := conv.Subscribe()
	snap := conv.Snapshot()
	requestID := middleware.RequestID(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		log := logger.Get().With(zap.String("session_id", conv.ID()), zap.String("request_id", requestID))

		var sent revealCursor
		if snap.RevealInProgress && len(snap.Transcript) > 0 {
			current := presenter.Chunk{Text: snap.Transcript[len(snap.Transcript)-1].Text}
			sent.accept(current)
			if err := writeChunk(w, current); err != nil {
				return
			}
		}

		keepAlive := time.NewTicker(sseKeepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					return
				}
				if !sent.accept(chunk) {
					continue
				}
				if err := writeChunk(w, chunk); err != nil {
					log.Debug("Reveal stream closed by client", zap.Error(err))
					return
				}
				if chunk.Done {
					return
				}
			case <-keepAlive.C:
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// revealCursor keeps a stream monotonic. Chunks queued before the snapshot was taken
// can be shorter than the text already sent and are dropped.
type revealCursor struct {
	sent int
}

func (rc *revealCursor) accept(chunk presenter.Chunk) bool {
	n := len(chunk.Text)
	if n < rc.sent || (n == rc.sent && !chunk.Done) {
		return false
	}
	rc.sent = n
	return true
}

func writeChunk(w *bufio.Writer, chunk presenter.Chunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

// SkipReveal godoc
// @Summary Show the latest reply in full immediately
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id}/reveal/skip [post]
func (h *SessionHandler) SkipReveal(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	conv.SkipReveal()
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadQuiz godoc
// @Summary Download the session quiz
// @Tags sessions
// @Produce application/msword
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/quiz/download [get]
func (h *SessionHandler) DownloadQuiz(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	quiz, ok := conv.Quiz()
	if !ok {
		return domain.NewNoQuizContextError()
	}

	c.Attachment(quizDownloadName)
	c.Set(fiber.HeaderContentType, quizDownloadType)
	return c.SendString(quiz.String())
}
