package middleware

import (
	"doc-quiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const localSessionID = "validated_session_id"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateSessionID checks the :id path parameter and stores it for handlers.
func (vm *ValidationMiddleware) ValidateSessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errs := vm.validator.ValidateSessionID(id); len(errs) > 0 {
			return errs
		}
		c.Locals(localSessionID, id)
		return c.Next()
	}
}

// SessionID returns the id stored by ValidateSessionID, falling back to the raw param.
func SessionID(c *fiber.Ctx) string {
	if id, ok := c.Locals(localSessionID).(string); ok {
		return id
	}
	return c.Params("id")
}
