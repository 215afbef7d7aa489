package handler

import (
	"fmt"
	"io"

	"doc-quiz/internal/domain"

	"github.com/gofiber/fiber/v2"
)

const documentField = "file"

// readDocument pulls the uploaded document out of a multipart request.
func readDocument(c *fiber.Ctx, maxBytes int64) (domain.Document, error) {
	header, err := c.FormFile(documentField)
	if err != nil {
		return domain.Document{}, domain.NewMissingInputError(documentField)
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return domain.Document{}, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("document exceeds the %d byte upload limit", maxBytes))
	}

	f, err := header.Open()
	if err != nil {
		return domain.Document{}, domain.NewInternalError("Failed to open uploaded document", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Document{}, domain.NewInternalError("Failed to read uploaded document", err)
	}

	return domain.Document{
		Data:      data,
		MediaType: header.Header.Get(fiber.HeaderContentType),
		Filename:  header.Filename,
	}, nil
}
