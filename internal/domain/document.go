package domain

import "context"

// Document is an uploaded file. It lives only for the request that carries it.
type Document struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Extractor converts a binary document into plain text.
type Extractor interface {
	// Extract returns the document's text fragments joined by single spaces.
	// Empty or whitespace-only results are reported as an EMPTY_DOCUMENT error.
	Extract(ctx context.Context, doc Document) (string, error)

	// SupportedMediaTypes lists the media types Extract accepts.
	SupportedMediaTypes() []string
}

// Generator sends one prompt to the oracle and returns its raw text reply.
// Every call is an independent turn with no retained history.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
