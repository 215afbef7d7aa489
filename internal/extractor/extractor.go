// Package extractor turns uploaded documents into plain text.
//
// Every supported format is handled by a producer that walks the document structure and
// emits text fragments as it meets them. Extract drains those fragments in order and joins
// them with single spaces. It returns only after the producer has finished, and any
// producer error (or panic inside a third-party parser) is reported as EXTRACTION_FAILED.
package extractor

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MediaTypePDF      = "application/pdf"
	MediaTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeMarkdown = "text/markdown"
	MediaTypePlain    = "text/plain"

	mediaTypeOctetStream = "application/octet-stream"
	fragmentBuffer       = 64
)

// producer parses data and calls emit once per text fragment, in document order.
type producer func(ctx context.Context, data []byte, emit func(fragment string) error) error

// Extractor implements domain.Extractor for PDF, DOCX, XLSX, Markdown and plain text.
type Extractor struct {
	producers  map[string]producer
	extensions map[string]string
}

// New creates an Extractor with every built-in format registered.
func New() *Extractor {
	e := &Extractor{
		producers:  make(map[string]producer),
		extensions: make(map[string]string),
	}
	e.register(MediaTypePDF, producePDF, ".pdf")
	e.register(MediaTypeDOCX, produceDOCX, ".docx")
	e.register(MediaTypeXLSX, produceXLSX, ".xlsx")
	e.register(MediaTypeMarkdown, produceMarkdown, ".md", ".markdown")
	e.register(MediaTypePlain, producePlainText, ".txt")
	return e
}

func (e *Extractor) register(mediaType string, p producer, exts ...string) {
	e.producers[mediaType] = p
	for _, ext := range exts {
		e.extensions[ext] = mediaType
	}
}

// SupportedMediaTypes implements domain.Extractor
func (e *Extractor) SupportedMediaTypes() []string {
	types := make([]string, 0, len(e.producers))
	for t := range e.producers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Supports reports whether the declared media type (or the filename extension, for
// generic uploads) maps to a registered format.
func (e *Extractor) Supports(mediaType, filename string) bool {
	_, ok := e.producers[e.resolveMediaType(mediaType, filename)]
	return ok
}

// Extract implements domain.Extractor
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	mediaType := e.resolveMediaType(doc.MediaType, doc.Filename)
	produce, ok := e.producers[mediaType]
	if !ok {
		return "", domain.NewUnsupportedMediaTypeError(doc.MediaType)
	}
	if len(doc.Data) == 0 {
		return "", domain.NewEmptyDocumentError()
	}

	g, gctx := errgroup.WithContext(ctx)
	fragments := make(chan string, fragmentBuffer)

	g.Go(func() (err error) {
		defer close(fragments)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s parser panic: %v", mediaType, r)
			}
		}()
		return produce(gctx, doc.Data, func(fragment string) error {
			select {
			case fragments <- fragment:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var parts []string
	for fragment := range fragments {
		if fragment = strings.TrimSpace(fragment); fragment != "" {
			parts = append(parts, fragment)
		}
	}

	if err := g.Wait(); err != nil {
		logger.Get().Warn("Document extraction failed",
			zap.String("media_type", mediaType),
			zap.String("filename", doc.Filename),
			zap.Error(err))
		return "", domain.NewExtractionFailedError(err)
	}

	text := strings.Join(parts, " ")
	if strings.TrimSpace(text) == "" {
		return "", domain.NewEmptyDocumentError()
	}

	logger.Get().Debug("Document extracted",
		zap.String("media_type", mediaType),
		zap.Int("fragments", len(parts)),
		zap.Int("chars", len(text)))
	return text, nil
}

// resolveMediaType strips parameters from the declared type and falls back to the
// filename extension when the client sent a generic type.
func (e *Extractor) resolveMediaType(declared, filename string) string {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if mediaType == "" || mediaType == mediaTypeOctetStream {
		if byExt, ok := e.extensions[strings.ToLower(filepath.Ext(filename))]; ok {
			return byExt
		}
	}
	return mediaType
}

var _ domain.Extractor = (*Extractor)(nil)
