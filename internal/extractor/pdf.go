package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"doc-quiz/internal/logger"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

var disablePDFConfigDir sync.Once

// pdfPageCount validates the PDF structure with pdfcpu before any text is read.
func pdfPageCount(data []byte) (int, error) {
	disablePDFConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}

// producePDF emits one fragment per text row, page by page.
func producePDF(ctx context.Context, data []byte, emit func(string) error) error {
	pageCount, err := pdfPageCount(data)
	if err != nil {
		return fmt.Errorf("invalid pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	logger.Get().Debug("Reading PDF", zap.Int("pages", pageCount), zap.Int("reader_pages", reader.NumPage()))

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return fmt.Errorf("read page %d: %w", i, err)
		}
		for _, row := range rows {
			if err := emit(joinRow(row.Content)); err != nil {
				return err
			}
		}
	}
	return nil
}

// joinRow concatenates the glyph runs of one row. The pdf reader reports glyphs
// individually, so a row is the smallest unit that reads as text.
func joinRow(content pdf.TextHorizontal) string {
	var b strings.Builder
	for _, t := range content {
		b.WriteString(t.S)
	}
	return b.String()
}
