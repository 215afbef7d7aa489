package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"doc-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestExtract_PlainText(t *testing.T) {
	e := New()
	text, err := e.Extract(context.Background(), domain.Document{
		Data:      []byte("Paris is the capital of France.\n\n  Berlin is the capital of Germany.  \n"),
		MediaType: "text/plain; charset=utf-8",
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France. Berlin is the capital of Germany.", text)
}

func TestExtract_Markdown(t *testing.T) {
	e := New()
	src := "# Capitals\n\nParis is the capital of *France*.\n\n```\nfmt.Println(\"hi\")\n```\n"
	text, err := e.Extract(context.Background(), domain.Document{Data: []byte(src), MediaType: MediaTypeMarkdown})
	require.NoError(t, err)
	assert.Equal(t, `Capitals Paris is the capital of France . fmt.Println("hi")`, text)
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "*")
}

func TestExtract_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Country"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Capital"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "France"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Paris"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := New().Extract(context.Background(), domain.Document{Data: buf.Bytes(), MediaType: MediaTypeXLSX})
	require.NoError(t, err)
	assert.Equal(t, "Country Capital France Paris", text)
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>Paris is the</w:t></w:r><w:r><w:t xml:space="preserve"> capital</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>of France.</w:t></w:r></w:p>`)

	text, err := New().Extract(context.Background(), domain.Document{Data: data, MediaType: MediaTypeDOCX})
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", text)
}

func TestExtract_EmptyDocument(t *testing.T) {
	e := New()

	t.Run("no bytes", func(t *testing.T) {
		_, err := e.Extract(context.Background(), domain.Document{Data: nil, MediaType: MediaTypePDF})
		requireCode(t, err, domain.CodeEmptyDocument)
	})

	t.Run("whitespace only", func(t *testing.T) {
		_, err := e.Extract(context.Background(), domain.Document{Data: []byte(" \n\t \n"), MediaType: MediaTypePlain})
		requireCode(t, err, domain.CodeEmptyDocument)
	})
}

func TestExtract_UnsupportedMediaType(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.Document{Data: []byte("GIF89a"), MediaType: "image/gif"})
	requireCode(t, err, domain.CodeUnsupportedMediaType)
}

func TestExtract_CorruptPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.Document{Data: []byte("definitely not a pdf"), MediaType: MediaTypePDF})
	requireCode(t, err, domain.CodeExtractionFailed)
}

func TestExtract_ParserErrorIsNotSwallowed(t *testing.T) {
	parseErr := errors.New("unexpected token at offset 12")
	e := &Extractor{producers: map[string]producer{}, extensions: map[string]string{}}
	e.register("application/x-test", func(ctx context.Context, data []byte, emit func(string) error) error {
		if err := emit("partial"); err != nil {
			return err
		}
		return parseErr
	})

	_, err := e.Extract(context.Background(), domain.Document{Data: []byte("x"), MediaType: "application/x-test"})
	requireCode(t, err, domain.CodeExtractionFailed)
	assert.ErrorIs(t, err, parseErr)
}

func TestExtract_ParserPanicBecomesExtractionFailed(t *testing.T) {
	e := &Extractor{producers: map[string]producer{}, extensions: map[string]string{}}
	e.register("application/x-test", func(ctx context.Context, data []byte, emit func(string) error) error {
		panic("malformed xref table")
	})

	_, err := e.Extract(context.Background(), domain.Document{Data: []byte("x"), MediaType: "application/x-test"})
	requireCode(t, err, domain.CodeExtractionFailed)
	assert.Contains(t, err.Error(), "malformed xref table")
}

func TestExtract_PreservesEncounterOrder(t *testing.T) {
	e := &Extractor{producers: map[string]producer{}, extensions: map[string]string{}}
	e.register("application/x-test", func(ctx context.Context, data []byte, emit func(string) error) error {
		for i := 0; i < 200; i++ {
			if err := emit(string(rune('a' + i%26))); err != nil {
				return err
			}
		}
		return nil
	})

	text, err := e.Extract(context.Background(), domain.Document{Data: []byte("x"), MediaType: "application/x-test"})
	require.NoError(t, err)
	require.Len(t, text, 200*2-1)
	assert.Equal(t, "a b c", text[:5])
}

func TestExtract_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, domain.Document{Data: []byte("line one\nline two"), MediaType: MediaTypePlain})
	requireCode(t, err, domain.CodeExtractionFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveMediaType(t *testing.T) {
	e := New()
	tests := []struct {
		declared string
		filename string
		expected string
	}{
		{declared: "application/pdf", filename: "", expected: MediaTypePDF},
		{declared: "Application/PDF", filename: "", expected: MediaTypePDF},
		{declared: "text/plain; charset=utf-8", filename: "", expected: MediaTypePlain},
		{declared: "application/octet-stream", filename: "notes.md", expected: MediaTypeMarkdown},
		{declared: "", filename: "Report.DOCX", expected: MediaTypeDOCX},
		{declared: "image/png", filename: "scan.pdf", expected: "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.declared+"|"+tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.resolveMediaType(tt.declared, tt.filename))
		})
	}
	assert.True(t, e.Supports("", "quiz.xlsx"))
	assert.False(t, e.Supports("image/png", "scan.png"))
}

func TestSupportedMediaTypes(t *testing.T) {
	assert.Equal(t, []string{
		MediaTypePDF,
		MediaTypeXLSX,
		MediaTypeDOCX,
		MediaTypeMarkdown,
		MediaTypePlain,
	}, New().SupportedMediaTypes())
}
