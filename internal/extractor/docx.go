package extractor

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// produceDOCX emits one fragment per paragraph of the main document part.
func produceDOCX(ctx context.Context, data []byte, emit func(string) error) error {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	return emitWordParagraphs(ctx, r.Editable().GetContent(), emit)
}

// emitWordParagraphs stream-decodes WordprocessingML. The docx library hands back the raw
// document.xml, so paragraph text is rebuilt from <w:t> runs.
func emitWordParagraphs(ctx context.Context, content string, emit func(string) error) error {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		paragraph strings.Builder
		inText    bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab", "br":
				paragraph.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if err := emit(paragraph.String()); err != nil {
					return err
				}
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}
	if paragraph.Len() > 0 {
		return emit(paragraph.String())
	}
	return nil
}
