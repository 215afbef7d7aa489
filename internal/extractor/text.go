package extractor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const maxLineBytes = 1024 * 1024

// producePlainText emits one fragment per line.
func producePlainText(ctx context.Context, data []byte, emit func(string) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan text: %w", err)
	}
	return nil
}

// produceMarkdown walks the goldmark AST and emits the text of every inline text node
// and every code block line. Markup characters never reach the output.
func produceMarkdown(ctx context.Context, data []byte, emit func(string) error) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(data))

	return ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if err := ctx.Err(); err != nil {
			return ast.WalkStop, err
		}

		switch node := n.(type) {
		case *ast.Text:
			return ast.WalkContinue, emit(string(node.Segment.Value(data)))
		case *ast.String:
			return ast.WalkContinue, emit(string(node.Value))
		case *ast.AutoLink:
			return ast.WalkContinue, emit(string(node.Label(data)))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				if err := emit(string(segment.Value(data))); err != nil {
					return ast.WalkStop, err
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}
