// Package parser extracts structured payloads from model replies, which mix
// fenced code blocks with conversational padding.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is a fenced code block lifted from markdown content.
type CodeBlock struct {
	// Lang is the language identifier of the code block (e.g., "json", "diff").
	Lang string
	// Content is the raw text inside the code block.
	Content string
}

// ExtractCodeBlocks walks the markdown AST and returns every fenced code
// block in document order.
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	p := goldmark.DefaultParser()
	root := p.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block CodeBlock
		if fenced.Info != nil {
			block.Lang = string(fenced.Info.Text(source))
		}
		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.Content = content.String()

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ExtractJSON returns the JSON document carried by a model reply. It prefers
// a fenced ```json block; failing that, any fenced block whose content looks
// like a JSON object; failing that, the reply itself trimmed to the outermost
// braces.
func ExtractJSON(reply string) (string, error) {
	blocks, err := ExtractCodeBlocks([]byte(reply))
	if err == nil {
		for _, b := range blocks {
			if strings.EqualFold(b.Lang, "json") {
				return strings.TrimSpace(b.Content), nil
			}
		}
		for _, b := range blocks {
			trimmed := strings.TrimSpace(b.Content)
			if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
				return trimmed, nil
			}
		}
	}

	trimmed := strings.TrimSpace(reply)
	for _, open := range []string{"{", "["} {
		start := strings.Index(trimmed, open)
		if start < 0 {
			continue
		}
		close := "}"
		if open == "[" {
			close = "]"
		}
		end := strings.LastIndex(trimmed, close)
		if end > start {
			return trimmed[start : end+1], nil
		}
	}
	return "", fmt.Errorf("no JSON payload found in reply")
}
