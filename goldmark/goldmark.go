// Package goldmark detects markdown code fences in provider output using
// goldmark for parsing.
//
// Providers are asked for plain code but sometimes wrap the answer in a
// fenced block anyway. The gateway returns text as received; callers that
// want bare code call [Unfence] themselves.
package goldmark

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Unfence returns the body of src when src consists of exactly one fenced
// code block, ignoring surrounding blank lines. Otherwise it returns src
// unchanged and false.
func Unfence(src string) (string, bool) {
	block, source := singleFence(src)
	if block == nil {
		return src, false
	}
	var b strings.Builder
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String(), true
}

// Language returns the info-string language of a single fenced block, or ""
// if src is not exactly one fenced block or the fence has no language.
func Language(src string) string {
	block, source := singleFence(src)
	if block == nil {
		return ""
	}
	return string(block.Language(source))
}

func singleFence(src string) (*ast.FencedCodeBlock, []byte) {
	source := []byte(src)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	first := doc.FirstChild()
	if first == nil || first.NextSibling() != nil {
		return nil, nil
	}
	block, ok := first.(*ast.FencedCodeBlock)
	if !ok {
		return nil, nil
	}
	return block, source
}
