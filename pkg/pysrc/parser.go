// Package pysrc loads decompiler-emitted Python source text into the
// canonical syntax tree. Parsing is tree-sitter based and deliberately
// tolerant: constructs decompilers are known to mis-emit survive as opaque
// statements instead of failing the whole file.
package pysrc

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// errorTolerance is the fraction of input bytes that may sit under ERROR
// nodes before the file is rejected as unparseable.
const errorTolerance = 0.5

// ParseError reports unparseable input together with the offending position.
type ParseError struct {
	Line    uint
	Col     uint
	Snippet string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, col %d: %q", e.Line, e.Col, e.Snippet)
}

//nolint:gochecknoglobals // Grammar initialization is process-wide and immutable.
var pythonLanguage = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(python.GetLanguage())
})

//nolint:gochecknoglobals // Shared pool of tree-sitter parsers, matching the
// per-language parser pooling used elsewhere in the codebase.
var parserPool = sync.Pool{
	New: func() any {
		tsParser := sitter.NewParser()
		tsParser.SetLanguage(pythonLanguage())

		return tsParser
	},
}

// Parse parses Python source text into a Module-rooted syntax tree.
//
// Recoverable irregularities (statements tree-sitter flags as errors but can
// delimit) are preserved as opaque statements. The file is rejected with a
// *ParseError only when the grammar cannot interpret most of it.
func Parse(ctx context.Context, content []byte) (*syntax.Node, error) {
	tsParser, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		tsParser = sitter.NewParser()
		tsParser.SetLanguage(pythonLanguage())
	}

	defer parserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("pysrc: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, &ParseError{Line: 1, Col: 1, Snippet: snippet(content, 0)}
	}

	if parseErr := checkErrorTolerance(root, content); parseErr != nil {
		return nil, parseErr
	}

	conv := &converter{src: content}

	return conv.module(root), nil
}

// checkErrorTolerance rejects input whose ERROR nodes cover more than the
// tolerated fraction of the file.
func checkErrorTolerance(root sitter.Node, content []byte) *ParseError {
	if len(content) == 0 {
		return nil
	}

	errorBytes, first := errorSpan(root)
	if float64(errorBytes)/float64(len(content)) <= errorTolerance {
		return nil
	}

	point := first.StartPoint()

	return &ParseError{
		Line:    uint(point.Row) + 1,
		Col:     uint(point.Column) + 1,
		Snippet: snippet(content, int(first.StartByte())),
	}
}

// errorSpan totals the bytes covered by top-most ERROR nodes and returns the
// first one encountered.
func errorSpan(n sitter.Node) (int, sitter.Node) {
	if n.Type() == nodeError {
		return int(n.EndByte() - n.StartByte()), n
	}

	total := 0
	first := sitter.Node{}

	for i := range n.ChildCount() {
		childBytes, childFirst := errorSpan(n.Child(i))
		if childBytes > 0 && first.IsNull() {
			first = childFirst
		}

		total += childBytes
	}

	return total, first
}

const snippetLen = 40

func snippet(content []byte, offset int) string {
	if offset >= len(content) {
		return ""
	}

	end := offset + snippetLen
	if end > len(content) {
		end = len(content)
	}

	return string(content[offset:end])
}
