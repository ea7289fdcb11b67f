// Package rewrite drives the pattern catalog over a syntax tree to a fixed
// point, recording every rewrite and every unsafe skip in an audit log.
package rewrite

import (
	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/patterns"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// DefaultMaxPasses caps fixed-point iteration. Ten passes clear every idiom
// stack seen in the wild; hitting the cap means patterns are feeding each
// other and is reported rather than looped on.
const DefaultMaxPasses = 10

const snippetLen = 120

// Engine applies an ordered pattern catalog until no pattern fires.
type Engine struct {
	catalog   []patterns.Pattern
	maxPasses int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPasses overrides the pass cap. Values below one are ignored.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxPasses = n
		}
	}
}

// NewEngine builds an engine over the given catalog, in order. Patterns
// earlier in the slice win when several match the same node.
func NewEngine(catalog []patterns.Pattern, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, maxPasses: DefaultMaxPasses}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run rewrites the tree to a fixed point and returns the resulting root
// together with the log. The input tree is mutated; callers needing the
// original should Clone first. Each pass scans post-order, children before
// parents, and applies at most one pattern per node. When the pass cap is
// reached with patterns still firing, the log carries a DidNotConverge
// condition and the nodes still matching.
func (e *Engine) Run(root *syntax.Node) (*syntax.Node, *Log) {
	log := &Log{}

	for pass := 1; pass <= e.maxPasses; pass++ {
		log.Passes = pass

		replacement, changed := e.rewriteNode(root, log, pass)
		if len(replacement) == 1 {
			root = replacement[0]
		}

		if !changed {
			return root, log
		}
	}

	log.DidNotConverge = true
	e.recordRemaining(root, log)

	return root, log
}

// rewriteNode processes one node: children first, then the node itself.
// The returned slice replaces the node in its parent; it has exactly one
// element except for statements inside a block, which may splice several
// or none.
func (e *Engine) rewriteNode(n *syntax.Node, log *Log, pass int) ([]*syntax.Node, bool) {
	changed := e.rewriteChildren(n, log, pass)

	for _, pattern := range e.catalog {
		if !pattern.Match(n) {
			continue
		}

		res := pattern.Rewrite(n)
		if res == nil {
			continue
		}

		if res.Skipped {
			log.skip(pattern.Name(), n, res.Note, pass)

			continue
		}

		log.apply(pattern.Name(), n, res.Replacement, pass)

		return res.Replacement, true
	}

	return []*syntax.Node{n}, changed
}

func (e *Engine) rewriteChildren(n *syntax.Node, log *Log, pass int) bool {
	changed := false

	if n.Kind == syntax.KindModule || n.Kind == syntax.KindBlock {
		out := make([]*syntax.Node, 0, len(n.Children))

		for _, child := range n.Children {
			replacement, childChanged := e.rewriteNode(child, log, pass)
			changed = changed || childChanged
			out = append(out, replacement...)
		}

		n.Children = out
		ensureBody(n)

		return changed
	}

	for idx, child := range n.Children {
		replacement, childChanged := e.rewriteNode(child, log, pass)
		changed = changed || childChanged

		// Outside a block there is exactly one slot to fill.
		if len(replacement) == 1 {
			n.Children[idx] = replacement[0]
		}
	}

	return changed
}

// ensureBody keeps blocks syntactically valid after statement removal.
func ensureBody(n *syntax.Node) {
	if n.Kind == syntax.KindBlock && len(n.Children) == 0 {
		n.AddChild(syntax.New(syntax.KindPass, ""))
	}
}

// recordRemaining notes which nodes still match a pattern once the pass
// cap is hit, so the report can show what the engine gave up on.
func (e *Engine) recordRemaining(root *syntax.Node, log *Log) {
	root.VisitPreOrder(func(n *syntax.Node) {
		for _, pattern := range e.catalog {
			if pattern.Match(n) {
				line, _ := position(n)

				log.Remaining = append(log.Remaining, RemainingMatch{
					Pattern: pattern.Name(),
					Line:    line,
					Source:  emit.Snippet(n, snippetLen),
				})

				return
			}
		}
	})
}
