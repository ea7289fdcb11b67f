// Package patterns holds the catalog of obfuscation idioms the rewrite
// engine knows how to undo. Every pattern is conservative: when a subtree
// resembles an idiom but a safety condition fails, the rewrite is skipped
// and the reason recorded instead of guessing.
package patterns

import "github.com/Sumatoshi-tech/despecter/pkg/syntax"

// Pattern recognizes one obfuscation idiom. Match is a pure predicate over
// the subtree rooted at the node; Rewrite produces the replacement. A
// pattern never consults state outside the subtree it matches.
type Pattern interface {
	// Name identifies the pattern in logs and reports.
	Name() string

	// Description is a one-line summary for the CLI catalog listing.
	Description() string

	// Match reports whether the node roots an instance of the idiom.
	Match(n *syntax.Node) bool

	// Rewrite builds the replacement for a matched node. It may decline a
	// near-match by returning a skipped result.
	Rewrite(n *syntax.Node) *Result
}

// Result is the outcome of one rewrite attempt.
type Result struct {
	// Replacement holds the nodes that take the matched node's place. In
	// expression position it must contain exactly one node; in statement
	// position the nodes are spliced into the enclosing block. An empty
	// replacement in statement position removes the statement.
	Replacement []*syntax.Node

	// Skipped marks a near-match that failed a safety condition. The tree
	// is left untouched.
	Skipped bool

	// Note explains a skip, or carries extra context for the log.
	Note string
}

// Replaced wraps replacement nodes in a Result.
func Replaced(nodes ...*syntax.Node) *Result {
	return &Result{Replacement: nodes}
}

// Removed is a Result that deletes the matched statement.
func Removed() *Result {
	return &Result{}
}

// Skip records that a safety condition blocked the rewrite.
func Skip(note string) *Result {
	return &Result{Skipped: true, Note: note}
}

// Catalog returns the patterns in application order, most specific first.
// The order is part of the engine's determinism contract.
func Catalog() []Pattern {
	return []Pattern{
		SpecterDecode{},
		OpaqueLiteral{},
		IndirectionCall{},
		DispatcherLoop{},
		JunkStatement{},
	}
}
