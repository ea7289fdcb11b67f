package simplify

import (
	"regexp"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// Simplify eliminates branches guarded by literal conditions: `if True:`
// keeps only the consequence, `if False:` keeps only the alternative, and
// `while False:` disappears entirely. Returns the number of statements
// rewritten.
func Simplify(root *syntax.Node) int {
	changed := 0
	rewriteBlocks(root, func(stmts []*syntax.Node) []*syntax.Node {
		out := make([]*syntax.Node, 0, len(stmts))

		for _, stmt := range stmts {
			replacement, rewrote := simplifyBranch(stmt)
			if rewrote {
				changed++
			}

			out = append(out, replacement...)
		}

		return out
	})

	return changed
}

// simplifyBranch returns the statements that replace stmt. The second
// result reports whether anything changed.
func simplifyBranch(stmt *syntax.Node) ([]*syntax.Node, bool) {
	switch stmt.Kind {
	case syntax.KindIf:
		return simplifyIf(stmt)
	case syntax.KindWhile:
		if truthy, ok := Truthiness(stmt.Child(0)); ok && !truthy {
			return nil, true
		}
	}

	return []*syntax.Node{stmt}, false
}

func simplifyIf(stmt *syntax.Node) ([]*syntax.Node, bool) {
	truthy, ok := Truthiness(stmt.Child(0))
	if !ok {
		return []*syntax.Node{stmt}, false
	}

	if truthy {
		return blockStatements(stmt.Child(1)), true
	}

	alt := stmt.Child(2)

	switch {
	case alt == nil:
		return nil, true
	case alt.Kind == syntax.KindIf:
		// An elif chain: the nested if becomes the whole statement.
		return []*syntax.Node{alt}, true
	default:
		return blockStatements(alt), true
	}
}

func blockStatements(block *syntax.Node) []*syntax.Node {
	if block == nil {
		return nil
	}

	// A lone pass only existed to satisfy the grammar.
	if len(block.Children) == 1 && block.Children[0].Kind == syntax.KindPass {
		return nil
	}

	return block.Children
}

// RemoveUnused drops assignments to names that are never read anywhere in
// the module, provided the assigned value has no side effects. Read counts
// are global rather than per scope, which can only keep too much, never
// remove too much. Returns the number of assignments removed.
func RemoveUnused(root *syntax.Node) int {
	reads := ReadCounts(root)

	changed := 0
	rewriteBlocks(root, func(stmts []*syntax.Node) []*syntax.Node {
		out := make([]*syntax.Node, 0, len(stmts))

		for _, stmt := range stmts {
			if isDeadAssign(stmt, reads) {
				changed++

				continue
			}

			out = append(out, stmt)
		}

		return out
	})

	return changed
}

// ReadCounts tallies every identifier use in the subtree that is not an
// assignment target. Identifiers inside opaque fragments count too.
func ReadCounts(root *syntax.Node) map[string]int {
	reads := map[string]int{}
	countReads(root, reads, false)

	return reads
}

func isDeadAssign(stmt *syntax.Node, reads map[string]int) bool {
	if stmt.Kind != syntax.KindAssign || len(stmt.Children) != 2 {
		return false
	}

	target, value := stmt.Child(0), stmt.Child(1)
	if target.Kind != syntax.KindName {
		return false
	}

	return reads[target.Token] == 0 && IsPure(value)
}

// countReads tallies identifier uses. Assignment targets do not count as
// reads; everything else does, including identifiers buried in opaque
// source fragments, so a name mentioned anywhere verbatim stays alive.
func countReads(n *syntax.Node, reads map[string]int, target bool) {
	if n == nil {
		return
	}

	switch {
	case n.Kind == syntax.KindName:
		if !target {
			reads[n.Token]++
		}

		return
	case n.Kind == syntax.KindOpaque:
		for _, word := range identifierPattern.FindAllString(n.Token, -1) {
			reads[word]++
		}

		return
	case target && (n.Kind == syntax.KindTuple || n.Kind == syntax.KindList || n.Kind == syntax.KindStarred):
		for _, child := range n.Children {
			countReads(child, reads, true)
		}

		return
	}

	if len(n.Children) == 0 {
		return
	}

	switch n.Kind {
	case syntax.KindAssign:
		for _, tgt := range n.Children[:len(n.Children)-1] {
			countReads(tgt, reads, true)
		}

		countReads(n.Children[len(n.Children)-1], reads, false)
	case syntax.KindFor:
		countReads(n.Child(0), reads, true)

		for _, child := range n.Children[1:] {
			countReads(child, reads, false)
		}
	default:
		for _, child := range n.Children {
			countReads(child, reads, false)
		}
	}
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// rewriteBlocks applies fn to every statement list in the tree, bottom-up,
// and keeps blocks non-empty by inserting pass.
func rewriteBlocks(n *syntax.Node, fn func([]*syntax.Node) []*syntax.Node) {
	if n == nil {
		return
	}

	for _, child := range n.Children {
		rewriteBlocks(child, fn)
	}

	if n.Kind != syntax.KindModule && n.Kind != syntax.KindBlock {
		return
	}

	n.Children = fn(n.Children)

	if n.Kind == syntax.KindBlock && len(n.Children) == 0 {
		n.Children = []*syntax.Node{syntax.New(syntax.KindPass, "")}
	}
}
