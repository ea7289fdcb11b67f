package patterns

import (
	"github.com/Sumatoshi-tech/despecter/pkg/simplify"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// OpaqueLiteral folds operator trees whose operands are all literals, the
// classic opaque-constant disguise: `(6 * 7) ^ 0` for 42, `'a' + 'b' + 'c'`
// for a split string. Folding follows Python semantics and refuses anything
// that could raise or overflow.
type OpaqueLiteral struct{}

func (OpaqueLiteral) Name() string { return "opaque-literal" }

func (OpaqueLiteral) Description() string {
	return "fold constant operator trees disguising literal values"
}

func (OpaqueLiteral) Match(n *syntax.Node) bool {
	switch n.Kind {
	case syntax.KindBinaryOp, syntax.KindUnaryOp, syntax.KindCompare:
		for _, child := range n.Children {
			if child.Kind != syntax.KindLiteral {
				return false
			}
		}

		return len(n.Children) > 0
	case syntax.KindBoolOp:
		// and/or only needs a decidable first operand.
		return n.Child(0) != nil && n.Child(0).Kind == syntax.KindLiteral
	case syntax.KindIfExp:
		// The ternary only needs a decidable condition.
		return n.Child(1) != nil && n.Child(1).Kind == syntax.KindLiteral
	default:
		return false
	}
}

func (OpaqueLiteral) Rewrite(n *syntax.Node) *Result {
	folded, ok := simplify.FoldExpr(n)
	if !ok {
		return Skip("folding would raise or exceed safe bounds")
	}

	return Replaced(folded)
}
