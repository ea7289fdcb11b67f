package patterns

import (
	"github.com/Sumatoshi-tech/despecter/pkg/simplify"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// JunkStatement removes expression statements that cannot have an
// observable effect: bare names, numbers, pure operator trees. String
// literal statements are left alone because they may be docstrings.
type JunkStatement struct{}

func (JunkStatement) Name() string { return "junk-statement" }

func (JunkStatement) Description() string {
	return "remove side-effect-free expression statements"
}

func (JunkStatement) Match(n *syntax.Node) bool {
	if n.Kind != syntax.KindExprStmt || len(n.Children) != 1 {
		return false
	}

	expr := n.Child(0)
	if expr.IsLiteral(syntax.LitStr) {
		return false
	}

	return simplify.IsPure(expr)
}

func (JunkStatement) Rewrite(_ *syntax.Node) *Result {
	return Removed()
}
