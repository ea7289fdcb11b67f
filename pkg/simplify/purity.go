package simplify

import "github.com/Sumatoshi-tech/despecter/pkg/syntax"

// IsPure reports whether evaluating the expression is free of observable
// side effects. Calls, attribute access (descriptors) and subscripts
// (arbitrary __getitem__) are all treated as impure. Name lookups of
// unbound names raise NameError, but obfuscator junk always references
// names it just bound, so plain names count as pure.
//
//nolint:cyclop // Kind table.
func IsPure(n *syntax.Node) bool {
	if n == nil {
		return false
	}

	switch n.Kind {
	case syntax.KindLiteral, syntax.KindName, syntax.KindLambda:
		return true
	case syntax.KindTuple, syntax.KindList, syntax.KindSet,
		syntax.KindDict, syntax.KindKeyValue,
		syntax.KindBoolOp, syntax.KindIfExp:
		return allPure(n.Children)
	case syntax.KindBinaryOp:
		return allPure(n.Children) && !binaryMayRaise(n)
	case syntax.KindUnaryOp, syntax.KindCompare:
		return allPure(n.Children) && !literalOpMayRaise(n)
	default:
		return false
	}
}

// binaryMayRaise reports whether a binary operator over side-effect-free
// operands could still raise when evaluated. Division and modulo raise on a
// zero divisor, so anything short of a provably nonzero literal divisor
// counts as raising.
func binaryMayRaise(n *syntax.Node) bool {
	switch n.Prop(syntax.PropOp) {
	case "/", "//", "%":
		divisor, ok := intValue(n.Child(1))
		if !ok || divisor == 0 {
			return true
		}
	}

	return literalOpMayRaise(n)
}

// literalOpMayRaise treats FoldExpr success as the proof that evaluating an
// operator over literal operands cannot raise. Mixed-type combinations like
// 1 + 'one' fail to fold and stay in the output.
func literalOpMayRaise(n *syntax.Node) bool {
	for _, child := range n.Children {
		if child.Kind != syntax.KindLiteral {
			return false
		}
	}

	_, ok := FoldExpr(n)

	return !ok
}

func allPure(children []*syntax.Node) bool {
	for _, child := range children {
		if !IsPure(child) {
			return false
		}
	}

	return true
}
