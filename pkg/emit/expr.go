package emit

import (
	"strings"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// Operator precedence levels, lowest binds loosest. Mirrors the Python
// reference grammar so emitted expressions parenthesize exactly where the
// tree structure requires it.
const (
	precLowest = iota
	precLambda
	precIfExp
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precPower
	precPostfix
	precAtom
)

//nolint:gochecknoglobals // Fixed operator table.
var binaryPrec = map[string]int{
	"|": precBitOr, "^": precBitXor, "&": precBitAnd,
	"<<": precShift, ">>": precShift,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "//": precMul, "%": precMul, "@": precMul,
	"**": precPower,
}

//nolint:cyclop // Flat dispatch over expression kinds.
func exprString(n *syntax.Node, parentPrec int) string {
	if n == nil {
		return ""
	}

	switch n.Kind {
	case syntax.KindName:
		return n.Token
	case syntax.KindLiteral:
		return literalString(n)
	case syntax.KindBinaryOp:
		return binaryString(n, parentPrec)
	case syntax.KindBoolOp:
		return boolOpString(n, parentPrec)
	case syntax.KindUnaryOp:
		return unaryString(n, parentPrec)
	case syntax.KindCompare:
		return compareString(n, parentPrec)
	case syntax.KindCall:
		return callString(n)
	case syntax.KindKeyword:
		return n.Token + "=" + exprString(n.Child(0), precLowest)
	case syntax.KindAttribute:
		return exprString(n.Child(0), precPostfix) + "." + n.Token
	case syntax.KindSubscript:
		return exprString(n.Child(0), precPostfix) + "[" + exprString(n.Child(1), precLowest) + "]"
	case syntax.KindSlice:
		return sliceString(n)
	case syntax.KindLambda:
		return parenthesize(lambdaString(n), parentPrec > precLambda)
	case syntax.KindIfExp:
		return ifExpString(n, parentPrec)
	case syntax.KindStarred:
		return n.Token + exprString(n.Child(0), precUnary)
	case syntax.KindTuple:
		return tupleString(n)
	case syntax.KindList:
		return "[" + elementList(n.Children) + "]"
	case syntax.KindSet:
		return setString(n)
	case syntax.KindDict:
		return dictString(n)
	case syntax.KindKeyValue:
		return exprString(n.Child(0), precLowest) + ": " + exprString(n.Child(1), precLowest)
	case syntax.KindOpaque:
		return n.Token
	default:
		return n.Token
	}
}

func parenthesize(text string, needed bool) string {
	if needed {
		return "(" + text + ")"
	}

	return text
}

func literalString(n *syntax.Node) string {
	switch n.LitKind() {
	case syntax.LitStr:
		return reprString(n.Token)
	case syntax.LitBytes:
		return reprBytes(n.Token)
	default:
		// Int, float, bool and none tokens hold their source form.
		return n.Token
	}
}

func binaryString(n *syntax.Node, parentPrec int) string {
	op := n.Prop(syntax.PropOp)

	prec, ok := binaryPrec[op]
	if !ok {
		prec = precAdd
	}

	// Power is right-associative; everything else is left-associative.
	leftPrec, rightPrec := prec, prec+1
	if op == "**" {
		leftPrec, rightPrec = prec+1, prec
	}

	text := exprString(n.Child(0), leftPrec) + " " + op + " " + exprString(n.Child(1), rightPrec)

	return parenthesize(text, prec < parentPrec)
}

func boolOpString(n *syntax.Node, parentPrec int) string {
	op := n.Prop(syntax.PropOp)

	prec := precOr
	if op == "and" {
		prec = precAnd
	}

	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		parts = append(parts, exprString(child, prec))
	}

	return parenthesize(strings.Join(parts, " "+op+" "), prec < parentPrec)
}

func unaryString(n *syntax.Node, parentPrec int) string {
	op := n.Prop(syntax.PropOp)

	prec := precUnary
	spacer := ""

	if op == "not" {
		prec = precNot
		spacer = " "
	}

	text := op + spacer + exprString(n.Child(0), prec)

	return parenthesize(text, prec < parentPrec)
}

func compareString(n *syntax.Node, parentPrec int) string {
	ops := strings.Split(n.Prop(syntax.PropOps), ",")

	var sb strings.Builder

	sb.WriteString(exprString(n.Child(0), precCompare+1))

	for idx, op := range ops {
		sb.WriteString(" " + op + " ")
		sb.WriteString(exprString(n.Child(idx+1), precCompare+1))
	}

	return parenthesize(sb.String(), precCompare < parentPrec)
}

func callString(n *syntax.Node) string {
	args := make([]string, 0, len(n.Children)-1)
	for _, arg := range n.Children[1:] {
		args = append(args, exprString(arg, precLowest))
	}

	return exprString(n.Child(0), precPostfix) + "(" + strings.Join(args, ", ") + ")"
}

func sliceString(n *syntax.Node) string {
	idx := 0
	next := func(flag string) string {
		if n.Prop(flag) == "" {
			return ""
		}

		part := exprString(n.Child(idx), precLowest)
		idx++

		return part
	}

	lower := next(syntax.PropLower)
	upper := next(syntax.PropUpper)
	step := next(syntax.PropStep)

	text := lower + ":" + upper
	if n.Prop(syntax.PropStep) != "" {
		text += ":" + step
	}

	return text
}

func lambdaString(n *syntax.Node) string {
	params := paramList(n.Child(0))
	if params != "" {
		params = " " + params
	}

	return "lambda" + params + ": " + exprString(n.Child(1), precLambda)
}

func ifExpString(n *syntax.Node, parentPrec int) string {
	text := exprString(n.Child(0), precIfExp+1) +
		" if " + exprString(n.Child(1), precIfExp+1) +
		" else " + exprString(n.Child(2), precIfExp)

	return parenthesize(text, precIfExp < parentPrec)
}

func tupleString(n *syntax.Node) string {
	if len(n.Children) == 1 {
		return "(" + exprString(n.Child(0), precLowest) + ",)"
	}

	return "(" + elementList(n.Children) + ")"
}

func setString(n *syntax.Node) string {
	if len(n.Children) == 0 {
		return "set()"
	}

	return "{" + elementList(n.Children) + "}"
}

func dictString(n *syntax.Node) string {
	return "{" + elementList(n.Children) + "}"
}

func elementList(elements []*syntax.Node) string {
	parts := make([]string, 0, len(elements))
	for _, element := range elements {
		parts = append(parts, exprString(element, precLowest))
	}

	return strings.Join(parts, ", ")
}
