package pysrc

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

//nolint:cyclop // Flat dispatch over grammar node types.
func (c *converter) expression(n sitter.Node) *syntax.Node {
	switch n.Type() {
	case nodeIdentifier:
		return c.name(n)
	case nodeInteger:
		return c.literal(n, syntax.LitInt)
	case nodeFloat:
		return c.literal(n, syntax.LitFloat)
	case nodeTrue, nodeFalse, nodeNone:
		return c.singleton(n)
	case nodeString:
		return c.stringLiteral(n)
	case nodeConcatenatedStr:
		return c.concatenatedString(n)
	case nodeBinaryOperator:
		return c.binaryOp(n)
	case nodeBooleanOperator:
		return c.boolOp(n)
	case nodeNotOperator:
		return c.notOp(n)
	case nodeUnaryOperator:
		return c.unaryOp(n)
	case nodeComparison:
		return c.comparison(n)
	case nodeCall:
		return c.call(n)
	case nodeAttribute:
		return c.attribute(n)
	case nodeSubscript:
		return c.subscript(n)
	case nodeSlice:
		return c.slice(n)
	case nodeLambda:
		return c.lambda(n)
	case nodeConditionalExpr:
		return c.conditional(n)
	case nodeParenthesized:
		return c.parenthesized(n)
	case nodeTuple, nodePatternList, nodeExpressionList:
		return c.sequence(n, syntax.KindTuple)
	case nodeList:
		return c.sequence(n, syntax.KindList)
	case nodeSet:
		return c.sequence(n, syntax.KindSet)
	case nodeDictionary:
		return c.dictionary(n)
	case nodeListSplat, nodeDictionarySplat:
		return c.starred(n)
	default:
		return c.opaque(n)
	}
}

func (c *converter) name(n sitter.Node) *syntax.Node {
	nameNode := syntax.New(syntax.KindName, n.Content(c.src))
	nameNode.Pos = c.pos(n)

	return nameNode
}

func (c *converter) literal(n sitter.Node, litKind string) *syntax.Node {
	lit := syntax.NewLiteral(litKind, n.Content(c.src))
	lit.Pos = c.pos(n)

	return lit
}

func (c *converter) singleton(n sitter.Node) *syntax.Node {
	var lit *syntax.Node

	switch n.Type() {
	case nodeTrue:
		lit = syntax.NewLiteral(syntax.LitBool, "True")
	case nodeFalse:
		lit = syntax.NewLiteral(syntax.LitBool, "False")
	default:
		lit = syntax.NewLiteral(syntax.LitNone, "None")
	}

	lit.Pos = c.pos(n)

	return lit
}

// stringLiteral decodes quoted source text into the literal's value. Formatted
// strings and prefixes the decoder does not handle stay opaque.
func (c *converter) stringLiteral(n sitter.Node) *syntax.Node {
	litKind, value, ok := decodePyString(n.Content(c.src))
	if !ok {
		return c.opaque(n)
	}

	lit := syntax.NewLiteral(litKind, value)
	lit.Pos = c.pos(n)

	return lit
}

// concatenatedString folds adjacent string literals ('a' 'b') into one,
// provided every piece decodes to the same literal kind.
func (c *converter) concatenatedString(n sitter.Node) *syntax.Node {
	var (
		kind  string
		value string
	)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() != nodeString {
			return c.opaque(n)
		}

		pieceKind, piece, ok := decodePyString(child.Content(c.src))
		if !ok || (kind != "" && pieceKind != kind) {
			return c.opaque(n)
		}

		kind = pieceKind
		value += piece
	}

	if kind == "" {
		return c.opaque(n)
	}

	lit := syntax.NewLiteral(kind, value)
	lit.Pos = c.pos(n)

	return lit
}

func (c *converter) binaryOp(n sitter.Node) *syntax.Node {
	left := n.ChildByFieldName(fieldLeft)
	right := n.ChildByFieldName(fieldRight)
	op := n.ChildByFieldName(fieldOperator)

	if left.IsNull() || right.IsNull() || op.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindBinaryOp, c.expression(left), c.expression(right))
	expr.Pos = c.pos(n)
	expr.SetProp(syntax.PropOp, op.Content(c.src))

	return expr
}

func (c *converter) boolOp(n sitter.Node) *syntax.Node {
	left := n.ChildByFieldName(fieldLeft)
	right := n.ChildByFieldName(fieldRight)
	op := n.ChildByFieldName(fieldOperator)

	if left.IsNull() || right.IsNull() || op.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindBoolOp, c.expression(left), c.expression(right))
	expr.Pos = c.pos(n)
	expr.SetProp(syntax.PropOp, op.Content(c.src))

	return expr
}

func (c *converter) notOp(n sitter.Node) *syntax.Node {
	arg := n.ChildByFieldName("argument")
	if arg.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindUnaryOp, c.expression(arg))
	expr.Pos = c.pos(n)
	expr.SetProp(syntax.PropOp, "not")

	return expr
}

func (c *converter) unaryOp(n sitter.Node) *syntax.Node {
	arg := n.ChildByFieldName("argument")
	op := n.ChildByFieldName(fieldOperator)

	if arg.IsNull() || op.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindUnaryOp, c.expression(arg))
	expr.Pos = c.pos(n)
	expr.SetProp(syntax.PropOp, op.Content(c.src))

	return expr
}

// comparison maps chained comparisons (a < b <= c) to a Compare node whose
// children are the operands and whose ops property joins the operator chain.
func (c *converter) comparison(n sitter.Node) *syntax.Node {
	expr := syntax.New(syntax.KindCompare, "")
	expr.Pos = c.pos(n)

	var ops []string

	pendingOp := ""

	for i := range n.ChildCount() {
		child := n.Child(i)

		if child.IsNamed() {
			expr.AddChild(c.expression(child))

			continue
		}

		token := child.Content(c.src)

		// "not in" and "is not" arrive as two adjacent tokens.
		if (pendingOp == "not" && token == "in") || (pendingOp == "is" && token == "not") {
			ops[len(ops)-1] = pendingOp + " " + token
			pendingOp = ""

			continue
		}

		ops = append(ops, token)
		pendingOp = token
	}

	if len(expr.Children) < 2 || len(ops) != len(expr.Children)-1 {
		return c.opaque(n)
	}

	expr.SetProp(syntax.PropOps, strings.Join(ops, ","))

	return expr
}

func (c *converter) call(n sitter.Node) *syntax.Node {
	fn := n.ChildByFieldName(fieldFunction)
	args := n.ChildByFieldName(fieldArguments)

	if fn.IsNull() {
		return c.opaque(n)
	}

	// Calls carrying a bare generator expression argument have no
	// argument_list; keep those opaque.
	if args.IsNull() || args.Type() != nodeArgumentList {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindCall, c.expression(fn))
	expr.Pos = c.pos(n)

	for i := range args.NamedChildCount() {
		arg := args.NamedChild(i)
		if arg.Type() == nodeComment {
			continue
		}

		if arg.Type() == nodeKeywordArgument {
			expr.AddChild(c.keywordArgument(arg))
		} else {
			expr.AddChild(c.expression(arg))
		}
	}

	return expr
}

func (c *converter) keywordArgument(n sitter.Node) *syntax.Node {
	name := n.ChildByFieldName(fieldName)
	value := n.ChildByFieldName(fieldValue)

	if name.IsNull() || value.IsNull() {
		return c.opaque(n)
	}

	kw := syntax.NewWithChildren(syntax.KindKeyword, c.expression(value))
	kw.Token = name.Content(c.src)
	kw.Pos = c.pos(n)

	return kw
}

func (c *converter) attribute(n sitter.Node) *syntax.Node {
	object := n.ChildByFieldName(fieldObject)
	attr := n.ChildByFieldName(fieldAttribute)

	if object.IsNull() || attr.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindAttribute, c.expression(object))
	expr.Token = attr.Content(c.src)
	expr.Pos = c.pos(n)

	return expr
}

func (c *converter) subscript(n sitter.Node) *syntax.Node {
	value := n.ChildByFieldName(fieldValue)
	sub := n.ChildByFieldName(fieldSubscript)

	if value.IsNull() || sub.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindSubscript, c.expression(value), c.expression(sub))
	expr.Pos = c.pos(n)

	return expr
}

// slice maps [lower:upper:step]. Segment membership is recovered from the
// colon positions since the grammar exposes no fields here.
func (c *converter) slice(n sitter.Node) *syntax.Node {
	expr := syntax.New(syntax.KindSlice, "")
	expr.Pos = c.pos(n)

	segment := 0
	flags := [3]string{syntax.PropLower, syntax.PropUpper, syntax.PropStep}

	for i := range n.ChildCount() {
		child := n.Child(i)

		if !child.IsNamed() {
			if child.Content(c.src) == ":" {
				segment++
			}

			continue
		}

		if segment > 2 {
			return c.opaque(n)
		}

		expr.SetProp(flags[segment], "1")
		expr.AddChild(c.expression(child))
	}

	return expr
}

func (c *converter) lambda(n sitter.Node) *syntax.Node {
	body := n.ChildByFieldName(fieldBody)
	if body.IsNull() {
		return c.opaque(n)
	}

	expr := syntax.New(syntax.KindLambda, "")
	expr.Pos = c.pos(n)
	expr.AddChild(c.parameters(n.ChildByFieldName(fieldParameters)))
	expr.AddChild(c.expression(body))

	return expr
}

// conditional maps `a if cond else b`; the grammar surfaces the three parts
// as named children in source order.
func (c *converter) conditional(n sitter.Node) *syntax.Node {
	if n.NamedChildCount() != 3 {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindIfExp,
		c.expression(n.NamedChild(0)),
		c.expression(n.NamedChild(1)),
		c.expression(n.NamedChild(2)))
	expr.Pos = c.pos(n)

	return expr
}

// parenthesized unwraps grouping parentheses; the emitter reconstructs
// parentheses from operator precedence.
func (c *converter) parenthesized(n sitter.Node) *syntax.Node {
	if n.NamedChildCount() != 1 {
		return c.opaque(n)
	}

	return c.expression(n.NamedChild(0))
}

func (c *converter) sequence(n sitter.Node, kind syntax.Kind) *syntax.Node {
	expr := syntax.New(kind, "")
	expr.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeComment {
			continue
		}

		expr.AddChild(c.expression(child))
	}

	return expr
}

func (c *converter) dictionary(n sitter.Node) *syntax.Node {
	expr := syntax.New(syntax.KindDict, "")
	expr.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)

		switch child.Type() {
		case nodePair:
			key := child.ChildByFieldName("key")
			value := child.ChildByFieldName(fieldValue)

			if key.IsNull() || value.IsNull() {
				return c.opaque(n)
			}

			expr.AddChild(syntax.NewWithChildren(syntax.KindKeyValue,
				c.expression(key), c.expression(value)))
		case nodeDictionarySplat:
			expr.AddChild(c.starred(child))
		case nodeComment:
		default:
			return c.opaque(n)
		}
	}

	return expr
}

func (c *converter) starred(n sitter.Node) *syntax.Node {
	if n.NamedChildCount() != 1 {
		return c.opaque(n)
	}

	expr := syntax.NewWithChildren(syntax.KindStarred, c.expression(n.NamedChild(0)))
	expr.Pos = c.pos(n)

	if n.Type() == nodeDictionarySplat {
		expr.Token = "**"
	} else {
		expr.Token = "*"
	}

	return expr
}

// parameters converts a parameter list (possibly null for bare lambdas).
func (c *converter) parameters(n sitter.Node) *syntax.Node {
	params := syntax.New(syntax.KindParams, "")

	if n.IsNull() {
		return params
	}

	params.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)

		switch child.Type() {
		case nodeIdentifier:
			params.AddChild(syntax.New(syntax.KindParam, child.Content(c.src)))
		case nodeDefaultParameter:
			params.AddChild(c.defaultParameter(child))
		case nodeListSplatPattern:
			params.AddChild(c.splatParameter(child, "*"))
		case nodeDictSplatPattern:
			params.AddChild(c.splatParameter(child, "**"))
		case nodeKeywordSeparator, nodePositionalSep, nodeComment:
			// Bare separators carry no binding; decompiler output does
			// not produce them.
		default:
			params.AddChild(c.rawParameter(child))
		}
	}

	return params
}

func (c *converter) defaultParameter(n sitter.Node) *syntax.Node {
	name := n.ChildByFieldName(fieldName)
	value := n.ChildByFieldName(fieldValue)

	if name.IsNull() || value.IsNull() {
		return c.rawParameter(n)
	}

	param := syntax.NewWithChildren(syntax.KindParam, c.expression(value))
	param.Token = name.Content(c.src)

	return param
}

func (c *converter) splatParameter(n sitter.Node, star string) *syntax.Node {
	if n.NamedChildCount() != 1 {
		return c.rawParameter(n)
	}

	param := syntax.New(syntax.KindParam, n.NamedChild(0).Content(c.src))
	param.SetProp("star", star)

	return param
}

// rawParameter keeps a parameter form the loader does not model (typed or
// otherwise) verbatim; the first identifier inside still binds in scope.
func (c *converter) rawParameter(n sitter.Node) *syntax.Node {
	name := ""

	for i := range n.NamedChildCount() {
		if n.NamedChild(i).Type() == nodeIdentifier {
			name = n.NamedChild(i).Content(c.src)

			break
		}
	}

	param := syntax.New(syntax.KindParam, name)
	param.SetProp("raw", n.Content(c.src))

	return param
}
