// Package emit serializes a syntax tree back to formatted Python source.
// Output is deterministic: the same tree always renders to the same bytes.
package emit

import (
	"strings"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

const indentUnit = "    "

// Emit renders the tree rooted at root (normally a Module) to source text.
func Emit(root *syntax.Node) string {
	p := &printer{}

	if root == nil {
		return ""
	}

	if root.Kind == syntax.KindModule || root.Kind == syntax.KindBlock {
		p.statements(root.Children)
	} else if root.Kind.IsStatement() {
		p.statement(root)
	} else {
		p.writeLine(exprString(root, precLowest))
	}

	return p.sb.String()
}

// Snippet renders a node as a single-line source fragment for logs and
// reports, truncated to at most maxLen runes.
func Snippet(n *syntax.Node, maxLen int) string {
	text := strings.Join(strings.Fields(Emit(n)), " ")

	runes := []rune(text)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}

	return text
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) writeLine(text string) {
	for range p.indent {
		p.sb.WriteString(indentUnit)
	}

	p.sb.WriteString(text)
	p.sb.WriteByte('\n')
}

func (p *printer) statements(stmts []*syntax.Node) {
	for _, stmt := range stmts {
		p.statement(stmt)
	}
}

//nolint:cyclop // Flat dispatch over statement kinds.
func (p *printer) statement(n *syntax.Node) {
	switch n.Kind {
	case syntax.KindFunctionDef:
		p.functionDef(n)
	case syntax.KindClassDef:
		p.classDef(n)
	case syntax.KindIf:
		p.ifStatement(n, "if")
	case syntax.KindWhile:
		p.compound(n, "while "+exprString(n.Child(0), precLowest))
	case syntax.KindFor:
		p.forStatement(n)
	case syntax.KindTry:
		p.tryStatement(n)
	case syntax.KindWith:
		p.withStatement(n)
	case syntax.KindAssign:
		p.writeLine(assignString(n))
	case syntax.KindAugAssign:
		p.writeLine(exprString(n.Child(0), precLowest) + " " + n.Prop(syntax.PropOp) + " " + exprString(n.Child(1), precLowest))
	case syntax.KindExprStmt:
		p.writeLine(exprString(n.Child(0), precLowest))
	case syntax.KindReturn:
		p.keywordStatement(n, "return")
	case syntax.KindRaise:
		p.keywordStatement(n, "raise")
	case syntax.KindDelete:
		p.keywordStatement(n, "del")
	case syntax.KindAssert:
		p.keywordStatement(n, "assert")
	case syntax.KindPass:
		p.writeLine("pass")
	case syntax.KindBreak:
		p.writeLine("break")
	case syntax.KindContinue:
		p.writeLine("continue")
	case syntax.KindImport:
		p.writeLine("import " + aliasList(n.Children))
	case syntax.KindImportFrom:
		p.writeLine("from " + n.Token + " import " + aliasList(n.Children))
	case syntax.KindGlobal:
		p.writeLine("global " + nameList(n.Children))
	case syntax.KindNonlocal:
		p.writeLine("nonlocal " + nameList(n.Children))
	case syntax.KindOpaque:
		p.opaque(n)
	default:
		// Unknown statement kinds render as their expression form so no
		// tree content is ever silently dropped.
		p.writeLine(exprString(n, precLowest))
	}
}

func (p *printer) compound(n *syntax.Node, header string) {
	p.writeLine(header + ":")
	p.indent++

	body := lastBlock(n)
	if body == nil || len(body.Children) == 0 {
		p.writeLine("pass")
	} else {
		p.statements(body.Children)
	}

	p.indent--
}

func (p *printer) functionDef(n *syntax.Node) {
	params := n.Child(0)
	p.compound(n, "def "+n.Token+"("+paramList(params)+")")
}

func (p *printer) classDef(n *syntax.Node) {
	header := "class " + n.Token

	var bases []string

	for _, child := range n.Children {
		if child.Kind != syntax.KindBlock {
			bases = append(bases, exprString(child, precLowest))
		}
	}

	if len(bases) > 0 {
		header += "(" + strings.Join(bases, ", ") + ")"
	}

	p.compound(n, header)
}

// ifStatement renders an if/elif/else chain. A trailing If child is an elif
// link; a trailing Block child is the else branch.
func (p *printer) ifStatement(n *syntax.Node, keyword string) {
	p.writeLine(keyword + " " + exprString(n.Child(0), precLowest) + ":")
	p.indent++

	then := n.Child(1)
	if then == nil || len(then.Children) == 0 {
		p.writeLine("pass")
	} else {
		p.statements(then.Children)
	}

	p.indent--

	alt := n.Child(2)
	if alt == nil {
		return
	}

	if alt.Kind == syntax.KindIf {
		p.ifStatement(alt, "elif")

		return
	}

	p.writeLine("else:")
	p.indent++
	p.statements(alt.Children)
	p.indent--
}

func (p *printer) forStatement(n *syntax.Node) {
	header := "for " + exprString(n.Child(0), precLowest) + " in " + exprString(n.Child(1), precLowest)
	p.compound(n, header)
}

func (p *printer) tryStatement(n *syntax.Node) {
	p.writeLine("try:")
	p.indent++
	p.statements(n.Child(0).Children)
	p.indent--

	for _, child := range n.Children[1:] {
		switch child.Kind {
		case syntax.KindExceptClause:
			p.exceptClause(child)
		case syntax.KindFinallyClause:
			p.writeLine("finally:")
			p.indent++
			p.statements(child.Child(0).Children)
			p.indent--
		default:
			p.statement(child)
		}
	}
}

func (p *printer) exceptClause(n *syntax.Node) {
	header := "except"

	// An except clause holds an optional type expression followed by its
	// block; the bound name, when present, sits in Token.
	if len(n.Children) > 1 {
		header += " " + exprString(n.Child(0), precLowest)
		if n.Token != "" {
			header += " as " + n.Token
		}
	}

	p.writeLine(header + ":")
	p.indent++
	p.statements(lastBlock(n).Children)
	p.indent--
}

func (p *printer) withStatement(n *syntax.Node) {
	var items []string

	for _, child := range n.Children {
		if child.Kind != syntax.KindWithItem {
			continue
		}

		item := exprString(child.Child(0), precLowest)
		if target := child.Child(1); target != nil {
			item += " as " + exprString(target, precLowest)
		}

		items = append(items, item)
	}

	p.compound(n, "with "+strings.Join(items, ", "))
}

func (p *printer) keywordStatement(n *syntax.Node, keyword string) {
	if len(n.Children) == 0 {
		p.writeLine(keyword)

		return
	}

	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		parts = append(parts, exprString(child, precLowest))
	}

	p.writeLine(keyword + " " + strings.Join(parts, ", "))
}

// opaque re-emits preserved source text, shifting interior lines from their
// recorded start column to the current indentation.
func (p *printer) opaque(n *syntax.Node) {
	lines := strings.Split(n.Token, "\n")
	p.writeLine(lines[0])

	baseCol := 0
	if n.Pos != nil && n.Pos.StartCol > 0 {
		baseCol = int(n.Pos.StartCol) - 1
	}

	for _, line := range lines[1:] {
		trimmed := line

		for cut := 0; cut < baseCol && len(trimmed) > 0 && trimmed[0] == ' '; cut++ {
			trimmed = trimmed[1:]
		}

		p.writeLine(trimmed)
	}
}

func assignString(n *syntax.Node) string {
	parts := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		parts = append(parts, exprString(child, precLowest))
	}

	return strings.Join(parts, " = ")
}

func aliasList(aliases []*syntax.Node) string {
	parts := make([]string, 0, len(aliases))

	for _, alias := range aliases {
		part := alias.Token
		if as := alias.Prop(syntax.PropAlias); as != "" {
			part += " as " + as
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, ", ")
}

func nameList(names []*syntax.Node) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name.Token)
	}

	return strings.Join(parts, ", ")
}

func paramList(params *syntax.Node) string {
	if params == nil {
		return ""
	}

	parts := make([]string, 0, len(params.Children))

	for _, param := range params.Children {
		if raw := param.Prop("raw"); raw != "" {
			parts = append(parts, raw)

			continue
		}

		part := param.Prop("star") + param.Token
		if dflt := param.Child(0); dflt != nil {
			part += "=" + exprString(dflt, precLowest)
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, ", ")
}

func lastBlock(n *syntax.Node) *syntax.Node {
	for idx := len(n.Children) - 1; idx >= 0; idx-- {
		if n.Children[idx].Kind == syntax.KindBlock {
			return n.Children[idx]
		}
	}

	return nil
}
