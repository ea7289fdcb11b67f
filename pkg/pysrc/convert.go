package pysrc

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// Tree-sitter python grammar node type names.
const (
	nodeError               = "ERROR"
	nodeComment             = "comment"
	nodeModule              = "module"
	nodeExpressionStatement = "expression_statement"
	nodeAssignment          = "assignment"
	nodeAugmentedAssignment = "augmented_assignment"
	nodeFunctionDefinition  = "function_definition"
	nodeClassDefinition     = "class_definition"
	nodeDecoratedDefinition = "decorated_definition"
	nodeDecorator           = "decorator"
	nodeIfStatement         = "if_statement"
	nodeElifClause          = "elif_clause"
	nodeElseClause          = "else_clause"
	nodeWhileStatement      = "while_statement"
	nodeForStatement        = "for_statement"
	nodeTryStatement        = "try_statement"
	nodeExceptClause        = "except_clause"
	nodeFinallyClause       = "finally_clause"
	nodeWithStatement       = "with_statement"
	nodeWithClause          = "with_clause"
	nodeWithItem            = "with_item"
	nodeAsPattern           = "as_pattern"
	nodeReturnStatement     = "return_statement"
	nodeRaiseStatement      = "raise_statement"
	nodePassStatement       = "pass_statement"
	nodeBreakStatement      = "break_statement"
	nodeContinueStatement   = "continue_statement"
	nodeImportStatement     = "import_statement"
	nodeImportFromStatement = "import_from_statement"
	nodeFutureImport        = "future_import_statement"
	nodeDottedName          = "dotted_name"
	nodeAliasedImport       = "aliased_import"
	nodeGlobalStatement     = "global_statement"
	nodeNonlocalStatement   = "nonlocal_statement"
	nodeDeleteStatement     = "delete_statement"
	nodeAssertStatement     = "assert_statement"
	nodeBlock               = "block"
)

const (
	nodeIdentifier       = "identifier"
	nodeInteger          = "integer"
	nodeFloat            = "float"
	nodeString           = "string"
	nodeConcatenatedStr  = "concatenated_string"
	nodeTrue             = "true"
	nodeFalse            = "false"
	nodeNone             = "none"
	nodeBinaryOperator   = "binary_operator"
	nodeUnaryOperator    = "unary_operator"
	nodeBooleanOperator  = "boolean_operator"
	nodeNotOperator      = "not_operator"
	nodeComparison       = "comparison_operator"
	nodeCall             = "call"
	nodeArgumentList     = "argument_list"
	nodeKeywordArgument  = "keyword_argument"
	nodeAttribute        = "attribute"
	nodeSubscript        = "subscript"
	nodeSlice            = "slice"
	nodeLambda           = "lambda"
	nodeConditionalExpr  = "conditional_expression"
	nodeParenthesized    = "parenthesized_expression"
	nodeTuple            = "tuple"
	nodeList             = "list"
	nodeSet              = "set"
	nodeDictionary       = "dictionary"
	nodePair             = "pair"
	nodeListSplat        = "list_splat"
	nodeDictionarySplat  = "dictionary_splat"
	nodeListSplatPattern = "list_splat_pattern"
	nodeDictSplatPattern = "dictionary_splat_pattern"
	nodeParameters       = "parameters"
	nodeDefaultParameter = "default_parameter"
	nodeTypedParameter   = "typed_parameter"
	nodePatternList      = "pattern_list"
	nodeExpressionList   = "expression_list"
	nodeKeywordSeparator = "keyword_separator"
	nodePositionalSep    = "positional_separator"
)

// Tree-sitter field names.
const (
	fieldLeft        = "left"
	fieldRight       = "right"
	fieldOperator    = "operator"
	fieldName        = "name"
	fieldParameters  = "parameters"
	fieldBody        = "body"
	fieldCondition   = "condition"
	fieldConsequence = "consequence"
	fieldAlternative = "alternative"
	fieldFunction    = "function"
	fieldArguments   = "arguments"
	fieldObject      = "object"
	fieldAttribute   = "attribute"
	fieldValue       = "value"
	fieldSubscript   = "subscript"
	fieldSuperclass  = "superclasses"
	fieldModuleName  = "module_name"
	fieldAlias       = "alias"
)

// converter turns a tree-sitter parse tree into the canonical syntax tree.
// Anything it cannot model structurally becomes an opaque node carrying the
// verbatim source slice, so no input is ever dropped.
type converter struct {
	src []byte
}

func (c *converter) module(root sitter.Node) *syntax.Node {
	moduleNode := syntax.New(syntax.KindModule, "")
	moduleNode.Pos = c.pos(root)
	moduleNode.Children = c.statements(root)

	return moduleNode
}

// statements converts the named children of a module or block node.
func (c *converter) statements(parent sitter.Node) []*syntax.Node {
	out := make([]*syntax.Node, 0, parent.NamedChildCount())

	for i := range parent.NamedChildCount() {
		child := parent.NamedChild(i)
		if child.Type() == nodeComment {
			continue
		}

		out = append(out, c.statementGroup(child)...)
	}

	return out
}

// statementGroup converts one statement-level node. Decorated definitions
// expand to the decorators (opaque) followed by the definition itself.
func (c *converter) statementGroup(n sitter.Node) []*syntax.Node {
	if n.Type() != nodeDecoratedDefinition {
		return []*syntax.Node{c.statement(n)}
	}

	out := make([]*syntax.Node, 0, n.NamedChildCount())

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeDecorator {
			out = append(out, c.opaque(child))
		} else {
			out = append(out, c.statement(child))
		}
	}

	return out
}

//nolint:cyclop // Flat dispatch over grammar node types.
func (c *converter) statement(n sitter.Node) *syntax.Node {
	switch n.Type() {
	case nodeExpressionStatement:
		return c.expressionStatement(n)
	case nodeFunctionDefinition:
		return c.functionDef(n)
	case nodeClassDefinition:
		return c.classDef(n)
	case nodeIfStatement:
		return c.ifStatement(n)
	case nodeWhileStatement:
		return c.whileStatement(n)
	case nodeForStatement:
		return c.forStatement(n)
	case nodeTryStatement:
		return c.tryStatement(n)
	case nodeWithStatement:
		return c.withStatement(n)
	case nodeReturnStatement:
		return c.simpleStatement(n, syntax.KindReturn)
	case nodeRaiseStatement:
		return c.simpleStatement(n, syntax.KindRaise)
	case nodeDeleteStatement:
		return c.simpleStatement(n, syntax.KindDelete)
	case nodeAssertStatement:
		return c.simpleStatement(n, syntax.KindAssert)
	case nodePassStatement:
		return c.leafStatement(n, syntax.KindPass)
	case nodeBreakStatement:
		return c.leafStatement(n, syntax.KindBreak)
	case nodeContinueStatement:
		return c.leafStatement(n, syntax.KindContinue)
	case nodeImportStatement:
		return c.importStatement(n, syntax.KindImport, "")
	case nodeImportFromStatement, nodeFutureImport:
		return c.importFrom(n)
	case nodeGlobalStatement:
		return c.nameListStatement(n, syntax.KindGlobal)
	case nodeNonlocalStatement:
		return c.nameListStatement(n, syntax.KindNonlocal)
	default:
		return c.opaque(n)
	}
}

// expressionStatement unwraps assignments, which the grammar nests inside
// expression statements.
func (c *converter) expressionStatement(n sitter.Node) *syntax.Node {
	if n.NamedChildCount() == 0 {
		return c.opaque(n)
	}

	inner := n.NamedChild(0)

	switch inner.Type() {
	case nodeAssignment:
		return c.assignment(inner)
	case nodeAugmentedAssignment:
		return c.augAssignment(inner)
	default:
		stmt := syntax.NewWithChildren(syntax.KindExprStmt, c.expression(inner))
		stmt.Pos = c.pos(n)

		return stmt
	}
}

// assignment flattens chained targets (a = b = value) into one Assign node
// whose last child is the value.
func (c *converter) assignment(n sitter.Node) *syntax.Node {
	stmt := syntax.New(syntax.KindAssign, "")
	stmt.Pos = c.pos(n)

	current := n

	for {
		left := current.ChildByFieldName(fieldLeft)
		right := current.ChildByFieldName(fieldRight)

		if left.IsNull() || right.IsNull() {
			return c.opaque(n)
		}

		stmt.AddChild(c.expression(left))

		if right.Type() != nodeAssignment {
			stmt.AddChild(c.expression(right))

			return stmt
		}

		current = right
	}
}

func (c *converter) augAssignment(n sitter.Node) *syntax.Node {
	left := n.ChildByFieldName(fieldLeft)
	right := n.ChildByFieldName(fieldRight)
	op := n.ChildByFieldName(fieldOperator)

	if left.IsNull() || right.IsNull() || op.IsNull() {
		return c.opaque(n)
	}

	stmt := syntax.NewWithChildren(syntax.KindAugAssign, c.expression(left), c.expression(right))
	stmt.Pos = c.pos(n)
	stmt.SetProp(syntax.PropOp, op.Content(c.src))

	return stmt
}

func (c *converter) functionDef(n sitter.Node) *syntax.Node {
	name := n.ChildByFieldName(fieldName)
	params := n.ChildByFieldName(fieldParameters)
	body := n.ChildByFieldName(fieldBody)

	if name.IsNull() || body.IsNull() {
		return c.opaque(n)
	}

	def := syntax.New(syntax.KindFunctionDef, name.Content(c.src))
	def.Pos = c.pos(n)
	def.AddChild(c.parameters(params))
	def.AddChild(c.block(body))

	return def
}

func (c *converter) classDef(n sitter.Node) *syntax.Node {
	name := n.ChildByFieldName(fieldName)
	body := n.ChildByFieldName(fieldBody)

	if name.IsNull() || body.IsNull() {
		return c.opaque(n)
	}

	def := syntax.New(syntax.KindClassDef, name.Content(c.src))
	def.Pos = c.pos(n)

	supers := n.ChildByFieldName(fieldSuperclass)
	if !supers.IsNull() {
		for i := range supers.NamedChildCount() {
			def.AddChild(c.expression(supers.NamedChild(i)))
		}
	}

	def.AddChild(c.block(body))

	return def
}

func (c *converter) ifStatement(n sitter.Node) *syntax.Node {
	cond := n.ChildByFieldName(fieldCondition)
	consequence := n.ChildByFieldName(fieldConsequence)

	if cond.IsNull() || consequence.IsNull() {
		return c.opaque(n)
	}

	stmt := syntax.NewWithChildren(syntax.KindIf, c.expression(cond), c.block(consequence))
	stmt.Pos = c.pos(n)

	if alt := c.alternative(n); alt != nil {
		stmt.AddChild(alt)
	}

	return stmt
}

// alternative folds elif/else clauses into a nested If chain or a Block.
func (c *converter) alternative(n sitter.Node) *syntax.Node {
	var clauses []sitter.Node

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeElifClause || child.Type() == nodeElseClause {
			clauses = append(clauses, child)
		}
	}

	return c.foldClauses(clauses)
}

func (c *converter) foldClauses(clauses []sitter.Node) *syntax.Node {
	if len(clauses) == 0 {
		return nil
	}

	head := clauses[0]

	if head.Type() == nodeElseClause {
		body := head.ChildByFieldName(fieldBody)
		if body.IsNull() {
			return nil
		}

		return c.block(body)
	}

	cond := head.ChildByFieldName(fieldCondition)
	consequence := head.ChildByFieldName(fieldConsequence)

	if cond.IsNull() || consequence.IsNull() {
		return nil
	}

	elifNode := syntax.NewWithChildren(syntax.KindIf, c.expression(cond), c.block(consequence))
	elifNode.Pos = c.pos(head)

	if rest := c.foldClauses(clauses[1:]); rest != nil {
		elifNode.AddChild(rest)
	}

	return elifNode
}

func (c *converter) whileStatement(n sitter.Node) *syntax.Node {
	cond := n.ChildByFieldName(fieldCondition)
	body := n.ChildByFieldName(fieldBody)

	if cond.IsNull() || body.IsNull() {
		return c.opaque(n)
	}

	// A loop else clause changes what runs after normal termination; keep
	// the whole statement verbatim rather than inventing structure.
	if !n.ChildByFieldName(fieldAlternative).IsNull() {
		return c.opaque(n)
	}

	stmt := syntax.NewWithChildren(syntax.KindWhile, c.expression(cond), c.block(body))
	stmt.Pos = c.pos(n)

	return stmt
}

func (c *converter) forStatement(n sitter.Node) *syntax.Node {
	left := n.ChildByFieldName(fieldLeft)
	right := n.ChildByFieldName(fieldRight)
	body := n.ChildByFieldName(fieldBody)

	if left.IsNull() || right.IsNull() || body.IsNull() {
		return c.opaque(n)
	}

	if !n.ChildByFieldName(fieldAlternative).IsNull() {
		return c.opaque(n)
	}

	stmt := syntax.NewWithChildren(syntax.KindFor,
		c.expression(left), c.expression(right), c.block(body))
	stmt.Pos = c.pos(n)

	return stmt
}

func (c *converter) tryStatement(n sitter.Node) *syntax.Node {
	body := n.ChildByFieldName(fieldBody)
	if body.IsNull() {
		return c.opaque(n)
	}

	stmt := syntax.NewWithChildren(syntax.KindTry, c.block(body))
	stmt.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)

		switch child.Type() {
		case nodeExceptClause:
			stmt.AddChild(c.exceptClause(child))
		case nodeFinallyClause:
			stmt.AddChild(c.finallyClause(child))
		case nodeElseClause:
			// try/else bodies are rare in decompiler output; keep them
			// verbatim rather than inventing structure.
			stmt.AddChild(c.opaque(child))
		}
	}

	return stmt
}

// exceptClause maps `except [type [as name]]: block`. The grammar exposes the
// clause children positionally: optional type expression, optional alias
// identifier, then the block.
func (c *converter) exceptClause(n sitter.Node) *syntax.Node {
	clause := syntax.New(syntax.KindExceptClause, "")
	clause.Pos = c.pos(n)

	var extras []sitter.Node

	var body sitter.Node

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeBlock {
			body = child
		} else {
			extras = append(extras, child)
		}
	}

	if body.IsNull() {
		return c.opaque(n)
	}

	if len(extras) > 0 {
		clause.AddChild(c.expression(extras[0]))
	}

	if len(extras) > 1 && extras[1].Type() == nodeIdentifier {
		clause.Token = extras[1].Content(c.src)
	}

	clause.AddChild(c.block(body))

	return clause
}

func (c *converter) finallyClause(n sitter.Node) *syntax.Node {
	var body sitter.Node

	for i := range n.NamedChildCount() {
		if n.NamedChild(i).Type() == nodeBlock {
			body = n.NamedChild(i)
		}
	}

	if body.IsNull() {
		return c.opaque(n)
	}

	clause := syntax.NewWithChildren(syntax.KindFinallyClause, c.block(body))
	clause.Pos = c.pos(n)

	return clause
}

func (c *converter) withStatement(n sitter.Node) *syntax.Node {
	body := n.ChildByFieldName(fieldBody)
	if body.IsNull() {
		return c.opaque(n)
	}

	stmt := syntax.New(syntax.KindWith, "")
	stmt.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeWithClause {
			for j := range child.NamedChildCount() {
				item := child.NamedChild(j)
				if item.Type() == nodeWithItem {
					stmt.AddChild(c.withItem(item))
				}
			}
		}
	}

	stmt.AddChild(c.block(body))

	return stmt
}

// withItem maps `expr [as target]`; the grammar wraps the aliased form in an
// as_pattern under the item's value field.
func (c *converter) withItem(n sitter.Node) *syntax.Node {
	value := n.ChildByFieldName(fieldValue)
	if value.IsNull() {
		return c.opaque(n)
	}

	item := syntax.New(syntax.KindWithItem, "")
	item.Pos = c.pos(n)

	if value.Type() == nodeAsPattern && value.NamedChildCount() >= 2 {
		item.AddChild(c.expression(value.NamedChild(0)))
		item.AddChild(c.expression(value.NamedChild(1)))
	} else {
		item.AddChild(c.expression(value))
	}

	return item
}

// simpleStatement maps statements of the form `keyword [expr, ...]`.
func (c *converter) simpleStatement(n sitter.Node, kind syntax.Kind) *syntax.Node {
	stmt := syntax.New(kind, "")
	stmt.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeComment {
			continue
		}

		if child.Type() == nodeExpressionList {
			for j := range child.NamedChildCount() {
				stmt.AddChild(c.expression(child.NamedChild(j)))
			}

			continue
		}

		stmt.AddChild(c.expression(child))
	}

	return stmt
}

func (c *converter) leafStatement(n sitter.Node, kind syntax.Kind) *syntax.Node {
	stmt := syntax.New(kind, "")
	stmt.Pos = c.pos(n)

	return stmt
}

// importStatement maps `import a.b as c, d` to an Import node with one
// ImportAlias child per imported name.
func (c *converter) importStatement(n sitter.Node, kind syntax.Kind, module string) *syntax.Node {
	stmt := syntax.New(kind, module)
	stmt.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)

		switch child.Type() {
		case nodeDottedName, nodeIdentifier:
			stmt.AddChild(syntax.New(syntax.KindImportAlias, child.Content(c.src)))
		case nodeAliasedImport:
			stmt.AddChild(c.aliasedImport(child))
		}
	}

	return stmt
}

func (c *converter) aliasedImport(n sitter.Node) *syntax.Node {
	name := n.ChildByFieldName(fieldName)
	alias := n.ChildByFieldName(fieldAlias)

	if name.IsNull() {
		return c.opaque(n)
	}

	aliasNode := syntax.New(syntax.KindImportAlias, name.Content(c.src))
	if !alias.IsNull() {
		aliasNode.SetProp(syntax.PropAlias, alias.Content(c.src))
	}

	return aliasNode
}

func (c *converter) importFrom(n sitter.Node) *syntax.Node {
	module := n.ChildByFieldName(fieldModuleName)

	moduleName := "."
	if !module.IsNull() {
		moduleName = module.Content(c.src)
	}

	stmt := c.importStatement(n, syntax.KindImportFrom, moduleName)

	// The module name surfaces both via its field and as a named child;
	// drop the duplicate alias entry.
	if len(stmt.Children) > 0 && stmt.Children[0].Token == moduleName {
		stmt.Children = stmt.Children[1:]
	}

	return stmt
}

func (c *converter) nameListStatement(n sitter.Node, kind syntax.Kind) *syntax.Node {
	stmt := syntax.New(kind, "")
	stmt.Pos = c.pos(n)

	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() == nodeIdentifier {
			stmt.AddChild(syntax.New(syntax.KindName, child.Content(c.src)))
		}
	}

	return stmt
}

func (c *converter) block(n sitter.Node) *syntax.Node {
	blockNode := syntax.New(syntax.KindBlock, "")
	blockNode.Pos = c.pos(n)
	blockNode.Children = c.statements(n)

	if len(blockNode.Children) == 0 {
		blockNode.AddChild(syntax.New(syntax.KindPass, ""))
	}

	return blockNode
}

// opaque preserves the node's exact source slice. The emitter re-indents the
// first line and keeps interior lines relative to the recorded start column.
func (c *converter) opaque(n sitter.Node) *syntax.Node {
	opaqueNode := syntax.New(syntax.KindOpaque, n.Content(c.src))
	opaqueNode.Pos = c.pos(n)

	return opaqueNode
}

func (c *converter) pos(n sitter.Node) *syntax.Positions {
	start := n.StartPoint()
	end := n.EndPoint()

	return &syntax.Positions{
		StartLine:   uint(start.Row) + 1,
		StartCol:    uint(start.Column) + 1,
		StartOffset: uint(n.StartByte()),
		EndLine:     uint(end.Row) + 1,
		EndCol:      uint(end.Column) + 1,
		EndOffset:   uint(n.EndByte()),
	}
}
