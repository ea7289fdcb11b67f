// Package syntax provides the canonical Python syntax tree used across the
// deobfuscation pipeline: node structure, traversal, structural equality and
// lexical scope binding.
package syntax

import "strings"

// Kind identifies the statement or expression variant a Node represents.
type Kind string

// Statement kinds.
const (
	KindModule        Kind = "Module"
	KindBlock         Kind = "Block"
	KindFunctionDef   Kind = "FunctionDef"
	KindClassDef      Kind = "ClassDef"
	KindIf            Kind = "If"
	KindWhile         Kind = "While"
	KindFor           Kind = "For"
	KindTry           Kind = "Try"
	KindExceptClause  Kind = "ExceptClause"
	KindFinallyClause Kind = "FinallyClause"
	KindWith          Kind = "With"
	KindWithItem      Kind = "WithItem"
	KindAssign        Kind = "Assign"
	KindAugAssign     Kind = "AugAssign"
	KindExprStmt      Kind = "ExprStmt"
	KindReturn        Kind = "Return"
	KindRaise         Kind = "Raise"
	KindPass          Kind = "Pass"
	KindBreak         Kind = "Break"
	KindContinue      Kind = "Continue"
	KindImport        Kind = "Import"
	KindImportFrom    Kind = "ImportFrom"
	KindImportAlias   Kind = "ImportAlias"
	KindGlobal        Kind = "Global"
	KindNonlocal      Kind = "Nonlocal"
	KindDelete        Kind = "Delete"
	KindAssert        Kind = "Assert"
)

// Expression kinds.
const (
	KindName      Kind = "Name"
	KindLiteral   Kind = "Literal"
	KindTuple     Kind = "Tuple"
	KindList      Kind = "List"
	KindSet       Kind = "Set"
	KindDict      Kind = "Dict"
	KindKeyValue  Kind = "KeyValue"
	KindBinaryOp  Kind = "BinaryOp"
	KindUnaryOp   Kind = "UnaryOp"
	KindBoolOp    Kind = "BoolOp"
	KindCompare   Kind = "Compare"
	KindCall      Kind = "Call"
	KindKeyword   Kind = "Keyword"
	KindAttribute Kind = "Attribute"
	KindSubscript Kind = "Subscript"
	KindSlice     Kind = "Slice"
	KindLambda    Kind = "Lambda"
	KindIfExp     Kind = "IfExp"
	KindStarred   Kind = "Starred"
	KindParams    Kind = "Params"
	KindParam     Kind = "Param"
	// KindOpaque preserves source text the loader does not model
	// structurally (comprehensions, f-strings, decorators, and any
	// construct a decompiler mis-emits). Opaque nodes pass through the
	// pipeline untouched and re-emit verbatim.
	KindOpaque Kind = "Opaque"
)

// Literal value categories, stored in Props under PropLitKind.
const (
	LitInt   = "int"
	LitFloat = "float"
	LitStr   = "str"
	LitBytes = "bytes"
	LitBool  = "bool"
	LitNone  = "none"
)

// Property keys used by loader, patterns and emitter.
const (
	PropOp      = "op"       // operator token for BinaryOp/UnaryOp/BoolOp/AugAssign
	PropOps     = "ops"      // comma-joined operator chain for Compare
	PropLitKind = "lit_kind" // literal category, one of the Lit* constants
	PropAlias   = "alias"    // import alias
	PropLower   = "lower"    // slice has a lower bound
	PropUpper   = "upper"    // slice has an upper bound
	PropStep    = "step"     // slice has a step
)

// Positions holds 1-based line/column and byte offsets for a node.
type Positions struct {
	StartLine   uint `json:"start_line,omitempty"`
	StartCol    uint `json:"start_col,omitempty"`
	StartOffset uint `json:"start_offset,omitempty"`
	EndLine     uint `json:"end_line,omitempty"`
	EndCol      uint `json:"end_col,omitempty"`
	EndOffset   uint `json:"end_offset,omitempty"`
}

// Node is a single syntax tree node. Trees are strictly hierarchical: a node
// is owned by exactly one parent and carries no back-references.
//
// Fields:
//
//	Kind: statement/expression variant.
//	Token: identifier, literal payload or raw text, depending on Kind.
//	Pos: source position (nil for synthesized nodes).
//	Props: per-kind auxiliary attributes (see the Prop* keys).
//	Children: ordered child nodes.
type Node struct {
	Kind     Kind              `json:"kind"`
	Token    string            `json:"token,omitempty"`
	Pos      *Positions        `json:"pos,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// New creates a node of the given kind with the given token.
func New(kind Kind, token string) *Node {
	return &Node{Kind: kind, Token: token}
}

// NewWithChildren creates a node of the given kind with the given children.
func NewWithChildren(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// NewLiteral creates a literal node with the given category and payload.
// For LitStr and LitBytes the token is the decoded value, not its source
// representation; the emitter re-quotes on output.
func NewLiteral(litKind, token string) *Node {
	return &Node{
		Kind:  KindLiteral,
		Token: token,
		Props: map[string]string{PropLitKind: litKind},
	}
}

// Prop returns the property value for key, or "" when absent.
func (n *Node) Prop(key string) string {
	if n == nil || n.Props == nil {
		return ""
	}

	return n.Props[key]
}

// SetProp sets a property, allocating the map on first use.
func (n *Node) SetProp(key, value string) {
	if n.Props == nil {
		n.Props = make(map[string]string, 2)
	}

	n.Props[key] = value
}

// LitKind returns the literal category of a Literal node, or "".
func (n *Node) LitKind() string {
	return n.Prop(PropLitKind)
}

// IsLiteral reports whether n is a Literal node of the given category.
func (n *Node) IsLiteral(litKind string) bool {
	return n != nil && n.Kind == KindLiteral && n.LitKind() == litKind
}

// AddChild appends a child node.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// ReplaceChild replaces the first occurrence of old with replacement.
// Returns true if replaced.
func (n *Node) ReplaceChild(old, replacement *Node) bool {
	for idx, candidate := range n.Children {
		if candidate == old {
			n.Children[idx] = replacement

			return true
		}
	}

	return false
}

// RemoveChild removes the first occurrence of child. Returns true if removed.
func (n *Node) RemoveChild(child *Node) bool {
	for idx, candidate := range n.Children {
		if candidate == child {
			n.Children = append(n.Children[:idx], n.Children[idx+1:]...)

			return true
		}
	}

	return false
}

// VisitPreOrder visits n and every descendant, parents before children.
func (n *Node) VisitPreOrder(fn func(*Node)) {
	if n == nil {
		return
	}

	fn(n)

	for _, child := range n.Children {
		child.VisitPreOrder(fn)
	}
}

// Walk visits n and its descendants, parents before children. Returning
// false from fn prunes the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}

	if !fn(n) {
		return
	}

	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// VisitPostOrder visits every descendant and then n, children before parents.
func (n *Node) VisitPostOrder(fn func(*Node)) {
	if n == nil {
		return
	}

	for _, child := range n.Children {
		child.VisitPostOrder(fn)
	}

	fn(n)
}

// Find returns all nodes in the tree for which predicate(node) is true, in
// pre-order. Returns nil if n is nil.
func (n *Node) Find(predicate func(*Node) bool) []*Node {
	var out []*Node

	n.VisitPreOrder(func(candidate *Node) {
		if predicate(candidate) {
			out = append(out, candidate)
		}
	})

	return out
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}

	total := 1

	for _, child := range n.Children {
		total += child.Count()
	}

	return total
}

// Clone returns a deep copy of the tree rooted at n. Positions are shared
// (they are never mutated); Props and Children are copied.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	cloned := &Node{
		Kind:  n.Kind,
		Token: n.Token,
		Pos:   n.Pos,
	}

	if n.Props != nil {
		cloned.Props = make(map[string]string, len(n.Props))
		for key, value := range n.Props {
			cloned.Props[key] = value
		}
	}

	if n.Children != nil {
		cloned.Children = make([]*Node, len(n.Children))
		for idx, child := range n.Children {
			cloned.Children[idx] = child.Clone()
		}
	}

	return cloned
}

// Equal reports structural equality of two trees, ignoring positions.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}

	if n.Kind != other.Kind || n.Token != other.Token {
		return false
	}

	if !propsEqual(n.Props, other.Props) {
		return false
	}

	if len(n.Children) != len(other.Children) {
		return false
	}

	for idx := range n.Children {
		if !n.Children[idx].Equal(other.Children[idx]) {
			return false
		}
	}

	return true
}

func propsEqual(left, right map[string]string) bool {
	if len(left) != len(right) {
		return false
	}

	for key, value := range left {
		if right[key] != value {
			return false
		}
	}

	return true
}

// IsStatement reports whether the kind is a statement-level variant.
func (k Kind) IsStatement() bool {
	switch k {
	case KindModule, KindBlock, KindFunctionDef, KindClassDef, KindIf,
		KindWhile, KindFor, KindTry, KindExceptClause, KindFinallyClause,
		KindWith, KindAssign, KindAugAssign, KindExprStmt, KindReturn,
		KindRaise, KindPass, KindBreak, KindContinue, KindImport,
		KindImportFrom, KindGlobal, KindNonlocal, KindDelete, KindAssert:
		return true
	default:
		return false
	}
}

// String renders a compact single-line description, useful in logs and tests.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	var sb strings.Builder

	sb.WriteString(string(n.Kind))

	if n.Token != "" {
		sb.WriteString("(")
		sb.WriteString(n.Token)
		sb.WriteString(")")
	}

	if op := n.Prop(PropOp); op != "" {
		sb.WriteString("[")
		sb.WriteString(op)
		sb.WriteString("]")
	}

	return sb.String()
}
