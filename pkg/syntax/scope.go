package syntax

import "strings"

// BindKind classifies how a name became bound within a scope.
type BindKind string

// Binding kinds.
const (
	BindLocal    BindKind = "local"
	BindParam    BindKind = "param"
	BindFunction BindKind = "function"
	BindClass    BindKind = "class"
	BindImport   BindKind = "import"
	BindGlobal   BindKind = "global"
)

// ScopeKind classifies the lexical region a scope covers.
type ScopeKind string

// Scope kinds.
const (
	ScopeModule   ScopeKind = "module"
	ScopeFunction ScopeKind = "function"
	ScopeClass    ScopeKind = "class"
	ScopeLambda   ScopeKind = "lambda"
)

// Scope maps names to binding kinds for one lexical region. Scopes nest;
// the parent link is non-owning and used only for outward lookup.
type Scope struct {
	Kind     ScopeKind
	Owner    *Node
	Parent   *Scope
	Bindings map[string]BindKind

	children  []*Scope
	nonlocals map[string]bool
}

// NewScope creates a scope of the given kind owned by the given node,
// registered as a child of parent (which may be nil for the module scope).
func NewScope(kind ScopeKind, owner *Node, parent *Scope) *Scope {
	scope := &Scope{
		Kind:     kind,
		Owner:    owner,
		Parent:   parent,
		Bindings: make(map[string]BindKind),
	}

	if parent != nil {
		parent.children = append(parent.children, scope)
	}

	return scope
}

// Bind records a binding unless the name was declared global or nonlocal in
// this scope, in which case the declaration wins.
func (s *Scope) Bind(name string, kind BindKind) {
	if s.nonlocals[name] {
		return
	}

	if existing, ok := s.Bindings[name]; ok && existing == BindGlobal {
		return
	}

	s.Bindings[name] = kind
}

// DeclareGlobal marks a name as referring to the module scope.
func (s *Scope) DeclareGlobal(name string) {
	s.Bindings[name] = BindGlobal
}

// DeclareNonlocal marks a name as resolving to an enclosing function scope.
func (s *Scope) DeclareNonlocal(name string) {
	if s.nonlocals == nil {
		s.nonlocals = make(map[string]bool)
	}

	s.nonlocals[name] = true
	delete(s.Bindings, name)
}

// Children returns the directly nested scopes in declaration order.
func (s *Scope) Children() []*Scope {
	return s.children
}

// Lookup resolves a name by walking outward. Class scopes are skipped for
// lookups originating in nested scopes, matching Python's resolution rules.
// Returns the defining scope and binding kind, or ok=false when unresolved.
func (s *Scope) Lookup(name string) (*Scope, BindKind, bool) {
	for current, depth := s, 0; current != nil; current, depth = current.Parent, depth+1 {
		if current.Kind == ScopeClass && depth > 0 {
			continue
		}

		if current.nonlocals[name] {
			continue
		}

		kind, ok := current.Bindings[name]
		if !ok {
			continue
		}

		if kind == BindGlobal {
			return s.moduleScope().resolveGlobal(name)
		}

		return current, kind, true
	}

	return nil, "", false
}

func (s *Scope) moduleScope() *Scope {
	current := s
	for current.Parent != nil {
		current = current.Parent
	}

	return current
}

func (s *Scope) resolveGlobal(name string) (*Scope, BindKind, bool) {
	kind, ok := s.Bindings[name]
	if !ok {
		// Declared global but never assigned at module level. Treat the
		// module scope as the defining scope so renames stay coherent.
		return s, BindLocal, true
	}

	return s, kind, true
}

// BindScopes builds the scope tree for a module and returns the module scope
// plus a mapping from scope-opening nodes (Module, FunctionDef, ClassDef,
// Lambda) to their scopes.
func BindScopes(root *Node) (*Scope, map[*Node]*Scope) {
	scopes := make(map[*Node]*Scope)
	module := NewScope(ScopeModule, root, nil)
	scopes[root] = module

	bindBlock(root.Children, module, scopes)

	return module, scopes
}

// bindBlock collects bindings introduced by a statement list into scope and
// recurses into nested scope-opening definitions.
func bindBlock(stmts []*Node, scope *Scope, scopes map[*Node]*Scope) {
	for _, stmt := range stmts {
		bindStatement(stmt, scope, scopes)
	}
}

func bindStatement(stmt *Node, scope *Scope, scopes map[*Node]*Scope) {
	switch stmt.Kind {
	case KindFunctionDef:
		scope.Bind(stmt.Token, BindFunction)
		bindFunction(stmt, scope, scopes, ScopeFunction)
	case KindClassDef:
		scope.Bind(stmt.Token, BindClass)
		bindClass(stmt, scope, scopes)
	case KindAssign:
		if len(stmt.Children) < 2 {
			return
		}

		bindTargets(stmt.Children[:len(stmt.Children)-1], scope)
		bindExprScopes(stmt.Children[len(stmt.Children)-1], scope, scopes)
	case KindAugAssign:
		if len(stmt.Children) < 2 {
			return
		}

		bindTargets(stmt.Children[:1], scope)
		bindExprScopes(stmt.Children[1], scope, scopes)
	case KindFor:
		if len(stmt.Children) == 0 {
			return
		}

		bindTargets(stmt.Children[:1], scope)
		bindNested(stmt.Children[1:], scope, scopes)
	case KindImport, KindImportFrom:
		for _, alias := range stmt.Children {
			scope.Bind(importedName(alias), BindImport)
		}
	case KindGlobal:
		for _, name := range stmt.Children {
			scope.DeclareGlobal(name.Token)
		}
	case KindNonlocal:
		for _, name := range stmt.Children {
			scope.DeclareNonlocal(name.Token)
		}
	case KindExceptClause:
		if stmt.Token != "" {
			scope.Bind(stmt.Token, BindLocal)
		}

		bindNested(stmt.Children, scope, scopes)
	case KindWithItem:
		if target := stmt.Child(1); target != nil && target.Kind == KindName {
			scope.Bind(target.Token, BindLocal)
		}
	default:
		bindNested(stmt.Children, scope, scopes)
	}
}

// bindNested walks statement children that stay within the current scope
// (blocks, conditions) while still binding targets found inside them.
func bindNested(children []*Node, scope *Scope, scopes map[*Node]*Scope) {
	for _, child := range children {
		if child.Kind.IsStatement() || child.Kind == KindWithItem || child.Kind == KindExceptClause {
			bindStatement(child, scope, scopes)

			continue
		}

		bindExprScopes(child, scope, scopes)
	}
}

// bindExprScopes descends into expressions looking for lambdas, which open
// scopes of their own.
func bindExprScopes(expr *Node, scope *Scope, scopes map[*Node]*Scope) {
	if expr == nil {
		return
	}

	if expr.Kind == KindLambda {
		bindFunction(expr, scope, scopes, ScopeLambda)

		return
	}

	for _, child := range expr.Children {
		bindExprScopes(child, scope, scopes)
	}
}

func bindFunction(def *Node, parent *Scope, scopes map[*Node]*Scope, kind ScopeKind) {
	scope := NewScope(kind, def, parent)
	scopes[def] = scope

	params := def.Child(0)
	if params != nil && params.Kind == KindParams {
		for _, param := range params.Children {
			scope.Bind(param.Token, BindParam)
			// Parameter defaults evaluate in the enclosing scope.
			if dflt := param.Child(0); dflt != nil {
				bindExprScopes(dflt, parent, scopes)
			}
		}
	}

	if body := def.Child(1); body != nil {
		if kind == ScopeLambda {
			bindExprScopes(body, scope, scopes)
		} else {
			bindBlock(body.Children, scope, scopes)
		}
	}
}

func bindClass(def *Node, parent *Scope, scopes map[*Node]*Scope) {
	scope := NewScope(ScopeClass, def, parent)
	scopes[def] = scope

	for _, child := range def.Children {
		if child.Kind == KindBlock {
			bindBlock(child.Children, scope, scopes)
		} else {
			bindExprScopes(child, parent, scopes)
		}
	}
}

func bindTargets(targets []*Node, scope *Scope) {
	for _, target := range targets {
		bindTarget(target, scope)
	}
}

func bindTarget(target *Node, scope *Scope) {
	switch target.Kind {
	case KindName:
		scope.Bind(target.Token, BindLocal)
	case KindTuple, KindList, KindStarred:
		for _, element := range target.Children {
			bindTarget(element, scope)
		}
	default:
		// Attribute and subscript targets do not introduce bindings.
	}
}

func importedName(node *Node) string {
	if alias := node.Prop(PropAlias); alias != "" {
		return alias
	}

	name := node.Token
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		return name[:dot]
	}

	return name
}
