package rename

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// RenameMap records the per-scope old -> new assignments of one Apply run.
type RenameMap map[*syntax.Scope]map[string]string

// Count returns the number of renamed bindings.
func (m RenameMap) Count() int {
	total := 0
	for _, scoped := range m {
		total += len(scoped)
	}

	return total
}

// Pairs flattens the map into sorted "old -> new" strings for reports.
func (m RenameMap) Pairs() []string {
	var out []string

	for _, scoped := range m {
		for old, fresh := range scoped {
			out = append(out, old+" -> "+fresh)
		}
	}

	sort.Strings(out)

	return out
}

// Apply renames every obfuscated binding in the module and rewrites all
// references resolving to it, including references captured by nested
// functions and lambdas. Names are assigned deterministically in scope
// declaration order. Imports, class-body members (potential attributes of
// instances), names mentioned inside opaque fragments, and names used as
// keyword arguments are never touched.
func Apply(root *syntax.Node) RenameMap {
	module, scopes := syntax.BindScopes(root)

	used, excluded := collectNames(root)
	renames := RenameMap{}

	var c counters

	planScope(module, used, excluded, renames, &c)

	walker := &renamer{scopes: scopes, renames: renames}
	walker.block(root.Children, module)

	return renames
}

type counters struct {
	fn, cls, local, arg int
}

// planScope decides new names scope by scope, depth first in declaration
// order, with binding names sorted for determinism.
func planScope(scope *syntax.Scope, used, excluded map[string]bool, renames RenameMap, c *counters) {
	if scope.Kind != syntax.ScopeClass {
		names := make([]string, 0, len(scope.Bindings))
		for name := range scope.Bindings {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			kind := scope.Bindings[name]
			if !renameable(name, kind, excluded) {
				continue
			}

			if renames[scope] == nil {
				renames[scope] = map[string]string{}
			}

			renames[scope][name] = freshName(kind, used, c)
		}
	}

	for _, child := range scope.Children() {
		planScope(child, used, excluded, renames, c)
	}
}

func renameable(name string, kind syntax.BindKind, excluded map[string]bool) bool {
	if kind == syntax.BindImport || kind == syntax.BindGlobal {
		return false
	}

	return !excluded[name] && IsObfuscated(name)
}

func freshName(kind syntax.BindKind, used map[string]bool, c *counters) string {
	for {
		var candidate string

		switch kind {
		case syntax.BindFunction:
			c.fn++
			candidate = fmt.Sprintf("func_%d", c.fn)
		case syntax.BindClass:
			c.cls++
			candidate = fmt.Sprintf("Class%d", c.cls)
		case syntax.BindParam:
			c.arg++
			candidate = fmt.Sprintf("arg_%d", c.arg)
		default:
			c.local++
			candidate = fmt.Sprintf("var_%d", c.local)
		}

		if !used[candidate] && !isReserved(candidate) {
			used[candidate] = true

			return candidate
		}
	}
}

var identifierWords = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// collectNames gathers every identifier occurring in the module (the
// collision set for fresh names) and the subset that must never be renamed
// because the reference cannot be rewritten: words inside opaque fragments
// and keyword argument names.
func collectNames(root *syntax.Node) (used, excluded map[string]bool) {
	used = map[string]bool{}
	excluded = map[string]bool{}

	root.VisitPreOrder(func(n *syntax.Node) {
		if n.Token != "" && n.Kind != syntax.KindOpaque && n.Kind != syntax.KindLiteral {
			used[n.Token] = true
		}

		switch n.Kind {
		case syntax.KindOpaque:
			for _, word := range identifierWords.FindAllString(n.Token, -1) {
				used[word] = true
				excluded[word] = true
			}
		case syntax.KindKeyword:
			excluded[n.Token] = true
		}

		// Parameters carried verbatim (typed or defaulted headers) emit
		// their raw source; the names inside cannot be rewritten.
		if raw := n.Prop("raw"); raw != "" {
			for _, word := range identifierWords.FindAllString(raw, -1) {
				used[word] = true
				excluded[word] = true
			}
		}
	})

	return used, excluded
}

// renamer rewrites references once the plan is fixed. Its traversal mirrors
// the scope binder so every name is resolved from the scope it is read in.
type renamer struct {
	scopes  map[*syntax.Node]*syntax.Scope
	renames RenameMap
}

func (r *renamer) newName(name string, scope *syntax.Scope) string {
	def, _, ok := scope.Lookup(name)
	if !ok {
		return name
	}

	if fresh, ok := r.renames[def][name]; ok {
		return fresh
	}

	return name
}

func (r *renamer) block(stmts []*syntax.Node, scope *syntax.Scope) {
	for _, stmt := range stmts {
		r.statement(stmt, scope)
	}
}

func (r *renamer) statement(stmt *syntax.Node, scope *syntax.Scope) {
	switch stmt.Kind {
	case syntax.KindFunctionDef:
		stmt.Token = r.newName(stmt.Token, scope)
		r.function(stmt, scope)
	case syntax.KindClassDef:
		r.classDef(stmt, scope)
	case syntax.KindImport, syntax.KindImportFrom:
		// Imported names are external contracts.
	case syntax.KindExceptClause:
		if stmt.Token != "" {
			stmt.Token = r.newName(stmt.Token, scope)
		}

		r.nested(stmt.Children, scope)
	default:
		r.nested(stmt.Children, scope)
	}
}

func (r *renamer) nested(children []*syntax.Node, scope *syntax.Scope) {
	for _, child := range children {
		if child.Kind.IsStatement() || child.Kind == syntax.KindWithItem || child.Kind == syntax.KindExceptClause {
			r.statement(child, scope)

			continue
		}

		r.expr(child, scope)
	}
}

func (r *renamer) function(def *syntax.Node, enclosing *syntax.Scope) {
	fnScope, ok := r.scopes[def]
	if !ok {
		return
	}

	if params := def.Child(0); params != nil && params.Kind == syntax.KindParams {
		for _, param := range params.Children {
			if param.Kind != syntax.KindParam {
				continue
			}

			param.Token = r.newName(param.Token, fnScope)

			// Defaults evaluate in the enclosing scope.
			if dflt := param.Child(0); dflt != nil {
				r.expr(dflt, enclosing)
			}
		}
	}

	body := def.Child(1)
	if body == nil {
		return
	}

	if def.Kind == syntax.KindLambda {
		r.expr(body, fnScope)
	} else {
		r.block(body.Children, fnScope)
	}
}

func (r *renamer) classDef(def *syntax.Node, scope *syntax.Scope) {
	def.Token = r.newName(def.Token, scope)

	clsScope, ok := r.scopes[def]
	if !ok {
		return
	}

	for _, child := range def.Children {
		if child.Kind == syntax.KindBlock {
			r.block(child.Children, clsScope)
		} else {
			r.expr(child, scope)
		}
	}
}

func (r *renamer) expr(expr *syntax.Node, scope *syntax.Scope) {
	if expr == nil {
		return
	}

	switch expr.Kind {
	case syntax.KindName:
		expr.Token = r.newName(expr.Token, scope)
	case syntax.KindAttribute:
		// Only the object is in scope; the attribute name belongs to it.
		r.expr(expr.Child(0), scope)
	case syntax.KindLambda:
		r.function(expr, scope)
	case syntax.KindOpaque:
		// Verbatim source stays verbatim.
	default:
		for _, child := range expr.Children {
			r.expr(child, scope)
		}
	}
}
