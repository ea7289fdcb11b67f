package patterns

import (
	"github.com/Sumatoshi-tech/despecter/pkg/simplify"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// IndirectionCall undoes call indirection. It matches two shapes:
//
//   - a statement list containing a trampoline `def f(x): return x(...)`
//     whose call sites can be inlined, after which an unreferenced def is
//     dropped;
//   - an immediately invoked zero-parameter lambda `(lambda: expr)()`,
//     which reduces to expr.
type IndirectionCall struct{}

func (IndirectionCall) Name() string { return "indirection-call" }

func (IndirectionCall) Description() string {
	return "inline trampoline functions and immediately-invoked lambdas"
}

func (IndirectionCall) Match(n *syntax.Node) bool {
	if isBareLambdaCall(n) {
		return true
	}

	if n.Kind != syntax.KindModule && n.Kind != syntax.KindBlock {
		return false
	}

	def, tramp := findTrampoline(n)
	if def == nil {
		return false
	}

	return countInlinable(n, def.Token, tramp) > 0 || isUnreferenced(n, def.Token)
}

func (IndirectionCall) Rewrite(n *syntax.Node) *Result {
	if isBareLambdaCall(n) {
		lambda := n.Child(0)

		return Replaced(lambda.Children[len(lambda.Children)-1])
	}

	def, tramp := findTrampoline(n)
	if def == nil {
		return Skip("trampoline vanished between match and rewrite")
	}

	rebuilt := n.Clone()
	inlineCalls(rebuilt, def.Token, tramp)

	if isUnreferenced(rebuilt, def.Token) {
		removeDef(rebuilt, def.Token)
	}

	return Replaced(rebuilt)
}

// isBareLambdaCall reports a call of a zero-parameter lambda with no
// arguments. There is no binding involved, so the reduction is always safe.
func isBareLambdaCall(n *syntax.Node) bool {
	if n.Kind != syntax.KindCall || len(n.Children) != 1 {
		return false
	}

	lambda := n.Child(0)
	if lambda.Kind != syntax.KindLambda || len(lambda.Children) < 2 {
		return false
	}

	params := lambda.Child(0)

	return params.Kind == syntax.KindParams && len(params.Children) == 0
}

// trampoline describes a forwarding function: plain parameters and a body
// that is a single return of a call built from names and literals only.
type trampoline struct {
	params  []string
	forward *syntax.Node
}

// findTrampoline locates the first trampoline definition among the direct
// statements of a block.
func findTrampoline(block *syntax.Node) (*syntax.Node, *trampoline) {
	for _, stmt := range block.Children {
		if stmt.Kind != syntax.KindFunctionDef {
			continue
		}

		if tramp := asTrampoline(stmt); tramp != nil {
			return stmt, tramp
		}
	}

	return nil, nil
}

func asTrampoline(def *syntax.Node) *trampoline {
	if len(def.Children) != 2 {
		return nil
	}

	params, ok := plainParams(def.Child(0))
	if !ok {
		return nil
	}

	body := def.Child(1)
	if len(body.Children) != 1 {
		return nil
	}

	ret := body.Child(0)
	if ret.Kind != syntax.KindReturn || len(ret.Children) != 1 {
		return nil
	}

	forward := ret.Child(0)
	if !isForwardingCall(forward, def.Token) {
		return nil
	}

	return &trampoline{params: params, forward: forward}
}

func plainParams(params *syntax.Node) ([]string, bool) {
	if params == nil || params.Kind != syntax.KindParams {
		return nil, false
	}

	names := make([]string, 0, len(params.Children))

	for _, param := range params.Children {
		if param.Kind != syntax.KindParam ||
			len(param.Children) != 0 ||
			param.Prop("star") != "" || param.Prop("raw") != "" {
			return nil, false
		}

		names = append(names, param.Token)
	}

	return names, true
}

// isForwardingCall accepts a call whose callee is a name other than the
// trampoline itself and whose arguments are names or literals. Anything
// richer could hide side effects that inlining would reorder.
func isForwardingCall(call *syntax.Node, selfName string) bool {
	if call == nil || call.Kind != syntax.KindCall || len(call.Children) == 0 {
		return false
	}

	callee := call.Child(0)
	if callee.Kind != syntax.KindName || callee.Token == selfName {
		return false
	}

	for _, arg := range call.Children[1:] {
		if arg.Kind != syntax.KindName && arg.Kind != syntax.KindLiteral {
			return false
		}
	}

	return true
}

// countInlinable counts call sites of name in the subtree that inlineCalls
// would rewrite.
func countInlinable(n *syntax.Node, name string, tramp *trampoline) int {
	count := 0

	n.Walk(func(node *syntax.Node) bool {
		if rebinds(node, name) {
			return false
		}

		if isInlinableCall(node, name, tramp) {
			count++
		}

		return true
	})

	return count
}

func isInlinableCall(n *syntax.Node, name string, tramp *trampoline) bool {
	if n.Kind != syntax.KindCall || len(n.Children) == 0 {
		return false
	}

	callee := n.Child(0)
	if callee.Kind != syntax.KindName || callee.Token != name {
		return false
	}

	args := n.Children[1:]
	if len(args) != len(tramp.params) {
		return false
	}

	for _, arg := range args {
		if arg.Kind == syntax.KindKeyword || arg.Kind == syntax.KindStarred {
			return false
		}

		if !simplify.IsPure(arg) {
			return false
		}
	}

	return true
}

// inlineCalls replaces every inlinable call site in place, substituting the
// arguments into a copy of the forwarded call.
func inlineCalls(n *syntax.Node, name string, tramp *trampoline) {
	for idx, child := range n.Children {
		if rebinds(child, name) {
			continue
		}

		if isInlinableCall(child, name, tramp) {
			n.Children[idx] = inlineOne(child, tramp)

			continue
		}

		inlineCalls(child, name, tramp)
	}
}

func inlineOne(call *syntax.Node, tramp *trampoline) *syntax.Node {
	bindings := make(map[string]*syntax.Node, len(tramp.params))
	for idx, param := range tramp.params {
		bindings[param] = call.Children[idx+1]
	}

	return substitute(tramp.forward.Clone(), bindings)
}

func substitute(n *syntax.Node, bindings map[string]*syntax.Node) *syntax.Node {
	if n.Kind == syntax.KindName {
		if repl, ok := bindings[n.Token]; ok {
			return repl.Clone()
		}

		return n
	}

	for idx, child := range n.Children {
		n.Children[idx] = substitute(child, bindings)
	}

	return n
}

// rebinds reports whether the subtree introduces its own binding for name,
// which makes references below it resolve elsewhere.
func rebinds(n *syntax.Node, name string) bool {
	switch n.Kind {
	case syntax.KindFunctionDef, syntax.KindLambda:
		params := n.Child(0)
		if params == nil {
			return false
		}

		for _, param := range params.Children {
			if param.Token == name {
				return true
			}
		}

		return bindsName(n, name)
	case syntax.KindClassDef:
		return bindsName(n, name)
	default:
		return false
	}
}

func bindsName(n *syntax.Node, name string) bool {
	found := false

	n.Walk(func(node *syntax.Node) bool {
		if node.Kind == syntax.KindAssign && len(node.Children) > 1 {
			for _, tgt := range node.Children[:len(node.Children)-1] {
				if tgt.Kind == syntax.KindName && tgt.Token == name {
					found = true
				}
			}
		}

		if node.Kind == syntax.KindFunctionDef && node.Token == name {
			found = true
		}

		return !found
	})

	return found
}

// isUnreferenced reports that nothing in the subtree reads name. The
// definition itself binds via its token, so it does not count.
func isUnreferenced(n *syntax.Node, name string) bool {
	return simplify.ReadCounts(n)[name] == 0
}

func removeDef(block *syntax.Node, name string) {
	kept := block.Children[:0]

	for _, stmt := range block.Children {
		if stmt.Kind == syntax.KindFunctionDef && stmt.Token == name {
			continue
		}

		kept = append(kept, stmt)
	}

	block.Children = kept
}
