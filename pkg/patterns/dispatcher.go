package patterns

import (
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/despecter/pkg/simplify"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// DispatcherLoop reverses control-flow flattening: a while loop driving an
// integer state variable through an if/elif chain, each arm straight-line
// and ending in a constant state assignment. The arms are stitched back
// into sequential order and the loop machinery dropped.
type DispatcherLoop struct{}

func (DispatcherLoop) Name() string { return "dispatcher-loop" }

func (DispatcherLoop) Description() string {
	return "rebuild sequential statements from a flattened state-machine loop"
}

func (DispatcherLoop) Match(n *syntax.Node) bool {
	if n.Kind != syntax.KindModule && n.Kind != syntax.KindBlock {
		return false
	}

	return len(findDispatchers(n)) > 0
}

func (DispatcherLoop) Rewrite(n *syntax.Node) *Result {
	candidates := findDispatchers(n)
	if len(candidates) == 0 {
		return Skip("dispatcher vanished between match and rewrite")
	}

	firstNote := ""

	for _, disp := range candidates {
		rebuilt, note := disp.rebuild(n)
		if note != "" {
			if firstNote == "" {
				firstNote = note
			}

			continue
		}

		return Replaced(rebuilt)
	}

	return Skip(firstNote)
}

// rebuild produces a copy of the block with the dispatcher pair replaced by
// the linearized statements. A non-empty note reports the safety condition
// that blocked it.
func (d *dispatcher) rebuild(block *syntax.Node) (*syntax.Node, string) {
	linear, note := d.linearize()
	if note != "" {
		return nil, note
	}

	rebuilt := syntax.New(block.Kind, "")
	rebuilt.Pos = block.Pos
	rebuilt.Children = append(rebuilt.Children, block.Children[:d.index]...)
	rebuilt.Children = append(rebuilt.Children, linear...)
	rebuilt.Children = append(rebuilt.Children, block.Children[d.index+2:]...)

	if simplify.ReadCounts(rebuilt)[d.stateVar] > 0 {
		return nil, fmt.Sprintf("state variable %s is used outside the dispatcher", d.stateVar)
	}

	if len(rebuilt.Children) == 0 && rebuilt.Kind == syntax.KindBlock {
		rebuilt.AddChild(syntax.New(syntax.KindPass, ""))
	}

	return rebuilt, ""
}

// stateArm is one `elif state == K:` branch of the chain.
type stateArm struct {
	body    []*syntax.Node // without the trailing state assignment or break
	next    int64
	isBreak bool
}

type dispatcher struct {
	index       int // position of the init assignment in the block
	stateVar    string
	init        int64
	terminal    int64
	hasTerminal bool // loop condition compares against terminal rather than while True
	arms        map[int64]*stateArm
}

// findDispatchers scans the block for adjacent `state = K` assignment and
// dispatcher-shaped while loop pairs.
func findDispatchers(block *syntax.Node) []*dispatcher {
	var found []*dispatcher

	for idx := 0; idx+1 < len(block.Children); idx++ {
		stateVar, init, ok := intAssign(block.Children[idx])
		if !ok {
			continue
		}

		disp := parseLoop(block.Children[idx+1], stateVar)
		if disp == nil {
			continue
		}

		disp.index = idx
		disp.init = init
		found = append(found, disp)
	}

	return found
}

func intAssign(stmt *syntax.Node) (string, int64, bool) {
	if stmt.Kind != syntax.KindAssign || len(stmt.Children) != 2 {
		return "", 0, false
	}

	target := stmt.Child(0)
	if target.Kind != syntax.KindName {
		return "", 0, false
	}

	val, ok := literalInt(stmt.Child(1))
	if !ok {
		return "", 0, false
	}

	return target.Token, val, true
}

func parseLoop(stmt *syntax.Node, stateVar string) *dispatcher {
	if stmt.Kind != syntax.KindWhile || len(stmt.Children) != 2 {
		return nil
	}

	disp := &dispatcher{stateVar: stateVar, arms: map[int64]*stateArm{}}

	if !parseLoopCondition(disp, stmt.Child(0)) {
		return nil
	}

	body := stmt.Child(1)
	if len(body.Children) != 1 {
		return nil
	}

	if !parseChain(disp, body.Child(0)) {
		return nil
	}

	return disp
}

func parseLoopCondition(disp *dispatcher, cond *syntax.Node) bool {
	if cond.IsLiteral(syntax.LitBool) && cond.Token == "True" {
		return true
	}

	if cond.Kind != syntax.KindCompare || cond.Prop(syntax.PropOps) != "!=" {
		return false
	}

	name := cond.Child(0)
	if name == nil || name.Kind != syntax.KindName || name.Token != disp.stateVar {
		return false
	}

	terminal, ok := literalInt(cond.Child(1))
	if !ok {
		return false
	}

	disp.terminal = terminal
	disp.hasTerminal = true

	return true
}

// parseChain consumes the if/elif chain, one arm per state value. A plain
// else branch means the chain does not dispatch purely on constants.
func parseChain(disp *dispatcher, node *syntax.Node) bool {
	for node != nil {
		if node.Kind != syntax.KindIf {
			return false
		}

		state, ok := stateEquality(node.Child(0), disp.stateVar)
		if !ok {
			return false
		}

		if _, dup := disp.arms[state]; dup {
			return false
		}

		arm := parseArm(node.Child(1), disp.stateVar)
		if arm == nil {
			return false
		}

		disp.arms[state] = arm
		node = node.Child(2)
	}

	return len(disp.arms) > 0
}

func stateEquality(cond *syntax.Node, stateVar string) (int64, bool) {
	if cond == nil || cond.Kind != syntax.KindCompare || cond.Prop(syntax.PropOps) != "==" {
		return 0, false
	}

	name := cond.Child(0)
	if name == nil || name.Kind != syntax.KindName || name.Token != stateVar {
		return 0, false
	}

	return literalInt(cond.Child(1))
}

// parseArm accepts a straight-line body whose final statement is either a
// constant state assignment or a break.
func parseArm(block *syntax.Node, stateVar string) *stateArm {
	if block == nil || len(block.Children) == 0 {
		return nil
	}

	body := block.Children[:len(block.Children)-1]
	last := block.Children[len(block.Children)-1]

	for _, stmt := range body {
		if !isStraightLine(stmt, stateVar) {
			return nil
		}
	}

	if last.Kind == syntax.KindBreak {
		return &stateArm{body: body, isBreak: true}
	}

	name, next, ok := intAssign(last)
	if !ok || name != stateVar {
		return nil
	}

	return &stateArm{body: body, next: next}
}

func isStraightLine(stmt *syntax.Node, stateVar string) bool {
	switch stmt.Kind {
	case syntax.KindIf, syntax.KindWhile, syntax.KindFor, syntax.KindTry,
		syntax.KindWith, syntax.KindFunctionDef, syntax.KindClassDef,
		syntax.KindBreak, syntax.KindContinue, syntax.KindReturn,
		syntax.KindRaise, syntax.KindOpaque:
		return false
	case syntax.KindAssign:
		for _, tgt := range stmt.Children[:len(stmt.Children)-1] {
			if tgt.Kind == syntax.KindName && tgt.Token == stateVar {
				return false
			}
		}
	}

	return true
}

// linearize walks the state graph from the initial state and concatenates
// arm bodies in execution order. A non-empty note reports why the walk had
// to give up.
func (d *dispatcher) linearize() ([]*syntax.Node, string) {
	var out []*syntax.Node

	visited := map[int64]bool{}
	state := d.init

	for {
		arm, ok := d.arms[state]
		if !ok {
			if d.hasTerminal && state == d.terminal {
				return out, ""
			}

			return nil, "state " + strconv.FormatInt(state, 10) + " has no handler"
		}

		if visited[state] {
			return nil, "state " + strconv.FormatInt(state, 10) + " loops back"
		}

		visited[state] = true
		out = append(out, arm.body...)

		if arm.isBreak {
			return out, ""
		}

		state = arm.next
	}
}

func literalInt(n *syntax.Node) (int64, bool) {
	if n == nil || !n.IsLiteral(syntax.LitInt) {
		return 0, false
	}

	val, err := strconv.ParseInt(n.Token, 0, 64)
	if err != nil {
		return 0, false
	}

	return val, true
}
