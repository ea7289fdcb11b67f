// Package simplify performs local, provably-safe constant folding and
// control-flow cleanup: branches on constant conditions and assignments to
// names that are never read. Anything whose evaluation could raise at
// runtime is left untouched.
package simplify

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// Folding limits. Results that would exceed these stay unfolded: the goal is
// readable output, not an evaluator.
const (
	maxShiftBits = 62
	maxRepeatLen = 4096
	maxPowerExp  = 32
	maxPowerBase = 1 << 16
)

// FoldExpr attempts to fold one expression node whose operands are already
// literals. It returns the replacement literal and true, or nil and false
// when the node is not foldable under the safety rules.
func FoldExpr(n *syntax.Node) (*syntax.Node, bool) {
	if n == nil {
		return nil, false
	}

	switch n.Kind {
	case syntax.KindBinaryOp:
		return foldBinary(n)
	case syntax.KindUnaryOp:
		return foldUnary(n)
	case syntax.KindBoolOp:
		return foldBoolOp(n)
	case syntax.KindCompare:
		return foldCompare(n)
	case syntax.KindIfExp:
		return foldIfExp(n)
	default:
		return nil, false
	}
}

func foldBinary(n *syntax.Node) (*syntax.Node, bool) {
	left, right := n.Child(0), n.Child(1)
	op := n.Prop(syntax.PropOp)

	if leftVal, lok := intValue(left); lok {
		if rightVal, rok := intValue(right); rok {
			return foldIntBinary(leftVal, rightVal, op)
		}
	}

	if left.IsLiteral(syntax.LitStr) && right.IsLiteral(syntax.LitStr) && op == "+" {
		return newStr(left.Token + right.Token), true
	}

	if left.IsLiteral(syntax.LitBytes) && right.IsLiteral(syntax.LitBytes) && op == "+" {
		return newBytes(left.Token + right.Token), true
	}

	return foldRepeat(left, right, op)
}

//nolint:cyclop // Operator table.
func foldIntBinary(left, right int64, op string) (*syntax.Node, bool) {
	switch op {
	case "+":
		return newIntChecked(left+right, addOverflows(left, right))
	case "-":
		return newIntChecked(left-right, subOverflows(left, right))
	case "*":
		return newIntChecked(left*right, mulOverflows(left, right))
	case "//":
		if right == 0 {
			return nil, false
		}

		return newInt(floorDiv(left, right)), true
	case "%":
		if right == 0 {
			return nil, false
		}

		return newInt(pyMod(left, right)), true
	case "&":
		return newInt(left & right), true
	case "|":
		return newInt(left | right), true
	case "^":
		return newInt(left ^ right), true
	case "<<":
		if right < 0 || right > maxShiftBits || left<<right>>right != left {
			return nil, false
		}

		return newInt(left << right), true
	case ">>":
		if right < 0 || right > maxShiftBits {
			return nil, false
		}

		return newInt(left >> right), true
	case "**":
		return foldPower(left, right)
	default:
		// True division produces floats; formatting differences make it
		// unsafe to fold.
		return nil, false
	}
}

func foldPower(base, exp int64) (*syntax.Node, bool) {
	if exp < 0 || exp > maxPowerExp || base > maxPowerBase || base < -maxPowerBase {
		return nil, false
	}

	result := int64(1)
	for range exp {
		if mulOverflows(result, base) {
			return nil, false
		}

		result *= base
	}

	return newInt(result), true
}

// foldRepeat handles `'ab' * 3` and its mirrored form.
func foldRepeat(left, right *syntax.Node, op string) (*syntax.Node, bool) {
	if op != "*" {
		return nil, false
	}

	seq, count := left, right
	if _, ok := intValue(left); ok {
		seq, count = right, left
	}

	countVal, ok := intValue(count)
	if !ok || countVal < 0 {
		return nil, false
	}

	if int64(len(seq.Token))*countVal > maxRepeatLen {
		return nil, false
	}

	repeated := strings.Repeat(seq.Token, int(countVal))

	switch {
	case seq.IsLiteral(syntax.LitStr):
		return newStr(repeated), true
	case seq.IsLiteral(syntax.LitBytes):
		return newBytes(repeated), true
	default:
		return nil, false
	}
}

func foldUnary(n *syntax.Node) (*syntax.Node, bool) {
	operand := n.Child(0)
	op := n.Prop(syntax.PropOp)

	if op == "not" {
		truthy, ok := Truthiness(operand)
		if !ok {
			return nil, false
		}

		return newBool(!truthy), true
	}

	val, ok := intValue(operand)
	if !ok {
		return nil, false
	}

	switch op {
	case "-":
		return newIntChecked(-val, val == minInt64)
	case "+":
		return newInt(val), true
	case "~":
		return newInt(^val), true
	default:
		return nil, false
	}
}

// foldBoolOp reduces and/or chains with a literal first operand. Python
// returns the deciding operand itself, so the rewrite is structural: the
// remaining operand replaces the whole expression.
func foldBoolOp(n *syntax.Node) (*syntax.Node, bool) {
	if len(n.Children) != 2 {
		return nil, false
	}

	truthy, ok := Truthiness(n.Child(0))
	if !ok {
		return nil, false
	}

	isAnd := n.Prop(syntax.PropOp) == "and"

	if isAnd == truthy {
		return n.Child(1), true
	}

	return n.Child(0), true
}

// foldIfExp resolves `a if cond else b` with a literal condition to the
// taken branch.
func foldIfExp(n *syntax.Node) (*syntax.Node, bool) {
	if len(n.Children) != 3 {
		return nil, false
	}

	truthy, ok := Truthiness(n.Child(1))
	if !ok {
		return nil, false
	}

	if truthy {
		return n.Child(0), true
	}

	return n.Child(2), true
}

func foldCompare(n *syntax.Node) (*syntax.Node, bool) {
	ops := strings.Split(n.Prop(syntax.PropOps), ",")
	if len(n.Children) != len(ops)+1 {
		return nil, false
	}

	for idx, op := range ops {
		result, ok := compareLiterals(n.Child(idx), n.Child(idx+1), op)
		if !ok {
			return nil, false
		}

		// Chained comparisons short-circuit on the first false link.
		if !result {
			return newBool(false), true
		}
	}

	return newBool(true), true
}

func compareLiterals(left, right *syntax.Node, op string) (bool, bool) {
	if leftVal, lok := intValue(left); lok {
		rightVal, rok := intValue(right)
		if !rok {
			return false, false
		}

		return compareOrdered(leftVal, rightVal, op)
	}

	if left.IsLiteral(syntax.LitStr) && right.IsLiteral(syntax.LitStr) {
		return compareOrdered(left.Token, right.Token, op)
	}

	return false, false
}

func compareOrdered[T int64 | string](left, right T, op string) (bool, bool) {
	switch op {
	case "==":
		return left == right, true
	case "!=":
		return left != right, true
	case "<":
		return left < right, true
	case "<=":
		return left <= right, true
	case ">":
		return left > right, true
	case ">=":
		return left >= right, true
	default:
		return false, false
	}
}

// Truthiness evaluates a literal in boolean context. Returns ok=false for
// non-literals and literal kinds without a clear, safe truth value.
func Truthiness(n *syntax.Node) (truthy, ok bool) {
	if n == nil || n.Kind != syntax.KindLiteral {
		return false, false
	}

	switch n.LitKind() {
	case syntax.LitBool:
		return n.Token == "True", true
	case syntax.LitNone:
		return false, true
	case syntax.LitInt:
		val, err := parseInt(n.Token)
		if err != nil {
			return false, false
		}

		return val != 0, true
	case syntax.LitStr, syntax.LitBytes:
		return n.Token != "", true
	default:
		return false, false
	}
}

const minInt64 = -1 << 63

func intValue(n *syntax.Node) (int64, bool) {
	if !n.IsLiteral(syntax.LitInt) {
		return 0, false
	}

	val, err := parseInt(n.Token)
	if err != nil {
		return 0, false
	}

	return val, true
}

func parseInt(token string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(token, "_", ""), 0, 64)
}

func newInt(val int64) *syntax.Node {
	return syntax.NewLiteral(syntax.LitInt, strconv.FormatInt(val, 10))
}

func newIntChecked(val int64, overflowed bool) (*syntax.Node, bool) {
	if overflowed {
		return nil, false
	}

	return newInt(val), true
}

func newStr(val string) *syntax.Node {
	return syntax.NewLiteral(syntax.LitStr, val)
}

func newBytes(val string) *syntax.Node {
	return syntax.NewLiteral(syntax.LitBytes, val)
}

func newBool(val bool) *syntax.Node {
	if val {
		return syntax.NewLiteral(syntax.LitBool, "True")
	}

	return syntax.NewLiteral(syntax.LitBool, "False")
}

func addOverflows(left, right int64) bool {
	sum := left + right

	return (left > 0 && right > 0 && sum < 0) || (left < 0 && right < 0 && sum >= 0)
}

func subOverflows(left, right int64) bool {
	return addOverflows(left, -right) || (right == minInt64 && left >= 0)
}

func mulOverflows(left, right int64) bool {
	if left == 0 || right == 0 {
		return false
	}

	product := left * right

	return product/right != left
}

// floorDiv matches Python's floor division semantics for negative operands.
func floorDiv(left, right int64) int64 {
	quotient := left / right
	if (left%right != 0) && ((left < 0) != (right < 0)) {
		quotient--
	}

	return quotient
}

// pyMod matches Python's modulo: the result takes the divisor's sign.
func pyMod(left, right int64) int64 {
	rem := left % right
	if rem != 0 && (rem < 0) != (right < 0) {
		rem += right
	}

	return rem
}
