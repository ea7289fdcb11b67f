package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

func intLit(token string) *syntax.Node {
	return syntax.NewLiteral(syntax.LitInt, token)
}

func name(token string) *syntax.Node {
	return syntax.New(syntax.KindName, token)
}

func binOp(op string, left, right *syntax.Node) *syntax.Node {
	n := syntax.NewWithChildren(syntax.KindBinaryOp, left, right)
	n.SetProp(syntax.PropOp, op)

	return n
}

func TestClone_DeepCopy_MutationsDoNotLeak(t *testing.T) {
	t.Parallel()

	original := binOp("+", intLit("1"), name("x"))
	clone := original.Clone()

	clone.Children[1].Token = "y"
	clone.SetProp(syntax.PropOp, "-")

	assert.Equal(t, "x", original.Children[1].Token)
	assert.Equal(t, "+", original.Prop(syntax.PropOp))
}

func TestEqual_IgnoresPositions(t *testing.T) {
	t.Parallel()

	left := binOp("+", intLit("1"), intLit("2"))
	right := binOp("+", intLit("1"), intLit("2"))
	right.Pos = &syntax.Positions{StartLine: 99, StartCol: 3}

	assert.True(t, left.Equal(right))
}

func TestEqual_DifferentToken_NotEqual(t *testing.T) {
	t.Parallel()

	assert.False(t, intLit("1").Equal(intLit("2")))
}

func TestChild_OutOfRange_ReturnsNil(t *testing.T) {
	t.Parallel()

	n := syntax.New(syntax.KindPass, "")

	assert.Nil(t, n.Child(0))
	assert.Nil(t, n.Child(-1))
}

func TestReplaceChild_SwapsInPlace(t *testing.T) {
	t.Parallel()

	parent := binOp("+", intLit("1"), intLit("2"))
	ok := parent.ReplaceChild(parent.Children[0], intLit("7"))

	require.True(t, ok)
	assert.Equal(t, "7", parent.Children[0].Token)
}

func TestWalk_PruneSkipsSubtree(t *testing.T) {
	t.Parallel()

	inner := binOp("*", intLit("2"), intLit("3"))
	root := binOp("+", inner, intLit("4"))

	var visited []string

	root.Walk(func(n *syntax.Node) bool {
		visited = append(visited, string(n.Kind)+":"+n.Token)

		return n.Prop(syntax.PropOp) != "*"
	})

	assert.Len(t, visited, 3) // root, pruned inner, the trailing 4
}

func TestFind_CollectsMatchingNodes(t *testing.T) {
	t.Parallel()

	root := binOp("+", intLit("1"), binOp("-", intLit("2"), name("x")))

	literals := root.Find(func(n *syntax.Node) bool { return n.Kind == syntax.KindLiteral })

	assert.Len(t, literals, 2)
}

func TestIsStatement_ExpressionKinds_False(t *testing.T) {
	t.Parallel()

	assert.False(t, syntax.KindName.IsStatement())
	assert.False(t, syntax.KindCall.IsStatement())
	assert.True(t, syntax.KindAssign.IsStatement())
	assert.True(t, syntax.KindBlock.IsStatement())
}
