package simplify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/pysrc"
	"github.com/Sumatoshi-tech/despecter/pkg/simplify"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

func parseSource(t *testing.T, src string) *syntax.Node {
	t.Helper()

	root, err := pysrc.Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	return root
}

func TestSimplify_IfTrue_KeepsConsequence(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
if True:
    x = 1
else:
    x = 2
`)

	changed := simplify.Simplify(root)

	assert.Equal(t, 1, changed)
	assert.Equal(t, "x = 1\n", emit.Emit(root))
}

func TestSimplify_IfFalse_KeepsAlternative(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
if False:
    x = 1
else:
    x = 2
`)

	simplify.Simplify(root)

	assert.Equal(t, "x = 2\n", emit.Emit(root))
}

func TestSimplify_IfFalseNoElse_RemovesStatement(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
if False:
    x = 1
y = 3
`)

	simplify.Simplify(root)

	assert.Equal(t, "y = 3\n", emit.Emit(root))
}

func TestSimplify_IfFalseElif_PromotesChain(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
if False:
    x = 1
elif cond:
    x = 2
else:
    x = 3
`)

	simplify.Simplify(root)

	assert.Equal(t, "if cond:\n    x = 2\nelse:\n    x = 3\n", emit.Emit(root))
}

func TestSimplify_WhileFalse_Removed(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
while False:
    spin()
done = 1
`)

	simplify.Simplify(root)

	assert.Equal(t, "done = 1\n", emit.Emit(root))
}

func TestSimplify_NonLiteralCondition_Untouched(t *testing.T) {
	t.Parallel()

	src := "if flag:\n    x = 1\n"
	root := parseSource(t, src)

	changed := simplify.Simplify(root)

	assert.Zero(t, changed)
	assert.Equal(t, src, emit.Emit(root))
}

func TestSimplify_EmptiedBlock_GetsPass(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
def f():
    if False:
        x = 1
`)

	simplify.Simplify(root)

	assert.Equal(t, "def f():\n    pass\n", emit.Emit(root))
}

func TestRemoveUnused_PureAssignment_Dropped(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
junk = (1, 2, 3)
kept = compute()
print(kept)
`)

	removed := simplify.RemoveUnused(root)

	assert.Equal(t, 1, removed)
	assert.Equal(t, "kept = compute()\nprint(kept)\n", emit.Emit(root))
}

func TestRemoveUnused_ImpureValue_Kept(t *testing.T) {
	t.Parallel()

	src := "unused = launch()\n"
	root := parseSource(t, src)

	removed := simplify.RemoveUnused(root)

	assert.Zero(t, removed)
	assert.Equal(t, src, emit.Emit(root))
}

func TestRemoveUnused_RaisingValue_Kept(t *testing.T) {
	t.Parallel()

	src := "crash = 1 // 0\n"
	root := parseSource(t, src)

	removed := simplify.RemoveUnused(root)

	assert.Zero(t, removed)
	assert.Equal(t, src, emit.Emit(root))
}

func TestRemoveUnused_NameInsideOpaque_KeepsAssignment(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
shadow = 1
exec("print(shadow)")
`)

	removed := simplify.RemoveUnused(root)

	assert.Zero(t, removed)
}

func TestReadCounts_TargetsDoNotCount(t *testing.T) {
	t.Parallel()

	root := parseSource(t, `
a = 1
b = a + a
for i in items:
    use(b)
`)

	reads := simplify.ReadCounts(root)

	assert.Equal(t, 2, reads["a"])
	assert.Equal(t, 1, reads["b"])
	assert.Zero(t, reads["i"])
	assert.Equal(t, 1, reads["items"])
}

func TestIsPure_Expressions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		pure bool
	}{
		{"42", true},
		{"name", true},
		{"(1, x)", true},
		{"[1, 2]", true},
		{"{1: 'a'}", true},
		{"lambda: side_effect()", true},
		{"1 + x", true},
		{"4 // 2", true},
		{"1 // 0", false},
		{"1 % 0", false},
		{"total // parts", false},
		{"1 + 'one'", false},
		{"f()", false},
		{"obj.attr", false},
		{"seq[0]", false},
		{"[f(), 1]", false},
	}

	for _, tc := range cases {
		expr := parseSource(t, tc.src).Child(0).Child(0)
		assert.Equal(t, tc.pure, simplify.IsPure(expr), "purity of %q", tc.src)
	}
}
