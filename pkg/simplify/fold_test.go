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

// parseExpr parses a single-expression module and returns the expression node.
func parseExpr(t *testing.T, src string) *syntax.Node {
	t.Helper()

	root, err := pysrc.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	stmt := root.Children[0]
	require.Equal(t, syntax.KindExprStmt, stmt.Kind)

	return stmt.Child(0)
}

// foldDeep folds bottom-up, the way the rewrite engine visits nodes.
func foldDeep(n *syntax.Node) *syntax.Node {
	for i, child := range n.Children {
		n.Children[i] = foldDeep(child)
	}

	if folded, ok := simplify.FoldExpr(n); ok {
		return folded
	}

	return n
}

func foldToSource(t *testing.T, src string) (string, bool) {
	t.Helper()

	expr := parseExpr(t, src)

	folded := foldDeep(expr)
	if folded == expr && expr.Kind != syntax.KindLiteral {
		return "", false
	}

	return emit.Emit(syntax.NewWithChildren(syntax.KindModule,
		syntax.NewWithChildren(syntax.KindExprStmt, folded))), true
}

func TestFoldExpr_Arithmetic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want string
	}{
		{"add", "1 + 2", "3\n"},
		{"mixed", "(6 * 7) ^ 0", "42\n"},
		{"xor", "170 ^ 255", "85\n"},
		{"shift", "1 << 10", "1024\n"},
		{"floordiv_negative", "-7 // 2", "-4\n"},
		{"mod_negative", "-7 % 3", "2\n"},
		{"mod_negative_divisor", "7 % -3", "-2\n"},
		{"power", "2 ** 10", "1024\n"},
		{"unary_minus", "-(3 + 4)", "-7\n"},
		{"unary_invert", "~0", "-1\n"},
		{"string_concat", "'ab' + 'cd'", "'abcd'\n"},
		{"string_repeat", "'ab' * 3", "'ababab'\n"},
		{"not_true", "not True", "False\n"},
		{"not_zero", "not 0", "True\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := foldToSource(t, tc.src)
			require.True(t, ok, "expected %q to fold", tc.src)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFoldExpr_UnsafeCases_Refused(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{"division_is_float", "6 / 2"},
		{"zero_division", "1 // 0"},
		{"zero_modulo", "1 % 0"},
		{"overflow_mul", "9223372036854775807 * 2"},
		{"huge_power", "2 ** 100"},
		{"huge_shift", "1 << 70"},
		{"negative_shift", "1 << -1"},
		{"huge_repeat", "'x' * 100000"},
		{"free_variable", "x + 1"},
		{"call_operand", "f() + 1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, ok := simplify.FoldExpr(parseExpr(t, tc.src))
			assert.False(t, ok, "expected %q not to fold", tc.src)
		})
	}
}

func TestFoldExpr_BoolOp_ReducesStructurally(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
		want string
	}{
		{"and_truthy_keeps_rest", "1 and x", "x\n"},
		{"and_falsy_keeps_literal", "0 and x", "0\n"},
		{"or_truthy_keeps_literal", "'s' or x", "'s'\n"},
		{"or_falsy_keeps_rest", "'' or x", "x\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := foldToSource(t, tc.src)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFoldExpr_Compare_Chained(t *testing.T) {
	t.Parallel()

	got, ok := foldToSource(t, "1 < 2 < 3")
	require.True(t, ok)
	assert.Equal(t, "True\n", got)

	got, ok = foldToSource(t, "1 < 2 > 3")
	require.True(t, ok)
	assert.Equal(t, "False\n", got)
}

func TestFoldExpr_IfExp_PicksBranch(t *testing.T) {
	t.Parallel()

	got, ok := foldToSource(t, "a if 1 else b")
	require.True(t, ok)
	assert.Equal(t, "a\n", got)

	got, ok = foldToSource(t, "a if 0 else b")
	require.True(t, ok)
	assert.Equal(t, "b\n", got)
}

func TestTruthiness_Literals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src    string
		truthy bool
		ok     bool
	}{
		{"0", false, true},
		{"7", true, true},
		{"''", false, true},
		{"'x'", true, true},
		{"True", true, true},
		{"None", false, true},
		{"x", false, false},
	}

	for _, tc := range cases {
		truthy, ok := simplify.Truthiness(parseExpr(t, tc.src))
		assert.Equal(t, tc.ok, ok, "ok for %q", tc.src)

		if tc.ok {
			assert.Equal(t, tc.truthy, truthy, "truthiness of %q", tc.src)
		}
	}
}
