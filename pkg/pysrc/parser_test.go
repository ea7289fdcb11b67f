package pysrc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/pysrc"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

func mustParse(t *testing.T, src string) *syntax.Node {
	t.Helper()

	root, err := pysrc.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Equal(t, syntax.KindModule, root.Kind)

	return root
}

func TestParse_EmptyInput_EmptyModule(t *testing.T) {
	t.Parallel()

	root := mustParse(t, "")

	assert.Empty(t, root.Children)
}

func TestParse_StatementKinds_Mapped(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `
import os
from sys import argv

def f(a, b=1):
    return a + b

class C(Base):
    pass

for i in range(3):
    continue

while flag:
    break

try:
    risky()
except ValueError as exc:
    raise
finally:
    done()

with open('f') as fh:
    pass

x = 1
x += 2
del x
assert True
global g
`)

	kinds := make([]syntax.Kind, 0, len(root.Children))
	for _, stmt := range root.Children {
		kinds = append(kinds, stmt.Kind)
	}

	assert.Equal(t, []syntax.Kind{
		syntax.KindImport, syntax.KindImportFrom,
		syntax.KindFunctionDef, syntax.KindClassDef,
		syntax.KindFor, syntax.KindWhile, syntax.KindTry, syntax.KindWith,
		syntax.KindAssign, syntax.KindAugAssign, syntax.KindDelete,
		syntax.KindAssert, syntax.KindGlobal,
	}, kinds)
}

func TestParse_Positions_OneBased(t *testing.T) {
	t.Parallel()

	root := mustParse(t, "x = 1\ny = 2\n")

	require.Len(t, root.Children, 2)
	require.NotNil(t, root.Children[1].Pos)
	assert.Equal(t, uint(2), root.Children[1].Pos.StartLine)
	assert.Equal(t, uint(1), root.Children[1].Pos.StartCol)
}

func TestParse_StringLiterals_Decoded(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		kind string
		want string
	}{
		{`'plain'`, syntax.LitStr, "plain"},
		{`"double"`, syntax.LitStr, "double"},
		{`'esc\n\t\x41'`, syntax.LitStr, "esc\n\tA"},
		{`'é'`, syntax.LitStr, "é"},
		{`r'raw\n'`, syntax.LitStr, `raw\n`},
		{`b'bytes\x00tail'`, syntax.LitBytes, "bytes\x00tail"},
		{`'''triple'''`, syntax.LitStr, "triple"},
	}

	for _, tc := range cases {
		root := mustParse(t, tc.src)
		expr := root.Children[0].Child(0)

		require.True(t, expr.IsLiteral(tc.kind), "literal kind for %s", tc.src)
		assert.Equal(t, tc.want, expr.Token, "value for %s", tc.src)
	}
}

func TestParse_FString_StaysOpaque(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `f"{x}"`)

	expr := root.Children[0].Child(0)
	assert.Equal(t, syntax.KindOpaque, expr.Kind)
	assert.Equal(t, `f"{x}"`, expr.Token)
}

func TestParse_ChainedCompare_OpsRecorded(t *testing.T) {
	t.Parallel()

	root := mustParse(t, "1 < x <= 3\n")

	expr := root.Children[0].Child(0)
	require.Equal(t, syntax.KindCompare, expr.Kind)
	assert.Equal(t, "<,<=", expr.Prop(syntax.PropOps))
	assert.Len(t, expr.Children, 3)
}

func TestParse_UnsupportedStatement_SurvivesOpaque(t *testing.T) {
	t.Parallel()

	src := `
match command:
    case "go":
        run()
`
	root := mustParse(t, src)

	opaque := root.Find(func(n *syntax.Node) bool { return n.Kind == syntax.KindOpaque })
	require.NotEmpty(t, opaque)
	assert.Contains(t, opaque[0].Token, "match command")
}

func TestParse_MostlyGarbage_Rejected(t *testing.T) {
	t.Parallel()

	_, err := pysrc.Parse(context.Background(), []byte("%%%% ((( ??? ))) %%%%"))
	require.Error(t, err)

	var parseErr *pysrc.ParseError

	require.ErrorAs(t, err, &parseErr)
	assert.Positive(t, parseErr.Line)
	assert.NotEmpty(t, parseErr.Snippet)
	assert.True(t, strings.Contains(parseErr.Error(), "syntax error"))
}

func TestParse_MinorDamage_Tolerated(t *testing.T) {
	t.Parallel()

	// One broken line in an otherwise healthy file stays opaque instead
	// of failing the parse.
	root := mustParse(t, `
x = 1
$
z = 3
a = 4
b = 5
c = 6
d = 7
`)

	assert.NotEmpty(t, root.Children)
}

func TestParse_Lambda_ParamsAndBody(t *testing.T) {
	t.Parallel()

	root := mustParse(t, "f = lambda a, b: a + b\n")

	lambdas := root.Find(func(n *syntax.Node) bool { return n.Kind == syntax.KindLambda })
	require.Len(t, lambdas, 1)

	params := lambdas[0].Child(0)
	require.Equal(t, syntax.KindParams, params.Kind)
	assert.Len(t, params.Children, 2)
	assert.Equal(t, "a", params.Child(0).Token)
}

func TestParse_LoopElseClause_SurvivesOpaque(t *testing.T) {
	t.Parallel()

	cases := []string{
		"while spin():\n    work()\nelse:\n    cleanup()\n",
		"for item in items:\n    work(item)\nelse:\n    cleanup()\n",
	}

	for _, src := range cases {
		root := mustParse(t, src)

		require.Len(t, root.Children, 1, "source %q", src)
		stmt := root.Children[0]
		require.Equal(t, syntax.KindOpaque, stmt.Kind, "source %q", src)
		assert.Contains(t, stmt.Token, "cleanup()", "source %q", src)
	}
}

func TestParse_HighEscapes_DecodeToCodePoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		kind string
		want string
	}{
		{`'\xe9'`, syntax.LitStr, "é"},
		{`'\351'`, syntax.LitStr, "é"},
		{`'é'`, syntax.LitStr, "é"},
		{`b'\xe9'`, syntax.LitBytes, "\xe9"},
		{`b'\351'`, syntax.LitBytes, "\xe9"},
	}

	for _, tc := range cases {
		root := mustParse(t, tc.src)
		expr := root.Children[0].Child(0)

		require.True(t, expr.IsLiteral(tc.kind), "literal kind for %s", tc.src)
		assert.Equal(t, tc.want, expr.Token, "value for %s", tc.src)
	}
}

func TestParse_LoneSurrogateEscape_StaysOpaque(t *testing.T) {
	t.Parallel()

	root := mustParse(t, `s = '\ud800'`)

	assign := root.Children[0]
	value := assign.Children[len(assign.Children)-1]
	require.Equal(t, syntax.KindOpaque, value.Kind)
	assert.Equal(t, `'\ud800'`, value.Token)
}
