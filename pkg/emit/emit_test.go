package emit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/pysrc"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// roundTrip parses src and emits it again. For already-formatted input the
// output must match byte for byte.
func roundTrip(t *testing.T, src string) string {
	t.Helper()

	root, err := pysrc.Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	return emit.Emit(root)
}

func TestEmit_Statements_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  string
	}{
		{"assign", "x = 1\n"},
		{"aug_assign", "x += 2\n"},
		{"chained_assign", "a = b = 1\n"},
		{"function", "def f(a, b=1):\n    return a + b\n"},
		{"class", "class C(Base):\n    pass\n"},
		{"if_elif_else", "if a:\n    x()\nelif b:\n    y()\nelse:\n    z()\n"},
		{"while", "while flag:\n    step()\n"},
		{"for", "for i in items:\n    use(i)\n"},
		{"try_except_finally", "try:\n    risky()\nexcept ValueError as exc:\n    handle(exc)\nfinally:\n    done()\n"},
		{"with", "with open('f') as fh:\n    read(fh)\n"},
		{"imports", "import os\nfrom sys import argv as args\n"},
		{"control", "for i in it:\n    break\nwhile x:\n    continue\n"},
		{"global_nonlocal", "def f():\n    global g\n    g = 1\n"},
		{"raise_assert_del", "raise ValueError\nassert cond, 'msg'\ndel x\n"},
		{"nested_blocks", "def f():\n    if a:\n        for i in b:\n            use(i)\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.src, roundTrip(t, tc.src))
		})
	}
}

func TestEmit_Expressions_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{
		"x = a + b * c\n",
		"x = (a + b) * c\n",
		"x = a ** b ** c\n",
		"x = (a ** b) ** c\n",
		"x = -a + ~b\n",
		"x = not a or b and c\n",
		"x = (not a or b) and c\n",
		"x = a < b <= c\n",
		"x = a if cond else b\n",
		"x = lambda n: n + 1\n",
		"x = f(1, key=2, *args)\n",
		"x = obj.attr.method(arg)\n",
		"x = seq[0]\n",
		"x = seq[1:10:2]\n",
		"x = (1,)\n",
		"x = (1, 2)\n",
		"x = [1, 2, 3]\n",
		"x = {1, 2}\n",
		"x = {'k': v, 'j': w}\n",
		"x = set()\n",
		"x = a | b ^ c & d\n",
		"x = a << 2 >> b\n",
	}

	for _, src := range cases {
		assert.Equal(t, src, roundTrip(t, src), "source %q", src)
	}
}

func TestEmit_StringRepr_PythonStyle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want string
	}{
		{`x = "plain"`, "x = 'plain'\n"},
		{`x = 'it\'s'`, `x = "it's"` + "\n"},
		{`x = 'tab\there'`, `x = 'tab\there'` + "\n"},
		{`x = '\x00\x01'`, `x = '\x00\x01'` + "\n"},
		{`x = b"raw"`, "x = b'raw'\n"},
		{`x = b'\x00\xff'`, `x = b'\x00\xff'` + "\n"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, roundTrip(t, tc.src), "source %q", tc.src)
	}
}

func TestEmit_Deterministic(t *testing.T) {
	t.Parallel()

	src := "def f(a):\n    return {'k': a, 'j': [1, 2]}\n"

	first := roundTrip(t, src)
	second := roundTrip(t, src)

	assert.Equal(t, first, second)
}

func TestEmit_NilAndFragments(t *testing.T) {
	t.Parallel()

	assert.Empty(t, emit.Emit(nil))

	expr := syntax.NewLiteral(syntax.LitInt, "7")
	assert.Equal(t, "7\n", emit.Emit(expr))
}

func TestSnippet_CollapsesAndTruncates(t *testing.T) {
	t.Parallel()

	root, err := pysrc.Parse(context.Background(), []byte("def f():\n    return 1\n"))
	require.NoError(t, err)

	assert.Equal(t, "def f(): return 1", emit.Snippet(root, 0))
	assert.Equal(t, "def f(): …", emit.Snippet(root, 10))
}
