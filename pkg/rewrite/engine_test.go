package rewrite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/patterns"
	"github.com/Sumatoshi-tech/despecter/pkg/pysrc"
	"github.com/Sumatoshi-tech/despecter/pkg/rewrite"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

func run(t *testing.T, src string) (string, *rewrite.Log) {
	t.Helper()

	root, err := pysrc.Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	engine := rewrite.NewEngine(patterns.Catalog())
	result, log := engine.Run(root)

	return emit.Emit(result), log
}

func TestRun_NestedConstants_FoldedAcrossPasses(t *testing.T) {
	t.Parallel()

	got, log := run(t, "x = ((6 * 7) ^ 0) + (10 - 10)\n")

	assert.Equal(t, "x = 42\n", got)
	assert.False(t, log.DidNotConverge)
	assert.Positive(t, log.Applied())
}

func TestRun_CleanInput_Unchanged(t *testing.T) {
	t.Parallel()

	src := "def greet(name):\n    print('hello', name)\n"

	got, log := run(t, src)

	assert.Equal(t, src, got)
	assert.Zero(t, log.Applied())
	assert.Equal(t, 1, log.Passes)
}

func TestRun_Idempotent_SecondRunDoesNothing(t *testing.T) {
	t.Parallel()

	first, _ := run(t, `
state = 0
while state != 2:
    if state == 0:
        print((1 + 1))
        state = 2
`)

	second, log := run(t, first)

	assert.Equal(t, first, second)
	assert.Zero(t, log.Applied())
}

func TestRun_LayeredIdioms_AllCleared(t *testing.T) {
	t.Parallel()

	got, log := run(t, `
def fwd(a, b):
    return target(a, b)
fwd((2 + 3), 7)
9999
`)

	assert.Equal(t, "target(5, 7)\n", got)
	assert.False(t, log.DidNotConverge)
}

func TestRun_UnsafeNearMatch_RecordedAsSkip(t *testing.T) {
	t.Parallel()

	src := "x = 1 // 0\n"

	got, log := run(t, src)

	assert.Equal(t, src, got)
	require.NotEmpty(t, log.Skips)
	assert.Equal(t, "opaque-literal", log.Skips[0].Pattern)
}

// flipFlop rewrites 0 to 1 and 1 to 0 forever, forcing the pass cap.
type flipFlop struct{}

func (flipFlop) Name() string        { return "flip-flop" }
func (flipFlop) Description() string { return "oscillates for cap testing" }

func (flipFlop) Match(n *syntax.Node) bool {
	return n.IsLiteral(syntax.LitInt) && (n.Token == "0" || n.Token == "1")
}

func (flipFlop) Rewrite(n *syntax.Node) *patterns.Result {
	next := "0"
	if n.Token == "0" {
		next = "1"
	}

	return patterns.Replaced(syntax.NewLiteral(syntax.LitInt, next))
}

func TestRun_NonConvergingCatalog_ReportsAndStops(t *testing.T) {
	t.Parallel()

	root, err := pysrc.Parse(context.Background(), []byte("x = 0\n"))
	require.NoError(t, err)

	engine := rewrite.NewEngine([]patterns.Pattern{flipFlop{}}, rewrite.WithMaxPasses(3))
	_, log := engine.Run(root)

	assert.True(t, log.DidNotConverge)
	assert.Equal(t, 3, log.Passes)
	assert.Equal(t, 3, log.Applied())
	require.NotEmpty(t, log.Remaining)
	assert.Equal(t, "flip-flop", log.Remaining[0].Pattern)
}

func TestRun_EmptiedBlock_KeptValid(t *testing.T) {
	t.Parallel()

	got, _ := run(t, `
def f():
    12345
`)

	assert.Equal(t, "def f():\n    pass\n", got)
}

func TestLog_Merge_Accumulates(t *testing.T) {
	t.Parallel()

	_, first := run(t, "x = 1 + 1\n")
	_, second := run(t, "y = 2 + 2\n")

	total := first.Applied() + second.Applied()
	passes := first.Passes + second.Passes

	first.Merge(second)

	assert.Equal(t, total, first.Applied())
	assert.Equal(t, passes, first.Passes)
}

func TestLog_Table_ListsRewrites(t *testing.T) {
	t.Parallel()

	_, log := run(t, "x = 1 + 1\n")

	out := log.Table()

	assert.Contains(t, out, "opaque-literal")
	assert.Contains(t, out, "PATTERN")
}

func TestLog_Table_Empty_SaysSo(t *testing.T) {
	t.Parallel()

	log := &rewrite.Log{}

	assert.Equal(t, "no rewrites applied", log.Table())
}

func TestLog_YAML_RoundTripsFields(t *testing.T) {
	t.Parallel()

	_, log := run(t, "x = (3 * 3) + 1\n")

	out, err := log.YAML()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "entries:")
	assert.Contains(t, text, "pattern: opaque-literal")
	assert.Contains(t, text, "passes:")
}

func TestDiff_HighlightsChange(t *testing.T) {
	t.Parallel()

	out := rewrite.Diff("x = 1 + 1\n", "x = 2\n")

	assert.True(t, strings.Contains(out, "2"))
}
