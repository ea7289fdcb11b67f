package patterns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/emit"
	"github.com/Sumatoshi-tech/despecter/pkg/patterns"
)

func TestDispatcherLoop_TerminalCondition_Linearized(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
state = 0
while state != 3:
    if state == 0:
        print(1)
        state = 1
    elif state == 1:
        print(2)
        state = 2
    elif state == 2:
        print(3)
        state = 3
`)
	require.True(t, pattern.Match(root))

	res := pattern.Rewrite(root)
	require.False(t, res.Skipped)
	require.Len(t, res.Replacement, 1)
	assert.Equal(t, "print(1)\nprint(2)\nprint(3)\n", emit.Emit(res.Replacement[0]))
}

func TestDispatcherLoop_WhileTrueWithBreak_Linearized(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
s = 2
while True:
    if s == 1:
        second()
        break
    elif s == 2:
        first()
        s = 1
`)
	require.True(t, pattern.Match(root))

	res := pattern.Rewrite(root)
	require.False(t, res.Skipped)
	assert.Equal(t, "first()\nsecond()\n", emit.Emit(res.Replacement[0]))
}

func TestDispatcherLoop_ScrambledOrder_FollowsStateGraph(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	// Arms appear in source order 0, 7, 4 but execute 0 -> 4 -> 7.
	root := parse(t, `
n = 0
while n != 9:
    if n == 0:
        a()
        n = 4
    elif n == 7:
        c()
        n = 9
    elif n == 4:
        b()
        n = 7
`)
	require.True(t, pattern.Match(root))

	res := pattern.Rewrite(root)
	require.False(t, res.Skipped)
	assert.Equal(t, "a()\nb()\nc()\n", emit.Emit(res.Replacement[0]))
}

func TestDispatcherLoop_StateUsedAfterLoop_Skips(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
state = 0
while state != 1:
    if state == 0:
        work()
        state = 1
print(state)
`)
	require.True(t, pattern.Match(root))

	res := pattern.Rewrite(root)
	assert.True(t, res.Skipped)
	assert.Contains(t, res.Note, "state")
}

func TestDispatcherLoop_CyclicStateGraph_Skips(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
s = 0
while s != 9:
    if s == 0:
        ping()
        s = 1
    elif s == 1:
        pong()
        s = 0
`)
	require.True(t, pattern.Match(root))

	res := pattern.Rewrite(root)
	assert.True(t, res.Skipped)
	assert.Contains(t, res.Note, "loops back")
}

func TestDispatcherLoop_NonConstantState_NoMatch(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
state = start()
while state != 3:
    if state == 0:
        state = 1
`)

	assert.False(t, pattern.Match(root))
}

func TestDispatcherLoop_ElseBranch_NoMatch(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
state = 0
while state != 2:
    if state == 0:
        state = 1
    else:
        state = 2
`)

	assert.False(t, pattern.Match(root))
}

func TestDispatcherLoop_NestedControlFlowInArm_NoMatch(t *testing.T) {
	t.Parallel()

	pattern := patterns.DispatcherLoop{}

	root := parse(t, `
state = 0
while state != 2:
    if state == 0:
        for i in items:
            use(i)
        state = 2
`)

	assert.False(t, pattern.Match(root))
}
