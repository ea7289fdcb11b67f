package patterns_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/patterns"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

func TestSpecterDecode_LiteralKey_FoldsToPlaintext(t *testing.T) {
	t.Parallel()

	pattern := patterns.SpecterDecode{}

	// "Hi!" shifted by 100: 172, 205, 133.
	expr := firstExpr(t,
		`''.join(map(lambda n: chr(int(n) - 100), b'172\x00205\x00133'.decode().split('\x00')))`)
	require.True(t, pattern.Match(expr))

	res := pattern.Rewrite(expr)
	require.False(t, res.Skipped)
	require.Len(t, res.Replacement, 1)
	assert.True(t, res.Replacement[0].IsLiteral(syntax.LitStr))
	assert.Equal(t, "Hi!", res.Replacement[0].Token)
}

func TestSpecterDecode_BytesHiddenKey_FoldsToPlaintext(t *testing.T) {
	t.Parallel()

	pattern := patterns.SpecterDecode{}

	expr := firstExpr(t,
		`''.join(map(lambda n: chr(int(n) - int(b'100')), b'172\x00205\x00133'.decode().split('\x00')))`)
	require.True(t, pattern.Match(expr))

	res := pattern.Rewrite(expr)
	require.False(t, res.Skipped)
	assert.Equal(t, "Hi!", res.Replacement[0].Token)
}

func TestSpecterDecode_NonLiteralKey_NoMatch(t *testing.T) {
	t.Parallel()

	pattern := patterns.SpecterDecode{}

	expr := firstExpr(t,
		`''.join(map(lambda n: chr(int(n) - key), b'172\x00205'.decode().split('\x00')))`)

	assert.False(t, pattern.Match(expr))
}

func TestSpecterDecode_WrongSeparator_NoMatch(t *testing.T) {
	t.Parallel()

	pattern := patterns.SpecterDecode{}

	expr := firstExpr(t,
		`''.join(map(lambda n: chr(int(n) - 100), b'172,205'.decode().split(',')))`)

	assert.False(t, pattern.Match(expr))
}

func TestSpecterDecode_MalformedPayload_Skips(t *testing.T) {
	t.Parallel()

	pattern := patterns.SpecterDecode{}

	expr := firstExpr(t,
		`''.join(map(lambda n: chr(int(n) - 100), b'not\x00numbers'.decode().split('\x00')))`)
	require.True(t, pattern.Match(expr))

	res := pattern.Rewrite(expr)
	assert.True(t, res.Skipped)
	assert.NotEmpty(t, res.Note)
}

func TestSpecterDecode_SurrogateCodePoint_Skips(t *testing.T) {
	t.Parallel()

	// 55297 - 1 = 0xD800, a lone surrogate; chr() accepts it but it cannot
	// be carried through the tree without corruption.
	pattern := patterns.SpecterDecode{}

	expr := firstExpr(t,
		`''.join(map(lambda n: chr(int(n) - 1), b'55297'.decode().split('\x00')))`)
	require.True(t, pattern.Match(expr))

	res := pattern.Rewrite(expr)
	assert.True(t, res.Skipped)
	assert.NotEmpty(t, res.Note)
}

func TestSpecterDecode_OrdinaryJoin_NoMatch(t *testing.T) {
	t.Parallel()

	pattern := patterns.SpecterDecode{}

	assert.False(t, pattern.Match(firstExpr(t, `''.join(parts)`)))
	assert.False(t, pattern.Match(firstExpr(t, `', '.join(map(str, values))`)))
}
