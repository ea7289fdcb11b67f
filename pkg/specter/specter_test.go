package specter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/despecter/pkg/pysrc"
	"github.com/Sumatoshi-tech/despecter/pkg/specter"
	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

func parse(t *testing.T, src string) *syntax.Node {
	t.Helper()

	root, err := pysrc.Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	return root
}

func TestExtractBytecode_DunderChunks_ConcatenatedInOrder(t *testing.T) {
	t.Parallel()

	root := parse(t, `
__1000__ = (0, loads(flag, b'\x63\x00\x01'))
filler = 1
__1001__ = (1, loads(flag, b'abc'))
`)

	got, err := specter.ExtractBytecode(root)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x63\x00\x01abc"), got)
}

func TestExtractBytecode_NoPayload_ReturnsSentinel(t *testing.T) {
	t.Parallel()

	root := parse(t, "x = 1\nprint(x)\n")

	_, err := specter.ExtractBytecode(root)
	assert.ErrorIs(t, err, specter.ErrNoSpecterPayload)
}

func TestExtractBytecode_DunderWithoutTupleShape_Ignored(t *testing.T) {
	t.Parallel()

	root := parse(t, "__1000__ = b'abc'\n")

	_, err := specter.ExtractBytecode(root)
	assert.ErrorIs(t, err, specter.ErrNoSpecterPayload)
}

func TestRecoverSource_ScrambledTable_Reassembled(t *testing.T) {
	t.Parallel()

	// Two entries holding "hi" and "!\n", shifted by 10, assigned out of
	// execution order; the trailing call carries the real order.
	root := parse(t, `
lO, Ol = (b'43\x0020', b'114\x00115')
key = int(b'10')
run(Ol, lO)
`)

	got, err := specter.RecoverSource(root)
	require.NoError(t, err)
	assert.Equal(t, "hi!\n", got)
}

func TestRecoverSource_NoStateTable_Fails(t *testing.T) {
	t.Parallel()

	root := parse(t, "x = 1\n")

	_, err := specter.RecoverSource(root)
	assert.ErrorIs(t, err, specter.ErrUnrecognizedLayout)
}

func TestRecoverSource_MissingKey_Fails(t *testing.T) {
	t.Parallel()

	root := parse(t, `
lO, Ol = (b'43', b'114')
run(Ol, lO)
`)

	_, err := specter.RecoverSource(root)
	require.ErrorIs(t, err, specter.ErrUnrecognizedLayout)
	assert.Contains(t, err.Error(), "decode key")
}

func TestRecoverSource_MissingOrderCall_Fails(t *testing.T) {
	t.Parallel()

	root := parse(t, `
lO, Ol = (b'43', b'114')
key = int(b'10')
`)

	_, err := specter.RecoverSource(root)
	require.ErrorIs(t, err, specter.ErrUnrecognizedLayout)
	assert.Contains(t, err.Error(), "order")
}

func TestRecoverSource_MalformedEntry_Fails(t *testing.T) {
	t.Parallel()

	root := parse(t, `
lO, Ol = (b'nope', b'114')
key = int(b'10')
run(Ol, lO)
`)

	_, err := specter.RecoverSource(root)
	assert.ErrorIs(t, err, specter.ErrUnrecognizedLayout)
}

func TestRecoverSource_SurrogateCodePoint_Fails(t *testing.T) {
	t.Parallel()

	// 55306 - 10 = 0xD800; a lone surrogate cannot survive decoding.
	root := parse(t, `
lO, Ol = (b'55306', b'114')
key = int(b'10')
run(Ol, lO)
`)

	_, err := specter.RecoverSource(root)
	assert.ErrorIs(t, err, specter.ErrUnrecognizedLayout)
}

func TestSignature_WarnsBeforeCode(t *testing.T) {
	t.Parallel()

	assert.Contains(t, specter.Signature, "WARNING")
	assert.Contains(t, specter.Signature, "OBFUSCATED")
	assert.True(t, len(specter.Signature) > 0 && specter.Signature[len(specter.Signature)-1] == '\n')
}
