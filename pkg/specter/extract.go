// Package specter handles the Specter container format: obfuscated files
// carry marshalled bytecode chopped into dunder tuple assignments, and the
// decompiled payload hides the real source in a scrambled state table.
package specter

import (
	"errors"
	"strings"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// Sentinel errors for the two recovery stages.
var (
	ErrNoSpecterPayload   = errors.New("no specter payload found")
	ErrUnrecognizedLayout = errors.New("unrecognized specter layout")
)

// Signature is prepended to recovered output so nobody runs the result
// without reading it first.
const Signature = "################# WARNING ##################\n" +
	"#   THIS FILE WAS PREVIOUSLY OBFUSCATED!   #\n" +
	"# DO NOT RUN IT UNLESS YOU TRUST THE CODE. #\n" +
	"############################################\n\n"

// ExtractBytecode walks an obfuscated module and concatenates, in order of
// occurrence, the bytes payloads of every dunder tuple assignment
//
//	__NNNN__ = (…, call(…, b'…'))
//
// The result is the marshalled bytecode the container carries. Zero payload
// symbols means the file is not a Specter container.
func ExtractBytecode(root *syntax.Node) ([]byte, error) {
	var out []byte

	symbols := 0

	root.VisitPreOrder(func(n *syntax.Node) {
		payload, ok := payloadChunk(n)
		if !ok {
			return
		}

		symbols++
		out = append(out, payload...)
	})

	if symbols == 0 {
		return nil, ErrNoSpecterPayload
	}

	return out, nil
}

// payloadChunk matches one container assignment and returns its bytes.
func payloadChunk(n *syntax.Node) ([]byte, bool) {
	if n.Kind != syntax.KindAssign || len(n.Children) != 2 {
		return nil, false
	}

	target := n.Child(0)
	if target.Kind != syntax.KindName || !isDunder(target.Token) {
		return nil, false
	}

	value := n.Child(1)
	if value.Kind != syntax.KindTuple || len(value.Children) != 2 {
		return nil, false
	}

	// The second tuple element is a call whose last argument is the chunk.
	call := value.Child(1)
	if call.Kind != syntax.KindCall || len(call.Children) != 3 {
		return nil, false
	}

	chunk := call.Child(2)
	if !chunk.IsLiteral(syntax.LitBytes) {
		return nil, false
	}

	return []byte(chunk.Token), true
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
