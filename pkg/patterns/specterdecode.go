package patterns

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

var errBadField = errors.New("bad payload field")

// SpecterDecode folds the Specter string-decode idiom
//
//	''.join(map(lambda n: chr(int(n) - KEY), b'…'.decode().split('\x00')))
//
// to its plaintext literal when both the key and the payload are literal.
// The payload is a NUL-separated list of decimal values, each shifted by
// the key.
type SpecterDecode struct{}

func (SpecterDecode) Name() string { return "specter-decode" }

func (SpecterDecode) Description() string {
	return "fold the Specter chr/join string-decode idiom to its plaintext"
}

func (SpecterDecode) Match(n *syntax.Node) bool {
	_, _, ok := decodeParts(n)

	return ok
}

func (SpecterDecode) Rewrite(n *syntax.Node) *Result {
	key, payload, ok := decodeParts(n)
	if !ok {
		return Skip("decode idiom vanished between match and rewrite")
	}

	plain, err := decodePayload(payload, key)
	if err != nil {
		return Skip("payload is not a well-formed value list: " + err.Error())
	}

	return Replaced(syntax.NewLiteral(syntax.LitStr, plain))
}

// decodeParts dismantles the idiom and returns the shift key and the raw
// payload bytes.
func decodeParts(n *syntax.Node) (key int64, payload string, ok bool) {
	mapCall, ok := joinedMapCall(n)
	if !ok {
		return 0, "", false
	}

	key, ok = lambdaKey(mapCall.Child(1))
	if !ok {
		return 0, "", false
	}

	payload, ok = splitPayload(mapCall.Child(2))
	if !ok {
		return 0, "", false
	}

	return key, payload, true
}

// joinedMapCall matches ''.join(map(…, …)) and returns the inner map call.
func joinedMapCall(n *syntax.Node) (*syntax.Node, bool) {
	if n == nil || n.Kind != syntax.KindCall || len(n.Children) != 2 {
		return nil, false
	}

	join := n.Child(0)
	if join.Kind != syntax.KindAttribute || join.Token != "join" {
		return nil, false
	}

	if !join.Child(0).IsLiteral(syntax.LitStr) || join.Child(0).Token != "" {
		return nil, false
	}

	mapCall := n.Child(1)
	if mapCall.Kind != syntax.KindCall || len(mapCall.Children) != 3 {
		return nil, false
	}

	if fn := mapCall.Child(0); fn.Kind != syntax.KindName || fn.Token != "map" {
		return nil, false
	}

	return mapCall, true
}

// lambdaKey matches `lambda n: chr(int(n) - KEY)` and extracts KEY, which
// is either an int literal or int() of a bytes literal holding a decimal.
func lambdaKey(lambda *syntax.Node) (int64, bool) {
	if lambda == nil || lambda.Kind != syntax.KindLambda || len(lambda.Children) != 2 {
		return 0, false
	}

	params := lambda.Child(0)
	if params.Kind != syntax.KindParams || len(params.Children) != 1 {
		return 0, false
	}

	paramName := params.Child(0).Token

	chrCall := lambda.Child(1)
	if !isUnaryCallOf(chrCall, "chr") {
		return 0, false
	}

	sub := chrCall.Child(1)
	if sub.Kind != syntax.KindBinaryOp || sub.Prop(syntax.PropOp) != "-" || len(sub.Children) != 2 {
		return 0, false
	}

	intCall := sub.Child(0)
	if !isUnaryCallOf(intCall, "int") {
		return 0, false
	}

	if arg := intCall.Child(1); arg.Kind != syntax.KindName || arg.Token != paramName {
		return 0, false
	}

	return keyValue(sub.Child(1))
}

func keyValue(n *syntax.Node) (int64, bool) {
	if n.IsLiteral(syntax.LitInt) {
		return parseDecimal(n.Token)
	}

	// The original hides the key as int(b'1234').
	if isUnaryCallOf(n, "int") && n.Child(1).IsLiteral(syntax.LitBytes) {
		return parseDecimal(strings.TrimSpace(n.Child(1).Token))
	}

	return 0, false
}

// splitPayload matches b'…'.decode().split('\x00') and returns the decoded
// payload text.
func splitPayload(n *syntax.Node) (string, bool) {
	if n == nil || n.Kind != syntax.KindCall || len(n.Children) != 2 {
		return "", false
	}

	split := n.Child(0)
	if split.Kind != syntax.KindAttribute || split.Token != "split" {
		return "", false
	}

	if sep := n.Child(1); !sep.IsLiteral(syntax.LitStr) || sep.Token != "\x00" {
		return "", false
	}

	decodeCall := split.Child(0)
	if decodeCall == nil || decodeCall.Kind != syntax.KindCall || len(decodeCall.Children) != 1 {
		return "", false
	}

	decode := decodeCall.Child(0)
	if decode.Kind != syntax.KindAttribute || decode.Token != "decode" {
		return "", false
	}

	raw := decode.Child(0)
	if raw == nil || !raw.IsLiteral(syntax.LitBytes) {
		return "", false
	}

	return raw.Token, true
}

func decodePayload(payload string, key int64) (string, error) {
	var sb strings.Builder

	for _, field := range strings.Split(payload, "\x00") {
		val, ok := parseDecimal(field)
		if !ok {
			return "", fmt.Errorf("%w: %q", errBadField, field)
		}

		code := val - key
		// Surrogate code points would be rewritten to U+FFFD on the way
		// into a string, so they fail loudly instead.
		if code < 0 || code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
			return "", fmt.Errorf("%w: value %d", errBadField, code)
		}

		sb.WriteRune(rune(code))
	}

	return sb.String(), nil
}

func isUnaryCallOf(n *syntax.Node, name string) bool {
	if n == nil || n.Kind != syntax.KindCall || len(n.Children) != 2 {
		return false
	}

	fn := n.Child(0)

	return fn.Kind == syntax.KindName && fn.Token == name
}

func parseDecimal(s string) (int64, bool) {
	val, err := strconv.ParseInt(s, 10, 64)

	return val, err == nil
}
