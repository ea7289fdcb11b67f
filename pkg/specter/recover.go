package specter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// RecoverSource reassembles the original source from the decompiled
// container tree. Three varying parts have to be located: the scrambled
// tuple assignment (the state table), the integer key hidden in the decode
// lambda as int(b'KEY'), and the trailing call listing the concatenation
// order. Every entry is a NUL-separated list of shifted decimal character
// codes.
func RecoverSource(root *syntax.Node) (string, error) {
	table, err := stateTable(root)
	if err != nil {
		return "", err
	}

	key, ok := decodeKey(root)
	if !ok {
		return "", fmt.Errorf("%w: decode key not found", ErrUnrecognizedLayout)
	}

	order, ok := concatOrder(root, table)
	if !ok {
		return "", fmt.Errorf("%w: concatenation order not found", ErrUnrecognizedLayout)
	}

	var sb strings.Builder

	for _, name := range order {
		entry, err := decodeEntry(table[name], key)
		if err != nil {
			return "", fmt.Errorf("%w: entry %s: %v", ErrUnrecognizedLayout, name, err)
		}

		sb.WriteString(entry)
	}

	return sb.String(), nil
}

// stateTable finds the scrambled assignment, a tuple of names assigned a
// tuple of bytes constants, and maps each name to its payload.
func stateTable(root *syntax.Node) (map[string]string, error) {
	for _, stmt := range root.Children {
		table, ok := tableFromAssign(stmt)
		if ok {
			return table, nil
		}
	}

	return nil, fmt.Errorf("%w: state table not found", ErrUnrecognizedLayout)
}

func tableFromAssign(stmt *syntax.Node) (map[string]string, bool) {
	if stmt.Kind != syntax.KindAssign || len(stmt.Children) != 2 {
		return nil, false
	}

	targets, values := stmt.Child(0), stmt.Child(1)
	if targets.Kind != syntax.KindTuple || values.Kind != syntax.KindTuple {
		return nil, false
	}

	if len(targets.Children) == 0 || len(targets.Children) != len(values.Children) {
		return nil, false
	}

	table := make(map[string]string, len(targets.Children))

	for idx, name := range targets.Children {
		if name.Kind != syntax.KindName {
			return nil, false
		}

		// Non-constant slots exist in some layouts and are skipped, same
		// as names never referenced by the order list.
		if value := values.Children[idx]; value.IsLiteral(syntax.LitBytes) {
			table[name.Token] = value.Token
		}
	}

	if len(table) == 0 {
		return nil, false
	}

	return table, true
}

// decodeKey locates the first int(b'…') call, the obfuscator's hiding spot
// for the shift key.
func decodeKey(root *syntax.Node) (int64, bool) {
	var (
		key   int64
		found bool
	)

	root.VisitPreOrder(func(n *syntax.Node) {
		if found || n.Kind != syntax.KindCall || len(n.Children) != 2 {
			return
		}

		fn := n.Child(0)
		if fn.Kind != syntax.KindName || fn.Token != "int" {
			return
		}

		arg := n.Child(1)
		if !arg.IsLiteral(syntax.LitBytes) {
			return
		}

		val, err := strconv.ParseInt(strings.TrimSpace(arg.Token), 10, 64)
		if err != nil {
			return
		}

		key, found = val, true
	})

	return key, found
}

// concatOrder finds the trailing call whose arguments are all names from
// the state table; the argument order is the concatenation order. Scanning
// runs backwards because the order call closes the file.
func concatOrder(root *syntax.Node, table map[string]string) ([]string, bool) {
	for idx := len(root.Children) - 1; idx >= 0; idx-- {
		var order []string

		root.Children[idx].VisitPostOrder(func(n *syntax.Node) {
			if order == nil {
				order = orderFromCall(n, table)
			}
		})

		if order != nil {
			return order, true
		}
	}

	return nil, false
}

func orderFromCall(n *syntax.Node, table map[string]string) []string {
	if n.Kind != syntax.KindCall || len(n.Children) < 2 {
		return nil
	}

	order := make([]string, 0, len(n.Children)-1)

	for _, arg := range n.Children[1:] {
		if arg.Kind != syntax.KindName {
			return nil
		}

		if _, ok := table[arg.Token]; !ok {
			return nil
		}

		order = append(order, arg.Token)
	}

	return order
}

// decodeEntry turns one NUL-separated payload of shifted decimal codes back
// into text.
func decodeEntry(payload string, key int64) (string, error) {
	var sb strings.Builder

	for _, field := range strings.Split(payload, "\x00") {
		val, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return "", fmt.Errorf("field %q is not a decimal code", field)
		}

		code := val - key
		// chr() accepts lone surrogates but UTF-8 cannot carry them;
		// reject rather than substitute U+FFFD silently.
		if code < 0 || code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
			return "", fmt.Errorf("code %d is out of range", code)
		}

		sb.WriteRune(rune(code))
	}

	return sb.String(), nil
}
