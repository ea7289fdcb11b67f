package emit

import (
	"fmt"
	"strings"
	"unicode"
)

// reprString renders a decoded string value the way Python's repr does:
// single quotes unless the value contains one and no double quote.
func reprString(value string) string {
	quote := byte('\'')
	if strings.ContainsRune(value, '\'') && !strings.ContainsRune(value, '"') {
		quote = '"'
	}

	var sb strings.Builder

	sb.WriteByte(quote)

	for _, r := range value {
		switch {
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\\':
			sb.WriteString(`\\`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x80 || unicode.IsPrint(r):
			sb.WriteRune(r)
		default:
			writeUnicodeRepr(&sb, r)
		}
	}

	sb.WriteByte(quote)

	return sb.String()
}

func writeUnicodeRepr(sb *strings.Builder, r rune) {
	if r <= 0xFFFF {
		fmt.Fprintf(sb, `\u%04x`, r)

		return
	}

	fmt.Fprintf(sb, `\U%08x`, r)
}

// reprBytes renders a decoded bytes value as a b'...' literal.
func reprBytes(value string) string {
	var sb strings.Builder

	sb.WriteString("b'")

	for i := 0; i < len(value); i++ {
		b := value[i]

		switch {
		case b == '\'':
			sb.WriteString(`\'`)
		case b == '\\':
			sb.WriteString(`\\`)
		case b == '\n':
			sb.WriteString(`\n`)
		case b == '\r':
			sb.WriteString(`\r`)
		case b == '\t':
			sb.WriteString(`\t`)
		case b < 0x20 || b >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, b)
		default:
			sb.WriteByte(b)
		}
	}

	sb.WriteByte('\'')

	return sb.String()
}
