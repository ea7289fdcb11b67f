package pysrc

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/despecter/pkg/syntax"
)

// decodePyString converts quoted Python string source text into the decoded
// literal value. Returns the literal kind (LitStr or LitBytes), the value,
// and ok=false for forms that must stay opaque (f-strings, malformed
// quoting).
func decodePyString(source string) (litKind, value string, ok bool) {
	prefix, rest := splitStringPrefix(source)

	lower := strings.ToLower(prefix)
	if strings.ContainsRune(lower, 'f') {
		return "", "", false
	}

	isBytes := strings.ContainsRune(lower, 'b')
	isRaw := strings.ContainsRune(lower, 'r')

	inner, ok := stripQuotes(rest)
	if !ok {
		return "", "", false
	}

	litKind = syntax.LitStr
	if isBytes {
		litKind = syntax.LitBytes
	}

	if isRaw {
		return litKind, inner, true
	}

	decoded, ok := decodeEscapes(inner, isBytes)
	if !ok {
		return "", "", false
	}

	return litKind, decoded, true
}

func splitStringPrefix(source string) (prefix, rest string) {
	for idx := 0; idx < len(source); idx++ {
		if source[idx] == '\'' || source[idx] == '"' {
			return source[:idx], source[idx:]
		}
	}

	return "", source
}

func stripQuotes(source string) (string, bool) {
	const tripleLen = 3

	if len(source) >= 2*tripleLen {
		for _, quote := range []string{`"""`, "'''"} {
			if strings.HasPrefix(source, quote) && strings.HasSuffix(source, quote) {
				return source[tripleLen : len(source)-tripleLen], true
			}
		}
	}

	if len(source) >= 2 {
		first, last := source[0], source[len(source)-1]
		if (first == '\'' || first == '"') && first == last {
			return source[1 : len(source)-1], true
		}
	}

	return "", false
}

//nolint:cyclop // Escape table dispatch.
func decodeEscapes(inner string, isBytes bool) (string, bool) {
	var sb strings.Builder

	for idx := 0; idx < len(inner); idx++ {
		ch := inner[idx]
		if ch != '\\' || idx+1 >= len(inner) {
			sb.WriteByte(ch)

			continue
		}

		idx++
		esc := inner[idx]

		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '\'', '"':
			sb.WriteByte(esc)
		case '\n':
			// Line continuation inside the literal.
		case 'x':
			consumed, ok := writeHexEscape(&sb, inner[idx+1:], 2, isBytes)
			if !ok {
				return "", false
			}

			idx += consumed
		case 'u', 'U':
			if isBytes {
				// \u has no meaning in bytes literals; Python keeps it
				// verbatim.
				sb.WriteByte('\\')
				sb.WriteByte(esc)

				continue
			}

			width := 4
			if esc == 'U' {
				width = 8
			}

			consumed, ok := writeUnicodeEscape(&sb, inner[idx+1:], width)
			if !ok {
				return "", false
			}

			idx += consumed
		case '0', '1', '2', '3', '4', '5', '6', '7':
			consumed := writeOctalEscape(&sb, inner[idx:], isBytes)
			idx += consumed - 1
		default:
			// Python preserves unknown escapes verbatim.
			sb.WriteByte('\\')
			sb.WriteByte(esc)
		}
	}

	return sb.String(), true
}

func writeHexEscape(sb *strings.Builder, rest string, width int, isBytes bool) (int, bool) {
	if len(rest) < width {
		return 0, false
	}

	val, err := strconv.ParseUint(rest[:width], 16, 8)
	if err != nil {
		return 0, false
	}

	// In a str literal \xHH names the code point; only bytes literals hold
	// the raw byte.
	if isBytes {
		sb.WriteByte(byte(val))
	} else {
		sb.WriteRune(rune(val))
	}

	return width, true
}

func writeUnicodeEscape(sb *strings.Builder, rest string, width int) (int, bool) {
	if len(rest) < width {
		return 0, false
	}

	val, err := strconv.ParseUint(rest[:width], 16, 32)
	if err != nil {
		return 0, false
	}

	// Lone surrogates and out-of-range escapes cannot survive a UTF-8
	// round trip; the literal stays verbatim instead.
	if !utf8.ValidRune(rune(val)) {
		return 0, false
	}

	sb.WriteRune(rune(val))

	return width, true
}

func writeOctalEscape(sb *strings.Builder, rest string, isBytes bool) int {
	const maxOctalDigits = 3

	digits := 0
	for digits < maxOctalDigits && digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '7' {
		digits++
	}

	val, err := strconv.ParseUint(rest[:digits], 8, 9)
	if err != nil || val > 0xFF {
		sb.WriteString(rest[:digits])

		return digits
	}

	if isBytes {
		sb.WriteByte(byte(val))
	} else {
		sb.WriteRune(rune(val))
	}

	return digits
}
