// Package rename restores readable identifiers: it detects machine-made
// names, assigns deterministic fresh ones per binding, and rewrites every
// reference that resolves to the renamed binding, closures included.
package rename

import "strings"

const confusableMinLen = 4

// confusableAlphabet holds the visually ambiguous characters obfuscators
// build whole names from.
const confusableAlphabet = "Il1O0o"

// IsObfuscated reports whether a name looks machine-generated: hex names
// (`_0x3f2a`), numeric dunders (`__1234__`), names spelled entirely in the
// confusable alphabet (`l1Il`, `O0oO`), or a single letter followed by a
// digit run (`x1234`). Reserved names are never considered obfuscated.
func IsObfuscated(name string) bool {
	if name == "" || isReserved(name) {
		return false
	}

	return isHexName(name) || isNumericDunder(name) ||
		isConfusable(name) || isLetterDigitRun(name)
}

func isHexName(name string) bool {
	rest, ok := strings.CutPrefix(name, "_0x")
	if !ok || rest == "" {
		return false
	}

	for _, ch := range rest {
		if !isHexDigit(ch) {
			return false
		}
	}

	return true
}

func isNumericDunder(name string) bool {
	inner, ok := strings.CutPrefix(name, "__")
	if !ok {
		return false
	}

	inner, ok = strings.CutSuffix(inner, "__")
	if !ok || inner == "" {
		return false
	}

	return allDigits(inner)
}

func isConfusable(name string) bool {
	if len(name) < confusableMinLen {
		return false
	}

	for _, ch := range name {
		if !strings.ContainsRune(confusableAlphabet, ch) {
			return false
		}
	}

	return true
}

func isLetterDigitRun(name string) bool {
	if len(name) < 3 {
		return false
	}

	first := rune(name[0])
	if !(first >= 'a' && first <= 'z' || first >= 'A' && first <= 'Z') {
		return false
	}

	return allDigits(name[1:])
}

func allDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}

func isHexDigit(ch rune) bool {
	return ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}
