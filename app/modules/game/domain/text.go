package gamedomain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Words splits text into words made of letters, digits and inner apostrophes.
func Words(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
	out := words[:0]
	for _, w := range words {
		w = strings.Trim(w, "'’")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// CharCount is the rune length of text.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// IsAllCaps reports whether every letter in word is upper case. Words without
// letters are not all-caps.
func IsAllCaps(word string) bool {
	hasLetter := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		hasLetter = true
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return hasLetter
}

func hasLetter(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
