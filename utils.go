package stowgate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// forbiddenKeyRunes may not appear anywhere in a key.
const forbiddenKeyRunes = `\?#~`

// IsValidKey reports whether key can name a stored object. A valid key is
// relative UTF-8 text made of non-empty "/"-separated segments, none of them
// "." and none containing "..". Whitespace, control characters and the runes
// in forbiddenKeyRunes are rejected.
func IsValidKey(key string) bool {
	if key == "" || !utf8.ValidString(key) || strings.Contains(key, "..") {
		return false
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) || strings.ContainsRune(forbiddenKeyRunes, r) {
			return false
		}
	}

	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || seg == "." {
			return false
		}
	}

	return true
}
