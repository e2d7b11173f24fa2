package joinz

import (
	"fmt"
	"maps"
	"unicode/utf8"
)

// mirrorTable maps directional characters to their counterpart.
var mirrorTable = map[rune]rune{
	'!': '¡',
	'¡': '!',
	'?': '¿',
	'¿': '?',
	'(': ')',
	')': '(',
	'{': '}',
	'}': '{',
	'[': ']',
	']': '[',
	'<': '>',
	'>': '<',
}

// MirrorMap returns a copy of the character mirror table.
//
//	joinz.MirrorMap()['('] // ')'
func MirrorMap() map[rune]rune {
	return maps.Clone(mirrorTable)
}

// MirrorCharacter mirrors the first character of s. Characters with no
// counterpart are returned unchanged and the empty string mirrors to itself.
func MirrorCharacter(s string) string {
	if s == "" {
		return ""
	}
	c, _ := utf8.DecodeRuneInString(s)
	return string(mirrorRune(c))
}

// MirrorString reverses s and mirrors each character, so an opening
// delimiter becomes the matching closing one:
//
//	joinz.MirrorString("-<") // ">-"
func MirrorString(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	for i, c := range runes {
		out[len(runes)-1-i] = mirrorRune(c)
	}
	return string(out)
}

// MirrorValue mirrors the string form of a string or number. Any other value
// mirrors to the empty string.
func MirrorValue(v any) string {
	switch val := v.(type) {
	case string:
		return MirrorString(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return MirrorString(fmt.Sprint(val))
	default:
		return ""
	}
}

func mirrorRune(c rune) rune {
	if m, ok := mirrorTable[c]; ok {
		return m
	}
	return c
}
