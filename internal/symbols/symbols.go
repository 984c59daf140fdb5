// Package symbols maps LaTeX symbol names to the Unicode glyphs shown to users.
package symbols

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

var (
	indexOnce sync.Once
	// keysByLead groups table keys by their first byte, longest key first.
	keysByLead map[byte][]string
)

// Lookup returns the glyph for an exact LaTeX string.
func Lookup(latex string) (string, bool) {
	s, ok := latexToUnicode[latex]
	return s, ok
}

// Display returns the glyph for latex, or latex itself when the table has no entry.
func Display(latex string) string {
	if s, ok := latexToUnicode[latex]; ok {
		return s
	}
	return latex
}

// Len reports the number of entries in the table.
func Len() int {
	return len(latexToUnicode)
}

// Replace substitutes every known LaTeX command in free text, trying longer keys
// before shorter ones at each position. Control words only match on a word boundary.
func Replace(text string) string {
	indexOnce.Do(buildIndex)

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if key, glyph, ok := matchAt(text, i); ok {
			b.WriteString(glyph)
			i += len(key)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

func matchAt(text string, i int) (string, string, bool) {
	c := text[i]
	if c != '\\' && c != '^' && c != '_' {
		return "", "", false
	}
	for _, key := range keysByLead[c] {
		if !strings.HasPrefix(text[i:], key) {
			continue
		}
		end := i + len(key)
		if isControlWord(key) && end < len(text) && isLetter(text[end]) {
			continue
		}
		return key, latexToUnicode[key], true
	}
	return "", "", false
}

func buildIndex() {
	keysByLead = make(map[byte][]string)
	for key := range latexToUnicode {
		if len(key) < 2 {
			continue
		}
		keysByLead[key[0]] = append(keysByLead[key[0]], key)
	}
	for lead := range keysByLead {
		keys := keysByLead[lead]
		sort.Slice(keys, func(a, b int) bool {
			if len(keys[a]) != len(keys[b]) {
				return len(keys[a]) > len(keys[b])
			}
			return keys[a] < keys[b]
		})
	}
}

// isControlWord reports whether key ends in a letter run, e.g. \alpha or ^\prime.
func isControlWord(key string) bool {
	return isLetter(key[len(key)-1]) && strings.Contains(key, `\`)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
