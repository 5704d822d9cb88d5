// Package title derives short sidebar labels from a session's first query.
package title

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	Default  = "New Chat"
	maxWords = 4
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a an and are as at be but by can could did do does for from had has have
		how i if in into is it its me my of on or our please should so than that
		the their them then there these they this to was we were what when where
		which who why will with would you your tell about give show explain
	`) {
		stopWords[w] = struct{}{}
	}
}

// Generate returns a short title for raw. Short inputs (three words or fewer)
// are kept verbatim; longer ones keep up to four significant words.
func Generate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Default
	}

	words := strings.Fields(raw)
	if len(words) <= 3 {
		return raw
	}

	kept := make([]string, 0, maxWords)
	for _, w := range words {
		if !significant(w) {
			continue
		}
		kept = append(kept, w)
		if len(kept) == maxWords {
			break
		}
	}
	if len(kept) == 0 {
		kept = words[:maxWords]
	}
	return strings.Join(kept, " ")
}

func significant(word string) bool {
	core := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))
	if utf8.RuneCountInString(core) <= 2 {
		return false
	}
	_, stop := stopWords[core]
	return !stop
}
