package intent

import (
	"sort"
	"strings"
)

// normalizer strips the input down to the token stream the layers
// match against: lowercase, punctuation removed, multi-word phrases
// canonicalized, filler phrases dropped.
type normalizer struct {
	vocab *Vocabulary
}

func (n normalizer) normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = stripPunct(text)

	// Canonicalize multi-word phrases before filler stripping so that
	// "could you shut down" becomes "shutdown", not "shut down".
	// Longest phrase first, then lexicographic: replacement order must
	// not depend on map iteration.
	phrases := make([]string, 0, len(n.vocab.Canonical))
	for phrase := range n.vocab.Canonical {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	for _, phrase := range phrases {
		text = strings.ReplaceAll(text, phrase, n.vocab.Canonical[phrase])
	}

	for _, filler := range n.vocab.Fillers {
		text = strings.ReplaceAll(text, filler, " ")
	}

	return strings.Join(strings.Fields(text), " ")
}

// stripPunct removes everything except word characters and whitespace,
// keeping dots so file names like report.txt survive.
func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// remainder returns the text with the matched keyword and leading
// articles removed — the action's target. Empty is legal.
func remainder(text, keyword string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	removed := false
	for _, f := range fields {
		if !removed && f == keyword {
			removed = true
			continue
		}
		out = append(out, f)
	}
	for len(out) > 0 && (out[0] == "the" || out[0] == "a" || out[0] == "an") {
		out = out[1:]
	}
	return strings.Join(out, " ")
}
