package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suffixes are generational tokens dropped from the end of a name. Folding
// removes their trailing dot, so "jr." and "jr" are the same token.
var suffixes = map[string]struct{}{
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
}

var punct = strings.NewReplacer(
	"'", "",
	"’", "",
	"`", "",
)

// Fold lowercases s, strips diacritics and apostrophes, removes the dots of
// initial groups ("P.J." -> "pj") and of suffixes ("Jr." -> "jr") and
// collapses whitespace. Suffixes are kept.
func Fold(s string) string {
	return strings.Join(foldTokens(s), " ")
}

// Name returns the matching key for a player name: Fold plus removal of
// trailing generational suffixes. "Nikola Jokić" and "nikola jokic" share a
// key, as do "LeBron James Jr." and "LeBron James".
func Name(s string) string {
	return strings.Join(stripSuffixes(foldTokens(s)), " ")
}

// Variants returns the distinct index keys for s, the folded full name first
// and the suffix-stripped key second.
func Variants(s string) []string {
	full := Fold(s)
	if full == "" {
		return nil
	}
	stripped := Name(s)
	if stripped == full || stripped == "" {
		return []string{full}
	}
	return []string{full, stripped}
}

// LastName returns the final token of the suffix-stripped key, or "".
func LastName(s string) string {
	tokens := stripSuffixes(foldTokens(s))
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func foldTokens(s string) []string {
	// Chains carry state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(punct.Replace(folded))

	fields := strings.Fields(folded)
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ",")
		if isInitials(f) {
			f = strings.ReplaceAll(f, ".", "")
		}
		if bare := strings.TrimSuffix(f, "."); bare != f {
			if _, ok := suffixes[bare]; ok {
				f = bare
			}
		}
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// isInitials reports dotted single-letter groups such as "p.j." or "j.".
func isInitials(tok string) bool {
	if !strings.Contains(tok, ".") {
		return false
	}
	letters := 0
	for _, part := range strings.Split(tok, ".") {
		if part == "" {
			continue
		}
		r := []rune(part)
		if len(r) != 1 || !unicode.IsLetter(r[0]) {
			return false
		}
		letters++
	}
	return letters > 0
}

func stripSuffixes(tokens []string) []string {
	for len(tokens) > 1 {
		if _, ok := suffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
