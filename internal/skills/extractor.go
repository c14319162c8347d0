package skills

import (
	"sort"
	"strings"
	"unicode"
)

// separators split tokens in addition to whitespace. '.', '/', '-', '+' and '#' are absent so
// labels such as node.js, ci/cd, scikit-learn, c++ and c# survive as single tokens.
const separators = ",;:()[]{}\"'!?|<>"

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(separators, r)
}

func isCompoundSeparator(r rune) bool {
	return r == '/' || r == '-'
}

// Tokenize lowercases text and splits it into tokens. A trailing '.' is trimmed from each token
// so sentence-final words still match. A token joined by '/' or '-' is kept whole and followed by
// its parts, so "python/sql" yields python/sql, python and sql.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimRight(f, ".")
		if f == "" {
			continue
		}
		parts := strings.FieldsFunc(f, isCompoundSeparator)
		if len(parts) == 1 && parts[0] == f {
			tokens = append(tokens, f)
			continue
		}
		if strings.Trim(f, "/-") != "" {
			tokens = append(tokens, f)
		}
		for _, p := range parts {
			if p = strings.TrimRight(p, "."); p != "" {
				tokens = append(tokens, p)
			}
		}
	}
	return tokens
}

// Extract returns the sorted, deduplicated set of vocabulary entries found in text.
//
// Single-token entries match by token membership. Entries containing a space match by plain
// substring containment on the lowercased text with no token-boundary check, so "rest api" also
// matches inside "forest apiary".
func Extract(text string, vocab *Vocabulary) []string {
	if vocab == nil || strings.TrimSpace(text) == "" {
		return []string{}
	}

	found := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		if _, ok := vocab.tokens[tok]; ok {
			found[tok] = struct{}{}
		}
	}

	lowered := strings.ToLower(text)
	for _, phrase := range vocab.phrases {
		if strings.Contains(lowered, phrase) {
			found[phrase] = struct{}{}
		}
	}

	out := make([]string, 0, len(found))
	for s := range found {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the sorted members of a that are also in b.
func Intersect(a, b []string) []string {
	set := toSet(b)
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Difference returns the sorted members of a that are not in b.
func Difference(a, b []string) []string {
	set := toSet(b)
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
