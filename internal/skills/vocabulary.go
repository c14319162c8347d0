package skills

import (
	"bufio"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"skillsnap/internal/errors"
)

//go:embed vocabulary.txt
var defaultVocabulary string

const versionHeader = "# version:"

// Vocabulary is an immutable, versioned set of canonical skill labels.
// Build one with DefaultVocabulary, LoadVocabulary or ParseVocabulary; never mutate it afterwards.
type Vocabulary struct {
	version string
	entries []string
	tokens  map[string]struct{}
	phrases []string
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(strings.NewReader(defaultVocabulary))
	if err != nil {
		// the embedded list is covered by tests
		panic(fmt.Sprintf("skills: embedded vocabulary is invalid: %v", err))
	}
	return v
}

// LoadVocabulary reads a vocabulary file, one entry per line.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewModelUnavailableError(errors.ErrCodeVocabularyInvalid,
			"failed to open vocabulary file", err).WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	v, err := ParseVocabulary(f)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return v, nil
}

// ParseVocabulary builds a vocabulary from r. Blank lines and lines starting with '#' are ignored,
// except an optional "# version: <v>" header which sets the version label. Without a header the
// version is derived from a digest of the sorted entries.
func ParseVocabulary(r io.Reader) (*Vocabulary, error) {
	var version string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if version == "" && strings.HasPrefix(strings.ToLower(line), versionHeader) {
				version = strings.TrimSpace(line[len(versionHeader):])
			}
			continue
		}

		entry := strings.ToLower(line)
		if !strings.Contains(entry, " ") && strings.ContainsFunc(entry, isSeparator) {
			return nil, errors.NewModelUnavailableError(errors.ErrCodeVocabularyInvalid,
				"single-token entry contains a separator and can never match", nil).
				WithContext("line", lineNo).WithContext("entry", entry)
		}
		seen[entry] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewModelUnavailableError(errors.ErrCodeVocabularyInvalid, "failed to read vocabulary", err)
	}
	if len(seen) == 0 {
		return nil, errors.NewModelUnavailableError(errors.ErrCodeVocabularyInvalid, "vocabulary has no entries", nil)
	}

	v := &Vocabulary{
		entries: make([]string, 0, len(seen)),
		tokens:  make(map[string]struct{}),
	}
	for entry := range seen {
		v.entries = append(v.entries, entry)
		if strings.Contains(entry, " ") {
			v.phrases = append(v.phrases, entry)
		} else {
			v.tokens[entry] = struct{}{}
		}
	}
	sort.Strings(v.entries)
	sort.Strings(v.phrases)

	if version == "" {
		version = digest(v.entries)
	}
	v.version = version
	return v, nil
}

func digest(entries []string) string {
	h := sha256.New()
	for _, e := range entries {
		_, _ = io.WriteString(h, e)
		_, _ = h.Write([]byte{'\n'})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))[:12]
}

// Version returns the vocabulary version label.
func (v *Vocabulary) Version() string { return v.version }

// Len returns the number of entries.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Entries returns a sorted copy of all entries.
func (v *Vocabulary) Entries() []string {
	out := make([]string, len(v.entries))
	copy(out, v.entries)
	return out
}

// Contains reports whether label is a vocabulary entry.
func (v *Vocabulary) Contains(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	if _, ok := v.tokens[label]; ok {
		return true
	}
	idx := sort.SearchStrings(v.phrases, label)
	return idx < len(v.phrases) && v.phrases[idx] == label
}
