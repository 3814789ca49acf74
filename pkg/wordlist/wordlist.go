// Package wordlist loads word and phrase lists used for moderation and the
// spelling credits.
package wordlist

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

//go:embed lists/*.txt
var embedded embed.FS

// List is an immutable, case-insensitive set of words and phrases.
type List struct {
	words   map[string]struct{}
	phrases []string
}

// Load reads one entry per line from r. Blank lines and lines starting with
// # are skipped.
func Load(r io.Reader) (*List, error) {
	l := &List{words: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry := normalize(line)
		if strings.Contains(entry, " ") {
			l.phrases = append(l.phrases, entry)
			continue
		}
		l.words[entry] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return l, nil
}

// LoadFile reads a list from path.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// LoadFileOr reads path, or the embedded list name when path is empty.
func LoadFileOr(path, name string) (*List, error) {
	if path != "" {
		return LoadFile(path)
	}
	return loadEmbedded(name)
}

// Names of the embedded default lists.
const (
	Profanity  = "profanity"
	Slurs      = "slurs"
	Dictionary = "dictionary"
)

func loadEmbedded(name string) (*List, error) {
	f, err := embedded.Open("lists/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("unknown embedded word list %q: %w", name, err)
	}
	defer f.Close()
	return Load(f)
}

// Len is the number of entries.
func (l *List) Len() int { return len(l.words) + len(l.phrases) }

// Matches reports whether word is a single-word entry.
func (l *List) Matches(word string) bool {
	_, ok := l.words[normalize(word)]
	return ok
}

// Knows is Matches under the dictionary name.
func (l *List) Knows(word string) bool { return l.Matches(word) }

// Contains reports whether any word or phrase of the list occurs in text.
func (l *List) Contains(text string) bool {
	normalized := normalize(text)
	for _, word := range strings.Fields(normalized) {
		if _, ok := l.words[word]; ok {
			return true
		}
	}
	padded := " " + normalized + " "
	for _, phrase := range l.phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

// normalize lower-cases s and collapses every run of characters other than
// letters, digits and apostrophes into a single space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for i, f := range fields {
		fields[i] = strings.Trim(f, "'")
	}
	return strings.Join(fields, " ")
}
