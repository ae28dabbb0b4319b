// Package catalog is the static list of the 66 books, with lookup by any of a
// book's names, reference parsing and chapter-by-chapter navigation.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Testament groups the books.
type Testament string

const (
	OldTestament Testament = "old"
	NewTestament Testament = "new"
)

var (
	ErrUnknownBook       = errors.New("unknown book")
	ErrInvalidReference  = errors.New("invalid reference")
	ErrChapterOutOfRange = errors.New("chapter out of range")
)

// Book describes one book. APIName is the name the chapter provider expects
// and is also the book part of the chapter cache key.
type Book struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIName   string    `json:"apiName"`
	Chapters  int       `json:"chapters"`
	Testament Testament `json:"testament"`
	Aliases   []string  `json:"aliases,omitempty"`
}

// Position is a book and chapter.
type Position struct {
	Book    Book `json:"book"`
	Chapter int  `json:"chapter"`
}

var (
	byID  = make(map[string]int, len(books))
	index []indexEntry

	// "<book> <chapter>" at the start of a reference; anything after the
	// chapter number (":16", ":1-21") is ignored.
	referencePattern = regexp.MustCompile(`^(.+?)\s+(\d+)`)
	nonAlnum         = regexp.MustCompile(`[^a-z0-9\s]+`)
)

type indexEntry struct {
	normalized string
	compact    string
	book       int
}

func init() {
	for i, b := range books {
		byID[b.ID] = i

		candidates := append([]string{b.Name, b.ID, b.APIName}, b.Aliases...)
		for _, c := range candidates {
			n := Normalize(c)
			index = append(index, indexEntry{normalized: n, compact: strings.ReplaceAll(n, " ", ""), book: i})
		}
	}
}

// Books returns every book in canonical order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

func OldTestamentBooks() []Book { return byTestament(OldTestament) }

func NewTestamentBooks() []Book { return byTestament(NewTestament) }

func byTestament(t Testament) []Book {
	var out []Book
	for _, b := range books {
		if b.Testament == t {
			out = append(out, b)
		}
	}
	return out
}

// Default is the book shown when nothing else is known.
func Default() Book {
	return books[0]
}

// ByID looks a book up by its exact id.
func ByID(id string) (Book, bool) {
	i, ok := byID[id]
	if !ok {
		return Book{}, false
	}
	return books[i], true
}

// Normalize folds s for matching: diacritics stripped, lower-cased, anything
// other than letters, digits and spaces turned into a space, runs of spaces
// collapsed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	lowered := cases.Lower(language.BrazilianPortuguese).String(stripped)
	return strings.Join(strings.Fields(nonAlnum.ReplaceAllString(lowered, " ")), " ")
}

// Find matches name against every book's display name, id, provider name and
// aliases, ignoring case, accents and spacing. Books earlier in canonical
// order win ties, so "jo" is Jó.
func Find(name string) (Book, bool) {
	n := Normalize(name)
	if n == "" {
		return Book{}, false
	}
	compact := strings.ReplaceAll(n, " ", "")

	for _, e := range index {
		if e.normalized == n {
			return books[e.book], true
		}
	}
	for _, e := range index {
		if e.compact == compact {
			return books[e.book], true
		}
	}
	return Book{}, false
}

// ValidChapter reports whether chapter exists in book.
func ValidChapter(book Book, chapter int) bool {
	return chapter >= 1 && chapter <= book.Chapters
}

// ResolveReference turns a reference such as "João 3:16" or "1 Coríntios 13"
// into a position. Verse numbers are ignored.
func ResolveReference(ref string) (Position, error) {
	m := referencePattern.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	chapter, err := strconv.Atoi(m[2])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	book, ok := Find(m[1])
	if !ok {
		return Position{}, fmt.Errorf("%w: %q", ErrUnknownBook, m[1])
	}
	if !ValidChapter(book, chapter) {
		return Position{}, fmt.Errorf("%w: %s has %d chapters, got %d", ErrChapterOutOfRange, book.Name, book.Chapters, chapter)
	}

	return Position{Book: book, Chapter: chapter}, nil
}

// Next returns the chapter after (book, chapter), moving to the first chapter
// of the following book at the end of a book. It is false after Revelation 22.
func Next(book Book, chapter int) (Position, bool) {
	if chapter < book.Chapters {
		return Position{Book: book, Chapter: chapter + 1}, true
	}
	i, ok := byID[book.ID]
	if !ok || i+1 >= len(books) {
		return Position{}, false
	}
	return Position{Book: books[i+1], Chapter: 1}, true
}

// Prev returns the chapter before (book, chapter), moving to the last chapter
// of the preceding book from chapter 1. It is false before Genesis 1.
func Prev(book Book, chapter int) (Position, bool) {
	if chapter > 1 {
		return Position{Book: book, Chapter: chapter - 1}, true
	}
	i, ok := byID[book.ID]
	if !ok || i == 0 {
		return Position{}, false
	}
	prev := books[i-1]
	return Position{Book: prev, Chapter: prev.Chapters}, true
}
