package bible

import "strconv"

// Verse is one verse of a chapter as returned by the provider.
type Verse struct {
	BookID   string `json:"book_id"`
	BookName string `json:"book_name"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
	Text     string `json:"text"`
}

// Chapter is the provider's chapter payload.
type Chapter struct {
	Reference       string  `json:"reference"`
	Verses          []Verse `json:"verses"`
	Text            string  `json:"text"`
	TranslationID   string  `json:"translation_id"`
	TranslationName string  `json:"translation_name"`
	TranslationNote string  `json:"translation_note"`
}

// ProviderError represents a failed chapter request with additional context
type ProviderError struct {
	Book       string
	Chapter    int
	StatusCode int // zero for transport and decode failures
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "bible-api: " + e.Book + " " + strconv.Itoa(e.Chapter) + ": " + e.Message
	if e.StatusCode != 0 {
		msg += " (status " + strconv.Itoa(e.StatusCode) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(book string, chapter, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{
		Book:       book,
		Chapter:    chapter,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}
