package store

import (
	"encoding/json"
	"scripture-api-go/catalog"
	"scripture-api-go/logcolors"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const (
	keyLastBook    = "last_book"
	keyLastChapter = "last_chapter"
	keyDarkMode    = "dark_mode"
)

// Preferences is the reader's saved state: last position and theme. Reads fall
// back to defaults and writes are best effort.
type Preferences struct {
	store *Store
}

// NewPreferences reads and writes preferences through s.
func NewPreferences(s *Store) *Preferences {
	return &Preferences{store: s}
}

type savedBook struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReadingPosition returns the last chapter read, or Genesis 1.
func (p *Preferences) ReadingPosition() catalog.Position {
	book := catalog.Default()
	if raw, ok := p.store.Get(keyLastBook); ok {
		var saved savedBook
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			log.Debugf("%s Ignoring unreadable %s: %v", logcolors.LogPreferences, keyLastBook, err)
		} else if match, ok := catalog.ByID(saved.ID); ok {
			book = match
		}
	}

	chapter := 1
	if raw, ok := p.store.Get(keyLastChapter); ok {
		if n, err := strconv.Atoi(raw); err == nil && catalog.ValidChapter(book, n) {
			chapter = n
		}
	}

	return catalog.Position{Book: book, Chapter: chapter}
}

// SaveReadingPosition records book and chapter as the last read.
func (p *Preferences) SaveReadingPosition(book catalog.Book, chapter int) {
	data, err := json.Marshal(savedBook{ID: book.ID, Name: book.Name})
	if err != nil {
		log.Warnf("%s Failed to encode reading position: %v", logcolors.LogPreferences, err)
		return
	}
	if err := p.store.Set(keyLastBook, string(data)); err != nil {
		log.Warnf("%s Failed to save reading position: %v", logcolors.LogPreferences, err)
		return
	}
	if err := p.store.Set(keyLastChapter, strconv.Itoa(chapter)); err != nil {
		log.Warnf("%s Failed to save reading position: %v", logcolors.LogPreferences, err)
	}
}

// DarkMode returns the saved theme, or defaultValue when none is saved.
func (p *Preferences) DarkMode(defaultValue bool) bool {
	raw, ok := p.store.Get(keyDarkMode)
	if !ok {
		return defaultValue
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// SetDarkMode saves the theme choice.
func (p *Preferences) SetDarkMode(enabled bool) {
	if err := p.store.Set(keyDarkMode, strconv.FormatBool(enabled)); err != nil {
		log.Warnf("%s Failed to save theme: %v", logcolors.LogPreferences, err)
	}
}
