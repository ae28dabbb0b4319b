package bible

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectVerses returns the verses numbered start..end inclusive.
// start <= 0 means the first verse; end <= 0 means the last verse.
func SelectVerses(ch *Chapter, start, end int) []Verse {
	if ch == nil || len(ch.Verses) == 0 {
		return nil
	}
	if start <= 0 {
		start = 1
	}
	if end <= 0 {
		end = ch.Verses[len(ch.Verses)-1].Verse
	}

	selected := make([]Verse, 0, len(ch.Verses))
	for _, v := range ch.Verses {
		if v.Verse >= start && v.Verse <= end {
			selected = append(selected, v)
		}
	}
	return selected
}

// RangeReference formats "João 3:16" for a single verse or "João 3:1-21" for a range.
func RangeReference(bookName string, chapter, start, end int) string {
	if start == end {
		return fmt.Sprintf("%s %d:%d", bookName, chapter, start)
	}
	return fmt.Sprintf("%s %d:%d-%d", bookName, chapter, start, end)
}

// PassageText renders verses as numbered lines ("16. Porque Deus amou...").
func PassageText(verses []Verse) string {
	var b strings.Builder
	for i, v := range verses {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(v.Verse))
		b.WriteString(". ")
		b.WriteString(strings.TrimSpace(v.Text))
	}
	return b.String()
}
