package titlelist

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FilterFunc returns true when a title should be kept.
type FilterFunc func(string) bool

// MaxWidth keeps titles that fit in cells terminal columns. Wide runes count
// double.
func MaxWidth(cells int) FilterFunc {
	return func(title string) bool {
		return cells <= 0 || runewidth.StringWidth(title) <= cells
	}
}

// Normalize trims the title and collapses inner whitespace runs.
func Normalize(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
