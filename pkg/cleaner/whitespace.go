package cleaner

import (
	"regexp"
	"strings"
)

// blankRun matches trailing whitespace up to a line break, including any
// blank lines that follow.
var blankRun = regexp.MustCompile(`\s*\r?\n`)

// Compactor strips trailing whitespace from lines and removes blank lines.
type Compactor struct{}

// NewCompactor creates a Compactor.
func NewCompactor() *Compactor {
	return &Compactor{}
}

// Clean compacts text.
func (c *Compactor) Clean(text string) (string, error) {
	return blankRun.ReplaceAllString(text, "\n"), nil
}

// Name returns the cleaner type.
func (c *Compactor) Name() string {
	return "compact"
}

// SpaceCollapser collapses runs of spaces outside double-quoted strings.
type SpaceCollapser struct{}

// NewSpaceCollapser creates a SpaceCollapser.
func NewSpaceCollapser() *SpaceCollapser {
	return &SpaceCollapser{}
}

// Clean collapses repeated spaces.
func (c *SpaceCollapser) Clean(text string) (string, error) {
	return CollapseSpaces(text), nil
}

// Name returns the cleaner type.
func (c *SpaceCollapser) Name() string {
	return "spaces"
}

// CollapseSpaces drops every space that directly follows another space,
// unless it sits inside a double-quoted string. Quote state is toggled by
// every '"', escaped or not.
func CollapseSpaces(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	inQuotes := false
	var last byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '"' {
			inQuotes = !inQuotes
		}
		if !inQuotes && ch == ' ' && last == ' ' {
			continue
		}
		sb.WriteByte(ch)
		last = ch
	}
	return sb.String()
}
