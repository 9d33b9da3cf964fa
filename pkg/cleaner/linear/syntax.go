package linear

import "unicode"

// Syntax holds the marker literals the linearizer recognizes.
// Block and section markers are matched case-insensitively; literal
// and comment markers are matched exactly.
type Syntax struct {
	// LiteralOpen and LiteralClose delimit a multiline literal (long string or
	// block comment). Line breaks inside are never touched.
	LiteralOpen  string
	LiteralClose string

	// ScriptOpen switches the block into script mode.
	ScriptOpen string

	// RawOpen switches the block into raw (assembly) mode.
	RawOpen string

	// SectionEnable and SectionDisable start the enable/disable sections.
	SectionEnable  string
	SectionDisable string

	// Comment starts a single-line comment.
	Comment string
}

// LuaSyntax returns the markers used by Cheat Engine scripts.
func LuaSyntax() Syntax {
	return Syntax{
		LiteralOpen:    "[[",
		LiteralClose:   "]]",
		ScriptOpen:     "{$lua}",
		RawOpen:        "{$asm}",
		SectionEnable:  "[ENABLE]",
		SectionDisable: "[DISABLE]",
		Comment:        "--",
	}
}

type markerKind int

const (
	literalOpen markerKind = iota
	literalClose
	scriptOpen
	rawOpen
	sectionEnable
	sectionDisable
)

type marker struct {
	kind markerKind
	text []rune
	fold bool

	// scriptOnly markers are only recognized while the block is active.
	scriptOnly bool
}

// table returns the markers in match priority order.
func (s Syntax) table() []marker {
	return []marker{
		{kind: literalOpen, text: []rune(s.LiteralOpen), scriptOnly: true},
		{kind: literalClose, text: []rune(s.LiteralClose), scriptOnly: true},
		{kind: scriptOpen, text: []rune(s.ScriptOpen), fold: true},
		{kind: rawOpen, text: []rune(s.RawOpen), fold: true},
		{kind: sectionEnable, text: []rune(s.SectionEnable), fold: true},
		{kind: sectionDisable, text: []rune(s.SectionDisable), fold: true},
	}
}

// breaksLine reports whether a marker must stay at the start of its own line.
func (m marker) breaksLine() bool {
	switch m.kind {
	case rawOpen, sectionEnable, sectionDisable:
		return true
	}
	return false
}

func runeEqual(a, b rune, fold bool) bool {
	if a == b {
		return true
	}
	return fold && unicode.ToLower(a) == unicode.ToLower(b)
}
