// Package linear collapses multi-line script blocks into single logical lines.
//
// Cheat Engine scripts mix Lua and auto-assembler code in one field. Lua can be
// joined onto one line as long as strings, long literals and comments are kept
// intact; assembler cannot, and the block and section markers ({$lua}, {$asm},
// [ENABLE], [DISABLE]) must keep their own line. The linearizer tracks those
// regions with a small set of flags while copying the input to a new buffer.
package linear

import (
	"strings"
)

// Linearizer merges script lines using a fixed marker Syntax.
// It holds no per-call state and is safe for concurrent use.
type Linearizer struct {
	syntax  Syntax
	table   []marker
	comment []rune
	wrap    []rune
	unwrap  []rune
}

// New creates a Linearizer for the given syntax.
func New(syntax Syntax) *Linearizer {
	return &Linearizer{
		syntax:  syntax,
		table:   syntax.table(),
		comment: []rune(syntax.Comment),
		wrap:    []rune(syntax.LiteralOpen),
		unwrap:  []rune(syntax.LiteralClose),
	}
}

var lua = New(LuaSyntax())

// Linearize runs one linearization pass with the Lua syntax.
func Linearize(text string, alwaysActive bool) string {
	return lua.Linearize(text, alwaysActive)
}

// Script linearizes a <LuaScript> field value.
func Script(text string) string {
	return lua.Script(text)
}

// Raw linearizes an <AssemblerScript> field value.
func Raw(text string) string {
	return lua.Raw(text)
}

// Name returns the linearizer name for logging.
func (l *Linearizer) Name() string {
	return "linear"
}

// Script applies the two passes used for Lua fields: the first treats the
// whole text as script, the second only the {$lua} regions.
func (l *Linearizer) Script(text string) string {
	return l.Linearize(l.Linearize(text, true), false)
}

// Raw applies the two passes used for assembler fields.
func (l *Linearizer) Raw(text string) string {
	return l.Linearize(l.Linearize(text, false), false)
}

// scanState is the per-call lexical state.
type scanState struct {
	inScript      bool
	inLiteral     bool
	inString      bool
	transitioning bool
}

// Linearize replaces eligible line breaks with spaces. When alwaysActive is
// set, text outside any {$lua} block is treated as script too.
func (l *Linearizer) Linearize(text string, alwaysActive bool) string {
	src := []rune(normalizeLines(text))
	c := newCursor(src)
	st := scanState{inScript: alwaysActive}

	var out strings.Builder
	out.Grow(len(text))

	for {
		r, ok := c.at(0)
		if !ok {
			break
		}
		if r == '"' {
			st.inString = !st.inString
		}
		l.applyMarker(c, &st, st.inScript || alwaysActive)

		free := (st.inScript || alwaysActive) && !st.inString && !st.inLiteral
		switch {
		case free && r == '\n' && !c.breakerFollows(l.table):
			if st.transitioning {
				st.transitioning = false
				out.WriteRune(r)
			} else {
				out.WriteByte(' ')
			}
		case free && l.needsWrap(c):
			l.wrapComment(c)
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
		c.next()
	}
	return out.String()
}

// applyMarker updates the state for the first marker found at the cursor.
func (l *Linearizer) applyMarker(c *cursor, st *scanState, active bool) {
	for _, m := range l.table {
		if m.scriptOnly && !active {
			continue
		}
		if !c.hasPrefix(0, m) {
			continue
		}
		switch m.kind {
		case literalOpen:
			st.inLiteral = true
		case literalClose:
			st.inLiteral = false
		case scriptOpen:
			st.inScript = true
			st.transitioning = true
		case rawOpen:
			st.inScript = false
			st.transitioning = true
		case sectionEnable, sectionDisable:
			st.transitioning = true
		}
		return
	}
}

// needsWrap reports whether a single-line comment starts at the cursor and is
// not already a block comment. At least len(LiteralOpen) runes must follow.
func (l *Linearizer) needsWrap(c *cursor) bool {
	if len(l.comment) == 0 || len(l.wrap) == 0 {
		return false
	}
	if !c.hasPrefix(0, marker{text: l.comment}) {
		return false
	}
	n := len(l.comment)
	if _, ok := c.at(n + len(l.wrap) - 1); !ok {
		return false
	}
	return !c.hasPrefix(n, marker{text: l.wrap})
}

// wrapComment turns the comment at the cursor into a block comment that ends
// at the end of the line.
func (l *Linearizer) wrapComment(c *cursor) {
	c.insert(c.pos+len(l.comment), l.wrap, true)
	c.insert(c.lineEnd(), l.unwrap, false)
}

// normalizeLines converts CRLF and CR to LF and trims every line.
func normalizeLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
