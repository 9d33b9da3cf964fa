package linear

import (
	"sort"
	"unicode"
)

// insertion is text queued to appear before src[at].
type insertion struct {
	at   int
	text []rune
}

// cursor walks an immutable rune slice. Inserted text is yielded before the
// source position it is anchored to, so the scanner sees exactly the text it
// would see had the insertion been spliced into the input.
type cursor struct {
	src     []rune
	pos     int
	inserts []insertion // sorted by at, all at >= pos, none empty

	// cached result of the whitespace lookahead for the current run
	runEnd     int
	runBreaker bool
}

func newCursor(src []rune) *cursor {
	return &cursor{src: src, runEnd: -1}
}

// at returns the k-th rune ahead of the cursor.
func (c *cursor) at(k int) (rune, bool) {
	p := c.pos
	for _, ins := range c.inserts {
		n := ins.at - p
		if k < n {
			return c.src[p+k], true
		}
		k -= n
		if k < len(ins.text) {
			return ins.text[k], true
		}
		k -= len(ins.text)
		p = ins.at
	}
	if p+k < len(c.src) {
		return c.src[p+k], true
	}
	return 0, false
}

func (c *cursor) next() {
	if len(c.inserts) > 0 && c.inserts[0].at == c.pos {
		c.inserts[0].text = c.inserts[0].text[1:]
		if len(c.inserts[0].text) == 0 {
			c.inserts = c.inserts[1:]
		}
		return
	}
	c.pos++
}

// hasPrefix reports whether the text k runes ahead starts with m.
func (c *cursor) hasPrefix(k int, m marker) bool {
	if len(m.text) == 0 {
		return false
	}
	for i, want := range m.text {
		r, ok := c.at(k + i)
		if !ok || !runeEqual(r, want, m.fold) {
			return false
		}
	}
	return true
}

// insert queues text before src[at]. With prepend set the text goes ahead of
// anything already queued at the same position.
func (c *cursor) insert(at int, text []rune, prepend bool) {
	i := sort.Search(len(c.inserts), func(i int) bool { return c.inserts[i].at >= at })
	if i < len(c.inserts) && c.inserts[i].at == at {
		cur := c.inserts[i].text
		merged := make([]rune, 0, len(cur)+len(text))
		if prepend {
			merged = append(append(merged, text...), cur...)
		} else {
			merged = append(append(merged, cur...), text...)
		}
		c.inserts[i].text = merged
		return
	}
	c.inserts = append(c.inserts, insertion{})
	copy(c.inserts[i+1:], c.inserts[i:])
	c.inserts[i] = insertion{at: at, text: append([]rune(nil), text...)}
}

// lineEnd returns the source index of the next line break at or after pos.
func (c *cursor) lineEnd() int {
	for i := c.pos; i < len(c.src); i++ {
		if c.src[i] == '\n' {
			return i
		}
	}
	return len(c.src)
}

// breakerFollows reports whether, after skipping the whitespace run starting
// at the cursor, the text begins with a marker that must keep its own line.
func (c *cursor) breakerFollows(table []marker) bool {
	if len(c.inserts) == 0 && c.pos < c.runEnd {
		return c.runBreaker
	}
	k := 0
	for {
		r, ok := c.at(k)
		if !ok || !unicode.IsSpace(r) {
			break
		}
		k++
	}
	found := false
	for _, m := range table {
		if m.breaksLine() && c.hasPrefix(k, m) {
			found = true
			break
		}
	}
	if len(c.inserts) == 0 {
		c.runEnd = c.pos + k
		c.runBreaker = found
	}
	return found
}
