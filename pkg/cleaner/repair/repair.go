// Package repair restores tag delimiters that were dropped from a markup file.
//
// The repair is a character-level heuristic, not a parser: it knows nothing of
// tag names, attributes or nesting. A '<' whose run reaches the next '<' (or
// the end of the text) without a '>' gets one after its last non-space
// character, and a '>'-terminated run that was never opened gets a '<' after
// its leading whitespace. Text that merely looks like a tag can be altered.
package repair

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

var (
	// unclosedRun is a '<' run that reaches the next '<' or the end of the text
	// without a '>'. The run holds at least one character, so a '<' directly
	// after the opening one belongs to it.
	unclosedRun = regexp2.MustCompile(`[<]([^>]+?(?=[<]|\z))`, regexp2.None)

	// unopenedRun starts at the beginning of the text or at a '>' and reaches
	// the next '>' without passing a '<'. The terminating '>' of one run cannot
	// start the next.
	unopenedRun = regexp2.MustCompile(`(\A|[>])[^<]+?[>]`, regexp2.None)
)

// Repair returns text with missing '>' and '<' delimiters inserted.
// It never fails.
func Repair(text string) string {
	return openTags(closeTags(text))
}

// Repairer adapts Repair to the cleaner.Cleaner interface.
type Repairer struct {
	inserted int
}

// New creates a Repairer.
func New() *Repairer {
	return &Repairer{}
}

// Clean repairs the delimiters of text.
func (r *Repairer) Clean(text string) (string, error) {
	out := Repair(text)
	r.inserted = len(out) - len(text)
	return out, nil
}

// Name returns the cleaner name for logging.
func (r *Repairer) Name() string {
	return "repair"
}

// Inserted returns the number of delimiters added by the last Clean call.
func (r *Repairer) Inserted() int {
	return r.inserted
}

// closeTags inserts '>' after the last non-space character of every
// unclosed run.
func closeTags(text string) string {
	return replace(unclosedRun, text, func(run string) string {
		body := strings.TrimRightFunc(run, unicode.IsSpace)
		return body + ">" + run[len(body):]
	})
}

// openTags inserts '<' into every unopened run, after its leading '>' and
// any whitespace that follows.
func openTags(text string) string {
	return replace(unopenedRun, text, func(run string) string {
		skip := 0
		if strings.HasPrefix(run, ">") {
			skip = 1
		}
		body := run[skip:]
		skip += len(body) - len(strings.TrimLeftFunc(body, unicode.IsSpace))
		return run[:skip] + "<" + run[skip:]
	})
}

// replace rewrites every match of re. Without a match timeout the engine
// cannot fail, so an error leaves the text unchanged.
func replace(re *regexp2.Regexp, text string, fn func(string) string) string {
	out, err := re.ReplaceFunc(text, func(m regexp2.Match) string {
		return fn(m.String())
	}, -1, -1)
	if err != nil {
		return text
	}
	return out
}
