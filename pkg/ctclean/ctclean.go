// Package ctclean cleans Cheat Engine tables.
//
// A Cleaner runs each table through a fixed pipeline: decode to UTF-8,
// optionally repair broken tag delimiters, parse, renumber IDs, drop unwanted
// and redundant elements, linearize script fields, serialize, and apply the
// text-level whitespace passes. CleanFile and CleanFiles add the file handling
// around it.
//
// Basic usage:
//
//	c, err := ctclean.New(ctclean.Full())
//	if err != nil {
//	    return err
//	}
//	for fr := range c.CleanFiles(ctx, paths) {
//	    if fr.Err != nil {
//	        log.Printf("%s: %v", fr.Path, fr.Err)
//	    }
//	}
package ctclean

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/ctclean/internal/textio"
	"github.com/jmylchreest/ctclean/pkg/cleaner"
	"github.com/jmylchreest/ctclean/pkg/cleaner/linear"
	"github.com/jmylchreest/ctclean/pkg/cleaner/repair"
	"github.com/jmylchreest/ctclean/pkg/table"
)

// indent is used for every nesting level when Options.IndentXML is set.
const indent = "  "

// Cleaner applies Options to tables. It is safe for concurrent use.
type Cleaner struct {
	opts Options
	post cleaner.Cleaner
}

// New creates a Cleaner after validating opts.
func New(opts Options) (*Cleaner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var passes []cleaner.Cleaner
	if opts.Compact {
		passes = append(passes, cleaner.NewCompactor())
	}
	if opts.RemoveExtraSpaces {
		passes = append(passes, cleaner.NewSpaceCollapser())
	}

	return &Cleaner{
		opts: opts,
		post: cleaner.NewChain(passes...),
	}, nil
}

// Options returns the options the Cleaner was created with.
func (c *Cleaner) Options() Options {
	return c.opts
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "ctclean"
}

// pre returns the stage run on the raw text. Repairer keeps a count per call,
// so a fresh one is made each time.
func (c *Cleaner) pre() cleaner.Cleaner {
	if c.opts.Repair {
		return repair.New()
	}
	return cleaner.NewNoop()
}

// Clean cleans the content of one table file. The error wraps table.ErrParse
// when the text is not a well-formed document after the repair stage.
func (c *Cleaner) Clean(raw []byte) (*Result, error) {
	start := time.Now()
	result := &Result{Stats: NewStats()}
	result.Stats.InputBytes = len(raw)

	text, enc, err := textio.Decode(raw)
	if err != nil {
		return nil, err
	}
	result.Stats.Encoding = enc
	if enc == textio.UTF16LE || enc == textio.UTF16BE {
		result.AddWarning("decode", "table converted to utf-8", enc)
	}

	pre := c.pre()
	text, err = pre.Clean(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pre.Name(), err)
	}
	if r, ok := pre.(*repair.Repairer); ok && r.Inserted() > 0 {
		result.Stats.DelimitersInserted = r.Inserted()
		result.AddWarning("repair", fmt.Sprintf("inserted %d missing delimiters", r.Inserted()), "")
	}

	parseStart := time.Now()
	doc, err := table.Parse(text)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		return nil, err
	}

	transformStart := time.Now()
	if err := c.transform(doc, result); err != nil {
		return nil, err
	}
	result.Stats.TransformDuration = time.Since(transformStart)

	outputStart := time.Now()
	out, err := c.output(doc)
	result.Stats.OutputDuration = time.Since(outputStart)
	if err != nil {
		return nil, err
	}

	result.Content = out
	result.Stats.OutputBytes = len(out)
	result.Stats.TotalDuration = time.Since(start)
	return result, nil
}

// transform applies the tree edits in order: renumbering, removals,
// linearization, pruning.
func (c *Cleaner) transform(doc *table.Document, result *Result) error {
	stats := result.Stats

	n, err := doc.RenumberIDs()
	if err != nil {
		return err
	}
	stats.IDsRenumbered = n

	for _, tag := range c.opts.removals() {
		n, err := doc.Remove(tag)
		if err != nil {
			return err
		}
		stats.RecordRemoval(tag, n)
	}

	if c.opts.LinearizeScripts {
		n, err := doc.Transform("LuaScript", linear.Script)
		if err != nil {
			return err
		}
		stats.FieldsLinearized += n

		n, err = doc.Transform("AssemblerScript", linear.Raw)
		if err != nil {
			return err
		}
		stats.FieldsLinearized += n
	}

	removed, err := doc.PruneRedundant()
	if err != nil {
		return err
	}
	for tag, n := range removed {
		stats.RecordRemoval(tag, n)
	}

	if doc.Count("CheatTable") == 0 {
		result.AddWarning("transform", "document has no CheatTable element", "")
	}
	return nil
}

// output serializes doc and runs the text passes over the result.
func (c *Cleaner) output(doc *table.Document) (string, error) {
	var opts table.WriteOptions
	if c.opts.IndentXML {
		opts.Indent = indent
	}
	out, err := c.post.Clean(string(doc.Bytes(opts)))
	if err != nil {
		return "", err
	}
	if c.opts.CRLF {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return out, nil
}
