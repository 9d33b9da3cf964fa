// Package table loads, edits and writes Cheat Engine table documents.
//
// A table is an XML document; the package wraps an antchfx/xmlquery tree and
// exposes the handful of edits the cleaner needs: selecting elements by tag
// name anywhere in the tree, rewriting their text, deleting them, and writing
// the tree back out with script newlines intact.
package table

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrParse is returned when the text is not well-formed XML.
var ErrParse = errors.New("parse table")

// Document is a parsed table.
type Document struct {
	root *xmlquery.Node
}

// parseOptions keeps the decoder strict and ignores the encoding named in the
// declaration: text reaching Parse has already been decoded to UTF-8.
var parseOptions = xmlquery.ParserOptions{
	Decoder: &xmlquery.DecoderOptions{
		Strict: true,
		CharsetReader: func(_ string, in io.Reader) (io.Reader, error) {
			return in, nil
		},
	},
}

// Parse builds a Document from XML text.
func Parse(text string) (*Document, error) {
	root, err := xmlquery.ParseWithOptions(strings.NewReader(text), parseOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{root: root}, nil
}

// Find returns every element named tag, in document order.
func (d *Document) Find(tag string) ([]*xmlquery.Node, error) {
	nodes, err := xmlquery.QueryAll(d.root, "//"+tag)
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", tag, err)
	}
	return nodes, nil
}

// Count returns the number of elements named tag.
func (d *Document) Count(tag string) int {
	nodes, err := d.Find(tag)
	if err != nil {
		return 0
	}
	return len(nodes)
}

// RenumberIDs rewrites every <ID> element to 1, 2, 3... in document order
// and returns how many were renumbered.
func (d *Document) RenumberIDs() (int, error) {
	nodes, err := d.Find("ID")
	if err != nil {
		return 0, err
	}
	for i, n := range nodes {
		setText(n, strconv.Itoa(i+1))
	}
	return len(nodes), nil
}

// Remove deletes every element named tag and returns how many were found.
func (d *Document) Remove(tag string) (int, error) {
	nodes, err := d.Find(tag)
	if err != nil {
		return 0, err
	}
	for _, n := range nodes {
		xmlquery.RemoveFromTree(n)
	}
	return len(nodes), nil
}

// Transform replaces the text of every element named tag with fn(text) and
// returns how many elements changed.
func (d *Document) Transform(tag string, fn func(string) string) (int, error) {
	nodes, err := d.Find(tag)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, n := range nodes {
		old := n.InnerText()
		text := fn(old)
		if text == old {
			continue
		}
		setText(n, text)
		changed++
	}
	return changed, nil
}

// setText replaces the children of n with a single text node. A lone CDATA
// child keeps its CDATA form.
func setText(n *xmlquery.Node, text string) {
	if c := n.FirstChild; c != nil && c == n.LastChild && c.Type == xmlquery.CharDataNode {
		c.Data = text
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		xmlquery.RemoveFromTree(c)
		c = next
	}
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}
