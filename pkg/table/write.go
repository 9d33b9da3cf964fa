package table

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// WriteOptions controls serialization.
type WriteOptions struct {
	// Indent is written once per nesting level before each child of an
	// element that holds only elements. Empty keeps every element on one line.
	Indent string
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;",
	)
)

const declaration = `<?xml version="1.0" encoding="utf-8"?>`

// Write serializes the document as UTF-8 XML. Text content is written with its
// line breaks as-is so script fields stay readable.
func (d *Document) Write(w io.Writer, opts WriteOptions) error {
	bw := bufio.NewWriter(w)
	wr := &writer{w: bw, indent: opts.Indent}
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if isBlank(n) {
			continue
		}
		wr.node(n, 0)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Bytes returns the serialized document.
func (d *Document) Bytes(opts WriteOptions) []byte {
	var buf bytes.Buffer
	_ = d.Write(&buf, opts) // bytes.Buffer does not fail
	return buf.Bytes()
}

// String returns the document serialized without indentation.
func (d *Document) String() string {
	return string(d.Bytes(WriteOptions{}))
}

type writer struct {
	w      *bufio.Writer
	indent string
}

func (wr *writer) node(n *xmlquery.Node, depth int) {
	switch n.Type {
	case xmlquery.DeclarationNode:
		wr.procInst(n)
	case xmlquery.ElementNode:
		wr.element(n, depth)
	case xmlquery.TextNode:
		wr.w.WriteString(textEscaper.Replace(n.Data))
	case xmlquery.CharDataNode:
		wr.w.WriteString("<![CDATA[")
		wr.w.WriteString(strings.ReplaceAll(n.Data, "]]>", "]]]]><![CDATA[>"))
		wr.w.WriteString("]]>")
	case xmlquery.CommentNode:
		wr.w.WriteString("<!--")
		wr.w.WriteString(n.Data)
		wr.w.WriteString("-->")
	}
}

// procInst writes a processing instruction. The XML declaration is always
// rewritten to name utf-8, the only encoding Write produces.
func (wr *writer) procInst(n *xmlquery.Node) {
	if n.Data == "xml" {
		wr.w.WriteString(declaration)
		return
	}
	wr.w.WriteString("<?")
	wr.w.WriteString(n.Data)
	for _, a := range n.Attr {
		wr.w.WriteByte(' ')
		wr.w.WriteString(a.Name.Local)
		wr.w.WriteString(`="`)
		wr.w.WriteString(attrEscaper.Replace(a.Value))
		wr.w.WriteByte('"')
	}
	wr.w.WriteString("?>")
}

func (wr *writer) element(n *xmlquery.Node, depth int) {
	name := qualified(n.Prefix, n.Data)
	wr.w.WriteByte('<')
	wr.w.WriteString(name)
	for _, a := range n.Attr {
		wr.w.WriteByte(' ')
		wr.w.WriteString(qualified(a.Name.Space, a.Name.Local))
		wr.w.WriteString(`="`)
		wr.w.WriteString(attrEscaper.Replace(a.Value))
		wr.w.WriteByte('"')
	}
	if n.FirstChild == nil {
		wr.w.WriteString("/>")
		return
	}
	wr.w.WriteByte('>')

	elementOnly := holdsOnlyElements(n)
	pretty := elementOnly && wr.indent != ""
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if elementOnly && isBlank(c) {
			continue
		}
		if pretty {
			wr.newline(depth + 1)
		}
		wr.node(c, depth+1)
	}
	if pretty {
		wr.newline(depth)
	}
	wr.w.WriteString("</")
	wr.w.WriteString(name)
	wr.w.WriteByte('>')
}

func (wr *writer) newline(depth int) {
	wr.w.WriteByte('\n')
	for i := 0; i < depth; i++ {
		wr.w.WriteString(wr.indent)
	}
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// holdsOnlyElements reports whether n has child elements and no text other
// than whitespace between them. Whitespace in such content is formatting and
// is not written.
func holdsOnlyElements(n *xmlquery.Node) bool {
	elements := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			elements = true
		case xmlquery.TextNode:
			if !isBlank(c) {
				return false
			}
		case xmlquery.CharDataNode:
			return false
		}
	}
	return elements
}

func isBlank(n *xmlquery.Node) bool {
	return n.Type == xmlquery.TextNode && strings.TrimSpace(n.Data) == ""
}
