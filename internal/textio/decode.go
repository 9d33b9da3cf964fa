// Package textio reads table files in any of the encodings Cheat Engine has
// written over the years and replaces them on disk safely.
package textio

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names reported by Decode.
const (
	UTF8    = "utf-8"
	UTF8BOM = "utf-8-bom"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect names the encoding of raw from its byte order mark. Text without a
// mark is taken to be UTF-8.
func Detect(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(raw, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(raw, bomUTF16BE):
		return UTF16BE
	default:
		return UTF8
	}
}

// Decode converts raw file content to a UTF-8 string without a byte order
// mark and reports the encoding it was read from. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func Decode(raw []byte) (string, string, error) {
	enc := Detect(raw)
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", enc, fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), enc, nil
}
