// Package cleaner defines the text stages of the table cleaning pipeline.
// A stage takes the whole document text and returns a rewritten copy; stages
// run either before the table is parsed (delimiter repair) or after it is
// serialized again (whitespace compaction).
package cleaner

// Cleaner transforms document text.
type Cleaner interface {
	// Clean returns the transformed text.
	Clean(text string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
