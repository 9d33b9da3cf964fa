package ctclean

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidOptions is returned by New when Options fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// Options selects the cleanups applied to each table.
// ID renumbering and pruning of redundant elements always run.
type Options struct {
	// === Text passes ===

	// Repair inserts missing '<' and '>' before the table is parsed.
	Repair bool `json:"repair" yaml:"repair"`

	// Compact strips trailing whitespace and blank lines from the output.
	Compact bool `json:"compact" yaml:"compact"`

	// RemoveExtraSpaces collapses runs of spaces outside quoted strings.
	RemoveExtraSpaces bool `json:"remove_extra_spaces" yaml:"remove_extra_spaces"`

	// === Tree edits ===

	// LinearizeScripts joins the lines of <LuaScript> and <AssemblerScript>
	// fields where it is safe to do so.
	LinearizeScripts bool `json:"linearize_scripts" yaml:"linearize_scripts"`

	// RemoveSignature drops <Signature> elements. A signed table is no longer
	// verifiable once cleaned, so Full leaves this off.
	RemoveSignature bool `json:"remove_signature" yaml:"remove_signature"`

	// RemoveStructures drops <Structures> elements.
	RemoveStructures bool `json:"remove_structures" yaml:"remove_structures"`

	// RemoveUserDefinedSymbols drops <UserdefinedSymbols> elements.
	RemoveUserDefinedSymbols bool `json:"remove_user_defined_symbols" yaml:"remove_user_defined_symbols"`

	// === Output ===

	// IndentXML writes one element per line instead of a single line.
	IndentXML bool `json:"indent_xml" yaml:"indent_xml"`

	// CRLF writes Windows line endings.
	CRLF bool `json:"crlf" yaml:"crlf"`

	// Backup keeps the original file next to the cleaned one with a .bak suffix.
	Backup bool `json:"backup" yaml:"backup"`

	// DryRun cleans in memory without touching any file.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// === Discovery ===

	// Extensions lists the file extensions picked up when a directory is
	// cleaned. Matching ignores case.
	Extensions []string `json:"extensions" yaml:"extensions" validate:"dive,startswith=."`

	// Concurrency bounds the number of files cleaned at once. Zero uses the
	// number of CPUs.
	Concurrency int `json:"concurrency" yaml:"concurrency" validate:"gte=0,lte=256"`
}

// DefaultOptions returns the options used when no cleanup is requested:
// IDs are renumbered, redundant elements pruned and a backup kept.
func DefaultOptions() Options {
	return Options{
		Backup:     true,
		Extensions: []string{".ct"},
	}
}

// Full returns DefaultOptions with every cleanup enabled except signature
// removal.
func Full() Options {
	o := DefaultOptions()
	o.Repair = true
	o.Compact = true
	o.RemoveExtraSpaces = true
	o.LinearizeScripts = true
	o.RemoveStructures = true
	o.RemoveUserDefinedSymbols = true
	return o
}

var validate = validator.New()

// Validate checks the options.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// removals returns the tags deleted from every table.
func (o Options) removals() []string {
	var tags []string
	if o.RemoveSignature {
		tags = append(tags, "Signature")
	}
	if o.RemoveStructures {
		tags = append(tags, "Structures")
	}
	if o.RemoveUserDefinedSymbols {
		tags = append(tags, "UserdefinedSymbols")
	}
	return tags
}

// matches reports whether name has one of the configured extensions.
func (o Options) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range o.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
