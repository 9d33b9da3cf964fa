package table

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// pruneRule removes an element whose value equals the engine default.
type pruneRule struct {
	tag       string
	redundant func(value string) bool
}

var pruneRules = []pruneRule{
	{"LastState", func(string) bool { return true }},
	{"Unicode", intIs(0)},
	{"CodePage", intIs(0)},
	{"ZeroTerminate", intIs(1)},
	{"Color", func(v string) bool { return v == "000000" }},
	{"DropDownList", func(v string) bool { return strings.TrimSpace(v) == "" }},
}

// intIs matches integer values equal to want. Values that are not integers
// never match.
func intIs(want int) func(string) bool {
	return func(v string) bool {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return err == nil && n == want
	}
}

// PruneRedundant removes elements that only restate Cheat Engine defaults
// (saved activation state, zero code page, default color, ...). It returns the
// number of removed elements per tag.
func (d *Document) PruneRedundant() (map[string]int, error) {
	removed := make(map[string]int)
	for _, rule := range pruneRules {
		nodes, err := d.Find(rule.tag)
		if err != nil {
			return removed, err
		}
		for _, n := range nodes {
			if !rule.redundant(n.InnerText()) {
				continue
			}
			xmlquery.RemoveFromTree(n)
			removed[rule.tag]++
		}
	}
	return removed, nil
}
