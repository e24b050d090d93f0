// Package catalog holds the static list of use-of-proceeds line items and
// the overall category each one rolls up to.
package catalog

import (
	"strings"

	"github.com/iwvelando/use-of-proceeds/pkg/constants"
)

// Entry pairs a line-item category with its overall category.
type Entry struct {
	Overall  string `json:"overall" yaml:"overall" mapstructure:"overall"`
	Category string `json:"category" yaml:"category" mapstructure:"category"`
}

// Catalog is a read-only ordered list of entries with a category index.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

var defaultEntries = []Entry{
	{"plansAndPermits", "Construction"},
	{"plansAndPermits", "Architectural Plans"},
	{"plansAndPermits", "Engineering"},
	{"plansAndPermits", "Permits & Impact Fees"},
	{"realEstate", "Land Purchase"},
	{"realEstate", "Building Purchase"},
	{"realEstate", "Leasehold Improvements"},
	{"realEstate", "Renovations"},
	{"equipment", "Machinery & Equipment"},
	{"equipment", "Furniture & Fixtures"},
	{"equipment", "Vehicles"},
	{"equipment", "Computer Hardware & Software"},
	{"businessAcquisition", "Business Purchase"},
	{"businessAcquisition", "Goodwill"},
	{"businessAcquisition", "Inventory Purchase"},
	{"businessAcquisition", "Franchise Fee"},
	{"workingCapital", "Working Capital"},
	{"workingCapital", "Marketing"},
	{"workingCapital", "Payroll Reserve"},
	{"workingCapital", "Start-up Costs"},
	{"refinance", "Debt Refinance"},
	{"refinance", "Seller Note Payoff"},
	{"softCosts", "Closing Costs"},
	{"softCosts", "SBA Guaranty Fee"},
	{"softCosts", "Legal & Accounting"},
	{"softCosts", "Appraisal"},
	{"softCosts", "Environmental Report"},
	{"softCosts", "Title & Escrow"},
	{"softCosts", "Interest Reserve"},
	{"softCosts", "Contingency"},
	{constants.OtherCategory, "Other Uses"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultEntries)
}

// New builds a catalog from entries. Blank entries are skipped and the first
// occurrence of a category wins.
func New(entries []Entry) *Catalog {
	c := &Catalog{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		e.Overall = strings.TrimSpace(e.Overall)
		e.Category = strings.TrimSpace(e.Category)
		if e.Overall == "" || e.Category == "" {
			continue
		}
		if _, exists := c.index[e.Category]; exists {
			continue
		}
		c.index[e.Category] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// With returns a new catalog containing c's entries followed by extra.
func (c *Catalog) With(extra []Entry) *Catalog {
	merged := make([]Entry, 0, len(c.entries)+len(extra))
	merged = append(merged, c.entries...)
	merged = append(merged, extra...)
	return New(merged)
}

// Entries returns a copy of all entries in catalog order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup finds the entry for a category. An exact match is preferred, then a
// case-insensitive match on the trimmed name.
func (c *Catalog) Lookup(category string) (Entry, bool) {
	if i, ok := c.index[category]; ok {
		return c.entries[i], true
	}
	trimmed := strings.TrimSpace(category)
	for _, e := range c.entries {
		if strings.EqualFold(e.Category, trimmed) {
			return e, true
		}
	}
	return Entry{}, false
}

// OverallFor resolves a row name to its overall category, defaulting to
// "Other" for unrecognized names.
func (c *Catalog) OverallFor(rowName string) string {
	if e, ok := c.Lookup(rowName); ok {
		return e.Overall
	}
	return constants.OtherCategory
}

// UniqueOverallCategories returns the distinct overall values in first-seen order.
func (c *Catalog) UniqueOverallCategories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range c.entries {
		if _, ok := seen[e.Overall]; ok {
			continue
		}
		seen[e.Overall] = struct{}{}
		out = append(out, e.Overall)
	}
	return out
}

// CategoriesFor lists the categories grouped under one overall category.
func (c *Catalog) CategoriesFor(overall string) []string {
	var out []string
	for _, e := range c.entries {
		if e.Overall == overall {
			out = append(out, e.Category)
		}
	}
	return out
}

// Filter returns entries whose overall or category contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Filter(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Entries()
	}
	var out []Entry
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Overall), q) || strings.Contains(strings.ToLower(e.Category), q) {
			out = append(out, e)
		}
	}
	return out
}
