package dialog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
)

var (
	// ErrUnknownCategory is returned when toggling a category the catalog
	// does not list.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrAlreadyPresent is returned when toggling a category that is already
	// a row of the grid.
	ErrAlreadyPresent = errors.New("category is already in the table")
)

// Group is one overall category with its matching line items.
type Group struct {
	Overall    string          `json:"overall"`
	Categories []catalog.Entry `json:"categories"`
}

// AddRow is the Add-Row dialog: a filterable catalog with an ordered
// multi-selection.
type AddRow struct {
	catalog  *catalog.Catalog
	query    string
	existing map[string]struct{}
	selected []catalog.Entry
}

// NewAddRow returns a dialog over cat. Categories named in existing are
// already rows of the grid and are not offered.
func NewAddRow(cat *catalog.Catalog, existing []string) *AddRow {
	if cat == nil {
		cat = catalog.Default()
	}
	d := &AddRow{catalog: cat}
	d.SetExisting(existing)
	return d
}

// SetExisting replaces the set of row names that are excluded from choices.
// Selections that became existing rows are dropped.
func (d *AddRow) SetExisting(names []string) {
	d.existing = make(map[string]struct{}, len(names))
	for _, name := range names {
		d.existing[strings.TrimSpace(name)] = struct{}{}
	}
	kept := d.selected[:0]
	for _, e := range d.selected {
		if _, exists := d.existing[e.Category]; !exists {
			kept = append(kept, e)
		}
	}
	d.selected = kept
}

// SetQuery sets the search filter.
func (d *AddRow) SetQuery(query string) {
	d.query = query
}

// Query returns the search filter.
func (d *AddRow) Query() string {
	return d.query
}

// Choices returns the catalog entries matching the query that are not
// already rows, in catalog order.
func (d *AddRow) Choices() []catalog.Entry {
	var out []catalog.Entry
	for _, e := range d.catalog.Filter(d.query) {
		if _, exists := d.existing[e.Category]; exists {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Groups returns Choices grouped by overall category, in catalog order.
func (d *AddRow) Groups() []Group {
	choices := d.Choices()
	var groups []Group
	for _, overall := range d.catalog.UniqueOverallCategories() {
		g := Group{Overall: overall}
		for _, e := range choices {
			if e.Overall == overall {
				g.Categories = append(g.Categories, e)
			}
		}
		if len(g.Categories) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// Toggle adds category to the selection, or removes it if already selected.
func (d *AddRow) Toggle(category string) error {
	category = strings.TrimSpace(category)
	if d.IsSelected(category) {
		d.Remove(category)
		return nil
	}
	entry, ok := d.catalog.Lookup(category)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if _, exists := d.existing[entry.Category]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyPresent, entry.Category)
	}
	d.selected = append(d.selected, entry)
	return nil
}

// Remove drops category from the selection.
func (d *AddRow) Remove(category string) {
	category = strings.TrimSpace(category)
	for i, e := range d.selected {
		if strings.EqualFold(e.Category, category) {
			d.selected = append(d.selected[:i], d.selected[i+1:]...)
			return
		}
	}
}

// IsSelected reports whether category is in the selection.
func (d *AddRow) IsSelected(category string) bool {
	category = strings.TrimSpace(category)
	for _, e := range d.selected {
		if strings.EqualFold(e.Category, category) {
			return true
		}
	}
	return false
}

// Selected returns the selection in the order it was made.
func (d *AddRow) Selected() []catalog.Entry {
	return append([]catalog.Entry(nil), d.selected...)
}

// Chips returns the selected category labels in selection order.
func (d *AddRow) Chips() []string {
	chips := make([]string, len(d.selected))
	for i, e := range d.selected {
		chips[i] = e.Category
	}
	return chips
}

// CanSubmit reports whether at least one category is selected.
func (d *AddRow) CanSubmit() bool {
	return len(d.selected) > 0
}

// Submit adds the selection: single is called for exactly one category and
// bulk for several. The dialog resets once the callback succeeds.
func (d *AddRow) Submit(single func(overall, category string) error, bulk func([]catalog.Entry) error) error {
	if !d.CanSubmit() {
		return fmt.Errorf("%w: select at least one category", ErrIncomplete)
	}
	var err error
	if len(d.selected) == 1 {
		err = single(d.selected[0].Overall, d.selected[0].Category)
	} else {
		err = bulk(d.Selected())
	}
	if err != nil {
		return err
	}
	d.Cancel()
	return nil
}

// Cancel clears the query and selection.
func (d *AddRow) Cancel() {
	d.query = ""
	d.selected = nil
}
