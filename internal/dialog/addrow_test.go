package dialog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
)

func TestAddRowFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		existing []string
		contains []string
		excludes []string
	}{
		{
			name:     "Matches category",
			query:    "apprais",
			contains: []string{"Appraisal"},
			excludes: []string{"Construction"},
		},
		{
			name:     "Matches overall case-insensitively",
			query:    "REALESTATE",
			contains: []string{"Land Purchase", "Building Purchase"},
			excludes: []string{"Appraisal"},
		},
		{
			name:     "Existing rows are hidden",
			query:    "purchase",
			existing: []string{"Land Purchase"},
			contains: []string{"Building Purchase"},
			excludes: []string{"Land Purchase"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewAddRow(catalog.Default(), tt.existing)
			d.SetQuery(tt.query)
			got := make(map[string]bool)
			for _, e := range d.Choices() {
				got[e.Category] = true
			}
			for _, c := range tt.contains {
				if !got[c] {
					t.Errorf("expected %q in choices", c)
				}
			}
			for _, c := range tt.excludes {
				if got[c] {
					t.Errorf("did not expect %q in choices", c)
				}
			}
		})
	}
}

func TestAddRowGroups(t *testing.T) {
	d := NewAddRow(nil, nil)
	d.SetQuery("softcosts")
	groups := d.Groups()
	if len(groups) != 1 || groups[0].Overall != "softCosts" {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Categories[0].Category != "Closing Costs" {
		t.Errorf("expected catalog order, got %+v", groups[0].Categories)
	}
}

func TestAddRowSelection(t *testing.T) {
	d := NewAddRow(catalog.Default(), []string{"Construction"})

	for _, c := range []string{"Vehicles", "Appraisal", "Marketing"} {
		if err := d.Toggle(c); err != nil {
			t.Fatalf("Toggle(%q) error = %v", c, err)
		}
	}
	if err := d.Toggle("Appraisal"); err != nil {
		t.Fatal(err)
	}
	d.Remove("vehicles")

	if got := d.Chips(); !reflect.DeepEqual(got, []string{"Marketing"}) {
		t.Errorf("chips = %v", got)
	}
	if err := d.Toggle("Construction"); !errors.Is(err, ErrAlreadyPresent) {
		t.Errorf("expected ErrAlreadyPresent selecting an existing row, got %v", err)
	}
	if err := d.Toggle("Not A Category"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestAddRowSubmit(t *testing.T) {
	t.Run("Zero selections", func(t *testing.T) {
		d := NewAddRow(nil, nil)
		if d.CanSubmit() {
			t.Fatal("submit must be disabled with no selection")
		}
		err := d.Submit(
			func(string, string) error { t.Error("single called"); return nil },
			func([]catalog.Entry) error { t.Error("bulk called"); return nil },
		)
		if !errors.Is(err, ErrIncomplete) {
			t.Errorf("expected ErrIncomplete, got %v", err)
		}
	})

	t.Run("Single", func(t *testing.T) {
		d := NewAddRow(nil, nil)
		_ = d.Toggle("Appraisal")
		var overall, category string
		err := d.Submit(
			func(o, c string) error { overall, category = o, c; return nil },
			func([]catalog.Entry) error { t.Error("bulk called"); return nil },
		)
		if err != nil {
			t.Fatal(err)
		}
		if overall != "softCosts" || category != "Appraisal" {
			t.Errorf("single called with %q %q", overall, category)
		}
		if d.CanSubmit() {
			t.Error("selection not cleared after submit")
		}
	})

	t.Run("Bulk keeps order", func(t *testing.T) {
		d := NewAddRow(nil, nil)
		_ = d.Toggle("Vehicles")
		_ = d.Toggle("Appraisal")
		var got []catalog.Entry
		err := d.Submit(
			func(string, string) error { t.Error("single called"); return nil },
			func(entries []catalog.Entry) error { got = entries; return nil },
		)
		if err != nil {
			t.Fatal(err)
		}
		expected := []catalog.Entry{{Overall: "equipment", Category: "Vehicles"}, {Overall: "softCosts", Category: "Appraisal"}}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("bulk called with %+v", got)
		}
	})

	t.Run("Failure keeps selection", func(t *testing.T) {
		d := NewAddRow(nil, nil)
		_ = d.Toggle("Vehicles")
		boom := errors.New("boom")
		err := d.Submit(func(string, string) error { return boom }, nil)
		if !errors.Is(err, boom) {
			t.Fatalf("expected %v, got %v", boom, err)
		}
		if !d.IsSelected("Vehicles") {
			t.Error("selection lost after failed submit")
		}
	})
}

func TestAddRowCancelAndExisting(t *testing.T) {
	d := NewAddRow(nil, nil)
	d.SetQuery("cost")
	_ = d.Toggle("Closing Costs")
	_ = d.Toggle("Vehicles")

	d.SetExisting([]string{"Vehicles"})
	if d.IsSelected("Vehicles") {
		t.Error("selection should drop categories that became rows")
	}

	d.Cancel()
	if d.Query() != "" || d.CanSubmit() {
		t.Error("cancel did not clear query and selection")
	}
}
