package catalog

import (
	"reflect"
	"testing"

	"github.com/iwvelando/use-of-proceeds/pkg/constants"
)

func TestOverallFor(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		rowName  string
		expected string
	}{
		{"Exact category", "Construction", "plansAndPermits"},
		{"Soft cost", "SBA Guaranty Fee", "softCosts"},
		{"Case-insensitive", "working capital", "workingCapital"},
		{"Unrecognized", "Llama Rental", constants.OtherCategory},
		{"Empty", "", constants.OtherCategory},
		{"Total row", constants.TotalRowName, constants.OtherCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.OverallFor(tt.rowName); got != tt.expected {
				t.Errorf("OverallFor(%q) = %q, expected %q", tt.rowName, got, tt.expected)
			}
		})
	}
}

func TestUniqueOverallCategories(t *testing.T) {
	c := New([]Entry{
		{"a", "one"},
		{"b", "two"},
		{"a", "three"},
		{"c", "four"},
	})

	got := c.UniqueOverallCategories()
	expected := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("UniqueOverallCategories() = %v, expected %v", got, expected)
	}

	if cats := c.CategoriesFor("a"); !reflect.DeepEqual(cats, []string{"one", "three"}) {
		t.Errorf("CategoriesFor(a) = %v", cats)
	}
}

func TestNewSkipsBlankAndDuplicateEntries(t *testing.T) {
	c := New([]Entry{
		{"a", "one"},
		{"", "blank overall"},
		{"b", " "},
		{"z", "one"},
	})

	if n := len(c.Entries()); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
	if got := c.OverallFor("one"); got != "a" {
		t.Errorf("expected first occurrence to win, got %q", got)
	}
}

func TestFilter(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		query string
		want  func([]Entry) bool
	}{
		{"Empty query returns all", "", func(es []Entry) bool { return len(es) == len(c.Entries()) }},
		{"Matches overall", "SOFTCOSTS", func(es []Entry) bool {
			for _, e := range es {
				if e.Overall != "softCosts" {
					return false
				}
			}
			return len(es) == len(c.CategoriesFor("softCosts"))
		}},
		{"Matches category substring", "equip", func(es []Entry) bool {
			for _, e := range es {
				if e.Overall != "equipment" {
					return false
				}
			}
			return len(es) > 0
		}},
		{"No match", "zzzz", func(es []Entry) bool { return len(es) == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Filter(tt.query); !tt.want(got) {
				t.Errorf("Filter(%q) returned unexpected %v", tt.query, got)
			}
		})
	}
}

func TestWithExtendsCatalog(t *testing.T) {
	base := Default()
	extended := base.With([]Entry{{"custom", "Solar Array"}, {"custom", "Construction"}})

	if got := extended.OverallFor("Solar Array"); got != "custom" {
		t.Errorf("expected custom, got %q", got)
	}
	if got := extended.OverallFor("Construction"); got != "plansAndPermits" {
		t.Errorf("built-in entry must not be overridden, got %q", got)
	}
	if got := base.OverallFor("Solar Array"); got != constants.OtherCategory {
		t.Errorf("base catalog must be unchanged, got %q", got)
	}
}
