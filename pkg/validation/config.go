package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
)

var supportedExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
	".xlsx": true,
	".csv":  true,
}

// ValidateFileExtension warns when a data file cannot be read or written.
func ValidateFileExtension(label, path string) string {
	if path == "" {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return fmt.Sprintf("%s '%s' has unsupported extension %q (expected .yaml, .yml, .json, .xlsx or .csv)", label, path, ext)
	}
	return ""
}

// ConfigValidator performs configuration validation that only warns
type ConfigValidator struct {
	DataFile     string
	LoansFile    string
	Defaults     *catalog.Catalog
	CatalogExtra []CatalogEntryConfig
}

// CatalogEntryConfig is one configured catalog extension.
type CatalogEntryConfig struct {
	Overall  string
	Category string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if cv.DataFile == "" {
		warnings = append(warnings, "No data file configured; the table starts empty and saves are not persisted")
	} else if w := ValidateFileExtension("Data file", cv.DataFile); w != "" {
		warnings = append(warnings, w)
	}
	if w := ValidateFileExtension("Loans file", cv.LoansFile); w != "" {
		warnings = append(warnings, w)
	}

	seen := make(map[string]bool)
	for i, e := range cv.CatalogExtra {
		overall := strings.TrimSpace(e.Overall)
		category := strings.TrimSpace(e.Category)
		if overall == "" || category == "" {
			warnings = append(warnings, fmt.Sprintf("Catalog entry %d is missing overall or category and is ignored", i+1))
			continue
		}
		if seen[category] {
			warnings = append(warnings, fmt.Sprintf("Catalog entry '%s' is listed more than once; the first one wins", category))
			continue
		}
		seen[category] = true
		if cv.Defaults == nil {
			continue
		}
		if existing, ok := cv.Defaults.Lookup(category); ok && existing.Category == category && existing.Overall != overall {
			warnings = append(warnings, fmt.Sprintf("Catalog entry '%s' is built in under '%s'; configured overall '%s' is ignored",
				category, existing.Overall, overall))
		}
	}

	return warnings
}

// LoanConfig is the part of a project loan the loan picker depends on.
type LoanConfig struct {
	LoanID   string
	LoanType string
	HasRate  bool
	HasTerm  bool
}

// ValidateProjectLoans warns about loans the Add-Column picker cannot use.
func ValidateProjectLoans(loans []LoanConfig) []string {
	var warnings []string
	seen := make(map[string]bool)
	for _, loan := range loans {
		if loan.LoanID == "" {
			warnings = append(warnings, fmt.Sprintf("Project loan '%s' has no loan_id", loan.LoanType))
			continue
		}
		if seen[loan.LoanID] {
			warnings = append(warnings, fmt.Sprintf("Project loan id '%s' is duplicated; only the first can be selected", loan.LoanID))
			continue
		}
		seen[loan.LoanID] = true
		if strings.TrimSpace(loan.LoanType) == "" {
			warnings = append(warnings, fmt.Sprintf("Project loan '%s' has no loan_type to name its column", loan.LoanID))
		}
		if !loan.HasRate || !loan.HasTerm {
			warnings = append(warnings, fmt.Sprintf("Project loan '%s' is missing a rate or term and cannot fill loan terms", loan.LoanID))
		}
	}
	return warnings
}
