// Package proceeds implements the use-of-proceeds grid: capital sources as
// columns, spending categories as rows, a computed TOTAL row, loan columns
// whose payments follow the allocated principal, and an edit buffer that is
// reconciled into the canonical record list on save.
package proceeds

import (
	"context"
	"errors"
	"strings"

	"github.com/iwvelando/use-of-proceeds/pkg/constants"
)

var (
	// ErrNotEditing is returned for operations that require edit mode.
	ErrNotEditing = errors.New("grid is not in edit mode")
	// ErrTotalRowProtected is returned when a mutation targets the TOTAL row.
	ErrTotalRowProtected = errors.New("the TOTAL row cannot be edited or deleted")
	// ErrUnknownRow is returned when a row id does not exist.
	ErrUnknownRow = errors.New("unknown row")
	// ErrUnknownColumn is returned when a column id does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn is returned when a column name is already in use.
	ErrDuplicateColumn = errors.New("column name already exists")
	// ErrDuplicateRow is returned when a row name is already in use.
	ErrDuplicateRow = errors.New("row already exists")
	// ErrInvalidColumn is returned when a column spec fails validation.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrInvalidRow is returned when a row name is blank.
	ErrInvalidRow = errors.New("invalid row")
	// ErrNotLoan is returned when loan operations target a plain capital source.
	ErrNotLoan = errors.New("column is not a loan")
)

// SaveFunc persists the reconciled record list. It is called once per save.
type SaveFunc func(ctx context.Context, records []Record) error

// Column is a capital source in the financing stack.
type Column struct {
	ID                 string   `json:"column_id" yaml:"column_id"`
	Name               string   `json:"column_name" yaml:"column_name"`
	IsLoan             bool     `json:"is_loan" yaml:"is_loan"`
	LoanID             string   `json:"loan_id,omitempty" yaml:"loan_id,omitempty"`
	InterestRate       float64  `json:"interest_rate,omitempty" yaml:"interest_rate,omitempty"`
	TermYears          int      `json:"term_years,omitempty" yaml:"term_years,omitempty"`
	AmortizationMonths int      `json:"amortization_months,omitempty" yaml:"amortization_months,omitempty"`
	MonthlyPayment     *float64 `json:"monthly_payment,omitempty" yaml:"-"`
	AnnualPayment      *float64 `json:"annual_payment,omitempty" yaml:"-"`
}

// Row is a single use-of-proceeds line item.
type Row struct {
	ID              string `json:"row_id" yaml:"row_id"`
	Name            string `json:"row_name" yaml:"row_name"`
	OverallCategory string `json:"overall_category" yaml:"overall_category"`
}

// IsTotal reports whether the row is the computed TOTAL row.
func (r Row) IsTotal() bool {
	return r.Name == constants.TotalRowName
}

// Record is one entry of the flat input/output record list.
type Record struct {
	ID              string `json:"id,omitempty" yaml:"id,omitempty"`
	ProceedsID      string `json:"proceeds_id,omitempty" yaml:"proceeds_id,omitempty"`
	ProjectID       string `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	ColumnName      string `json:"column_name,omitempty" yaml:"column_name,omitempty"`
	RowName         string `json:"row_name" yaml:"row_name"`
	OverallCategory string `json:"overall_category,omitempty" yaml:"overall_category,omitempty"`
	Value           Amount `json:"value" yaml:"value"`
}

// ProjectLoan is a loan defined on the project, offered by the loan picker.
type ProjectLoan struct {
	LoanID      string   `json:"loan_id" yaml:"loan_id"`
	LoanType    string   `json:"loan_type" yaml:"loan_type"`
	Amount      float64  `json:"amount" yaml:"amount"`
	Rate        *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Term        *int     `json:"term,omitempty" yaml:"term,omitempty"` // years
	Payment     *float64 `json:"payment,omitempty" yaml:"payment,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string   `json:"status" yaml:"status"`
}

// LoanTerms are the user-editable terms of a loan column.
type LoanTerms struct {
	InterestRate       float64 `json:"interest_rate"`
	TermYears          int     `json:"term_years"`
	AmortizationMonths int     `json:"amortization_months"`
}

// ColumnSpec describes a column to add. When Loan is set the terms are copied
// from the project loan and AmortizationMonths, if positive, overrides the
// derived term_years*12.
type ColumnSpec struct {
	Name               string       `json:"column_name"`
	IsLoan             bool         `json:"is_loan"`
	Loan               *ProjectLoan `json:"loan,omitempty"`
	InterestRate       float64      `json:"interest_rate,omitempty"`
	TermYears          int          `json:"term_years,omitempty"`
	AmortizationMonths int          `json:"amortization_months,omitempty"`
}

// CellKey identifies a cell by row and column id.
type CellKey struct {
	RowID    string
	ColumnID string
}

// Table is a sparse grid of committed cell values. Missing cells are 0.
type Table map[CellKey]float64

// Get returns the value stored for key, or 0.
func (t Table) Get(key CellKey) float64 {
	return t[key]
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}
