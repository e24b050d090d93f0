// Package dialog holds the front-end independent state of the Add-Column and
// Add-Row dialogs. Both the terminal editor and the HTTP session drive these
// models and hand their results to the grid.
package dialog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	// ErrIncomplete is returned when a dialog is submitted before its required
	// fields are valid.
	ErrIncomplete = errors.New("dialog is incomplete")
	// ErrUnknownLoan is returned when selecting a loan id that is not offered.
	ErrUnknownLoan = errors.New("unknown project loan")
	// ErrInvalidMode is returned for a loan mode other than select or manual.
	ErrInvalidMode = errors.New("invalid loan mode")
)

// LoanMode chooses how loan terms are supplied.
type LoanMode string

const (
	// LoanModeSelect copies terms from an existing project loan.
	LoanModeSelect LoanMode = "select"
	// LoanModeManual takes terms typed by the user.
	LoanModeManual LoanMode = "manual"
)

// AddColumn is the Add-Column dialog. Numeric fields are kept as the raw
// strings the user typed so partial input survives until submit.
type AddColumn struct {
	name               string
	isLoan             bool
	mode               LoanMode
	interestRate       string
	termYears          string
	amortizationMonths string

	amortizationOverridden bool
	selected               *proceeds.ProjectLoan
	loans                  []proceeds.ProjectLoan
}

// NewAddColumn returns an empty dialog in manual mode.
func NewAddColumn() *AddColumn {
	return &AddColumn{mode: LoanModeManual}
}

// Name returns the column name as entered, or the locked loan type.
func (d *AddColumn) Name() string { return d.name }

// IsLoan reports whether the new column is a loan.
func (d *AddColumn) IsLoan() bool { return d.isLoan }

// Mode returns the current loan mode.
func (d *AddColumn) Mode() LoanMode { return d.mode }

// InterestRate returns the raw interest rate input.
func (d *AddColumn) InterestRate() string { return d.interestRate }

// TermYears returns the raw term input.
func (d *AddColumn) TermYears() string { return d.termYears }

// AmortizationMonths returns the raw amortization input.
func (d *AddColumn) AmortizationMonths() string { return d.amortizationMonths }

// Locked reports whether name and terms come from a selected project loan
// and are read-only.
func (d *AddColumn) Locked() bool {
	return d.isLoan && d.mode == LoanModeSelect && d.selected != nil
}

// SelectedLoan returns the selected project loan, if any.
func (d *AddColumn) SelectedLoan() (proceeds.ProjectLoan, bool) {
	if d.selected == nil {
		return proceeds.ProjectLoan{}, false
	}
	return *d.selected, true
}

// SetName sets the column name. Ignored while a selected loan locks it.
func (d *AddColumn) SetName(name string) {
	if d.Locked() {
		return
	}
	d.name = name
}

// SetLoan toggles whether the column is a loan. Turning it off releases any
// selected loan.
func (d *AddColumn) SetLoan(isLoan bool) {
	d.isLoan = isLoan
	if !isLoan {
		d.releaseLoan()
	}
}

// SetMode switches between selecting a project loan and manual entry.
// Leaving select mode releases the selected loan.
func (d *AddColumn) SetMode(mode LoanMode) error {
	switch mode {
	case LoanModeSelect, LoanModeManual:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if mode == LoanModeManual {
		d.releaseLoan()
	}
	d.mode = mode
	return nil
}

func (d *AddColumn) releaseLoan() {
	if d.selected == nil {
		return
	}
	d.selected = nil
	d.name = ""
	d.interestRate, d.termYears, d.amortizationMonths = "", "", ""
	d.amortizationOverridden = false
}

// SetProjectLoans replaces the loans offered by the picker. It may be called
// at any time, for example when the loan list arrives after the dialog
// opened; a loan that is already selected stays selected.
func (d *AddColumn) SetProjectLoans(loans []proceeds.ProjectLoan) {
	d.loans = append([]proceeds.ProjectLoan(nil), loans...)
}

// ProjectLoans returns the loans offered by the picker.
func (d *AddColumn) ProjectLoans() []proceeds.ProjectLoan {
	return append([]proceeds.ProjectLoan(nil), d.loans...)
}

// SelectLoan picks a project loan, locking the name to its loan type and
// filling the terms from it.
func (d *AddColumn) SelectLoan(loanID string) error {
	for _, loan := range d.loans {
		if loan.LoanID != loanID {
			continue
		}
		selected := loan
		d.selected = &selected
		d.isLoan = true
		d.mode = LoanModeSelect
		d.name = strings.TrimSpace(loan.LoanType)
		d.interestRate, d.termYears, d.amortizationMonths = "", "", ""
		d.amortizationOverridden = false
		if loan.Rate != nil {
			d.interestRate = decimal.NewFromFloat(*loan.Rate).String()
		}
		if loan.Term != nil {
			d.termYears = fmt.Sprint(*loan.Term)
			d.amortizationMonths = fmt.Sprint(*loan.Term * constants.MonthsPerYear)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownLoan, loanID)
}

// SetInterestRate sets the raw rate. Ignored while locked.
func (d *AddColumn) SetInterestRate(raw string) {
	if d.Locked() {
		return
	}
	d.interestRate = raw
}

// SetTermYears sets the raw term. Until amortization has been overridden it
// follows the term as years*12. Ignored while locked.
func (d *AddColumn) SetTermYears(raw string) {
	if d.Locked() {
		return
	}
	d.termYears = raw
	if d.amortizationOverridden {
		return
	}
	if years, ok := parsePositiveInt(raw); ok {
		d.amortizationMonths = fmt.Sprint(years * constants.MonthsPerYear)
	} else {
		d.amortizationMonths = ""
	}
}

// SetAmortizationMonths sets the raw amortization and stops it following the
// term. Clearing the field resumes derivation. Ignored while locked.
func (d *AddColumn) SetAmortizationMonths(raw string) {
	if d.Locked() {
		return
	}
	if strings.TrimSpace(raw) == "" {
		d.amortizationOverridden = false
		d.SetTermYears(d.termYears)
		return
	}
	d.amortizationOverridden = true
	d.amortizationMonths = raw
}

// ColumnInput is a complete set of Add-Column field values, as collected by
// a form that is filled in one go.
type ColumnInput struct {
	Name               string
	IsLoan             bool
	Mode               string
	LoanID             string
	InterestRate       string
	TermYears          string
	AmortizationMonths string
}

// Apply sets every field from in, in the order a user would fill them. An
// empty mode means select when a loan id is given and manual otherwise.
func (d *AddColumn) Apply(in ColumnInput) error {
	d.SetName(in.Name)
	d.SetLoan(in.IsLoan)
	if !in.IsLoan {
		return nil
	}

	mode := LoanMode(strings.ToLower(strings.TrimSpace(in.Mode)))
	if mode == "" {
		mode = LoanModeManual
		if strings.TrimSpace(in.LoanID) != "" {
			mode = LoanModeSelect
		}
	}
	if err := d.SetMode(mode); err != nil {
		return err
	}
	if mode == LoanModeSelect {
		return d.SelectLoan(strings.TrimSpace(in.LoanID))
	}

	d.SetInterestRate(in.InterestRate)
	d.SetTermYears(in.TermYears)
	if strings.TrimSpace(in.AmortizationMonths) != "" {
		d.SetAmortizationMonths(in.AmortizationMonths)
	}
	return nil
}

// Validate reports the first missing or invalid field for the current mode.
func (d *AddColumn) Validate() error {
	if strings.TrimSpace(d.name) == "" {
		return fmt.Errorf("%w: column name is required", ErrIncomplete)
	}
	if !d.isLoan {
		return nil
	}
	if d.mode == LoanModeSelect && d.selected == nil {
		return fmt.Errorf("%w: select a project loan", ErrIncomplete)
	}
	if _, ok := parsePositiveRate(d.interestRate); !ok {
		return fmt.Errorf("%w: interest rate must be greater than 0", ErrIncomplete)
	}
	if _, ok := parsePositiveInt(d.termYears); !ok {
		return fmt.Errorf("%w: term must be at least 1 year", ErrIncomplete)
	}
	if _, ok := parsePositiveInt(d.amortizationMonths); !ok {
		return fmt.Errorf("%w: amortization must be at least 1 month", ErrIncomplete)
	}
	return nil
}

// CanSubmit reports whether submit should be enabled.
func (d *AddColumn) CanSubmit() bool {
	return d.Validate() == nil
}

// Spec builds the column spec for the entered values.
func (d *AddColumn) Spec() (proceeds.ColumnSpec, error) {
	if err := d.Validate(); err != nil {
		return proceeds.ColumnSpec{}, err
	}
	spec := proceeds.ColumnSpec{
		Name:   strings.TrimSpace(d.name),
		IsLoan: d.isLoan,
	}
	if !d.isLoan {
		return spec, nil
	}
	spec.InterestRate, _ = parsePositiveRate(d.interestRate)
	spec.TermYears, _ = parsePositiveInt(d.termYears)
	spec.AmortizationMonths, _ = parsePositiveInt(d.amortizationMonths)
	if d.Locked() {
		loan := *d.selected
		spec.Loan = &loan
	}
	return spec, nil
}

// Submit hands the spec to add and resets the dialog once add succeeds. On
// failure the entered values are kept.
func (d *AddColumn) Submit(add func(proceeds.ColumnSpec) error) error {
	spec, err := d.Spec()
	if err != nil {
		return err
	}
	if err := add(spec); err != nil {
		return err
	}
	d.Cancel()
	return nil
}

// Cancel discards everything entered. The project loan list is kept.
func (d *AddColumn) Cancel() {
	loans := d.loans
	*d = AddColumn{mode: LoanModeManual, loans: loans}
}

func parsePositiveRate(raw string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%")))
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	rate, _ := d.Float64()
	return rate, true
}

func parsePositiveInt(raw string) (int, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsInteger() || d.LessThan(decimal.NewFromInt(1)) {
		return 0, false
	}
	return int(d.IntPart()), true
}
