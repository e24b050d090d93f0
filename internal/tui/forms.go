package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/iwvelando/use-of-proceeds/internal/dialog"
	"github.com/iwvelando/use-of-proceeds/pkg/format"
	"github.com/shopspring/decimal"
)

// columnValues backs the Add-Column form fields.
type columnValues struct {
	name   string
	isLoan bool
	mode   string
	loanID string
	rate   string
	years  string
	months string
}

func (v *columnValues) input() dialog.ColumnInput {
	in := dialog.ColumnInput{
		Name:               v.name,
		IsLoan:             v.isLoan,
		Mode:               v.mode,
		InterestRate:       v.rate,
		TermYears:          v.years,
		AmortizationMonths: v.months,
	}
	if v.mode == string(dialog.LoanModeSelect) {
		in.LoanID = v.loanID
	}
	return in
}

func (a App) openColumnForm() (tea.Model, tea.Cmd) {
	vals := &columnValues{mode: string(dialog.LoanModeManual)}
	loans := a.columnDialog.ProjectLoans()

	modeOptions := []huh.Option[string]{huh.NewOption("Enter terms manually", string(dialog.LoanModeManual))}
	if len(loans) > 0 {
		modeOptions = append(modeOptions, huh.NewOption("Use a project loan", string(dialog.LoanModeSelect)))
	}
	loanOptions := make([]huh.Option[string], 0, len(loans))
	for _, l := range loans {
		label := l.LoanType
		if l.Rate != nil && l.Term != nil {
			label = fmt.Sprintf("%s (%s, %d yrs, %s)", l.LoanType, format.Percent(*l.Rate), *l.Term, format.Currency(l.Amount))
		}
		loanOptions = append(loanOptions, huh.NewOption(label, l.LoanID))
	}

	selecting := func() bool { return vals.isLoan && vals.mode == string(dialog.LoanModeSelect) }

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Is this capital source a loan?").
				Value(&vals.isLoan),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Loan terms").
				Options(modeOptions...).
				Value(&vals.mode),
		).WithHideFunc(func() bool { return !vals.isLoan || len(loans) == 0 }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project loan").
				Options(loanOptions...).
				Value(&vals.loanID),
		).WithHideFunc(func() bool { return !selecting() }),
		huh.NewGroup(
			huh.NewInput().
				Title("Column name").
				Value(&vals.name).
				Validate(required("column name")),
		).WithHideFunc(selecting),
		huh.NewGroup(
			huh.NewInput().
				Title("Interest rate (%)").
				Placeholder("6.5").
				Value(&vals.rate).
				Validate(positiveNumber("interest rate", false)),
			huh.NewInput().
				Title("Term (years)").
				Placeholder("10").
				Value(&vals.years).
				Validate(positiveNumber("term", true)),
			huh.NewInput().
				Title("Amortization (months)").
				Description("Leave blank to use term x 12").
				Value(&vals.months).
				Validate(optional(positiveNumber("amortization", true))),
		).WithHideFunc(func() bool { return !vals.isLoan || selecting() }),
	).WithShowHelp(true)
	if a.width > 0 {
		a.form = a.form.WithWidth(a.width)
	}

	a.columnVals = vals
	a.mode = modeAddColumn
	return a, a.form.Init()
}

func (a App) openRowForm() (tea.Model, tea.Cmd) {
	a.rowDialog.Cancel()
	a.rowDialog.SetExisting(rowNames(a.grid.Rows()))

	choices := a.rowDialog.Choices()
	if len(choices) == 0 {
		a.setStatus("Every catalog category is already in the table")
		return a, nil
	}
	options := make([]huh.Option[string], 0, len(choices))
	for _, e := range choices {
		options = append(options, huh.NewOption(fmt.Sprintf("%s / %s", e.Overall, e.Category), e.Category))
	}

	selected := &[]string{}
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Add rows").
				Description("/ filters, space selects, enter adds").
				Options(options...).
				Filterable(true).
				Height(15).
				Value(selected),
		),
	).WithShowHelp(true)
	if a.width > 0 {
		a.form = a.form.WithWidth(a.width)
	}

	a.rowVals = selected
	a.mode = modeAddRow
	return a, a.form.Init()
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func positiveNumber(label string, integer bool) func(string) error {
	return func(s string) error {
		d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")))
		if err != nil || !d.IsPositive() {
			return fmt.Errorf("%s must be greater than 0", label)
		}
		if integer && !d.IsInteger() {
			return fmt.Errorf("%s must be a whole number", label)
		}
		return nil
	}
}

func optional(validate func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return validate(s)
	}
}
