package proceeds

import (
	"github.com/iwvelando/use-of-proceeds/pkg/mathutil"
)

// LoanLine summarizes one loan column.
type LoanLine struct {
	ColumnID           string  `json:"column_id"`
	ColumnName         string  `json:"column_name"`
	LoanID             string  `json:"loan_id,omitempty"`
	Principal          float64 `json:"principal"`
	InterestRate       float64 `json:"interest_rate"`
	TermYears          int     `json:"term_years"`
	AmortizationMonths int     `json:"amortization_months"`
	MonthlyPayment     float64 `json:"monthly_payment"`
	AnnualPayment      float64 `json:"annual_payment"`
	ShareOfProject     float64 `json:"share_of_project"` // percent
}

// LoanSummary aggregates the financing stack.
type LoanSummary struct {
	Loans               []LoanLine `json:"loans"`
	TotalProjectCost    float64    `json:"total_project_cost"`
	TotalFinanced       float64    `json:"total_financed"`
	TotalOtherSources   float64    `json:"total_other_sources"`
	TotalMonthlyPayment float64    `json:"total_monthly_payment"`
	TotalAnnualPayment  float64    `json:"total_annual_payment"`
}

// Summary builds the loan summary from the current displayed values.
func (g *Grid) Summary() LoanSummary {
	var s LoanSummary
	s.TotalProjectCost = g.GrandTotal()
	for _, column := range g.columns {
		principal := g.ColumnTotal(column.ID)
		if !column.IsLoan {
			s.TotalOtherSources += principal
			continue
		}
		line := LoanLine{
			ColumnID:           column.ID,
			ColumnName:         column.Name,
			LoanID:             column.LoanID,
			Principal:          principal,
			InterestRate:       column.InterestRate,
			TermYears:          column.TermYears,
			AmortizationMonths: column.AmortizationMonths,
			ShareOfProject:     mathutil.RoundCents(mathutil.CalculatePercentage(principal, s.TotalProjectCost)),
		}
		if column.MonthlyPayment != nil {
			line.MonthlyPayment = *column.MonthlyPayment
		}
		if column.AnnualPayment != nil {
			line.AnnualPayment = *column.AnnualPayment
		}
		s.Loans = append(s.Loans, line)
		s.TotalFinanced += principal
		s.TotalMonthlyPayment += line.MonthlyPayment
		s.TotalAnnualPayment += line.AnnualPayment
	}
	return s
}

// RowView is one rendered row of a Snapshot.
type RowView struct {
	Row
	// Cells holds the displayed value per column, aligned with Snapshot.Columns.
	Cells []float64 `json:"cells"`
	Total float64   `json:"total"`
}

// Snapshot is a serializable view of the grid as it is displayed.
type Snapshot struct {
	ProjectID    string      `json:"project_id,omitempty"`
	EditMode     bool        `json:"edit_mode"`
	PendingEdits int         `json:"pending_edits"`
	Columns      []Column    `json:"columns"`
	Rows         []RowView   `json:"rows"`
	ColumnTotals []float64   `json:"column_totals"`
	GrandTotal   float64     `json:"grand_total"`
	Summary      LoanSummary `json:"summary"`
}

// Snapshot captures the displayed state of the grid.
func (g *Grid) Snapshot() Snapshot {
	snap := Snapshot{
		ProjectID:    g.projectID,
		EditMode:     g.editMode,
		PendingEdits: len(g.edits),
		Columns:      g.Columns(),
		Rows:         make([]RowView, 0, len(g.rows)),
		ColumnTotals: make([]float64, len(g.columns)),
		GrandTotal:   g.GrandTotal(),
		Summary:      g.Summary(),
	}
	for i, column := range g.columns {
		snap.ColumnTotals[i] = g.ColumnTotal(column.ID)
	}
	for _, row := range g.rows {
		view := RowView{Row: row, Cells: make([]float64, len(g.columns))}
		for i, column := range g.columns {
			view.Cells[i] = g.CellValue(row.ID, column.ID)
		}
		view.Total = g.RowTotal(row.ID)
		snap.Rows = append(snap.Rows, view)
	}
	return snap
}
