package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/shopspring/decimal"
)

var (
	recordHeader = []string{"id", "proceeds_id", "project_id", "column_name", "row_name", "overall_category", "value"}
	columnHeader = []string{"column_id", "column_name", "is_loan", "loan_id", "interest_rate", "term_years", "amortization_months"}
	rowHeader    = []string{"row_id", "row_name", "overall_category"}
	loanHeader   = []string{"loan_id", "loan_type", "amount", "rate", "term", "payment", "description", "status"}
)

// sheet is a header-indexed view over spreadsheet rows.
type sheet struct {
	index map[string]int
	rows  [][]string
}

// newSheet treats the first non-empty row as the header. Header names are
// matched case-insensitively with spaces folded to underscores.
func newSheet(rows [][]string) sheet {
	s := sheet{index: make(map[string]int)}
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		for j, name := range row {
			key := headerKey(name)
			if _, dup := s.index[key]; !dup && key != "" {
				s.index[key] = j
			}
		}
		s.rows = rows[i+1:]
		break
	}
	return s
}

func headerKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (s sheet) has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s sheet) get(row []string, name string) string {
	i, ok := s.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func recordsFromRows(rows [][]string) ([]proceeds.Record, error) {
	s := newSheet(rows)
	if !s.has("row_name") {
		return nil, fmt.Errorf("records sheet is missing the row_name column")
	}
	var records []proceeds.Record
	for _, row := range s.rows {
		if isBlank(row) {
			continue
		}
		records = append(records, proceeds.Record{
			ID:              s.get(row, "id"),
			ProceedsID:      s.get(row, "proceeds_id"),
			ProjectID:       s.get(row, "project_id"),
			ColumnName:      s.get(row, "column_name"),
			RowName:         s.get(row, "row_name"),
			OverallCategory: s.get(row, "overall_category"),
			Value:           proceeds.Amount(proceeds.ParseAmount(s.get(row, "value"))),
		})
	}
	return records, nil
}

func recordsToRows(records []proceeds.Record) [][]string {
	rows := [][]string{recordHeader}
	for _, r := range records {
		rows = append(rows, []string{
			r.ID, r.ProceedsID, r.ProjectID, r.ColumnName, r.RowName, r.OverallCategory,
			formatFloat(r.Value.Float64()),
		})
	}
	return rows
}

func columnsFromRows(rows [][]string) ([]proceeds.Column, error) {
	s := newSheet(rows)
	if !s.has("column_name") {
		return nil, fmt.Errorf("columns sheet is missing the column_name column")
	}
	var columns []proceeds.Column
	for i, row := range s.rows {
		if isBlank(row) {
			continue
		}
		isLoan, err := parseBool(s.get(row, "is_loan"))
		if err != nil {
			return nil, fmt.Errorf("columns row %d: %w", i+2, err)
		}
		column := proceeds.Column{
			ID:     s.get(row, "column_id"),
			Name:   s.get(row, "column_name"),
			IsLoan: isLoan,
			LoanID: s.get(row, "loan_id"),
		}
		if isLoan {
			if column.InterestRate, err = parseFloat(s.get(row, "interest_rate")); err != nil {
				return nil, fmt.Errorf("columns row %d interest_rate: %w", i+2, err)
			}
			if column.TermYears, err = parseInt(s.get(row, "term_years")); err != nil {
				return nil, fmt.Errorf("columns row %d term_years: %w", i+2, err)
			}
			if column.AmortizationMonths, err = parseInt(s.get(row, "amortization_months")); err != nil {
				return nil, fmt.Errorf("columns row %d amortization_months: %w", i+2, err)
			}
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func columnsToRows(columns []proceeds.Column) [][]string {
	rows := [][]string{columnHeader}
	for _, c := range columns {
		row := []string{c.ID, c.Name, strconv.FormatBool(c.IsLoan), c.LoanID, "", "", ""}
		if c.IsLoan {
			row[4] = formatFloat(c.InterestRate)
			row[5] = strconv.Itoa(c.TermYears)
			row[6] = strconv.Itoa(c.AmortizationMonths)
		}
		rows = append(rows, row)
	}
	return rows
}

func gridRowsFromRows(rows [][]string) ([]proceeds.Row, error) {
	s := newSheet(rows)
	if !s.has("row_name") {
		return nil, fmt.Errorf("rows sheet is missing the row_name column")
	}
	var out []proceeds.Row
	for _, row := range s.rows {
		if isBlank(row) {
			continue
		}
		out = append(out, proceeds.Row{
			ID:              s.get(row, "row_id"),
			Name:            s.get(row, "row_name"),
			OverallCategory: s.get(row, "overall_category"),
		})
	}
	return out, nil
}

func gridRowsToRows(gridRows []proceeds.Row) [][]string {
	rows := [][]string{rowHeader}
	for _, r := range gridRows {
		rows = append(rows, []string{r.ID, r.Name, r.OverallCategory})
	}
	return rows
}

func loansFromRows(rows [][]string) ([]proceeds.ProjectLoan, error) {
	s := newSheet(rows)
	if !s.has("loan_id") {
		return nil, fmt.Errorf("loans sheet is missing the loan_id column")
	}
	var loans []proceeds.ProjectLoan
	for i, row := range s.rows {
		if isBlank(row) {
			continue
		}
		loan := proceeds.ProjectLoan{
			LoanID:      s.get(row, "loan_id"),
			LoanType:    s.get(row, "loan_type"),
			Amount:      proceeds.ParseAmount(s.get(row, "amount")),
			Description: s.get(row, "description"),
			Status:      s.get(row, "status"),
		}
		if raw := s.get(row, "rate"); raw != "" {
			rate, err := parseFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("loans row %d rate: %w", i+2, err)
			}
			loan.Rate = &rate
		}
		if raw := s.get(row, "term"); raw != "" {
			term, err := parseInt(raw)
			if err != nil {
				return nil, fmt.Errorf("loans row %d term: %w", i+2, err)
			}
			loan.Term = &term
		}
		if raw := s.get(row, "payment"); raw != "" {
			payment := proceeds.ParseAmount(raw)
			loan.Payment = &payment
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func loansToRows(loans []proceeds.ProjectLoan) [][]string {
	rows := [][]string{loanHeader}
	for _, l := range loans {
		row := []string{l.LoanID, l.LoanType, formatFloat(l.Amount), "", "", "", l.Description, l.Status}
		if l.Rate != nil {
			row[3] = formatFloat(*l.Rate)
		}
		if l.Term != nil {
			row[4] = strconv.Itoa(*l.Term)
		}
		if l.Payment != nil {
			row[5] = formatFloat(*l.Payment)
		}
		rows = append(rows, row)
	}
	return rows
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	return int(d.IntPart()), nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}

func formatFloat(v float64) string {
	return decimal.NewFromFloat(v).String()
}
