// Package output renders a use-of-proceeds grid for the terminal or as CSV.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/format"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	totalStyle  = numberStyle.Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// PrettyFormat prints the grid and its loan summary as human-readable tables.
func PrettyFormat(snap proceeds.Snapshot) {
	fmt.Print(RenderPretty(snap))
}

// CsvFormat prints the grid in comma-separated value format.
func CsvFormat(snap proceeds.Snapshot) error {
	out, err := CsvString(snap)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// RenderPretty returns the grid and loan summary as bordered tables.
func RenderPretty(snap proceeds.Snapshot) string {
	var b strings.Builder

	title := "Use of Proceeds"
	if snap.ProjectID != "" {
		title += " - " + snap.ProjectID
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(RenderGrid(snap))
	b.WriteString("\n")

	if len(snap.Summary.Loans) > 0 {
		b.WriteString(titleStyle.Render("Loan Summary"))
		b.WriteString("\n")
		b.WriteString(RenderLoanSummary(snap.Summary))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderGrid renders the category rows, one column per capital source and a
// row total column. The TOTAL row is rendered bold.
func RenderGrid(snap proceeds.Snapshot) string {
	headers := []string{"Overall", "Use of Proceeds"}
	for _, c := range snap.Columns {
		headers = append(headers, columnHeader(c))
	}
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(snap.Rows))
	totalRow := -1
	for i, r := range snap.Rows {
		line := []string{r.OverallCategory, r.Name}
		if r.IsTotal() {
			line[0] = ""
			totalRow = i
		}
		for _, v := range r.Cells {
			line = append(line, format.Currency(v))
		}
		line = append(line, format.Currency(r.Total))
		rows = append(rows, line)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == totalRow && col >= 2:
				return totalStyle
			case row == totalRow:
				return headerStyle
			case col >= 2:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// RenderLoanSummary renders one line per loan column plus the financing totals.
func RenderLoanSummary(s proceeds.LoanSummary) string {
	rows := make([][]string, 0, len(s.Loans)+1)
	for _, l := range s.Loans {
		rows = append(rows, []string{
			l.ColumnName,
			format.Currency(l.Principal),
			format.Percent(l.InterestRate),
			strconv.Itoa(l.AmortizationMonths),
			format.Currency(l.MonthlyPayment),
			format.Currency(l.AnnualPayment),
			format.Percent(l.ShareOfProject),
		})
	}
	rows = append(rows, []string{
		"Total financed",
		format.Currency(s.TotalFinanced),
		"", "",
		format.Currency(s.TotalMonthlyPayment),
		format.Currency(s.TotalAnnualPayment),
		"",
	})
	last := len(rows) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("Loan", "Principal", "Rate", "Months", "Monthly", "Annual", "Share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == last && col > 0:
				return totalStyle
			case col > 0:
				return numberStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Project cost %s, other sources %s\n",
		format.Currency(s.TotalProjectCost), format.Currency(s.TotalOtherSources))
	return b.String()
}

// CsvString returns the grid as CSV: a header of overall category, row name,
// one column per capital source and the row total, then one line per row
// including TOTAL. Values are plain decimals with two places.
func CsvString(snap proceeds.Snapshot) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"overall_category", "row_name"}
	for _, c := range snap.Columns {
		header = append(header, c.Name)
	}
	header = append(header, "total")
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range snap.Rows {
		line := []string{r.OverallCategory, r.Name}
		if r.IsTotal() {
			line[0] = ""
		}
		for _, v := range r.Cells {
			line = append(line, strconv.FormatFloat(v, 'f', 2, 64))
		}
		line = append(line, strconv.FormatFloat(r.Total, 'f', 2, 64))
		if err := w.Write(line); err != nil {
			return "", fmt.Errorf("failed to write CSV row %s: %w", r.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.String(), nil
}

func columnHeader(c proceeds.Column) string {
	if !c.IsLoan || c.MonthlyPayment == nil {
		return c.Name
	}
	return fmt.Sprintf("%s (%s, %s/mo)", c.Name, format.Percent(c.InterestRate), format.Currency(*c.MonthlyPayment))
}
