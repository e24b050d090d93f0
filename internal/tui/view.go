package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iwvelando/use-of-proceeds/pkg/format"
)

var (
	colorAccent = lipgloss.Color("#3AA99F")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")
	colorGreen  = lipgloss.Color("#879A39")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	helpStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	statusStyle = lipgloss.NewStyle().Foreground(colorGreen)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	viewBadge   = lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted).Border(lipgloss.NormalBorder(), false, false, false, true)
	editBadge   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorOrange).Border(lipgloss.NormalBorder(), false, false, false, true)

	headerCell   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	textCell     = lipgloss.NewStyle().Padding(0, 1)
	numberCell   = textCell.Align(lipgloss.Right)
	totalCell    = numberCell.Bold(true)
	selectedCell = numberCell.Reverse(true)
)

// renderGrid draws the grid with the cursor cell highlighted. Loan columns
// show their monthly payment under the name.
func (a App) renderGrid() string {
	columns := a.grid.Columns()
	rows := a.grid.Rows()

	headers := []string{"Overall", "Use of Proceeds"}
	for _, c := range columns {
		header := c.Name
		if c.IsLoan && c.MonthlyPayment != nil {
			header = fmt.Sprintf("%s\n%s/mo", c.Name, format.Currency(*c.MonthlyPayment))
		}
		headers = append(headers, header)
	}
	headers = append(headers, "Total")

	data := make([][]string, 0, len(rows))
	totalRow := -1
	for i, r := range rows {
		line := []string{r.OverallCategory, r.Name}
		if r.IsTotal() {
			line[0] = ""
			totalRow = i
		}
		for _, c := range columns {
			line = append(line, format.Currency(a.grid.CellValue(r.ID, c.ID)))
		}
		line = append(line, format.Currency(a.grid.RowTotal(r.ID)))
		data = append(data, line)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case row == a.row && col == a.col+2:
				return selectedCell
			case row == totalRow && col >= 2:
				return totalCell
			case row == totalRow:
				return headerCell
			case col >= 2:
				return numberCell
			default:
				return textCell
			}
		})
	return t.String()
}
