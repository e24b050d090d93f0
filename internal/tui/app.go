// Package tui is the interactive terminal editor for a use-of-proceeds grid.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/use-of-proceeds/internal/dialog"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
	"github.com/iwvelando/use-of-proceeds/pkg/format"
	"go.uber.org/zap"
)

// LoanLoader fetches the project loans offered by the Add-Column dialog.
type LoanLoader func(ctx context.Context) ([]proceeds.ProjectLoan, error)

// Options configure the editor.
type Options struct {
	Logger *zap.Logger
	// LoadLoans runs once at startup; the loan list may arrive after the
	// grid is first drawn.
	LoadLoans LoanLoader
}

type mode int

const (
	modeGrid mode = iota
	modeCellInput
	modeAddColumn
	modeAddRow
)

// loansLoadedMsg delivers the result of the startup loan fetch.
type loansLoadedMsg struct {
	loans []proceeds.ProjectLoan
	err   error
}

// App is the bubbletea model. It owns the grid; all grid calls happen on the
// update loop.
type App struct {
	ctx    context.Context
	grid   *proceeds.Grid
	logger *zap.Logger
	load   LoanLoader

	mode      mode
	row, col  int
	input     textinput.Model
	status    string
	statusErr bool

	columnDialog *dialog.AddColumn
	rowDialog    *dialog.AddRow
	form         *huh.Form
	columnVals   *columnValues
	rowVals      *[]string

	width, height int
}

// NewApp returns an editor over grid.
func NewApp(ctx context.Context, grid *proceeds.Grid, opts Options) App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "0"
	ti.CharLimit = 32
	ti.Width = 18
	ti.Prompt = "$ "

	return App{
		ctx:          ctx,
		grid:         grid,
		logger:       opts.Logger,
		load:         opts.LoadLoans,
		input:        ti,
		columnDialog: dialog.NewAddColumn(),
		rowDialog:    dialog.NewAddRow(grid.Catalog(), rowNames(grid.Rows())),
	}
}

// Init starts the loan fetch when a loader is configured.
func (a App) Init() tea.Cmd {
	if a.load == nil {
		return nil
	}
	return loadLoansCmd(a.ctx, a.load)
}

func loadLoansCmd(ctx context.Context, load LoanLoader) tea.Cmd {
	return func() tea.Msg {
		loans, err := load(ctx)
		return loansLoadedMsg{loans: loans, err: err}
	}
}

// Update handles messages for the active mode.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(msg.Width)
		}
		return a, nil

	case loansLoadedMsg:
		if msg.err != nil {
			a.logger.Warn("failed to load project loans",
				zap.String("op", "tui.Update"),
				zap.Error(msg.err),
			)
			a.setError(fmt.Errorf("project loans unavailable: %w", msg.err))
			return a, nil
		}
		a.columnDialog.SetProjectLoans(msg.loans)
		a.setStatus(fmt.Sprintf("%d project loans available", len(msg.loans)))
		return a, nil
	}

	switch a.mode {
	case modeCellInput:
		return a.updateCellInput(msg)
	case modeAddColumn, modeAddRow:
		return a.updateForm(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return a.updateGrid(key)
	}
	return a, nil
}

func (a App) updateGrid(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows, cols := a.grid.Rows(), a.grid.Columns()

	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.row > 0 {
			a.row--
		}
	case "down", "j":
		if a.row < len(rows)-1 {
			a.row++
		}
	case "left", "h":
		if a.col > 0 {
			a.col--
		}
	case "right", "l":
		if a.col < len(cols)-1 {
			a.col++
		}
	case "e":
		a.grid.EnterEditMode()
		a.setStatus("Editing: enter edits a cell, s saves, esc cancels")
	case "esc":
		if a.grid.EditMode() {
			a.grid.CancelEdit()
			a.setStatus("Changes discarded")
		}
	case "s":
		if err := a.grid.Save(a.ctx); err != nil {
			a.setError(err)
		} else {
			a.setStatus("Saved")
		}
	case "enter":
		return a.startCellInput()
	case "c":
		return a.openColumnForm()
	case "r":
		return a.openRowForm()
	case "d":
		if row, ok := a.currentRow(); ok {
			if err := a.grid.DeleteRow(row.ID); err != nil {
				a.setError(err)
			} else {
				a.setStatus(fmt.Sprintf("Deleted row %s", row.Name))
			}
		}
	case "D":
		if column, ok := a.currentColumn(); ok {
			if err := a.grid.DeleteColumn(column.ID); err != nil {
				a.setError(err)
			} else {
				a.setStatus(fmt.Sprintf("Deleted column %s", column.Name))
			}
		}
	}
	a.clampCursor()
	return a, nil
}

func (a App) startCellInput() (tea.Model, tea.Cmd) {
	if !a.grid.EditMode() {
		a.setError(proceeds.ErrNotEditing)
		return a, nil
	}
	row, okRow := a.currentRow()
	column, okCol := a.currentColumn()
	if !okRow || !okCol {
		return a, nil
	}
	if row.IsTotal() {
		a.setError(proceeds.ErrTotalRowProtected)
		return a, nil
	}

	a.input.SetValue(format.NumericCurrency(a.grid.CellValue(row.ID, column.ID)))
	a.input.CursorEnd()
	a.mode = modeCellInput
	return a, a.input.Focus()
}

func (a App) updateCellInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			row, _ := a.currentRow()
			column, _ := a.currentColumn()
			if err := a.grid.SetCellValue(row.ID, column.ID, a.input.Value()); err != nil {
				a.setError(err)
			} else {
				a.setStatus(fmt.Sprintf("%s / %s = %s", row.Name, column.Name,
					format.Currency(a.grid.CellValue(row.ID, column.ID))))
			}
			a.input.Blur()
			a.mode = modeGrid
			return a, nil
		case "esc":
			a.input.Blur()
			a.mode = modeGrid
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.form == nil {
		a.mode = modeGrid
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		if a.mode == modeAddColumn {
			a.submitColumn(a.columnVals.input())
		} else {
			a.submitRows(*a.rowVals)
		}
		a.closeForm()
		return a, nil
	case huh.StateAborted:
		a.columnDialog.Cancel()
		a.rowDialog.Cancel()
		a.closeForm()
		a.setStatus("Cancelled")
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	a.form = nil
	a.columnVals = nil
	a.rowVals = nil
	a.mode = modeGrid
	a.clampCursor()
}

// submitColumn runs the collected values through the Add-Column dialog.
func (a *App) submitColumn(in dialog.ColumnInput) {
	a.columnDialog.Cancel()
	if err := a.columnDialog.Apply(in); err != nil {
		a.setError(err)
		return
	}
	var added proceeds.Column
	err := a.columnDialog.Submit(func(spec proceeds.ColumnSpec) error {
		column, err := a.grid.AddColumn(spec)
		added = column
		return err
	})
	if err != nil {
		a.setError(err)
		return
	}
	a.col = len(a.grid.Columns()) - 1
	a.setStatus(fmt.Sprintf("Added column %s", added.Name))
}

// submitRows adds the chosen catalog categories through the Add-Row dialog.
func (a *App) submitRows(categories []string) {
	a.rowDialog.SetExisting(rowNames(a.grid.Rows()))
	for _, category := range categories {
		if err := a.rowDialog.Toggle(category); err != nil {
			a.setError(err)
			a.rowDialog.Cancel()
			return
		}
	}
	count := len(a.rowDialog.Selected())
	err := a.rowDialog.Submit(
		func(overall, category string) error {
			_, err := a.grid.AddRow(overall, category)
			return err
		},
		func(entries []catalog.Entry) error {
			_, err := a.grid.AddRows(entries)
			return err
		},
	)
	if err != nil {
		if errors.Is(err, dialog.ErrIncomplete) {
			a.setStatus("No categories selected")
			return
		}
		a.setError(err)
		return
	}
	a.setStatus(fmt.Sprintf("Added %d row(s)", count))
}

func (a *App) setStatus(msg string) {
	a.status = msg
	a.statusErr = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.statusErr = true
}

func (a App) currentRow() (proceeds.Row, bool) {
	rows := a.grid.Rows()
	if a.row < 0 || a.row >= len(rows) {
		return proceeds.Row{}, false
	}
	return rows[a.row], true
}

func (a App) currentColumn() (proceeds.Column, bool) {
	columns := a.grid.Columns()
	if a.col < 0 || a.col >= len(columns) {
		return proceeds.Column{}, false
	}
	return columns[a.col], true
}

func (a *App) clampCursor() {
	if n := len(a.grid.Rows()); a.row >= n {
		a.row = n - 1
	}
	if n := len(a.grid.Columns()); a.col >= n {
		a.col = n - 1
	}
	if a.row < 0 {
		a.row = 0
	}
	if a.col < 0 {
		a.col = 0
	}
}

// View renders the active mode.
func (a App) View() string {
	switch a.mode {
	case modeAddColumn, modeAddRow:
		if a.form != nil {
			return a.form.View()
		}
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(a.renderGrid())
	b.WriteString("\n")
	if a.mode == modeCellInput {
		row, _ := a.currentRow()
		column, _ := a.currentColumn()
		b.WriteString(labelStyle.Render(fmt.Sprintf("%s / %s: ", row.Name, column.Name)))
		b.WriteString(a.input.View())
		b.WriteString("\n")
	}
	if a.status != "" {
		style := statusStyle
		if a.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(a.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(a.helpLine()))
	return b.String()
}

func (a App) renderHeader() string {
	title := "Use of Proceeds"
	if id := a.grid.ProjectID(); id != "" {
		title += " - " + id
	}
	state := viewBadge.Render("VIEW")
	if a.grid.EditMode() {
		state = editBadge.Render(fmt.Sprintf("EDIT (%d pending)", a.grid.PendingEdits()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render(title), " ", state)
}

func (a App) helpLine() string {
	if a.mode == modeCellInput {
		return "enter apply - esc abort"
	}
	if a.grid.EditMode() {
		return "arrows move - enter edit cell - s save - esc cancel - c column - r rows - d/D delete row/column - q quit"
	}
	return "arrows move - e edit - c column - r rows - q quit"
}

func rowNames(rows []proceeds.Row) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names
}
