package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iwvelando/use-of-proceeds/internal/dialog"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, save proceeds.SaveFunc) App {
	t.Helper()
	records := []proceeds.Record{
		{ColumnName: "Equity", RowName: "Land Purchase", Value: 50000},
		{ColumnName: "Bank Loan", RowName: "Construction", Value: 100000},
	}
	grid := proceeds.NewGrid(records, proceeds.Options{
		Logger: zap.NewNop(),
		Save:   save,
		Columns: []proceeds.Column{
			{Name: "Equity"},
			{Name: "Bank Loan", IsLoan: true, InterestRate: 6, TermYears: 10},
		},
	})
	return NewApp(context.Background(), grid, Options{Logger: zap.NewNop()})
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func TestCellEditing(t *testing.T) {
	saves := 0
	var saved []proceeds.Record
	a := newTestApp(t, func(_ context.Context, records []proceeds.Record) error {
		saves++
		saved = records
		return nil
	})

	a = press(t, a, "enter")
	if a.mode != modeGrid || !a.statusErr || !strings.Contains(a.status, "not in edit mode") {
		t.Fatalf("cell input must require edit mode, status %q", a.status)
	}

	a = press(t, a, "e", "enter")
	if a.mode != modeCellInput {
		t.Fatalf("expected cell input mode, got %v", a.mode)
	}
	if got := a.input.Value(); got != "50,000" {
		t.Errorf("input prefilled with %q, expected 50,000", got)
	}

	a.input.SetValue("$75,000")
	a = press(t, a, "enter")
	land, _ := a.grid.RowByName("Land Purchase")
	equity, _ := a.grid.ColumnByName("Equity")
	if got := a.grid.CellValue(land.ID, equity.ID); got != 75000 {
		t.Fatalf("cell = %v, expected 75000", got)
	}
	if a.mode != modeGrid || a.grid.PendingEdits() != 1 {
		t.Errorf("mode=%v pending=%d", a.mode, a.grid.PendingEdits())
	}
	if !strings.Contains(a.View(), "EDIT (1 pending)") {
		t.Error("header should show pending edit count")
	}

	// esc in the input aborts without touching the grid
	a = press(t, a, "enter")
	a.input.SetValue("1")
	a = press(t, a, "esc")
	if got := a.grid.CellValue(land.ID, equity.ID); got != 75000 || a.mode != modeGrid {
		t.Errorf("abort changed the cell to %v", got)
	}

	a = press(t, a, "s")
	if saves != 1 || a.grid.EditMode() || a.statusErr {
		t.Fatalf("save failed: saves=%d edit=%v status=%q", saves, a.grid.EditMode(), a.status)
	}
	if len(saved) != 2 {
		t.Errorf("saved %d records, expected 2", len(saved))
	}
}

func TestTotalRowIsReadOnly(t *testing.T) {
	a := newTestApp(t, nil)
	a = press(t, a, "e", "down", "down", "down", "enter")

	row, _ := a.currentRow()
	if !row.IsTotal() {
		t.Fatalf("cursor should stop on TOTAL, got %s", row.Name)
	}
	if a.mode != modeGrid || !strings.Contains(a.status, "TOTAL") {
		t.Errorf("TOTAL must not be editable: mode=%v status=%q", a.mode, a.status)
	}

	a = press(t, a, "d")
	if _, ok := a.grid.RowByName(constants.TotalRowName); !ok || !a.statusErr {
		t.Error("TOTAL row must not be deletable")
	}
}

func TestCancelDiscardsEdits(t *testing.T) {
	a := newTestApp(t, nil)
	a = press(t, a, "e", "enter")
	a.input.SetValue("1")
	a = press(t, a, "enter", "esc")

	if a.grid.EditMode() || a.grid.PendingEdits() != 0 {
		t.Fatal("esc in edit mode should cancel the edit")
	}
	if a.grid.GrandTotal() != 150000 {
		t.Errorf("grand total = %v, expected 150000", a.grid.GrandTotal())
	}
}

func TestSaveFailureStaysEditing(t *testing.T) {
	a := newTestApp(t, func(context.Context, []proceeds.Record) error { return errors.New("disk full") })
	a = press(t, a, "e", "s")
	if !a.grid.EditMode() || !a.statusErr || !strings.Contains(a.status, "disk full") {
		t.Errorf("failed save should keep edit mode and report, status %q", a.status)
	}
}

func TestDeleteRowAndColumn(t *testing.T) {
	a := newTestApp(t, nil)

	a = press(t, a, "d")
	if len(a.grid.Rows()) != 3 || !a.statusErr {
		t.Fatal("deleting outside edit mode must fail")
	}

	a = press(t, a, "e", "right", "D")
	if _, ok := a.grid.ColumnByName("Bank Loan"); ok {
		t.Fatal("Bank Loan column should be deleted")
	}
	if a.col != 0 {
		t.Errorf("cursor column = %d, expected clamp to 0", a.col)
	}

	a = press(t, a, "d")
	if _, ok := a.grid.RowByName("Land Purchase"); ok {
		t.Error("Land Purchase row should be deleted")
	}
}

func TestLoansArriveAfterStart(t *testing.T) {
	rate, term := 5.5, 20
	loans := []proceeds.ProjectLoan{{LoanID: "L1", LoanType: "SBA 504", Amount: 400000, Rate: &rate, Term: &term}}

	grid := proceeds.NewGrid(nil, proceeds.Options{Logger: zap.NewNop()})
	a := NewApp(context.Background(), grid, Options{
		LoadLoans: func(context.Context) ([]proceeds.ProjectLoan, error) { return loans, nil },
	})

	cmd := a.Init()
	if cmd == nil {
		t.Fatal("expected a loan loading command")
	}
	m, _ := a.Update(cmd())
	a = m.(App)
	if got := a.columnDialog.ProjectLoans(); len(got) != 1 || got[0].LoanID != "L1" {
		t.Fatalf("project loans not delivered: %+v", got)
	}

	failing := NewApp(context.Background(), grid, Options{
		LoadLoans: func(context.Context) ([]proceeds.ProjectLoan, error) { return nil, errors.New("timeout") },
	})
	m, _ = failing.Update(failing.Init()())
	if got := m.(App); !got.statusErr || !strings.Contains(got.status, "timeout") {
		t.Errorf("loan failure should be reported, status %q", got.status)
	}

	if NewApp(context.Background(), grid, Options{}).Init() != nil {
		t.Error("no loader means no startup command")
	}
}

func TestSubmitColumn(t *testing.T) {
	a := newTestApp(t, nil)
	rate, term := 5.5, 20
	a.columnDialog.SetProjectLoans([]proceeds.ProjectLoan{{LoanID: "L1", LoanType: "SBA 504", Rate: &rate, Term: &term}})

	a.submitColumn(dialog.ColumnInput{Name: "Grant"})
	if _, ok := a.grid.ColumnByName("Grant"); !ok || a.statusErr {
		t.Fatalf("plain column not added: %q", a.status)
	}
	if a.col != 2 {
		t.Errorf("cursor should move to the new column, got %d", a.col)
	}

	vals := &columnValues{isLoan: true, mode: string(dialog.LoanModeSelect), loanID: "L1", name: "ignored"}
	a.submitColumn(vals.input())
	column, ok := a.grid.ColumnByName("SBA 504")
	if !ok || column.LoanID != "L1" || column.AmortizationMonths != 240 {
		t.Fatalf("selected loan column not added: %+v (%q)", column, a.status)
	}

	a.submitColumn(dialog.ColumnInput{Name: "Equity"})
	if !a.statusErr || !strings.Contains(a.status, "already exists") {
		t.Errorf("duplicate column should be reported, status %q", a.status)
	}

	a.submitColumn(dialog.ColumnInput{Name: "Note", IsLoan: true, InterestRate: "0", TermYears: "5"})
	if !a.statusErr {
		t.Error("invalid loan terms should be reported")
	}
}

func TestSubmitRows(t *testing.T) {
	a := newTestApp(t, nil)

	a.submitRows([]string{"Vehicles", "Appraisal"})
	var names []string
	for _, r := range a.grid.Rows() {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "Land Purchase,Construction,Vehicles,Appraisal,TOTAL" {
		t.Fatalf("rows = %v", names)
	}
	if a.status != "Added 2 row(s)" {
		t.Errorf("status = %q", a.status)
	}

	a.submitRows([]string{"Marketing"})
	if _, ok := a.grid.RowByName("Marketing"); !ok {
		t.Error("single row not added")
	}

	a.submitRows([]string{"Vehicles"})
	if !a.statusErr {
		t.Error("existing category should be reported")
	}

	a.submitRows(nil)
	if a.statusErr || a.status != "No categories selected" {
		t.Errorf("empty selection status %q", a.status)
	}
}

func TestOpenForms(t *testing.T) {
	a := newTestApp(t, nil)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	opened := m.(App)
	if opened.mode != modeAddColumn || opened.form == nil || opened.columnVals == nil {
		t.Fatal("c should open the Add-Column form")
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	opened = m.(App)
	if opened.mode != modeAddRow || opened.form == nil || opened.rowVals == nil {
		t.Fatal("r should open the Add-Row form")
	}

	opened.closeForm()
	if opened.mode != modeGrid || opened.form != nil {
		t.Error("closeForm should return to the grid")
	}
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, nil)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewRendersGrid(t *testing.T) {
	a := newTestApp(t, nil)
	view := a.View()
	for _, want := range []string{"Use of Proceeds", "VIEW", "Land Purchase", "TOTAL", "$150,000", "$1,110/mo"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q\n%s", want, view)
		}
	}
}
