package server

import (
	"context"
	"sync"

	"github.com/iwvelando/use-of-proceeds/internal/dialog"
	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
	"github.com/iwvelando/use-of-proceeds/pkg/validation"
	"go.uber.org/zap"
)

// Session is the single editing session served by the API. The grid has one
// writer, so every request takes the session lock.
type Session struct {
	mu     sync.Mutex
	grid   *proceeds.Grid
	loans  []proceeds.ProjectLoan
	logger *zap.Logger
}

// NewSession wraps grid with the project loans offered to the loan picker.
func NewSession(grid *proceeds.Grid, loans []proceeds.ProjectLoan, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{grid: grid, loans: append([]proceeds.ProjectLoan(nil), loans...), logger: logger}
}

// Snapshot returns the displayed grid state.
func (s *Session) Snapshot() proceeds.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Snapshot()
}

// ProjectLoans returns the loans offered to the loan picker.
func (s *Session) ProjectLoans() []proceeds.ProjectLoan {
	s.mu.Lock()
	defer s.mu.Unlock()
	loans := make([]proceeds.ProjectLoan, len(s.loans))
	copy(loans, s.loans)
	return loans
}

// SetProjectLoans replaces the loan picker list. Grid state, including any
// pending edits, is untouched. Warnings describe loans that cannot be used.
func (s *Session) SetProjectLoans(loans []proceeds.ProjectLoan) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans = append([]proceeds.ProjectLoan(nil), loans...)

	checks := make([]validation.LoanConfig, len(loans))
	for i, l := range loans {
		checks[i] = validation.LoanConfig{LoanID: l.LoanID, LoanType: l.LoanType, HasRate: l.Rate != nil, HasTerm: l.Term != nil}
	}
	warnings := validation.ValidateProjectLoans(checks)
	s.logger.Info("project loans replaced",
		zap.String("op", "server.SetProjectLoans"),
		zap.Int("loans", len(loans)),
		zap.Int("warnings", len(warnings)),
	)
	return warnings
}

// Do runs fn with exclusive access to the grid.
func (s *Session) Do(fn func(g *proceeds.Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.grid)
}

// Save commits the grid's edit buffer.
func (s *Session) Save(ctx context.Context) error {
	return s.Do(func(g *proceeds.Grid) error { return g.Save(ctx) })
}

// AddColumn runs in through the Add-Column dialog and adds the result.
func (s *Session) AddColumn(in dialog.ColumnInput) (proceeds.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := dialog.NewAddColumn()
	d.SetProjectLoans(s.loans)
	if err := d.Apply(in); err != nil {
		return proceeds.Column{}, err
	}

	var added proceeds.Column
	err := d.Submit(func(spec proceeds.ColumnSpec) error {
		column, err := s.grid.AddColumn(spec)
		added = column
		return err
	})
	return added, err
}

// AddRows adds catalog categories through the Add-Row dialog.
func (s *Session) AddRows(categories []string) ([]proceeds.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := dialog.NewAddRow(s.grid.Catalog(), rowNames(s.grid.Rows()))
	for _, category := range categories {
		if err := d.Toggle(category); err != nil {
			return nil, err
		}
	}

	var added []proceeds.Row
	err := d.Submit(
		func(overall, category string) error {
			row, err := s.grid.AddRow(overall, category)
			if err == nil {
				added = append(added, row)
			}
			return err
		},
		func(entries []catalog.Entry) error {
			rows, err := s.grid.AddRows(entries)
			added = rows
			return err
		},
	)
	return added, err
}

// CatalogGroups returns the catalog choices matching query that are not
// already rows of the grid.
func (s *Session) CatalogGroups(query string) []dialog.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := dialog.NewAddRow(s.grid.Catalog(), rowNames(s.grid.Rows()))
	d.SetQuery(query)
	return d.Groups()
}

func rowNames(rows []proceeds.Row) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names
}
