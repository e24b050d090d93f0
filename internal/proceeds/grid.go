package proceeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/loans"
	"github.com/iwvelando/use-of-proceeds/pkg/mathutil"
	"go.uber.org/zap"
)

// Options configure a new Grid.
type Options struct {
	Logger     *zap.Logger
	Catalog    *catalog.Catalog
	Save       SaveFunc
	ProjectID  string
	ProceedsID string
	// Columns is the saved column layout including loan terms. Columns named
	// by records but missing here are appended as plain capital sources.
	Columns []Column
	// Rows, when non-nil, is used as the row list as given. Otherwise rows are
	// derived from the records and a TOTAL row is appended.
	Rows []Row
	// NewID generates column, row and record ids; uuid.NewString when nil.
	NewID func() string
}

// Grid owns the state of one use-of-proceeds editing session. It is not safe
// for concurrent use; callers serialize access.
type Grid struct {
	logger  *zap.Logger
	catalog *catalog.Catalog
	save    SaveFunc
	newID   func() string

	projectID  string
	proceedsID string
	columns    []Column
	rows       []Row
	records    []Record
	table      Table
	edits      map[CellKey]float64
	editMode   bool
}

// NewGrid populates a grid from the canonical record list.
func NewGrid(records []Record, opts Options) *Grid {
	g := &Grid{
		logger:     opts.Logger,
		catalog:    opts.Catalog,
		save:       opts.Save,
		newID:      opts.NewID,
		projectID:  opts.ProjectID,
		proceedsID: opts.ProceedsID,
		records:    append([]Record(nil), records...),
		edits:      make(map[CellKey]float64),
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.catalog == nil {
		g.catalog = catalog.Default()
	}
	if g.newID == nil {
		g.newID = uuid.NewString
	}

	g.columns = g.initialColumns(opts.Columns, records)
	g.assignBlankColumns()
	g.rows = g.initialRows(opts.Rows, records)
	g.normalize()
	g.Recompute()

	g.logger.Debug("grid populated",
		zap.String("op", "proceeds.NewGrid"),
		zap.Int("records", len(records)),
		zap.Int("rows", len(g.rows)),
		zap.Int("columns", len(g.columns)),
	)
	return g
}

// assignBlankColumns writes the first column's name into records that carry
// none, so their values stay with that column when the column list changes.
func (g *Grid) assignBlankColumns() {
	if len(g.columns) == 0 {
		return
	}
	for i := range g.records {
		if normalizeName(g.records[i].ColumnName) == "" {
			g.records[i].ColumnName = g.columns[0].Name
		}
	}
}

// dropRecords removes every committed record for which match reports true and
// rebuilds the table when anything was removed.
func (g *Grid) dropRecords(match func(Record) bool) int {
	kept := make([]Record, 0, len(g.records))
	for _, record := range g.records {
		if !match(record) {
			kept = append(kept, record)
		}
	}
	dropped := len(g.records) - len(kept)
	if dropped > 0 {
		g.records = kept
		g.normalize()
	}
	return dropped
}

func (g *Grid) dropRowRecords(name string) int {
	return g.dropRecords(func(r Record) bool { return normalizeName(r.RowName) == name })
}

func (g *Grid) dropColumnRecords(name string) int {
	return g.dropRecords(func(r Record) bool { return normalizeName(r.ColumnName) == name })
}

func (g *Grid) initialColumns(layout []Column, records []Record) []Column {
	var columns []Column
	seen := make(map[string]struct{})
	add := func(c Column) {
		c.Name = normalizeName(c.Name)
		if c.Name == "" {
			return
		}
		if _, dup := seen[c.Name]; dup {
			return
		}
		seen[c.Name] = struct{}{}
		if c.ID == "" {
			c.ID = g.newID()
		}
		if !c.IsLoan {
			c.LoanID, c.InterestRate, c.TermYears, c.AmortizationMonths = "", 0, 0, 0
		} else if c.AmortizationMonths <= 0 && c.TermYears > 0 {
			c.AmortizationMonths = c.TermYears * constants.MonthsPerYear
		}
		columns = append(columns, c)
	}

	for _, c := range layout {
		add(c)
	}
	if len(columns) == 0 {
		for _, r := range records {
			if normalizeName(r.ColumnName) == "" {
				add(Column{Name: constants.DefaultColumnName})
				break
			}
		}
	}
	for _, r := range records {
		add(Column{Name: r.ColumnName})
	}
	if len(columns) == 0 {
		add(Column{Name: constants.DefaultColumnName})
	}
	return columns
}

func (g *Grid) initialRows(layout []Row, records []Record) []Row {
	var rows []Row
	seen := make(map[string]struct{})
	add := func(r Row) {
		r.Name = normalizeName(r.Name)
		if r.Name == "" {
			return
		}
		if _, dup := seen[r.Name]; dup {
			return
		}
		seen[r.Name] = struct{}{}
		if r.ID == "" {
			r.ID = g.newID()
		}
		rows = append(rows, r)
	}

	if layout != nil {
		for _, r := range layout {
			add(r)
		}
		return rows
	}

	for _, r := range records {
		if normalizeName(r.RowName) == constants.TotalRowName {
			continue
		}
		add(Row{Name: r.RowName})
	}
	add(Row{Name: constants.TotalRowName})
	return rows
}

// normalize rebuilds the committed table from the record list and stamps
// each row with its resolved overall category.
func (g *Grid) normalize() {
	n := Normalize(g.records, g.rows, g.columns, g.catalog)
	g.table = n.Table
	for i := range g.rows {
		g.rows[i].OverallCategory = n.Overall[g.rows[i].ID]
	}
}

// ProjectID returns the project the grid belongs to.
func (g *Grid) ProjectID() string {
	return g.projectID
}

// Catalog returns the category catalog used for row resolution.
func (g *Grid) Catalog() *catalog.Catalog {
	return g.catalog
}

// EditMode reports whether the grid is in the Editing state.
func (g *Grid) EditMode() bool {
	return g.editMode
}

// Columns returns a copy of the column list.
func (g *Grid) Columns() []Column {
	out := make([]Column, len(g.columns))
	for i, c := range g.columns {
		out[i] = copyColumn(c)
	}
	return out
}

// Rows returns a copy of the row list.
func (g *Grid) Rows() []Row {
	return append([]Row(nil), g.rows...)
}

// Records returns a copy of the canonical record list.
func (g *Grid) Records() []Record {
	return append([]Record(nil), g.records...)
}

// PendingEdits returns the number of uncommitted cell edits.
func (g *Grid) PendingEdits() int {
	return len(g.edits)
}

// Column looks up a column by id.
func (g *Grid) Column(columnID string) (Column, bool) {
	if i := g.columnIndex(columnID); i >= 0 {
		return copyColumn(g.columns[i]), true
	}
	return Column{}, false
}

// Row looks up a row by id.
func (g *Grid) Row(rowID string) (Row, bool) {
	if i := g.rowIndex(rowID); i >= 0 {
		return g.rows[i], true
	}
	return Row{}, false
}

// ColumnByName looks up a column by display name.
func (g *Grid) ColumnByName(name string) (Column, bool) {
	name = normalizeName(name)
	for _, c := range g.columns {
		if c.Name == name {
			return copyColumn(c), true
		}
	}
	return Column{}, false
}

// RowByName looks up a row by name.
func (g *Grid) RowByName(name string) (Row, bool) {
	name = normalizeName(name)
	for _, r := range g.rows {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}

func (g *Grid) columnIndex(columnID string) int {
	for i, c := range g.columns {
		if c.ID == columnID {
			return i
		}
	}
	return -1
}

func (g *Grid) rowIndex(rowID string) int {
	for i, r := range g.rows {
		if r.ID == rowID {
			return i
		}
	}
	return -1
}

func (g *Grid) totalRowIndex() int {
	for i, r := range g.rows {
		if r.IsTotal() {
			return i
		}
	}
	return -1
}

// CellValue returns the displayed value of a cell: the buffered edit while
// editing, else the committed value, else 0. Cells of the TOTAL row are the
// live column totals.
func (g *Grid) CellValue(rowID, columnID string) float64 {
	if i := g.rowIndex(rowID); i >= 0 && g.rows[i].IsTotal() {
		return g.ColumnTotal(columnID)
	}
	return g.cellValue(CellKey{RowID: rowID, ColumnID: columnID})
}

func (g *Grid) cellValue(key CellKey) float64 {
	if g.editMode {
		if v, ok := g.edits[key]; ok {
			return v
		}
	}
	return g.table.Get(key)
}

// ColumnTotal sums the displayed values of a column over every non-TOTAL row,
// so uncommitted edits are reflected while editing.
func (g *Grid) ColumnTotal(columnID string) float64 {
	total := 0.0
	for _, row := range g.rows {
		if row.IsTotal() {
			continue
		}
		total += g.cellValue(CellKey{RowID: row.ID, ColumnID: columnID})
	}
	return total
}

// RowTotal sums the displayed values of a row across all columns. For the
// TOTAL row this is the grand total.
func (g *Grid) RowTotal(rowID string) float64 {
	total := 0.0
	for _, column := range g.columns {
		total += g.CellValue(rowID, column.ID)
	}
	return total
}

// GrandTotal is the total of all column totals.
func (g *Grid) GrandTotal() float64 {
	total := 0.0
	for _, column := range g.columns {
		total += g.ColumnTotal(column.ID)
	}
	return total
}

// Recompute refreshes every loan column's monthly and annual payment from the
// column total and its terms. Plain capital sources carry no payment. The
// pass is idempotent.
func (g *Grid) Recompute() {
	for i := range g.columns {
		column := &g.columns[i]
		if !column.IsLoan {
			column.MonthlyPayment = nil
			column.AnnualPayment = nil
			continue
		}
		payment := loans.CalculateLoanPayment(g.ColumnTotal(column.ID), column.InterestRate, column.AmortizationMonths)
		monthly, annual := payment.MonthlyPayment, payment.AnnualPayment
		column.MonthlyPayment = &monthly
		column.AnnualPayment = &annual
	}
}

// SetCellValue parses raw and buffers it for the cell. Empty or non-numeric
// input becomes 0. Only allowed while editing, and never on the TOTAL row.
func (g *Grid) SetCellValue(rowID, columnID, raw string) error {
	if !g.editMode {
		return ErrNotEditing
	}
	ri := g.rowIndex(rowID)
	if ri < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if g.rows[ri].IsTotal() {
		return ErrTotalRowProtected
	}
	if g.columnIndex(columnID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}

	g.edits[CellKey{RowID: rowID, ColumnID: columnID}] = ParseAmount(raw)
	g.Recompute()
	return nil
}

// AddColumn validates spec and appends a new column with a fresh id.
func (g *Grid) AddColumn(spec ColumnSpec) (Column, error) {
	column, err := columnFromSpec(spec)
	if err != nil {
		return Column{}, err
	}
	if _, exists := g.ColumnByName(column.Name); exists {
		return Column{}, fmt.Errorf("%w: %s", ErrDuplicateColumn, column.Name)
	}
	column.ID = g.newID()
	g.columns = append(g.columns, column)
	stale := g.dropColumnRecords(column.Name)
	g.Recompute()

	g.logger.Info("column added",
		zap.String("op", "proceeds.AddColumn"),
		zap.String("column", column.Name),
		zap.Bool("loan", column.IsLoan),
		zap.Int("stale_records", stale),
	)
	return copyColumn(g.columns[len(g.columns)-1]), nil
}

func columnFromSpec(spec ColumnSpec) (Column, error) {
	column := Column{
		Name:   normalizeName(spec.Name),
		IsLoan: spec.IsLoan || spec.Loan != nil,
	}

	if column.IsLoan {
		terms := LoanTerms{
			InterestRate:       spec.InterestRate,
			TermYears:          spec.TermYears,
			AmortizationMonths: spec.AmortizationMonths,
		}
		if loan := spec.Loan; loan != nil {
			if column.Name == "" {
				column.Name = normalizeName(loan.LoanType)
			}
			column.LoanID = loan.LoanID
			terms.InterestRate, terms.TermYears = 0, 0
			if loan.Rate != nil {
				terms.InterestRate = *loan.Rate
			}
			if loan.Term != nil {
				terms.TermYears = *loan.Term
			}
		}
		if terms.AmortizationMonths <= 0 {
			terms.AmortizationMonths = terms.TermYears * constants.MonthsPerYear
		}
		if err := terms.Validate(); err != nil {
			return Column{}, err
		}
		column.InterestRate = terms.InterestRate
		column.TermYears = terms.TermYears
		column.AmortizationMonths = terms.AmortizationMonths
	}

	if column.Name == "" {
		return Column{}, fmt.Errorf("%w: column name is required", ErrInvalidColumn)
	}
	return column, nil
}

// Validate checks that loan terms can produce a payment.
func (t LoanTerms) Validate() error {
	if !mathutil.IsFinite(t.InterestRate) || t.InterestRate <= 0 {
		return fmt.Errorf("%w: interest rate must be greater than 0", ErrInvalidColumn)
	}
	if t.TermYears < 1 {
		return fmt.Errorf("%w: term must be at least 1 year", ErrInvalidColumn)
	}
	if t.AmortizationMonths < 1 {
		return fmt.Errorf("%w: amortization must be at least 1 month", ErrInvalidColumn)
	}
	return nil
}

// UpdateLoanTerms replaces the terms of a loan column and recomputes its payment.
func (g *Grid) UpdateLoanTerms(columnID string, terms LoanTerms) (Column, error) {
	i := g.columnIndex(columnID)
	if i < 0 {
		return Column{}, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if !g.columns[i].IsLoan {
		return Column{}, fmt.Errorf("%w: %s", ErrNotLoan, g.columns[i].Name)
	}
	if terms.AmortizationMonths <= 0 {
		terms.AmortizationMonths = terms.TermYears * constants.MonthsPerYear
	}
	if err := terms.Validate(); err != nil {
		return Column{}, err
	}
	g.columns[i].InterestRate = terms.InterestRate
	g.columns[i].TermYears = terms.TermYears
	g.columns[i].AmortizationMonths = terms.AmortizationMonths
	g.Recompute()
	return copyColumn(g.columns[i]), nil
}

// DeleteColumn removes a column together with its committed records. Its
// allocated values are not redistributed; they simply stop counting toward
// totals.
func (g *Grid) DeleteColumn(columnID string) error {
	if !g.editMode {
		return ErrNotEditing
	}
	i := g.columnIndex(columnID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	name := g.columns[i].Name
	g.columns = append(g.columns[:i], g.columns[i+1:]...)
	for key := range g.edits {
		if key.ColumnID == columnID {
			delete(g.edits, key)
		}
	}
	dropped := g.dropColumnRecords(name)
	g.Recompute()

	g.logger.Info("column deleted",
		zap.String("op", "proceeds.DeleteColumn"),
		zap.String("column", name),
		zap.Int("records", dropped),
	)
	return nil
}

// AddRow inserts a single row immediately before TOTAL, or at the end when
// there is no TOTAL row. A blank overall category is resolved via the catalog.
func (g *Grid) AddRow(overall, name string) (Row, error) {
	row, err := g.newRow(overall, name)
	if err != nil {
		return Row{}, err
	}
	g.insertRows([]Row{row})
	g.Recompute()

	g.logger.Info("row added",
		zap.String("op", "proceeds.AddRow"),
		zap.String("row", row.Name),
		zap.String("overall", row.OverallCategory),
	)
	return row, nil
}

// AddRows inserts several catalog entries before TOTAL in the given order.
// Entries that are blank, duplicate an existing row or name TOTAL are skipped.
func (g *Grid) AddRows(entries []catalog.Entry) ([]Row, error) {
	var added []Row
	for _, entry := range entries {
		row, err := g.newRow(entry.Overall, entry.Category)
		if err != nil {
			g.logger.Debug("skipping row",
				zap.String("op", "proceeds.AddRows"),
				zap.String("row", entry.Category),
				zap.Error(err),
			)
			continue
		}
		g.insertRows([]Row{row})
		added = append(added, row)
	}
	if len(added) == 0 && len(entries) > 0 {
		return nil, fmt.Errorf("%w: no new rows in selection", ErrDuplicateRow)
	}
	g.Recompute()

	g.logger.Info("rows added",
		zap.String("op", "proceeds.AddRows"),
		zap.Int("count", len(added)),
	)
	return added, nil
}

func (g *Grid) newRow(overall, name string) (Row, error) {
	name = normalizeName(name)
	if name == "" {
		return Row{}, fmt.Errorf("%w: row name is required", ErrInvalidRow)
	}
	if name == constants.TotalRowName {
		return Row{}, ErrTotalRowProtected
	}
	if _, exists := g.RowByName(name); exists {
		return Row{}, fmt.Errorf("%w: %s", ErrDuplicateRow, name)
	}
	overall = strings.TrimSpace(overall)
	if overall == "" {
		overall = g.catalog.OverallFor(name)
	}
	return Row{ID: g.newID(), Name: name, OverallCategory: overall}, nil
}

// insertRows places rows before TOTAL. Records left over from an earlier row
// of the same name are discarded so a re-added row starts empty.
func (g *Grid) insertRows(rows []Row) {
	for _, row := range rows {
		g.dropRowRecords(row.Name)
	}
	at := g.totalRowIndex()
	if at < 0 {
		g.rows = append(g.rows, rows...)
		return
	}
	updated := make([]Row, 0, len(g.rows)+len(rows))
	updated = append(updated, g.rows[:at]...)
	updated = append(updated, rows...)
	updated = append(updated, g.rows[at:]...)
	g.rows = updated
}

// DeleteRow removes a row together with its committed records. The TOTAL row
// can never be deleted.
func (g *Grid) DeleteRow(rowID string) error {
	if !g.editMode {
		return ErrNotEditing
	}
	i := g.rowIndex(rowID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if g.rows[i].IsTotal() {
		return ErrTotalRowProtected
	}
	name := g.rows[i].Name
	g.rows = append(g.rows[:i], g.rows[i+1:]...)
	for key := range g.edits {
		if key.RowID == rowID {
			delete(g.edits, key)
		}
	}
	dropped := g.dropRowRecords(name)
	g.Recompute()

	g.logger.Info("row deleted",
		zap.String("op", "proceeds.DeleteRow"),
		zap.String("row", name),
		zap.Int("records", dropped),
	)
	return nil
}

// EnterEditMode moves the grid from Viewing to Editing.
func (g *Grid) EnterEditMode() {
	g.editMode = true
}

// CancelEdit discards the edit buffer and returns to Viewing. Canonical data
// is untouched.
func (g *Grid) CancelEdit() {
	discarded := len(g.edits)
	g.edits = make(map[CellKey]float64)
	g.editMode = false
	g.Recompute()

	g.logger.Debug("edit cancelled",
		zap.String("op", "proceeds.CancelEdit"),
		zap.Int("discarded", discarded),
	)
}

// Save reconciles the edit buffer into the record list and hands the full list
// to the save callback once. If the callback fails the grid is left exactly as
// it was, still editing, so the user can retry or cancel.
func (g *Grid) Save(ctx context.Context) error {
	if !g.editMode {
		return ErrNotEditing
	}

	result := Reconcile(ReconcileInput{
		Records:    g.records,
		Rows:       g.rows,
		Columns:    g.columns,
		Edits:      g.edits,
		ProjectID:  g.projectID,
		ProceedsID: g.proceedsID,
		NewID:      g.newID,
	})

	if g.save != nil {
		if err := g.save(ctx, result.Records); err != nil {
			g.logger.Error("failed to save use of proceeds",
				zap.String("op", "proceeds.Save"),
				zap.Error(err),
			)
			return fmt.Errorf("failed to save use of proceeds: %w", err)
		}
	}

	g.records = result.Records
	g.edits = make(map[CellKey]float64)
	g.editMode = false
	g.normalize()
	g.Recompute()

	g.logger.Info("use of proceeds saved",
		zap.String("op", "proceeds.Save"),
		zap.Int("records", len(result.Records)),
		zap.Int("updated", result.Updated),
		zap.Int("appended", result.Appended),
		zap.Int("dropped", result.Dropped),
	)
	return nil
}

// Schedule returns the amortization schedule for a loan column's current
// allocation.
func (g *Grid) Schedule(columnID string) ([]loans.Payment, error) {
	i := g.columnIndex(columnID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	column := g.columns[i]
	if !column.IsLoan {
		return nil, fmt.Errorf("%w: %s", ErrNotLoan, column.Name)
	}
	generator := loans.NewAmortizationScheduleGenerator(g.logger)
	return generator.GenerateSchedule(g.ColumnTotal(column.ID), column.InterestRate, column.AmortizationMonths), nil
}

func copyColumn(c Column) Column {
	if c.MonthlyPayment != nil {
		v := *c.MonthlyPayment
		c.MonthlyPayment = &v
	}
	if c.AnnualPayment != nil {
		v := *c.AnnualPayment
		c.AnnualPayment = &v
	}
	return c
}
