package proceeds

import (
	"github.com/google/uuid"
)

// ReconcileInput carries everything needed to fold an edit buffer into the
// canonical record list.
type ReconcileInput struct {
	Records    []Record
	Rows       []Row
	Columns    []Column
	Edits      map[CellKey]float64
	ProjectID  string
	ProceedsID string
	// NewID generates identifiers for appended records; uuid.NewString when nil.
	NewID func() string
}

// ReconcileResult is the updated record list plus bookkeeping for logging.
type ReconcileResult struct {
	Records  []Record
	Updated  int
	Appended int
	Dropped  int
}

// Reconcile merges the edit buffer into a copy of the record list. Edits are
// applied in row then column order: a record matching (row_name, column_name)
// has its value replaced and its overall category stamped from the row,
// otherwise a new record is appended. Records that reference a row or column
// no longer in the grid are dropped. The input slice is never modified.
func Reconcile(in ReconcileInput) ReconcileResult {
	newID := in.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	rowNames := make(map[string]struct{}, len(in.Rows))
	for _, row := range in.Rows {
		if !row.IsTotal() {
			rowNames[row.Name] = struct{}{}
		}
	}
	columnNames := make(map[string]struct{}, len(in.Columns))
	for _, column := range in.Columns {
		columnNames[column.Name] = struct{}{}
	}
	firstColumn := ""
	if len(in.Columns) > 0 {
		firstColumn = in.Columns[0].Name
	}
	effectiveColumn := func(r Record) string {
		if name := normalizeName(r.ColumnName); name != "" {
			return name
		}
		return firstColumn
	}

	var result ReconcileResult
	result.Records = make([]Record, 0, len(in.Records)+len(in.Edits))

	type cell struct{ row, column string }
	index := make(map[cell]int, len(in.Records))
	for _, record := range in.Records {
		rowName := normalizeName(record.RowName)
		columnName := effectiveColumn(record)
		_, rowOK := rowNames[rowName]
		_, columnOK := columnNames[columnName]
		if !rowOK || !columnOK {
			result.Dropped++
			continue
		}
		// Later duplicates win, matching Normalize.
		index[cell{rowName, columnName}] = len(result.Records)
		result.Records = append(result.Records, record)
	}

	for _, row := range in.Rows {
		if row.IsTotal() {
			continue
		}
		for _, column := range in.Columns {
			value, edited := in.Edits[CellKey{RowID: row.ID, ColumnID: column.ID}]
			if !edited {
				continue
			}
			if i, found := index[cell{row.Name, column.Name}]; found {
				result.Records[i].Value = Amount(value)
				result.Records[i].OverallCategory = row.OverallCategory
				result.Updated++
				continue
			}
			index[cell{row.Name, column.Name}] = len(result.Records)
			result.Records = append(result.Records, Record{
				ID:              newID(),
				ProceedsID:      in.ProceedsID,
				ProjectID:       in.ProjectID,
				ColumnName:      column.Name,
				RowName:         row.Name,
				OverallCategory: row.OverallCategory,
				Value:           Amount(value),
			})
			result.Appended++
		}
	}

	return result
}
