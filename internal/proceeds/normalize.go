package proceeds

import (
	"github.com/iwvelando/use-of-proceeds/pkg/catalog"
	"github.com/iwvelando/use-of-proceeds/pkg/constants"
	"github.com/iwvelando/use-of-proceeds/pkg/mathutil"
)

// Normalized is the result of Normalize.
type Normalized struct {
	Table Table
	// Overall maps row id to the row's resolved overall category.
	Overall map[string]string
}

// Normalize converts the flat record list into a sparse table keyed by row and
// column id. A record without a column name belongs to the first column.
// Records naming unknown rows or columns, or the TOTAL row, are ignored; when
// several records address the same cell the last one wins.
//
// Each row's overall category comes from the first record that carries one,
// then from the row itself, then from the catalog, defaulting to "Other".
func Normalize(records []Record, rows []Row, columns []Column, cat *catalog.Catalog) Normalized {
	if cat == nil {
		cat = catalog.Default()
	}

	rowIDs := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.IsTotal() {
			continue
		}
		if _, exists := rowIDs[row.Name]; !exists {
			rowIDs[row.Name] = row.ID
		}
	}
	columnIDs := make(map[string]string, len(columns))
	for _, column := range columns {
		if _, exists := columnIDs[column.Name]; !exists {
			columnIDs[column.Name] = column.ID
		}
	}
	firstColumn := ""
	if len(columns) > 0 {
		firstColumn = columns[0].Name
	}

	out := Normalized{
		Table:   make(Table),
		Overall: make(map[string]string, len(rows)),
	}

	for _, record := range records {
		rowName := normalizeName(record.RowName)
		rowID, ok := rowIDs[rowName]
		if !ok {
			continue
		}
		if record.OverallCategory != "" {
			if _, set := out.Overall[rowID]; !set {
				out.Overall[rowID] = record.OverallCategory
			}
		}

		columnName := normalizeName(record.ColumnName)
		if columnName == "" {
			columnName = firstColumn
		}
		columnID, ok := columnIDs[columnName]
		if !ok {
			continue
		}
		out.Table[CellKey{RowID: rowID, ColumnID: columnID}] = mathutil.NonNegative(record.Value.Float64())
	}

	for _, row := range rows {
		if _, set := out.Overall[row.ID]; set {
			continue
		}
		switch {
		case row.IsTotal():
			out.Overall[row.ID] = constants.OtherCategory
		case row.OverallCategory != "":
			out.Overall[row.ID] = row.OverallCategory
		default:
			out.Overall[row.ID] = cat.OverallFor(row.Name)
		}
	}

	return out
}
