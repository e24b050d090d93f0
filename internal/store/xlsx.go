package store

import (
	"bytes"
	"fmt"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"github.com/xuri/excelize/v2"
)

const (
	recordsSheet = "Records"
	columnsSheet = "Columns"
	rowsSheet    = "Rows"
	projectSheet = "Project"
	loansSheet   = "Loans"
)

// decodeXLSXDocument reads the Records sheet, or the first sheet when there
// is none, plus the optional Columns, Rows and Project sheets.
func decodeXLSXDocument(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := sheetSet(f)
	name := recordsSheet
	if !sheets[name] {
		name = f.GetSheetName(0)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	var doc Document
	if doc.Records, err = recordsFromRows(rows); err != nil {
		return nil, err
	}

	if sheets[columnsSheet] {
		rows, err := f.GetRows(columnsSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", columnsSheet, err)
		}
		if doc.Columns, err = columnsFromRows(rows); err != nil {
			return nil, err
		}
	}

	if sheets[rowsSheet] {
		rows, err := f.GetRows(rowsSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", rowsSheet, err)
		}
		if doc.Rows, err = gridRowsFromRows(rows); err != nil {
			return nil, err
		}
	}

	if sheets[projectSheet] {
		rows, err := f.GetRows(projectSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", projectSheet, err)
		}
		s := newSheet(rows)
		if len(s.rows) > 0 {
			doc.ProjectID = s.get(s.rows[0], "project_id")
			doc.ProceedsID = s.get(s.rows[0], "proceeds_id")
		}
	}
	return &doc, nil
}

func encodeXLSXDocument(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), recordsSheet); err != nil {
		return nil, err
	}
	if err := writeSheet(f, recordsSheet, recordsToRows(doc.Records)); err != nil {
		return nil, err
	}
	if len(doc.Columns) > 0 {
		if err := writeSheet(f, columnsSheet, columnsToRows(doc.Columns)); err != nil {
			return nil, err
		}
	}
	if len(doc.Rows) > 0 {
		if err := writeSheet(f, rowsSheet, gridRowsToRows(doc.Rows)); err != nil {
			return nil, err
		}
	}
	if doc.ProjectID != "" || doc.ProceedsID != "" {
		project := [][]string{{"project_id", "proceeds_id"}, {doc.ProjectID, doc.ProceedsID}}
		if err := writeSheet(f, projectSheet, project); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeXLSXLoans(data []byte) ([]proceeds.ProjectLoan, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := loansSheet
	if !sheetSet(f)[name] {
		name = f.GetSheetName(0)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	return loansFromRows(rows)
}

func sheetSet(f *excelize.File) map[string]bool {
	set := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		set[name] = true
	}
	return set
}

func writeSheet(f *excelize.File, name string, rows [][]string) error {
	if !sheetSet(f)[name] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}
	return nil
}
