package store

import (
	"bytes"
	"encoding/csv"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
)

// CSV documents carry records only; columns and rows are rebuilt from them.
func decodeCSVDocument(data []byte) (*Document, error) {
	rows, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	records, err := recordsFromRows(rows)
	if err != nil {
		return nil, err
	}
	return &Document{Records: records}, nil
}

func encodeCSVDocument(doc *Document) ([]byte, error) {
	return writeCSV(recordsToRows(doc.Records))
}

func decodeCSVLoans(data []byte) ([]proceeds.ProjectLoan, error) {
	rows, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	return loansFromRows(rows)
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
