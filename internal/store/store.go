// Package store reads and writes use-of-proceeds documents and project loan
// lists. The file extension selects the format: YAML, JSON, XLSX or CSV.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iwvelando/use-of-proceeds/internal/proceeds"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format is a supported file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for file extensions without a codec.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Document is the persisted state of one use-of-proceeds table.
type Document struct {
	ProjectID  string            `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	ProceedsID string            `json:"proceeds_id,omitempty" yaml:"proceeds_id,omitempty"`
	Columns    []proceeds.Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows       []proceeds.Row    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Records    []proceeds.Record `json:"records" yaml:"records"`
}

// Layout is the grid structure saved next to the records, so loan terms and
// rows without values survive a reload.
type Layout struct {
	Columns []proceeds.Column
	Rows    []proceeds.Row
}

type loanFile struct {
	Loans []proceeds.ProjectLoan `json:"loans" yaml:"loans"`
}

// FormatFor returns the format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadDocument reads a document from path.
func LoadDocument(path string) (*Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

// DecodeDocument decodes a document in the given format.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case FormatJSON:
		// A bare record array is accepted as well as a full document.
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &doc.Records); err != nil {
				return nil, err
			}
			break
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case FormatXLSX:
		decoded, err := decodeXLSXDocument(data)
		if err != nil {
			return nil, err
		}
		doc = *decoded
	case FormatCSV:
		decoded, err := decodeCSVDocument(data)
		if err != nil {
			return nil, err
		}
		doc = *decoded
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	doc.fillIDs()
	return &doc, nil
}

// EncodeDocument encodes a document in the given format.
func EncodeDocument(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatXLSX:
		return encodeXLSXDocument(doc)
	case FormatCSV:
		return encodeCSVDocument(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteDocument encodes doc by path's extension and replaces the file.
func WriteDocument(path string, doc *Document) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := EncodeDocument(doc, format)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

// fillIDs copies project and proceeds ids from the records when the document
// does not carry them, as happens with tabular formats.
func (d *Document) fillIDs() {
	for _, r := range d.Records {
		if d.ProjectID == "" && r.ProjectID != "" {
			d.ProjectID = r.ProjectID
		}
		if d.ProceedsID == "" && r.ProceedsID != "" {
			d.ProceedsID = r.ProceedsID
		}
	}
}

// LoadProjectLoans reads a project loan list from path. YAML and JSON files
// may hold either a bare list or a {loans: [...]} document.
func LoadProjectLoans(path string) ([]proceeds.ProjectLoan, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	loans, err := DecodeProjectLoans(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return loans, nil
}

// DecodeProjectLoans decodes a project loan list in the given format.
func DecodeProjectLoans(data []byte, format Format) ([]proceeds.ProjectLoan, error) {
	switch format {
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var loans []proceeds.ProjectLoan
			err := node.Content[0].Decode(&loans)
			return loans, err
		}
		var file loanFile
		err := node.Decode(&file)
		return file.Loans, err
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			var loans []proceeds.ProjectLoan
			err := json.Unmarshal(trimmed, &loans)
			return loans, err
		}
		var file loanFile
		err := json.Unmarshal(data, &file)
		return file.Loans, err
	case FormatXLSX:
		return decodeXLSXLoans(data)
	case FormatCSV:
		return decodeCSVLoans(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// FileStore persists one document file and serves as the grid's save
// callback.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu  sync.Mutex
	doc Document
}

// NewFileStore opens the document at path. A missing file starts an empty
// document that is created on the first save.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := FormatFor(path); err != nil {
		return nil, err
	}
	s := &FileStore{path: path, logger: logger}

	doc, err := LoadDocument(path)
	switch {
	case err == nil:
		s.doc = *doc
	case errors.Is(err, os.ErrNotExist):
		logger.Info("document not found, starting empty",
			zap.String("op", "store.NewFileStore"),
			zap.String("path", path),
		)
	default:
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Document returns a copy of the current document.
func (s *FileStore) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.doc
	doc.Columns = append([]proceeds.Column(nil), s.doc.Columns...)
	doc.Rows = append([]proceeds.Row(nil), s.doc.Rows...)
	doc.Records = append([]proceeds.Record(nil), s.doc.Records...)
	return doc
}

// Save writes records to the document, keeping the stored layout.
func (s *FileStore) Save(ctx context.Context, records []proceeds.Record) error {
	return s.save(ctx, records, nil)
}

// SaveFunc returns a save callback that also stores the layout reported by
// layout at save time.
func (s *FileStore) SaveFunc(layout func() Layout) proceeds.SaveFunc {
	return func(ctx context.Context, records []proceeds.Record) error {
		return s.save(ctx, records, layout)
	}
}

func (s *FileStore) save(ctx context.Context, records []proceeds.Record, layout func() Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.doc
	doc.Records = append([]proceeds.Record(nil), records...)
	if layout != nil {
		l := layout()
		doc.Columns = l.Columns
		doc.Rows = l.Rows
		for i := range doc.Columns {
			doc.Columns[i].MonthlyPayment = nil
			doc.Columns[i].AnnualPayment = nil
		}
	}
	if err := WriteDocument(s.path, &doc); err != nil {
		return err
	}
	s.doc = doc

	s.logger.Info("document saved",
		zap.String("op", "store.FileStore.Save"),
		zap.String("path", s.path),
		zap.Int("records", len(records)),
	)
	return nil
}
