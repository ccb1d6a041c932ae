package core

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat accepts "json" (also the empty default) and "csv".
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", ErrInvalidQuery, s)
}

// Filename is the suggested download name.
func (f ExportFormat) Filename() string {
	return "employees." + string(f)
}

// ContentType is the MIME type of the artifact.
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// ExportHeader is the CSV header written by exports. It is a superset of
// RequiredColumns, so an export can be imported again.
var ExportHeader = []string{"id", "name", "email", "department", "role", "status", "startdate", "createdAt", "updatedAt"}

// Export writes the snapshot returned by List, in the same order.
// It returns the records it wrote.
func Export(w io.Writer, store *Store, format ExportFormat) ([]Employee, error) {
	snapshot := store.List()
	if err := WriteSnapshot(w, snapshot, format); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// WriteSnapshot serializes records without reordering them.
func WriteSnapshot(w io.Writer, records []Employee, format ExportFormat) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON, "":
		if records == nil {
			records = []Employee{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q", format)
}

func writeCSV(w io.Writer, records []Employee) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("export csv header: %w", err)
	}
	for _, e := range records {
		row := []string{
			e.ID,
			e.Name,
			e.Email,
			e.Department,
			e.Role,
			string(e.Status),
			e.StartDate,
			e.CreatedAt.Format(time.RFC3339Nano),
			e.UpdatedAt.Format(time.RFC3339Nano),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
