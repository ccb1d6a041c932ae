package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/staffdir/internal/logging"
)

// ContextCheckInterval is how often (in rows) parsing checks for cancellation.
var ContextCheckInterval = 100

// ContentKind is the declared format of an import payload.
type ContentKind int

const (
	KindCSV ContentKind = iota
	KindJSON
)

func (k ContentKind) String() string {
	if k == KindJSON {
		return "json"
	}
	return "csv"
}

// KindFromContentType picks the import branch from a Content-Type header.
// Anything that is not JSON is parsed as CSV.
func KindFromContentType(contentType string) ContentKind {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		return KindJSON
	}
	return KindCSV
}

// RequiredColumns must all appear in a CSV header, matched case-insensitively.
var RequiredColumns = []string{"name", "email", "department", "role", "status", "startdate"}

// ImportResult summarizes an applied import.
// Count is every processed element, including repeated ids in one batch.
type ImportResult struct {
	Count       int `json:"count"`
	Created     int `json:"-"`
	Overwritten int `json:"-"`
}

// Importer parses payloads and upserts them into a Store.
type Importer struct {
	store *Store
}

// NewImporter returns an Importer writing to store.
func NewImporter(store *Store) *Importer {
	return &Importer{store: store}
}

// Import parses the whole payload first and applies it only if parsing
// succeeded, so an ErrInvalidFormat import stores nothing.
func (im *Importer) Import(ctx context.Context, r io.Reader, kind ContentKind) (ImportResult, error) {
	records, err := ParseImport(ctx, r, kind)
	if err != nil {
		return ImportResult{}, err
	}

	result, err := im.Apply(ctx, records)
	if err != nil {
		return result, err
	}

	logging.FromContext(ctx).Info("employees imported",
		"kind", kind.String(),
		"count", result.Count,
		"created", result.Created,
		"overwritten", result.Overwritten,
	)
	return result, nil
}

// Apply upserts already-parsed records in order. Records with an identity
// are stored under it; the rest get a fresh one.
func (im *Importer) Apply(ctx context.Context, records []ImportRecord) (ImportResult, error) {
	var result ImportResult
	for i, rec := range records {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("import cancelled after %d records: %w", result.Count, err)
			}
		}

		switch v := rec.(type) {
		case FullEmployeeRecord:
			if _, overwritten := im.store.Upsert(v); overwritten {
				result.Overwritten++
			} else {
				result.Created++
			}
		case NewEmployeeInput:
			if _, err := im.store.Create(v); err != nil {
				return result, fmt.Errorf("import record %d: %w", i, err)
			}
			result.Created++
		default:
			return result, fmt.Errorf("import record %d: unsupported type %T", i, rec)
		}
		result.Count++
	}
	return result, nil
}

// ParseImport decodes a payload of the given kind into import records.
func ParseImport(ctx context.Context, r io.Reader, kind ContentKind) ([]ImportRecord, error) {
	if kind == KindJSON {
		return ParseJSON(r)
	}
	return ParseCSV(ctx, r)
}

// ParseCSV reads a header row followed by employee rows. Beyond
// RequiredColumns, an optional id column (and createdAt with it) turns a row
// with a non-empty id into a FullEmployeeRecord, so an export re-imports as
// upserts. Other rows are NewEmployeeInput.
func ParseCSV(ctx context.Context, r io.Reader) ([]ImportRecord, error) {
	cr := csv.NewReader(WrapForImport(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", ErrInvalidFormat)
	}
	if err != nil {
		return nil, csvError("header", err)
	}

	cols := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
		present[cols[i]] = true
	}

	var missing []string
	for _, req := range RequiredColumns {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &missingColumnsError{columns: missing}
	}

	var records []ImportRecord
	for line := 2; ; line++ {
		if line%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("csv parse cancelled at line %d: %w", line, err)
			}
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(fmt.Sprintf("line %d", line), err)
		}
		if blankRow(row) {
			continue
		}

		values := make(map[string]string, len(cols))
		for i, c := range cols {
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			values[c] = v
		}

		in := NewEmployeeInput{
			Name:       values["name"],
			Email:      values["email"],
			Department: values["department"],
			Role:       values["role"],
			Status:     NormalizeStatus(values["status"]),
			StartDate:  values["startdate"],
		}
		if values["id"] == "" {
			records = append(records, in)
			continue
		}

		full := FullEmployeeRecord{NewEmployeeInput: in, ID: values["id"]}
		if v := values["createdat"]; v != "" {
			createdAt, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: createdAt: %v", ErrInvalidFormat, line, err)
			}
			full.CreatedAt = createdAt.UTC()
		}
		records = append(records, full)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidFormat)
	}
	return records, nil
}

// csvError separates malformed input from failures of the underlying
// reader, such as an exceeded body limit, which keep their own type.
func csvError(where string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, where, err)
	}
	return fmt.Errorf("read csv %s: %w", where, err)
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// jsonImportRecord is the wire shape of one JSON import element.
// Strongly typed fields make json.Unmarshal reject wrong value types.
type jsonImportRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	StartDate  string `json:"startDate"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// ParseJSON decodes an array of employee objects. An element with a
// non-empty id becomes a FullEmployeeRecord, others a NewEmployeeInput.
// Any malformed element rejects the whole payload.
func ParseJSON(r io.Reader) ([]ImportRecord, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(WrapForImport(r)).Decode(&raw); err != nil {
		if !isJSONFormatError(err) {
			return nil, fmt.Errorf("read json: %w", err)
		}
		return nil, fmt.Errorf("%w: invalid json: expected an array of objects: %v", ErrInvalidFormat, err)
	}

	records := make([]ImportRecord, 0, len(raw))
	for i, msg := range raw {
		if trimmed := bytes.TrimSpace(msg); len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: invalid json: element %d is not an object", ErrInvalidFormat, i)
		}

		var item jsonImportRecord
		if err := json.Unmarshal(msg, &item); err != nil {
			return nil, fmt.Errorf("%w: invalid json: element %d: %v", ErrInvalidFormat, i, err)
		}

		in := NewEmployeeInput{
			Name:       item.Name,
			Email:      item.Email,
			Department: item.Department,
			Role:       item.Role,
			Status:     NormalizeStatus(item.Status),
			StartDate:  item.StartDate,
		}
		if item.ID == "" {
			records = append(records, in)
			continue
		}

		full := FullEmployeeRecord{NewEmployeeInput: in, ID: item.ID}
		if item.CreatedAt != "" {
			createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid json: element %d: createdAt: %v", ErrInvalidFormat, i, err)
			}
			full.CreatedAt = createdAt.UTC()
		}
		records = append(records, full)
	}
	return records, nil
}

func isJSONFormatError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
