package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestExport_JSONMatchesList(t *testing.T) {
	store, _ := newTestStore(t)
	store.Seed()
	store.Create(sampleInput("Dana"))

	var buf bytes.Buffer
	written, err := Export(&buf, store, FormatJSON)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []Employee
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(decoded, store.List()) {
		t.Errorf("export = %+v\nwant %+v", decoded, store.List())
	}
	if !reflect.DeepEqual(written, decoded) {
		t.Error("returned snapshot differs from the written one")
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Error("JSON export is not indented")
	}
}

func TestExport_EmptyStoreIsEmptyArray(t *testing.T) {
	store, _ := newTestStore(t)

	var buf bytes.Buffer
	if _, err := Export(&buf, store, FormatJSON); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("export = %q, want []", got)
	}
}

func TestExport_CSV(t *testing.T) {
	store, _ := newTestStore(t)
	store.Seed()

	var buf bytes.Buffer
	if _, err := Export(&buf, store, FormatCSV); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if !reflect.DeepEqual(rows[0], ExportHeader) {
		t.Errorf("header = %v, want %v", rows[0], ExportHeader)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[1][0] != "emp_1" || rows[1][1] != "Alice Johnson" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestExport_CSVCanBeImported(t *testing.T) {
	src, _ := newTestStore(t)
	src.Seed()

	var buf bytes.Buffer
	if _, err := Export(&buf, src, FormatCSV); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst, _ := newTestStore(t)
	result, err := NewImporter(dst).Import(context.Background(), &buf, KindCSV)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Count != 3 {
		t.Errorf("Count = %d, want 3", result.Count)
	}

	for i, e := range dst.List() {
		want := src.List()[i]
		if e.ID != want.ID || e.Name != want.Name || e.Status != want.Status || e.Department != want.Department {
			t.Errorf("record %d = %+v, want fields of %+v", i, e, want)
		}
		if !e.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("record %d CreatedAt = %v, want %v", i, e.CreatedAt, want.CreatedAt)
		}
	}
}

func TestExport_CSVReimportIntoSameStoreUpserts(t *testing.T) {
	store, clock := newTestStore(t)
	store.Seed()
	before := store.List()

	var buf bytes.Buffer
	if _, err := Export(&buf, store, FormatCSV); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	result, err := NewImporter(store).Import(context.Background(), &buf, KindCSV)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Count != 3 || result.Overwritten != 3 || result.Created != 0 {
		t.Errorf("result = %+v, want 3 overwritten", result)
	}
	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}
	for i, e := range store.List() {
		if e.ID != before[i].ID || !e.CreatedAt.Equal(before[i].CreatedAt) {
			t.Errorf("record %d = %s/%v, want %s/%v", i, e.ID, e.CreatedAt, before[i].ID, before[i].CreatedAt)
		}
		if !e.UpdatedAt.Equal(clock.now) {
			t.Errorf("record %d UpdatedAt = %v, want %v", i, e.UpdatedAt, clock.now)
		}
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in       string
		want     ExportFormat
		filename string
		wantErr  bool
	}{
		{"", FormatJSON, "employees.json", false},
		{"json", FormatJSON, "employees.json", false},
		{"CSV", FormatCSV, "employees.csv", false},
		{"xml", "", "", true},
	}
	for _, tt := range tests {
		got, err := ParseExportFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseExportFormat(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if got != tt.want || got.Filename() != tt.filename {
			t.Errorf("ParseExportFormat(%q) = %q (%s), want %q (%s)", tt.in, got, got.Filename(), tt.want, tt.filename)
		}
	}
}
