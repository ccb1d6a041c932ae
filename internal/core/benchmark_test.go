package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

// ============================================================================
// Store Benchmarks
// ============================================================================

func benchStore(b *testing.B, n int) *Store {
	b.Helper()
	store := NewStore(StoreOptions{IDs: NewSequenceIDGenerator("id-")})
	depts := []string{"Engineering", "Design", "Sales", "Support"}
	for i := 0; i < n; i++ {
		in := sampleInput(fmt.Sprintf("Employee %05d", n-i))
		in.Department = depts[i%len(depts)]
		if _, err := store.Create(in); err != nil {
			b.Fatal(err)
		}
	}
	return store
}

// BenchmarkStoreCreate measures id generation plus the insert under lock.
func BenchmarkStoreCreate(b *testing.B) {
	store := NewStore(StoreOptions{})
	in := sampleInput("Dana")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Create(in); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStoreList measures the collated snapshot every read path starts from.
func BenchmarkStoreList(b *testing.B) {
	store := benchStore(b, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.List()
	}
}

// ============================================================================
// Query Benchmarks
// ============================================================================

func BenchmarkApply_Search(b *testing.B) {
	records := benchStore(b, 1000).List()
	c := DefaultCriteria()
	c.Query = "0042"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Apply(records, c, nil)
	}
}

func BenchmarkApply_FilterAndSort(b *testing.B) {
	records := benchStore(b, 1000).List()
	c := DefaultCriteria()
	c.Department = "Design"
	c.SortKey = "email"
	c.SortDirection = SortDesc

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Apply(records, c, nil)
	}
}

// ============================================================================
// Import / Export Benchmarks
// ============================================================================

func benchCSV(rows int) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(RequiredColumns, ",") + "\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&buf, "Employee %d,e%d@example.com,Engineering,Engineer,Active,2024-01-01\n", i, i)
	}
	return buf.Bytes()
}

// BenchmarkParseCSV_LargeFile parses without touching a store.
func BenchmarkParseCSV_LargeFile(b *testing.B) {
	data := benchCSV(10000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseCSV(context.Background(), bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkImportCSV(b *testing.B) {
	data := benchCSV(1000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		im := NewImporter(NewStore(StoreOptions{IDs: NewSequenceIDGenerator("id-")}))
		if _, err := im.Import(context.Background(), bytes.NewReader(data), KindCSV); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExportCSV(b *testing.B) {
	store := benchStore(b, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Export(io.Discard, store, FormatCSV); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// UTF-8 Sanitization Benchmarks
// ============================================================================

func BenchmarkWrapForImport_LargeDataset(b *testing.B) {
	data := append([]byte("\xEF\xBB\xBF"), benchCSV(10000)...)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := io.Copy(io.Discard, WrapForImport(bytes.NewReader(data))); err != nil {
			b.Fatal(err)
		}
	}
}
