package core

import (
	"reflect"
	"testing"
	"time"
)

func queryFixture() []Employee {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Employee{
		{ID: "1", Name: "Alice Johnson", Email: "alice@company.com", Department: "Engineering", Role: "Engineer", Status: StatusActive, StartDate: "2023-04-01", CreatedAt: base},
		{ID: "2", Name: "Brian Lee", Email: "brian@company.com", Department: "Design", Role: "Designer", Status: StatusActive, StartDate: "2022-09-15", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Name: "Carmen Diaz", Email: "carmen@company.com", Department: "Sales", Role: "Manager", Status: StatusInactive, StartDate: "2021-02-10", CreatedAt: base.Add(2 * time.Hour)},
	}
}

func ids(records []Employee) []string {
	out := make([]string, len(records))
	for i, e := range records {
		out[i] = e.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name:     "default shows all by name",
			criteria: DefaultCriteria(),
			want:     []string{"1", "2", "3"},
		},
		{
			name:     "text search is case-insensitive",
			criteria: Criteria{Query: "lee", SortKey: "name"},
			want:     []string{"2"},
		},
		{
			name:     "text search matches email domain",
			criteria: Criteria{Query: "COMPANY.COM"},
			want:     []string{"1", "2", "3"},
		},
		{
			name:     "text search matches role",
			criteria: Criteria{Query: "manag"},
			want:     []string{"3"},
		},
		{
			name:     "department filter",
			criteria: Criteria{Department: "Design", Role: FilterAll, Status: FilterAll},
			want:     []string{"2"},
		},
		{
			name:     "status filter",
			criteria: Criteria{Status: "Inactive"},
			want:     []string{"3"},
		},
		{
			name:     "filters combine",
			criteria: Criteria{Query: "company", Status: "Active", Role: "Engineer"},
			want:     []string{"1"},
		},
		{
			name:     "category filter is exact",
			criteria: Criteria{Department: "design"},
			want:     []string{},
		},
		{
			name:     "descending name",
			criteria: Criteria{SortKey: "name", SortDirection: SortDesc},
			want:     []string{"3", "2", "1"},
		},
		{
			name:     "sort by start date",
			criteria: Criteria{SortKey: "startDate"},
			want:     []string{"3", "2", "1"},
		},
		{
			name:     "sort by createdAt descending",
			criteria: Criteria{SortKey: "createdAt", SortDirection: SortDesc},
			want:     []string{"3", "2", "1"},
		},
		{
			name:     "unknown sort key keeps input order",
			criteria: Criteria{SortKey: "salary", SortDirection: SortDesc},
			want:     []string{"1", "2", "3"},
		},
		{
			name:     "no match",
			criteria: Criteria{Query: "nobody"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(queryFixture(), tt.criteria, nil))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_TimestampsSortChronologically(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []Employee{
		{ID: "b", Name: "B", CreatedAt: base.Add(150 * time.Millisecond), UpdatedAt: base.Add(150 * time.Millisecond)},
		{ID: "a", Name: "A", CreatedAt: base.Add(100 * time.Millisecond), UpdatedAt: base.Add(100 * time.Millisecond)},
		{ID: "z", Name: "Z", CreatedAt: base, UpdatedAt: base},
		{ID: "n", Name: "N", CreatedAt: base.Add(time.Nanosecond), UpdatedAt: base.Add(time.Nanosecond)},
	}

	tests := []struct {
		key  string
		dir  SortDirection
		want []string
	}{
		{"updatedAt", SortAsc, []string{"z", "n", "a", "b"}},
		{"updatedAt", SortDesc, []string{"b", "a", "n", "z"}},
		{"createdAt", SortAsc, []string{"z", "n", "a", "b"}},
		{"CREATEDAT", SortDesc, []string{"b", "a", "n", "z"}},
	}
	for _, tt := range tests {
		got := ids(Apply(records, Criteria{SortKey: tt.key, SortDirection: tt.dir}, nil))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Apply(sort %s %s) = %v, want %v", tt.key, tt.dir, got, tt.want)
		}
	}
}

func TestApply_StableForEqualKeys(t *testing.T) {
	records := []Employee{
		{ID: "b", Name: "B", Department: "X"},
		{ID: "a1", Name: "A", Department: "X"},
		{ID: "a2", Name: "A", Department: "X"},
	}

	got := ids(Apply(records, Criteria{SortKey: "name"}, nil))
	if want := []string{"a1", "a2", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ascending = %v, want %v", got, want)
	}

	got = ids(Apply(records, Criteria{SortKey: "department", SortDirection: SortDesc}, nil))
	if want := []string{"b", "a1", "a2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("equal department = %v, want input order %v", got, want)
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	records := queryFixture()
	before := queryFixture()

	first := Apply(records, Criteria{SortKey: "name", SortDirection: SortDesc}, nil)
	second := Apply(records, Criteria{SortKey: "name", SortDirection: SortDesc}, nil)

	if !reflect.DeepEqual(records, before) {
		t.Error("Apply() reordered its input")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Apply() is not deterministic")
	}
}

func TestParseSortDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    SortDirection
		wantErr bool
	}{
		{"", SortAsc, false},
		{"asc", SortAsc, false},
		{"DESC", SortDesc, false},
		{"descending", SortDesc, false},
		{"sideways", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSortDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
