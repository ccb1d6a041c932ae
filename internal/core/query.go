package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// FilterAll disables a categorical filter.
const FilterAll = "all"

// SortDirection orders query results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection accepts asc/ascending and desc/descending; empty is asc.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending":
		return SortDesc, nil
	}
	return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidQuery, s)
}

// Criteria describes a filtered, sorted view of a record set.
// Empty categorical fields behave like FilterAll.
type Criteria struct {
	Query         string        `json:"query,omitempty"`
	Department    string        `json:"department,omitempty"`
	Role          string        `json:"role,omitempty"`
	Status        string        `json:"status,omitempty"`
	SortKey       string        `json:"sortKey,omitempty"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
}

// DefaultCriteria shows everything sorted by name ascending.
func DefaultCriteria() Criteria {
	return Criteria{
		Department:    FilterAll,
		Role:          FilterAll,
		Status:        FilterAll,
		SortKey:       "name",
		SortDirection: SortAsc,
	}
}

// SortKeys lists the Employee fields a view can be sorted by.
var SortKeys = []string{"id", "name", "email", "department", "role", "status", "startDate", "createdAt", "updatedAt"}

var defaultCollation = sync.OnceValue(func() *Collation {
	return MustCollation(DefaultLocale)
})

// Apply derives the view of records described by c. It never modifies
// records, keeps no state, and returns the same output for the same input.
// A nil col uses DefaultLocale.
func Apply(records []Employee, c Criteria, col *Collation) []Employee {
	if col == nil {
		col = defaultCollation()
	}

	q := strings.ToLower(strings.TrimSpace(c.Query))
	out := make([]Employee, 0, len(records))
	for _, e := range records {
		if q != "" && !matchesQuery(e, q) {
			continue
		}
		if !matchesCategory(e.Department, c.Department) ||
			!matchesCategory(e.Role, c.Role) ||
			!matchesCategory(string(e.Status), c.Status) {
			continue
		}
		out = append(out, e)
	}

	dir := 1
	if c.SortDirection == SortDesc {
		dir = -1
	}
	key := strings.ToLower(c.SortKey)
	slices.SortStableFunc(out, func(a, b Employee) int {
		return compareField(a, b, key, col) * dir
	})
	return out
}

// compareField orders a and b by the lower-cased key. Timestamps compare
// chronologically, text fields by collation, unknown keys as equal.
func compareField(a, b Employee, key string, col *Collation) int {
	switch key {
	case "createdat":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedat":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	av, ok := sortValue(a, key)
	if !ok {
		return 0
	}
	bv, _ := sortValue(b, key)
	return col.Compare(av, bv)
}

func matchesQuery(e Employee, q string) bool {
	for _, v := range [...]string{e.Name, e.Email, e.Department, e.Role} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func matchesCategory(value, filter string) bool {
	return filter == "" || filter == FilterAll || value == filter
}

// sortValue returns the collated text of a field for a lower-cased key.
func sortValue(e Employee, key string) (string, bool) {
	switch key {
	case "id":
		return e.ID, true
	case "name":
		return e.Name, true
	case "email":
		return e.Email, true
	case "department":
		return e.Department, true
	case "role":
		return e.Role, true
	case "status":
		return string(e.Status), true
	case "startdate":
		return e.StartDate, true
	}
	return "", false
}
