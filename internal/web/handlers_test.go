package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/JonMunkholm/staffdir/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T, opts Options) (*Server, *core.Store) {
	t.Helper()
	store := core.NewStore(core.StoreOptions{
		IDs:   core.NewSequenceIDGenerator("id-"),
		Clock: &fixedClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
	})
	store.Seed()

	srv := NewServer(store, opts)
	t.Cleanup(func() { _ = srv.Shutdown(t.Context()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func names(records []core.Employee) []string {
	out := make([]string, len(records))
	for i, e := range records {
		out[i] = e.Name
	}
	return out
}

func TestListEmployees(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/employees", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Alice Johnson", "Brian Lee", "Carmen Diaz"}, names(decode[[]core.Employee](t, rr)))
}

func TestListEmployees_Query(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		target string
		want   []string
	}{
		{"/employees?q=lee", []string{"Brian Lee"}},
		{"/employees?department=Sales", []string{"Carmen Diaz"}},
		{"/employees?status=Active&sort=name&dir=desc", []string{"Brian Lee", "Alice Johnson"}},
		{"/employees?department=all&role=all", []string{"Alice Johnson", "Brian Lee", "Carmen Diaz"}},
		{"/employees?q=nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, tt.target, "", "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, names(decode[[]core.Employee](t, rr)))
		})
	}
}

func TestListEmployees_BadDirection(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/employees?dir=sideways", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VAL003", decode[ErrorResponse](t, rr).Code)
}

func TestCreateEmployee(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/employees", "application/json",
		`{"name":"Dana","email":"dana@x.com","department":"Ops","role":"Analyst","status":"Pending","startDate":"2024-02-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	emp := decode[core.Employee](t, rr)
	assert.Equal(t, "id-1", emp.ID)
	assert.Equal(t, core.StatusActive, emp.Status)
	assert.Equal(t, 4, store.Len())

	stored, ok := store.Get(emp.ID)
	require.True(t, ok)
	assert.Equal(t, emp, stored)
}

func TestCreateEmployee_Invalid(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"empty name", `{"name":"","email":"a@x.com"}`, "VAL001"},
		{"missing email", `{"name":"A"}`, "VAL001"},
		{"not json", `name=A`, "VAL002"},
		{"array body", `[{"name":"A"}]`, "VAL002"},
		{"empty body", ``, "VAL002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/employees", "application/json", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rr).Code)
		})
	}
	assert.Equal(t, 3, store.Len())
}

func TestUpdateEmployee(t *testing.T) {
	srv, store := newTestServer(t, Options{})
	before, _ := store.Get("emp_2")

	rr := do(t, srv, http.MethodPatch, "/employees/emp_2", "application/json",
		`{"role":"Lead Designer","id":"hijack","createdAt":"1999-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	emp := decode[core.Employee](t, rr)
	assert.Equal(t, "emp_2", emp.ID)
	assert.Equal(t, "Lead Designer", emp.Role)
	assert.Equal(t, before.Name, emp.Name)
	assert.True(t, emp.CreatedAt.Equal(before.CreatedAt))
	assert.True(t, emp.UpdatedAt.After(before.UpdatedAt))

	_, hijacked := store.Get("hijack")
	assert.False(t, hijacked)
}

func TestUpdateEmployee_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPatch, "/employees/nonexistent-id", "application/json", `{"name":"X"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "EMP001", decode[ErrorResponse](t, rr).Code)

	rr = do(t, srv, http.MethodPatch, "/employees/emp_1", "application/json", `{"status":"Retired"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VAL001", decode[ErrorResponse](t, rr).Code)

	rr = do(t, srv, http.MethodPatch, "/employees/emp_1", "application/json", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VAL002", decode[ErrorResponse](t, rr).Code)
}

func TestDeleteEmployee(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodDelete, "/employees/emp_3", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	assert.Equal(t, 2, store.Len())

	rr = do(t, srv, http.MethodDelete, "/employees/emp_3", "", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "EMP001", decode[ErrorResponse](t, rr).Code)
	assert.Equal(t, 2, store.Len())
}

func TestImport_CSV(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	body := "name,email,department,role,status,startdate\nDana,dana@x.com,Engineering,Engineer,Inactive,2024-01-01\n"
	rr := do(t, srv, http.MethodPost, "/employees/import", "text/csv", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":1}`, rr.Body.String())

	dana := core.Apply(store.List(), core.Criteria{Query: "dana"}, nil)
	require.Len(t, dana, 1)
	assert.Equal(t, core.StatusInactive, dana[0].Status)
}

func TestImport_JSON(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	body := `[{"id":"emp_1","name":"Alice J.","email":"alice@company.com"},{"name":"Eve","email":"eve@x.com"}]`
	rr := do(t, srv, http.MethodPost, "/employees/import", "application/json; charset=utf-8", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":2}`, rr.Body.String())
	assert.Equal(t, 4, store.Len())

	alice, _ := store.Get("emp_1")
	assert.Equal(t, "Alice J.", alice.Name)
}

func TestImport_InvalidFormat(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    string
	}{
		{"missing status column", "text/csv", "name,email,department,role,startdate\nDana,d@x.com,Eng,Eng,2024-01-01\n", "IMP002"},
		{"header only", "text/csv", "name,email,department,role,status,startdate\n", "IMP003"},
		{"json object", "application/json", `{"name":"Dana"}`, "IMP004"},
		{"json scalar element", "application/json", `[1,2]`, "IMP004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/employees/import", tt.contentType, tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rr).Code)
			assert.Equal(t, 3, store.Len())
		})
	}
}

func TestImport_TooLarge(t *testing.T) {
	srv, store := newTestServer(t, Options{MaxImportBytes: 64})

	body := "name,email,department,role,status,startdate\n" + strings.Repeat("Dana,dana@x.com,Eng,Eng,Active,2024-01-01\n", 10)
	rr := do(t, srv, http.MethodPost, "/employees/import", "text/csv", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rr).Code)
	assert.Equal(t, 3, store.Len())
}

func TestImport_SlotsExhausted(t *testing.T) {
	srv, store := newTestServer(t, Options{MaxConcurrentImports: 1, ImportQueueWait: 10 * time.Millisecond})
	require.True(t, srv.imports.TryAcquire())

	body := "name,email,department,role,status,startdate\nDana,dana@x.com,Eng,Eng,Active,2024-01-01\n"
	rr := do(t, srv, http.MethodPost, "/employees/import", "text/csv", body)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE002", decode[ErrorResponse](t, rr).Code)
	assert.Equal(t, 3, store.Len())

	srv.imports.Release()
	rr = do(t, srv, http.MethodPost, "/employees/import", "text/csv", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 4, store.Len())
}

func TestExport(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/employees/export", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="employees.json"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, store.List(), decode[[]core.Employee](t, rr))

	rr = do(t, srv, http.MethodGet, "/employees/export?format=csv", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="employees.csv"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "id,name,email,department,role,status,startdate,createdAt,updatedAt\n"))

	rr = do(t, srv, http.MethodGet, "/employees/export?format=xml", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/employees/stats", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	stats := decode[core.DirectoryStats](t, rr)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 3, stats.Departments)
}

func TestHealthAndMetrics(t *testing.T) {
	mc := metrics.New()
	srv, store := newTestServer(t, Options{Metrics: mc, MetricsPath: "/metrics"})
	mc.WithEmployeeGauge(func() float64 { return float64(store.Len()) })

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","employees":3,"imports":{"active":0,"available":5,"maxConcurrent":5}}`, rr.Body.String())

	do(t, srv, http.MethodDelete, "/employees/emp_1", "", "")

	rr = do(t, srv, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "staffdir_employees 2")
	assert.Contains(t, body, `staffdir_employee_mutations_total{op="delete"} 1`)
	assert.Contains(t, body, `route="/employees/{id}"`)
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodGet, "/healthz", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rr).Code)
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, Options{EnableCSP: true})

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}
