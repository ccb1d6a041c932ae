package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/JonMunkholm/staffdir/internal/logging"
	"github.com/go-chi/chi/v5"
)

// queryParams are the directory view filters accepted by GET /employees.
var queryParams = []string{"q", "department", "role", "status", "sort", "dir"}

// handleListEmployees returns the directory. Without view parameters the
// store order is returned unchanged.
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	records := s.store.List()

	criteria, ok, err := parseCriteria(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if ok {
		records = core.Apply(records, criteria, s.store.Collation())
	}

	writeJSON(w, http.StatusOK, records)
}

// parseCriteria reads view parameters. ok is false when none are present.
func parseCriteria(r *http.Request) (core.Criteria, bool, error) {
	q := r.URL.Query()

	present := false
	for _, p := range queryParams {
		if q.Has(p) {
			present = true
			break
		}
	}
	if !present {
		return core.Criteria{}, false, nil
	}

	dir, err := core.ParseSortDirection(q.Get("dir"))
	if err != nil {
		return core.Criteria{}, false, err
	}

	c := core.DefaultCriteria()
	c.Query = q.Get("q")
	c.SortDirection = dir
	if v := q.Get("department"); v != "" {
		c.Department = v
	}
	if v := q.Get("role"); v != "" {
		c.Role = v
	}
	if v := q.Get("status"); v != "" {
		c.Status = v
	}
	if v := q.Get("sort"); v != "" {
		c.SortKey = v
	}
	return c, true, nil
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in core.NewEmployeeInput
	if err := decodeBody(w, r, &in); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	in.Status = core.NormalizeStatus(string(in.Status))
	if err := in.Validate(); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	emp, err := s.store.Create(in)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.metrics.ObserveMutation("create")
	logging.FromContext(r.Context()).Info("employee created", "id", emp.ID)
	writeJSON(w, http.StatusCreated, emp)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch core.EmployeePatch
	if err := decodeBody(w, r, &patch); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	emp, err := s.store.Update(id, patch)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	s.metrics.ObserveMutation("update")
	logging.FromContext(r.Context()).Info("employee updated", "id", emp.ID)
	writeJSON(w, http.StatusOK, emp)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.store.Remove(id) {
		respondError(w, r, fmt.Errorf("delete %q: %w", id, core.ErrNotFound), http.StatusNotFound)
		return
	}

	s.metrics.ObserveMutation("delete")
	logging.FromContext(r.Context()).Info("employee deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Summarize(s.store.List()))
}

// decodeBody reads a single JSON value from a size-limited body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMutationBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}
