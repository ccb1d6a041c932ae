package core

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// StoreOptions configures a Store. Zero values select the defaults.
type StoreOptions struct {
	IDs       IDGenerator // default: NewRandomIDGenerator(nil)
	Clock     Clock       // default: UTC wall clock
	Collation *Collation  // default: DefaultLocale
}

type entry struct {
	emp Employee
	seq uint64 // insertion order, kept across overwrites
}

// Store is the canonical in-memory mapping of id to Employee.
// Every method is atomic; nothing else is coordinated across calls.
type Store struct {
	mu      sync.RWMutex
	records map[string]entry
	nextSeq uint64

	ids       IDGenerator
	clock     Clock
	collation *Collation
}

// NewStore creates an empty Store.
func NewStore(opts StoreOptions) *Store {
	if opts.IDs == nil {
		opts.IDs = NewRandomIDGenerator(nil)
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Collation == nil {
		opts.Collation = MustCollation(DefaultLocale)
	}
	return &Store{
		records:   make(map[string]entry),
		ids:       opts.IDs,
		clock:     opts.Clock,
		collation: opts.Collation,
	}
}

// Collation returns the collation used to order List results.
func (s *Store) Collation() *Collation {
	return s.collation
}

// List returns every record sorted by name. Equal names keep insertion order.
func (s *Store) List() []Employee {
	s.mu.RLock()
	entries := make([]entry, 0, len(s.records))
	for _, e := range s.records {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		if c := s.collation.Compare(a.emp.Name, b.emp.Name); c != 0 {
			return c
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	out := make([]Employee, len(entries))
	for i, e := range entries {
		out[i] = e.emp
	}
	return out
}

// Get returns the record stored under id.
func (s *Store) Get(id string) (Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[id]
	return e.emp, ok
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Create stores a new record with a fresh identity.
func (s *Store) Create(in NewEmployeeInput) (Employee, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return Employee{}, fmt.Errorf("generate id: %w", err)
	}

	s.mu.Lock()
	now := s.clock.Now()
	emp := in.build(id, now, now)
	s.put(emp)
	s.mu.Unlock()

	slog.Debug("employee created", "id", emp.ID)
	return emp, nil
}

// Update merges patch over the record stored under id and advances UpdatedAt.
// Returns ErrNotFound, leaving the store unchanged, when id is absent.
func (s *Store) Update(id string, patch EmployeePatch) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[id]
	if !ok {
		return Employee{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}

	next := cur.emp
	patch.applyTo(&next)
	next.UpdatedAt = s.advance(cur.emp.UpdatedAt)
	s.records[id] = entry{emp: next, seq: cur.seq}

	slog.Debug("employee updated", "id", id)
	return next, nil
}

// Remove deletes the record stored under id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	slog.Debug("employee removed", "id", id)
	return true
}

// Upsert stores rec under its own id, inserting or overwriting.
// A new record keeps the supplied CreatedAt (or now); an overwritten record
// keeps its original CreatedAt. UpdatedAt is always set to now.
// The boolean reports whether an existing record was overwritten.
func (s *Store) Upsert(rec FullEmployeeRecord) (Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.records[rec.ID]

	var emp Employee
	if exists {
		emp = rec.build(rec.ID, cur.emp.CreatedAt, s.advance(cur.emp.UpdatedAt))
		s.records[rec.ID] = entry{emp: emp, seq: cur.seq}
	} else {
		now := s.clock.Now()
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		emp = rec.build(rec.ID, createdAt, now)
		s.put(emp)
	}
	return emp, exists
}

// put inserts a record that is not yet stored. Caller holds mu.
func (s *Store) put(emp Employee) {
	s.nextSeq++
	s.records[emp.ID] = entry{emp: emp, seq: s.nextSeq}
}

// advance returns now, or prev+1ns when the clock has not moved past prev.
func (s *Store) advance(prev time.Time) time.Time {
	now := s.clock.Now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}
