package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/JonMunkholm/staffdir/internal/core"
	"github.com/JonMunkholm/staffdir/internal/logging"
)

// Directory is the remote API the cache reconciles with. *Client implements it.
type Directory interface {
	List(ctx context.Context) ([]core.Employee, error)
	Create(ctx context.Context, in core.NewEmployeeInput) (core.Employee, error)
	Update(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, r io.Reader, kind core.ContentKind) (core.ImportResult, error)
}

// Cache holds a local copy of the directory. Every change goes to the
// server first; the local copy is patched only after the server accepted it.
// Concurrent calls are not queued or deduplicated: the last reply wins.
type Cache struct {
	dir       Directory
	collation *core.Collation

	mu       sync.Mutex
	records  []core.Employee
	revision uint64

	view     []core.Employee
	viewKey  core.Criteria
	viewRev  uint64
	haveView bool
}

// NewCache returns an empty cache backed by dir. Views are collated with
// col, or core.DefaultLocale when col is nil.
func NewCache(dir Directory, col *core.Collation) *Cache {
	if col == nil {
		col = core.MustCollation(core.DefaultLocale)
	}
	return &Cache{dir: dir, collation: col}
}

// Refresh replaces the local copy with the server list.
func (c *Cache) Refresh(ctx context.Context) error {
	records, err := c.dir.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.records = records
	c.revision++
	c.mu.Unlock()
	return nil
}

// Create adds an employee on the server and prepends the stored record.
func (c *Cache) Create(ctx context.Context, in core.NewEmployeeInput) (core.Employee, error) {
	emp, err := c.dir.Create(ctx, in)
	if err != nil {
		return core.Employee{}, err
	}

	c.mu.Lock()
	rest := slices.DeleteFunc(slices.Clone(c.records), func(e core.Employee) bool { return e.ID == emp.ID })
	c.records = append([]core.Employee{emp}, rest...)
	c.revision++
	c.mu.Unlock()
	return emp, nil
}

// Update patches an employee on the server. The local record is replaced
// unless it is already newer than the server's reply.
func (c *Cache) Update(ctx context.Context, id string, patch core.EmployeePatch) (core.Employee, error) {
	emp, err := c.dir.Update(ctx, id, patch)
	if err != nil {
		return core.Employee{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.records, func(e core.Employee) bool { return e.ID == emp.ID })
	if i < 0 {
		return emp, nil
	}
	if emp.UpdatedAt.Before(c.records[i].UpdatedAt) {
		logging.FromContext(ctx).Debug("stale update reply ignored", "id", emp.ID)
		return emp, nil
	}
	c.records = slices.Clone(c.records)
	c.records[i] = emp
	c.revision++
	return emp, nil
}

// Delete removes an employee on the server and locally. A record the
// server no longer knows is dropped locally as well and is not an error.
func (c *Cache) Delete(ctx context.Context, id string) error {
	err := c.dir.Delete(ctx, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}

	c.mu.Lock()
	n := len(c.records)
	c.records = slices.DeleteFunc(slices.Clone(c.records), func(e core.Employee) bool { return e.ID == id })
	if len(c.records) != n {
		c.revision++
	}
	c.mu.Unlock()
	return nil
}

// Import uploads a payload and then reloads the whole directory, since an
// import may touch any record.
func (c *Cache) Import(ctx context.Context, r io.Reader, kind core.ContentKind) (core.ImportResult, error) {
	result, err := c.dir.Import(ctx, r, kind)
	if err != nil {
		return result, err
	}
	if err := c.Refresh(ctx); err != nil {
		return result, fmt.Errorf("refresh after import: %w", err)
	}
	return result, nil
}

// Employees returns a copy of the local records.
func (c *Cache) Employees() []core.Employee {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Revision increases on every change to the local records.
func (c *Cache) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// View derives the filtered, sorted records for criteria. The last result
// is reused while neither the records nor the criteria change.
func (c *Cache) View(criteria core.Criteria) []core.Employee {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.haveView || c.viewRev != c.revision || c.viewKey != criteria {
		c.view = core.Apply(c.records, criteria, c.collation)
		c.viewKey = criteria
		c.viewRev = c.revision
		c.haveView = true
	}
	return slices.Clone(c.view)
}
