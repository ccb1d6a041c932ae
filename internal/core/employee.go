package core

import "time"

// Status is the employment status of an employee.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// NormalizeStatus maps any input to a valid Status. Only the exact literal
// "Inactive" yields StatusInactive; everything else is Active.
func NormalizeStatus(s string) Status {
	if s == string(StatusInactive) {
		return StatusInactive
	}
	return StatusActive
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// DateLayout is the storage format of Employee.StartDate.
const DateLayout = "2006-01-02"

// Employee is the single entity owned by the Store.
type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	Status     Status    `json:"status"`
	StartDate  string    `json:"startDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewEmployeeInput holds the caller-supplied fields of an employee that does
// not have an identity yet.
type NewEmployeeInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Status     Status `json:"status"`
	StartDate  string `json:"startDate"`
}

// Validate performs the minimal shape check applied to explicit creates.
func (in NewEmployeeInput) Validate() error {
	if in.Name == "" {
		return fieldError("name", ErrInvalidInput)
	}
	if in.Email == "" {
		return fieldError("email", ErrInvalidInput)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fieldError("status", ErrInvalidInput)
	}
	return nil
}

// EmployeePatch is a partial update. Nil fields are left untouched.
// Identity and creation time are deliberately absent.
type EmployeePatch struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
	Role       *string `json:"role,omitempty"`
	Status     *Status `json:"status,omitempty"`
	StartDate  *string `json:"startDate,omitempty"`
}

// Validate rejects patches that would break the Employee invariants.
func (p EmployeePatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return fieldError("name", ErrInvalidInput)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fieldError("status", ErrInvalidInput)
	}
	return nil
}

// Empty reports whether the patch carries no fields.
func (p EmployeePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Department == nil &&
		p.Role == nil && p.Status == nil && p.StartDate == nil
}

func (p EmployeePatch) applyTo(e *Employee) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.Role != nil {
		e.Role = *p.Role
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
}

// FullEmployeeRecord is an import record that already carries an identity.
// A zero CreatedAt means the import did not supply one.
type FullEmployeeRecord struct {
	NewEmployeeInput
	ID        string
	CreatedAt time.Time
}

// ImportRecord is one parsed import element: either a NewEmployeeInput or a
// FullEmployeeRecord.
type ImportRecord interface {
	importRecord()
}

func (NewEmployeeInput) importRecord()   {}
func (FullEmployeeRecord) importRecord() {}

func (in NewEmployeeInput) build(id string, createdAt, updatedAt time.Time) Employee {
	status := in.Status
	if !status.Valid() {
		status = StatusActive
	}
	return Employee{
		ID:         id,
		Name:       in.Name,
		Email:      in.Email,
		Department: in.Department,
		Role:       in.Role,
		Status:     status,
		StartDate:  in.StartDate,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}
