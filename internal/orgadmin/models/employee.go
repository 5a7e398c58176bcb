package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
)

// Employee is the output representation of an employee.
type Employee struct {
	ID           uint      `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	HireDate     time.Time `json:"hireDate"`
	DepartmentID uint      `json:"departmentId"`
}

// EmployeeInput holds the fields accepted when creating an employee.
type EmployeeInput struct {
	FirstName    string    `json:"firstName" validate:"required,notblank,max=50"`
	LastName     string    `json:"lastName" validate:"required,notblank,max=50"`
	Email        string    `json:"email" validate:"required,email"`
	HireDate     time.Time `json:"hireDate" validate:"required,notfuture"`
	DepartmentID uint      `json:"departmentId" validate:"required"`
}

// UnmarshalJSON reads hireDate with ParseDate. A value it cannot read is
// reported as a hireDate field error rather than a malformed body.
func (in *EmployeeInput) UnmarshalJSON(data []byte) error {
	type plain EmployeeInput
	aux := struct {
		*plain
		HireDate json.RawMessage `json:"hireDate"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.HireDate) == 0 || bytes.Equal(aux.HireDate, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(aux.HireDate, &raw); err != nil {
		return invalidHireDate()
	}
	t, err := ParseDate(raw)
	if err != nil {
		return invalidHireDate()
	}
	in.HireDate = t
	return nil
}

func invalidHireDate() error {
	return &e.ValidationError{Fields: map[string]string{
		"hireDate": "must be a date (yyyy-MM-dd) or an RFC 3339 date-time",
	}}
}

// NormalizeEmail lower-cases and trims an address so that addresses differing
// only in case are treated as the same.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseDate accepts an RFC 3339 date-time or a bare yyyy-MM-dd date, which
// is read as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// EmployeeSearch holds the optional filters for an employee search.
// Name matches either the first or the last name.
type EmployeeSearch struct {
	DepartmentID *uint
	Name         *string
	HiredFrom    *time.Time
	HiredTo      *time.Time
}
