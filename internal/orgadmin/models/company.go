// Package models defines the domain records for the organization hierarchy:
// the input records accepted on create and the output records returned to callers.
// Output records carry parent references as bare identifiers only.
package models

import (
	"time"
)

// Entity kinds, used when reporting missing records.
const (
	KindCompany    = "Company"
	KindDepartment = "Department"
	KindEmployee   = "Employee"
)

// Company is the output representation of a company.
type Company struct {
	// ID is the server-assigned identifier.
	ID uint `json:"id"`
	// Name is the company's name.
	Name string `json:"name"`
	// TaxID is the globally unique 10-digit tax identifier.
	TaxID string `json:"taxId"`
	// CreatedAt is set once on creation and never changes.
	CreatedAt time.Time `json:"createdAt"`
}

// CompanyInput holds the fields accepted when creating a company.
type CompanyInput struct {
	Name  string `json:"name" validate:"required,notblank,max=100"`
	TaxID string `json:"taxId" validate:"required,taxid"`
}

// CompanySearch holds the optional filters for a company search.
// Nil fields impose no restriction.
type CompanySearch struct {
	Name           *string
	MinDepartments *int
	MinEmployees   *int
	CreatedAfter   *time.Time
}
