// Package models contains the storage rows for the organization hierarchy,
// configured to work using GORM as the ORM.
// Children reference their parent by id and the parent side declares the
// foreign key, so a parent with children cannot be deleted.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Company is a row of the companies table. NameKey is the lower-cased name
// matched by name searches.
type Company struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:100;not null"`
	NameKey   string    `gorm:"not null;default:''"`
	TaxID     string    `gorm:"size:10;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`

	Departments []Department `gorm:"foreignKey:CompanyID;constraint:OnDelete:RESTRICT"`
}

// Department is a row of the departments table. NameKey holds the lower-cased
// name so that (company_id, name_key) enforces case-insensitive uniqueness.
type Department struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:50;not null"`
	NameKey   string `gorm:"size:50;not null;uniqueIndex:idx_department_company_name,priority:2"`
	CompanyID uint   `gorm:"not null;index;uniqueIndex:idx_department_company_name,priority:1"`

	Employees []Employee `gorm:"foreignKey:DepartmentID;constraint:OnDelete:RESTRICT"`
}

// BeforeSave keeps NameKey in sync with Name.
func (c *Company) BeforeSave(_ *gorm.DB) error {
	c.NameKey = NameKey(c.Name)
	return nil
}

// BeforeSave keeps NameKey in sync with Name.
func (d *Department) BeforeSave(_ *gorm.DB) error {
	d.NameKey = NameKey(d.Name)
	return nil
}

// NameKey normalizes a name for case-insensitive matching. Lower-casing
// happens here because SQLite's LOWER only folds ASCII.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Employee is a row of the employees table.
type Employee struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	FirstName    string    `gorm:"size:50;not null"`
	FirstNameKey string    `gorm:"not null;default:''"`
	LastName     string    `gorm:"size:50;not null"`
	LastNameKey  string    `gorm:"not null;default:''"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	HireDate     time.Time `gorm:"not null"`
	DepartmentID uint      `gorm:"not null;index"`
}

// BeforeSave keeps the name keys in sync with the names.
func (emp *Employee) BeforeSave(_ *gorm.DB) error {
	emp.FirstNameKey = NameKey(emp.FirstName)
	emp.LastNameKey = NameKey(emp.LastName)
	return nil
}

// All lists every row type in migration order.
func All() []any {
	return []any{&Company{}, &Department{}, &Employee{}}
}
