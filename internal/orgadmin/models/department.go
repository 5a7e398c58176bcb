package models

// Department is the output representation of a department.
type Department struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CompanyID uint   `json:"companyId"`
}

// DepartmentInput holds the fields accepted when creating a department.
type DepartmentInput struct {
	Name      string `json:"name" validate:"required,notblank,max=50"`
	CompanyID uint   `json:"companyId" validate:"required"`
}

// DepartmentSearch holds the optional filters for a department search.
type DepartmentSearch struct {
	CompanyID    *uint
	Name         *string
	MinEmployees *int
}
