package db

import (
	dbmodels "github.com/aymens/orgadmin/internal/orgadmin/db/models"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
)

func companyRow(c *models.Company) *dbmodels.Company {
	return &dbmodels.Company{
		Name:  c.Name,
		TaxID: c.TaxID,
	}
}

func toCompany(row *dbmodels.Company) models.Company {
	return models.Company{
		ID:        row.ID,
		Name:      row.Name,
		TaxID:     row.TaxID,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func departmentRow(d *models.Department) *dbmodels.Department {
	return &dbmodels.Department{
		Name:      d.Name,
		CompanyID: d.CompanyID,
	}
}

func toDepartment(row *dbmodels.Department) models.Department {
	return models.Department{
		ID:        row.ID,
		Name:      row.Name,
		CompanyID: row.CompanyID,
	}
}

func employeeRow(emp *models.Employee) *dbmodels.Employee {
	return &dbmodels.Employee{
		FirstName:    emp.FirstName,
		LastName:     emp.LastName,
		Email:        models.NormalizeEmail(emp.Email),
		HireDate:     emp.HireDate.UTC(),
		DepartmentID: emp.DepartmentID,
	}
}

func toEmployee(row *dbmodels.Employee) models.Employee {
	return models.Employee{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Email:        row.Email,
		HireDate:     row.HireDate.UTC(),
		DepartmentID: row.DepartmentID,
	}
}

func mapRows[R any, M any](rows []R, fn func(*R) M) []M {
	out := make([]M, 0, len(rows))
	for i := range rows {
		out = append(out, fn(&rows[i]))
	}
	return out
}
