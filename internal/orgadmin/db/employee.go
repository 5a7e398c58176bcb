package db

import (
	"context"

	dbmodels "github.com/aymens/orgadmin/internal/orgadmin/db/models"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
)

var employeeSorts = map[string]string{
	"id":           "id",
	"firstName":    "first_name",
	"lastName":     "last_name",
	"email":        "email",
	"hireDate":     "hire_date",
	"departmentId": "department_id",
}

func (r *Repository) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	row := employeeRow(emp)
	if err := r.create(ctx, row); err != nil {
		return err
	}
	*emp = toEmployee(row)
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var row dbmodels.Employee
	if err := r.get(ctx, &row, models.KindEmployee, id); err != nil {
		return nil, err
	}
	emp := toEmployee(&row)
	return &emp, nil
}

func (r *Repository) EmployeeExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &dbmodels.Employee{}, "id = ?", id)
}

// EmployeeExistsByEmail matches email ignoring case.
func (r *Repository) EmployeeExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, &dbmodels.Employee{}, "email = ?", models.NormalizeEmail(email))
}

func (r *Repository) DeleteEmployee(ctx context.Context, id uint) error {
	return r.delete(ctx, &dbmodels.Employee{}, models.KindEmployee, id)
}

// TransferEmployees moves every employee of department from to department to
// in a single statement and returns how many rows moved.
func (r *Repository) TransferEmployees(ctx context.Context, from, to uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("department_id = ?", from).
		Update("department_id", to)
	return result.RowsAffected, constraintError(result.Error)
}

// FindEmployees returns the page of employees matching f.
func (r *Repository) FindEmployees(ctx context.Context, f query.Filter, page models.PageRequest) (*models.Page[models.Employee], error) {
	var rows []dbmodels.Employee
	total, err := r.findPage(r.db.WithContext(ctx), &dbmodels.Employee{}, employeesTable, f, page, employeeSorts, &rows)
	if err != nil {
		return nil, err
	}
	return models.NewPage(mapRows(rows, toEmployee), page, total), nil
}
