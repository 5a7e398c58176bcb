package db

import (
	"context"

	dbmodels "github.com/aymens/orgadmin/internal/orgadmin/db/models"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
)

var departmentSorts = map[string]string{
	"id":        "id",
	"name":      "name_key",
	"companyId": "company_id",
}

func (r *Repository) CreateDepartment(ctx context.Context, d *models.Department) error {
	row := departmentRow(d)
	if err := r.create(ctx, row); err != nil {
		return err
	}
	*d = toDepartment(row)
	return nil
}

func (r *Repository) GetDepartment(ctx context.Context, id uint) (*models.Department, error) {
	var row dbmodels.Department
	if err := r.get(ctx, &row, models.KindDepartment, id); err != nil {
		return nil, err
	}
	d := toDepartment(&row)
	return &d, nil
}

func (r *Repository) DepartmentExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &dbmodels.Department{}, "id = ?", id)
}

// DepartmentExistsByNameInCompany compares names case-insensitively.
func (r *Repository) DepartmentExistsByNameInCompany(ctx context.Context, name string, companyID uint) (bool, error) {
	return r.exists(ctx, &dbmodels.Department{}, "company_id = ? AND name_key = ?", companyID, dbmodels.NameKey(name))
}

func (r *Repository) DeleteDepartment(ctx context.Context, id uint) error {
	return r.delete(ctx, &dbmodels.Department{}, models.KindDepartment, id)
}

// DeleteDepartmentsByCompany removes every department of the company and
// returns how many were removed.
func (r *Repository) DeleteDepartmentsByCompany(ctx context.Context, companyID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("company_id = ?", companyID).Delete(&dbmodels.Department{})
	return result.RowsAffected, constraintError(result.Error)
}

// FindDepartments returns the page of departments matching f.
func (r *Repository) FindDepartments(ctx context.Context, f query.Filter, page models.PageRequest) (*models.Page[models.Department], error) {
	var rows []dbmodels.Department
	total, err := r.findPage(r.db.WithContext(ctx), &dbmodels.Department{}, departmentsTable, f, page, departmentSorts, &rows)
	if err != nil {
		return nil, err
	}
	return models.NewPage(mapRows(rows, toDepartment), page, total), nil
}

func (r *Repository) CountEmployeesInDepartment(ctx context.Context, departmentID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Where("department_id = ?", departmentID).
		Count(&count)
	return count, result.Error
}
