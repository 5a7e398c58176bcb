package db

import (
	"context"
	"fmt"

	dbmodels "github.com/aymens/orgadmin/internal/orgadmin/db/models"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
)

var companySorts = map[string]string{
	"id":        "id",
	"name":      "name",
	"taxId":     "tax_id",
	"createdAt": "created_at",
}

// CreateCompany inserts c and fills in its id and creation time.
func (r *Repository) CreateCompany(ctx context.Context, c *models.Company) error {
	row := companyRow(c)
	if err := r.create(ctx, row); err != nil {
		return err
	}
	*c = toCompany(row)
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var row dbmodels.Company
	if err := r.get(ctx, &row, models.KindCompany, id); err != nil {
		return nil, err
	}
	c := toCompany(&row)
	return &c, nil
}

func (r *Repository) CompanyExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &dbmodels.Company{}, "id = ?", id)
}

func (r *Repository) CompanyExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	return r.exists(ctx, &dbmodels.Company{}, "tax_id = ?", taxID)
}

// DeleteCompany removes the company row only; callers remove its departments first.
func (r *Repository) DeleteCompany(ctx context.Context, id uint) error {
	return r.delete(ctx, &dbmodels.Company{}, models.KindCompany, id)
}

// ListCompanies returns every company ordered by id.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var rows []dbmodels.Company
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return mapRows(rows, toCompany), nil
}

// FindCompanies returns the page of companies matching f.
func (r *Repository) FindCompanies(ctx context.Context, f query.Filter, page models.PageRequest) (*models.Page[models.Company], error) {
	var rows []dbmodels.Company
	total, err := r.findPage(r.db.WithContext(ctx), &dbmodels.Company{}, companiesTable, f, page, companySorts, &rows)
	if err != nil {
		return nil, err
	}
	return models.NewPage(mapRows(rows, toCompany), page, total), nil
}

// CountEmployeesInCompany sums the employees of every department of the company.
func (r *Repository) CountEmployeesInCompany(ctx context.Context, companyID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Employee{}).
		Joins("JOIN departments ON departments.id = employees.department_id").
		Where("departments.company_id = ?", companyID).
		Count(&count)
	return count, result.Error
}
