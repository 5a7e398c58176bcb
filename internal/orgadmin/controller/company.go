package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/aymens/orgadmin/internal/orgadmin/db"
	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/aymens/orgadmin/internal/orgadmin/events"
	"github.com/aymens/orgadmin/internal/orgadmin/metrics"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
	"go.uber.org/zap"
)

// CompanyService manages companies and the cascade of their departments.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	settings
}

// NewCompanyService constructs a CompanyService with a repository,
// an event producer, and a logger.
func NewCompanyService(repo Repository, producer EventProducer, logger *zap.Logger, opts ...Option) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("company_service"),
		settings: newSettings(opts),
	}
}

func duplicateTaxID(taxID string) error {
	return e.Conflict("Company with tax id %s already exists", taxID)
}

// CreateCompany validates the input, rejects a tax id that is already in use
// and stores the company with a server-assigned id and creation time.
func (s *CompanyService) CreateCompany(ctx context.Context, in *models.CompanyInput) (*models.Company, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: company data required", e.ErrInvalidInput)
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	company := &models.Company{Name: in.Name, TaxID: in.TaxID}
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.CompanyExistsByTaxID(ctx, in.TaxID)
		if err != nil {
			return fmt.Errorf("failed to check tax id existence: %w", err)
		}
		if exists {
			return duplicateTaxID(in.TaxID)
		}
		if err := tx.CreateCompany(ctx, company); err != nil {
			if errors.Is(err, e.ErrDuplicate) {
				return duplicateTaxID(in.TaxID)
			}
			return fmt.Errorf("failed to create company: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation(models.KindCompany, "create", err)
	if err != nil {
		return nil, err
	}

	s.producer.Produce(events.NewEvent(events.CompanyCreated, models.KindCompany, company.ID, company))
	return company, nil
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *CompanyService) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company *models.Company
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		company, err = tx.GetCompany(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// ListAllCompanies returns every company without paging.
func (s *CompanyService) ListAllCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		companies, err = tx.ListCompanies(ctx)
		return err
	})
	return companies, err
}

// ListCompanies returns one page of all companies.
func (s *CompanyService) ListCompanies(ctx context.Context, page models.PageRequest) (*models.Page[models.Company], error) {
	return s.FindCompanies(ctx, models.CompanySearch{}, page)
}

// FindCompanies returns the companies matching every filter set in search.
func (s *CompanyService) FindCompanies(ctx context.Context, search models.CompanySearch, page models.PageRequest) (*models.Page[models.Company], error) {
	filter := query.And(
		query.NameContains(search.Name, "name"),
		query.MinCount(query.DepartmentsOfCompany, search.MinDepartments),
		query.MinCount(query.EmployeesOfCompany, search.MinEmployees),
		query.Since("created_at", utc(search.CreatedAfter)),
	)

	var result *models.Page[models.Company]
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		result, err = tx.FindCompanies(ctx, filter, s.page(page))
		return err
	})
	return result, err
}

// FindWithMinDepartments returns companies owning at least min departments.
func (s *CompanyService) FindWithMinDepartments(ctx context.Context, min int, page models.PageRequest) (*models.Page[models.Company], error) {
	return s.FindCompanies(ctx, models.CompanySearch{MinDepartments: &min}, page)
}

// FindWithMinEmployees returns companies whose departments employ at least min people in total.
func (s *CompanyService) FindWithMinEmployees(ctx context.Context, min int, page models.PageRequest) (*models.Page[models.Company], error) {
	return s.FindCompanies(ctx, models.CompanySearch{MinEmployees: &min}, page)
}

// FindWithMinDepartmentsAndEmployees applies both thresholds at once.
func (s *CompanyService) FindWithMinDepartmentsAndEmployees(
	ctx context.Context,
	minDepartments, minEmployees int,
	page models.PageRequest,
) (*models.Page[models.Company], error) {
	return s.FindCompanies(ctx, models.CompanySearch{
		MinDepartments: &minDepartments,
		MinEmployees:   &minEmployees,
	}, page)
}

func companyStaffed() error {
	return e.Conflict("Cannot delete company with existing employees")
}

// DeleteCompany removes a company together with its departments. It refuses
// while any of those departments still has an employee.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uint) error {
	var company *models.Company
	var removed int64
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		company, err = tx.GetCompany(ctx, id)
		if err != nil {
			return err
		}

		employees, err := tx.CountEmployeesInCompany(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count company employees: %w", err)
		}
		if employees > 0 {
			return companyStaffed()
		}

		// A child inserted by a concurrent transaction trips the foreign key.
		removed, err = tx.DeleteDepartmentsByCompany(ctx, id)
		if err != nil {
			if errors.Is(err, e.ErrReferenced) {
				return companyStaffed()
			}
			return fmt.Errorf("failed to delete company departments: %w", err)
		}
		if err := tx.DeleteCompany(ctx, id); err != nil {
			if errors.Is(err, e.ErrReferenced) {
				return e.Conflict("Cannot delete company with existing departments")
			}
			return fmt.Errorf("failed to delete company: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation(models.KindCompany, "delete", err)
	if err != nil {
		return err
	}

	s.logger.Info("company deleted",
		zap.Uint("company_id", id),
		zap.Int64("departments_removed", removed),
	)
	s.producer.Produce(events.NewEvent(events.CompanyDeleted, models.KindCompany, id, company))
	return nil
}

// CompanyExists reports whether a company with id exists.
func (s *CompanyService) CompanyExists(ctx context.Context, id uint) (bool, error) {
	var exists bool
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		exists, err = tx.CompanyExists(ctx, id)
		return err
	})
	return exists, err
}
