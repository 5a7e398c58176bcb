package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aymens/orgadmin/internal/orgadmin/db"
	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/aymens/orgadmin/internal/orgadmin/events"
	"github.com/aymens/orgadmin/internal/orgadmin/metrics"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
	"go.uber.org/zap"
)

// DepartmentService manages departments and the transfer of their employees.
type DepartmentService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	settings
}

func NewDepartmentService(repo Repository, producer EventProducer, logger *zap.Logger, opts ...Option) *DepartmentService {
	return &DepartmentService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("department_service"),
		settings: newSettings(opts),
	}
}

func duplicateDepartment(name string, companyID uint) error {
	return e.Conflict("Department %s already exists in company %d", name, companyID)
}

// CreateDepartment stores a department under an existing company. Names are
// unique per company, ignoring case.
func (s *DepartmentService) CreateDepartment(ctx context.Context, in *models.DepartmentInput) (*models.Department, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: department data required", e.ErrInvalidInput)
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	department := &models.Department{Name: name, CompanyID: in.CompanyID}
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.CompanyExists(ctx, in.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to check company existence: %w", err)
		}
		if !exists {
			return e.NotFound(models.KindCompany, in.CompanyID)
		}

		taken, err := tx.DepartmentExistsByNameInCompany(ctx, name, in.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to check department name: %w", err)
		}
		if taken {
			return duplicateDepartment(name, in.CompanyID)
		}

		if err := tx.CreateDepartment(ctx, department); err != nil {
			if errors.Is(err, e.ErrDuplicate) {
				return duplicateDepartment(name, in.CompanyID)
			}
			if errors.Is(err, e.ErrReferenced) {
				return e.NotFound(models.KindCompany, in.CompanyID)
			}
			return fmt.Errorf("failed to create department: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation(models.KindDepartment, "create", err)
	if err != nil {
		return nil, err
	}

	s.producer.Produce(events.NewEvent(events.DepartmentCreated, models.KindDepartment, department.ID, department))
	return department, nil
}

func (s *DepartmentService) GetDepartment(ctx context.Context, id uint) (*models.Department, error) {
	var department *models.Department
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		department, err = tx.GetDepartment(ctx, id)
		return err
	})
	return department, err
}

// GetDepartmentsByCompany lists the departments of a company, failing with
// NotFound when the company does not exist.
func (s *DepartmentService) GetDepartmentsByCompany(ctx context.Context, companyID uint, page models.PageRequest) (*models.Page[models.Department], error) {
	var result *models.Page[models.Department]
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.CompanyExists(ctx, companyID)
		if err != nil {
			return err
		}
		if !exists {
			return e.NotFound(models.KindCompany, companyID)
		}
		result, err = tx.FindDepartments(ctx, query.And(query.FieldEquals("company_id", &companyID)), s.page(page))
		return err
	})
	return result, err
}

// FindDepartments returns the departments matching every filter set in search.
func (s *DepartmentService) FindDepartments(ctx context.Context, search models.DepartmentSearch, page models.PageRequest) (*models.Page[models.Department], error) {
	filter := query.And(
		query.FieldEquals("company_id", search.CompanyID),
		query.NameContains(search.Name, "name"),
		query.MinCount(query.EmployeesOfDepartment, search.MinEmployees),
	)

	var result *models.Page[models.Department]
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		result, err = tx.FindDepartments(ctx, filter, s.page(page))
		return err
	})
	return result, err
}

// DeleteDepartment removes a department. A department that still has
// employees is only removed when transferTo names another department of the
// same company; its employees move there first within the same transaction.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uint, transferTo *uint) error {
	var source *models.Department
	var moved int64
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		source, err = tx.GetDepartment(ctx, id)
		if err != nil {
			return err
		}

		employees, err := tx.CountEmployeesInDepartment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count department employees: %w", err)
		}

		if employees > 0 {
			if transferTo == nil {
				return e.Conflict("Must specify a transfer department id")
			}
			target, err := tx.GetDepartment(ctx, *transferTo)
			if err != nil {
				return err
			}
			if target.CompanyID != source.CompanyID {
				return e.Conflict("Target department must be in the same company")
			}
			if target.ID == source.ID {
				return e.Conflict("Cannot transfer to the same department")
			}

			moved, err = tx.TransferEmployees(ctx, source.ID, target.ID)
			if err != nil {
				if errors.Is(err, e.ErrReferenced) {
					return e.NotFound(models.KindDepartment, target.ID)
				}
				return fmt.Errorf("failed to transfer employees: %w", err)
			}
		}

		// An employee hired by a concurrent transaction trips the foreign key.
		if err := tx.DeleteDepartment(ctx, id); err != nil {
			if errors.Is(err, e.ErrReferenced) {
				return e.Conflict("Cannot delete department with existing employees")
			}
			return fmt.Errorf("failed to delete department: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation(models.KindDepartment, "delete", err)
	if err != nil {
		return err
	}

	if moved > 0 {
		metrics.ObserveTransfer(moved)
		s.logger.Info("employees transferred",
			zap.Uint("from_department_id", id),
			zap.Uint("to_department_id", *transferTo),
			zap.Int64("employees", moved),
		)
		s.producer.Produce(events.NewEvent(events.EmployeesTransferred, models.KindDepartment, id, events.Transfer{
			FromDepartmentID: id,
			ToDepartmentID:   *transferTo,
			Employees:        moved,
		}))
	}
	s.producer.Produce(events.NewEvent(events.DepartmentDeleted, models.KindDepartment, id, source))
	return nil
}

func (s *DepartmentService) DepartmentExists(ctx context.Context, id uint) (bool, error) {
	var exists bool
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		exists, err = tx.DepartmentExists(ctx, id)
		return err
	})
	return exists, err
}
