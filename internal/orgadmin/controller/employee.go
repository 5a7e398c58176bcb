package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aymens/orgadmin/internal/orgadmin/db"
	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/aymens/orgadmin/internal/orgadmin/events"
	"github.com/aymens/orgadmin/internal/orgadmin/metrics"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
	"go.uber.org/zap"
)

// EmployeeService manages employees.
type EmployeeService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	settings
}

func NewEmployeeService(repo Repository, producer EventProducer, logger *zap.Logger, opts ...Option) *EmployeeService {
	return &EmployeeService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("employee_service"),
		settings: newSettings(opts),
	}
}

func duplicateEmail(email string) error {
	return e.Conflict("Employee with email %s already exists", email)
}

// CreateEmployee stores an employee in an existing department. Emails are
// stored lower-cased and are unique across all companies.
func (s *EmployeeService) CreateEmployee(ctx context.Context, in *models.EmployeeInput) (*models.Employee, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: employee data required", e.ErrInvalidInput)
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	employee := &models.Employee{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        models.NormalizeEmail(in.Email),
		HireDate:     in.HireDate.UTC(),
		DepartmentID: in.DepartmentID,
	}
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.DepartmentExists(ctx, in.DepartmentID)
		if err != nil {
			return fmt.Errorf("failed to check department existence: %w", err)
		}
		if !exists {
			return e.NotFound(models.KindDepartment, in.DepartmentID)
		}

		taken, err := tx.EmployeeExistsByEmail(ctx, employee.Email)
		if err != nil {
			return fmt.Errorf("failed to check email existence: %w", err)
		}
		if taken {
			return duplicateEmail(employee.Email)
		}

		if err := tx.CreateEmployee(ctx, employee); err != nil {
			if errors.Is(err, e.ErrDuplicate) {
				return duplicateEmail(employee.Email)
			}
			if errors.Is(err, e.ErrReferenced) {
				return e.NotFound(models.KindDepartment, in.DepartmentID)
			}
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation(models.KindEmployee, "create", err)
	if err != nil {
		return nil, err
	}

	s.producer.Produce(events.NewEvent(events.EmployeeCreated, models.KindEmployee, employee.ID, employee))
	return employee, nil
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var employee *models.Employee
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		employee, err = tx.GetEmployee(ctx, id)
		return err
	})
	return employee, err
}

// GetEmployeesByDepartment lists the employees of a department, failing with
// NotFound when the department does not exist.
func (s *EmployeeService) GetEmployeesByDepartment(ctx context.Context, departmentID uint, page models.PageRequest) (*models.Page[models.Employee], error) {
	var result *models.Page[models.Employee]
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.DepartmentExists(ctx, departmentID)
		if err != nil {
			return err
		}
		if !exists {
			return e.NotFound(models.KindDepartment, departmentID)
		}
		result, err = tx.FindEmployees(ctx, query.And(query.FieldEquals("department_id", &departmentID)), s.page(page))
		return err
	})
	return result, err
}

// FindEmployees returns the employees matching every filter set in search.
// The hire date bounds are inclusive.
func (s *EmployeeService) FindEmployees(ctx context.Context, search models.EmployeeSearch, page models.PageRequest) (*models.Page[models.Employee], error) {
	filter := query.And(
		query.FieldEquals("department_id", search.DepartmentID),
		query.NameContains(search.Name, "first_name", "last_name"),
		query.Since("hire_date", utc(search.HiredFrom)),
		query.Until("hire_date", utc(search.HiredTo)),
	)

	var result *models.Page[models.Employee]
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		result, err = tx.FindEmployees(ctx, filter, s.page(page))
		return err
	})
	return result, err
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uint) error {
	var employee *models.Employee
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		employee, err = tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		return tx.DeleteEmployee(ctx, id)
	})
	metrics.ObserveOperation(models.KindEmployee, "delete", err)
	if err != nil {
		return err
	}

	s.producer.Produce(events.NewEvent(events.EmployeeDeleted, models.KindEmployee, id, employee))
	return nil
}

func (s *EmployeeService) EmployeeExists(ctx context.Context, id uint) (bool, error) {
	var exists bool
	err := s.repo.WithReadOnlyTransaction(ctx, func(tx *db.Repository) error {
		var err error
		exists, err = tx.EmployeeExists(ctx, id)
		return err
	})
	return exists, err
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
