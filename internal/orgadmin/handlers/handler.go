package handlers

import (
	"context"
	"net/http"

	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

// CompanyController defines the company operations the handlers invoke.
type CompanyController interface {
	CreateCompany(ctx context.Context, in *models.CompanyInput) (*models.Company, error)
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	FindCompanies(ctx context.Context, search models.CompanySearch, page models.PageRequest) (*models.Page[models.Company], error)
	DeleteCompany(ctx context.Context, id uint) error
	CompanyExists(ctx context.Context, id uint) (bool, error)
}

// DepartmentController defines the department operations the handlers invoke.
type DepartmentController interface {
	CreateDepartment(ctx context.Context, in *models.DepartmentInput) (*models.Department, error)
	GetDepartment(ctx context.Context, id uint) (*models.Department, error)
	GetDepartmentsByCompany(ctx context.Context, companyID uint, page models.PageRequest) (*models.Page[models.Department], error)
	FindDepartments(ctx context.Context, search models.DepartmentSearch, page models.PageRequest) (*models.Page[models.Department], error)
	DeleteDepartment(ctx context.Context, id uint, transferTo *uint) error
	DepartmentExists(ctx context.Context, id uint) (bool, error)
}

// EmployeeController defines the employee operations the handlers invoke.
type EmployeeController interface {
	CreateEmployee(ctx context.Context, in *models.EmployeeInput) (*models.Employee, error)
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	GetEmployeesByDepartment(ctx context.Context, departmentID uint, page models.PageRequest) (*models.Page[models.Employee], error)
	FindEmployees(ctx context.Context, search models.EmployeeSearch, page models.PageRequest) (*models.Page[models.Employee], error)
	DeleteEmployee(ctx context.Context, id uint) error
	EmployeeExists(ctx context.Context, id uint) (bool, error)
}

// Handler serves the REST API by mapping requests onto the controllers.
type Handler struct {
	companies   CompanyController
	departments DepartmentController
	employees   EmployeeController
	logger      *zap.Logger
}

// NewHandler constructs a new Handler with the given controllers and logger.
func NewHandler(
	companies CompanyController,
	departments DepartmentController,
	employees EmployeeController,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		companies:   companies,
		departments: departments,
		employees:   employees,
		logger:      logger.Named("http_handler"),
	}
}

type route struct {
	method  string
	pattern string
	handle  runtime.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{http.MethodPost, "/api/v1/companies", h.createCompany},
		{http.MethodGet, "/api/v1/companies", h.findCompanies},
		{http.MethodGet, "/api/v1/companies/{id}", h.getCompany},
		{http.MethodGet, "/api/v1/companies/{id}/exists", h.companyExists},
		{http.MethodGet, "/api/v1/companies/{id}/departments", h.getCompanyDepartments},
		{http.MethodDelete, "/api/v1/companies/{id}", h.deleteCompany},

		{http.MethodPost, "/api/v1/departments", h.createDepartment},
		{http.MethodGet, "/api/v1/departments", h.findDepartments},
		{http.MethodGet, "/api/v1/departments/{id}", h.getDepartment},
		{http.MethodGet, "/api/v1/departments/{id}/exists", h.departmentExists},
		{http.MethodGet, "/api/v1/departments/{id}/employees", h.getDepartmentEmployees},
		{http.MethodDelete, "/api/v1/departments/{id}", h.deleteDepartment},

		{http.MethodPost, "/api/v1/employees", h.createEmployee},
		{http.MethodGet, "/api/v1/employees", h.findEmployees},
		{http.MethodGet, "/api/v1/employees/{id}", h.getEmployee},
		{http.MethodGet, "/api/v1/employees/{id}/exists", h.employeeExists},
		{http.MethodDelete, "/api/v1/employees/{id}", h.deleteEmployee},
	}
}

// Register adds every API route to mux. Each route records its pattern for
// the metrics labels.
func (h *Handler) Register(mux *runtime.ServeMux) error {
	for _, rt := range h.routes() {
		handle := func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			setRoute(r, rt.pattern)
			rt.handle(w, r, params)
		}
		if err := mux.HandlePath(rt.method, rt.pattern, handle); err != nil {
			return err
		}
	}
	return nil
}

type existsBody struct {
	Exists bool `json:"exists"`
}
