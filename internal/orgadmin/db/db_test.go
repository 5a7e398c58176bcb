package db

import (
	"context"
	"errors"
	"testing"
	"time"

	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ptr[T any](v T) *T { return &v }

// SetupTestDB opens an isolated in-memory SQLite database for one test.
func SetupTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(&Config{
		Driver: DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, zaptest.NewLogger(t))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedCompany(t *testing.T, repo *Repository, name, taxID string) *models.Company {
	t.Helper()
	c := &models.Company{Name: name, TaxID: taxID}
	require.NoError(t, repo.CreateCompany(context.Background(), c))
	return c
}

func seedDepartment(t *testing.T, repo *Repository, name string, companyID uint) *models.Department {
	t.Helper()
	d := &models.Department{Name: name, CompanyID: companyID}
	require.NoError(t, repo.CreateDepartment(context.Background(), d))
	return d
}

func seedEmployee(t *testing.T, repo *Repository, email string, departmentID uint, hired time.Time) *models.Employee {
	t.Helper()
	emp := &models.Employee{FirstName: "John", LastName: "Doe", Email: email, HireDate: hired, DepartmentID: departmentID}
	require.NoError(t, repo.CreateEmployee(context.Background(), emp))
	return emp
}

func TestNewRepository_UnsupportedDriver(t *testing.T) {
	_, err := NewRepository(&Config{Driver: "oracle"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	repo, err := Connect(context.Background(), &Config{
		Driver:         DriverSQLite,
		DSN:            "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		ConnectRetries: 2,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, repo.Close())

	_, err = Connect(context.Background(), &Config{Driver: "oracle"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestCreateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Acme", "1234567890")
	assert.NotZero(t, company.ID, "id should be assigned")
	assert.False(t, company.CreatedAt.IsZero(), "creation time should be set")

	retrieved, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, company.Name, retrieved.Name)
	assert.Equal(t, company.TaxID, retrieved.TaxID)
}

func TestCreateCompany_DuplicateTaxID(t *testing.T) {
	repo := SetupTestDB(t)
	seedCompany(t, repo, "Acme", "1234567890")

	err := repo.CreateCompany(context.Background(), &models.Company{Name: "Other", TaxID: "1234567890"})
	assert.ErrorIs(t, err, e.ErrDuplicate)
}

func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetCompany(context.Background(), 99)
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.EqualError(t, err, "Company(99) not found")
}

func TestCompanyExists(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Acme", "1234567890")

	exists, err := repo.CompanyExists(ctx, company.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CompanyExistsByTaxID(ctx, "1234567890")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CompanyExistsByTaxID(ctx, "0000000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := seedCompany(t, repo, "Acme", "1234567890")
	require.NoError(t, repo.DeleteCompany(ctx, company.ID))

	_, err := repo.GetCompany(ctx, company.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	err = repo.DeleteCompany(ctx, company.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "second delete should report not found")
}

func TestForeignKeys(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	hired := time.Now().Add(-time.Hour)

	company := seedCompany(t, repo, "Acme", "1234567890")
	dept := seedDepartment(t, repo, "IT", company.ID)
	emp := seedEmployee(t, repo, "john@x.com", dept.ID, hired)

	t.Run("department without company", func(t *testing.T) {
		err := repo.CreateDepartment(ctx, &models.Department{Name: "Ops", CompanyID: 999})
		assert.ErrorIs(t, err, e.ErrReferenced)
	})

	t.Run("employee without department", func(t *testing.T) {
		err := repo.CreateEmployee(ctx, &models.Employee{
			FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", HireDate: hired, DepartmentID: 999,
		})
		assert.ErrorIs(t, err, e.ErrReferenced)

		exists, err := repo.EmployeeExistsByEmail(ctx, "jane@x.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete staffed department", func(t *testing.T) {
		err := repo.DeleteDepartment(ctx, dept.ID)
		assert.ErrorIs(t, err, e.ErrReferenced)

		got, err := repo.GetEmployee(ctx, emp.ID)
		require.NoError(t, err)
		assert.Equal(t, dept.ID, got.DepartmentID)

		exists, err := repo.DepartmentExists(ctx, dept.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("delete departments of staffed company", func(t *testing.T) {
		_, err := repo.DeleteDepartmentsByCompany(ctx, company.ID)
		assert.ErrorIs(t, err, e.ErrReferenced)
	})

	t.Run("delete company with departments", func(t *testing.T) {
		err := repo.DeleteCompany(ctx, company.ID)
		assert.ErrorIs(t, err, e.ErrReferenced)

		exists, err := repo.CompanyExists(ctx, company.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("transfer to missing department", func(t *testing.T) {
		_, err := repo.TransferEmployees(ctx, dept.ID, 999)
		assert.ErrorIs(t, err, e.ErrReferenced)
	})
}

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"orgadmin.db", "orgadmin.db?_foreign_keys=1"},
		{"file::memory:?cache=shared", "file::memory:?cache=shared&_foreign_keys=1"},
		{"orgadmin.db?_fk=0", "orgadmin.db?_fk=0"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, withForeignKeys(tt.dsn))
		})
	}
}

func TestDepartmentNameUniquePerCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	a := seedCompany(t, repo, "A", "1111111111")
	b := seedCompany(t, repo, "B", "2222222222")
	seedDepartment(t, repo, "IT", a.ID)

	exists, err := repo.DepartmentExistsByNameInCompany(ctx, "it", a.ID)
	require.NoError(t, err)
	assert.True(t, exists, "names compare case-insensitively")

	exists, err = repo.DepartmentExistsByNameInCompany(ctx, "IT", b.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.CreateDepartment(ctx, &models.Department{Name: "it", CompanyID: a.ID})
	assert.ErrorIs(t, err, e.ErrDuplicate, "unique index backs the check")

	seedDepartment(t, repo, "IT", b.ID)
}

func TestCountEmployeesAndTransfer(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	hired := time.Now().Add(-time.Hour)

	company := seedCompany(t, repo, "Acme", "1234567890")
	src := seedDepartment(t, repo, "IT", company.ID)
	dst := seedDepartment(t, repo, "Ops", company.ID)
	seedEmployee(t, repo, "a@x.com", src.ID, hired)
	seedEmployee(t, repo, "b@x.com", src.ID, hired)
	seedEmployee(t, repo, "c@x.com", dst.ID, hired)

	n, err := repo.CountEmployeesInDepartment(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountEmployeesInCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	moved, err := repo.TransferEmployees(ctx, src.ID, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	n, err = repo.CountEmployeesInDepartment(ctx, dst.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCreateEmployee_DuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	company := seedCompany(t, repo, "Acme", "1234567890")
	dept := seedDepartment(t, repo, "IT", company.ID)
	seedEmployee(t, repo, "john@x.com", dept.ID, time.Now())

	exists, err := repo.EmployeeExistsByEmail(context.Background(), "john@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.CreateEmployee(context.Background(), &models.Employee{
		FirstName: "J", LastName: "D", Email: "john@x.com", HireDate: time.Now(), DepartmentID: dept.ID,
	})
	assert.ErrorIs(t, err, e.ErrDuplicate)

	exists, err = repo.EmployeeExistsByEmail(context.Background(), "John@X.com")
	require.NoError(t, err)
	assert.True(t, exists, "emails match regardless of case")

	err = repo.CreateEmployee(context.Background(), &models.Employee{
		FirstName: "J", LastName: "D", Email: "JOHN@x.com", HireDate: time.Now(), DepartmentID: dept.ID,
	})
	assert.ErrorIs(t, err, e.ErrDuplicate, "the unique index sees the lower-cased address")
}

func TestFindDepartments_FilterComposition(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	hired := time.Now().Add(-time.Hour)

	a := seedCompany(t, repo, "A", "1111111111")
	b := seedCompany(t, repo, "B", "2222222222")
	it := seedDepartment(t, repo, "IT", a.ID)
	seedDepartment(t, repo, "Sales", a.ID)
	seedDepartment(t, repo, "IT Support", b.ID)
	seedEmployee(t, repo, "a@x.com", it.ID, hired)
	seedEmployee(t, repo, "b@x.com", it.ID, hired)

	page := models.PageRequest{Size: 10}

	all, err := repo.FindDepartments(ctx, query.And(), page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalElements)

	byCompany, err := repo.FindDepartments(ctx, query.And(query.FieldEquals("company_id", &a.ID)), page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byCompany.TotalElements)

	withEmployees, err := repo.FindDepartments(ctx, query.And(
		query.FieldEquals("company_id", &a.ID),
		query.MinCount(query.EmployeesOfDepartment, ptr(2)),
	), page)
	require.NoError(t, err)
	require.Len(t, withEmployees.Content, 1)
	assert.Equal(t, it.ID, withEmployees.Content[0].ID)

	tooMany, err := repo.FindDepartments(ctx, query.And(query.MinCount(query.EmployeesOfDepartment, ptr(3))), page)
	require.NoError(t, err)
	assert.Empty(t, tooMany.Content)

	byName, err := repo.FindDepartments(ctx, query.And(query.NameContains(ptr("it"), "name")), page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byName.TotalElements, "substring match ignores case")
}

func TestFindCompanies_MinCounts(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	hired := time.Now().Add(-time.Hour)

	a := seedCompany(t, repo, "A", "1111111111")
	b := seedCompany(t, repo, "B", "2222222222")
	seedCompany(t, repo, "C", "3333333333")
	a1 := seedDepartment(t, repo, "One", a.ID)
	a2 := seedDepartment(t, repo, "Two", a.ID)
	b1 := seedDepartment(t, repo, "One", b.ID)
	seedEmployee(t, repo, "a1@x.com", a1.ID, hired)
	seedEmployee(t, repo, "a2@x.com", a2.ID, hired)
	seedEmployee(t, repo, "b1@x.com", b1.ID, hired)
	seedEmployee(t, repo, "b2@x.com", b1.ID, hired)
	seedEmployee(t, repo, "b3@x.com", b1.ID, hired)

	page := models.PageRequest{Size: 10}

	res, err := repo.FindCompanies(ctx, query.And(query.MinCount(query.DepartmentsOfCompany, ptr(2))), page)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, a.ID, res.Content[0].ID)

	res, err = repo.FindCompanies(ctx, query.And(query.MinCount(query.EmployeesOfCompany, ptr(2))), page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalElements, "employee counts are summed across departments")

	res, err = repo.FindCompanies(ctx, query.And(
		query.MinCount(query.DepartmentsOfCompany, ptr(1)),
		query.MinCount(query.EmployeesOfCompany, ptr(3)),
	), page)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, b.ID, res.Content[0].ID)
}

func TestFindCompanies_PaginationAndSort(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	seedCompany(t, repo, "Beta", "1111111111")
	seedCompany(t, repo, "Alpha", "2222222222")
	seedCompany(t, repo, "Gamma", "3333333333")

	res, err := repo.FindCompanies(ctx, query.And(), models.PageRequest{Page: 0, Size: 2, Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Content, 2)
	assert.Equal(t, "Alpha", res.Content[0].Name)
	assert.Equal(t, "Beta", res.Content[1].Name)

	res, err = repo.FindCompanies(ctx, query.And(), models.PageRequest{Page: 1, Size: 2, Sort: "-name"})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "Alpha", res.Content[0].Name)

	_, err = repo.FindCompanies(ctx, query.And(), models.PageRequest{Size: 2, Sort: "password"})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	all, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFindEmployees_DateThresholdAndName(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	company := seedCompany(t, repo, "Acme", "1234567890")
	dept := seedDepartment(t, repo, "IT", company.ID)
	seedEmployee(t, repo, "old@x.com", dept.ID, base.AddDate(0, -6, 0))
	recent := seedEmployee(t, repo, "new@x.com", dept.ID, base.AddDate(0, 1, 0))

	page := models.PageRequest{Size: 10}

	res, err := repo.FindEmployees(ctx, query.And(query.Since("hire_date", &base)), page)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, recent.ID, res.Content[0].ID)

	res, err = repo.FindEmployees(ctx, query.And(query.Until("hire_date", &base)), page)
	require.NoError(t, err)
	assert.Len(t, res.Content, 1)

	res, err = repo.FindEmployees(ctx, query.And(query.NameContains(ptr("DOE"), "first_name", "last_name")), page)
	require.NoError(t, err)
	assert.Len(t, res.Content, 2)

	res, err = repo.FindEmployees(ctx, query.And(query.NameContains(ptr("%"), "first_name")), page)
	require.NoError(t, err)
	assert.Empty(t, res.Content, "LIKE wildcards are matched literally")
}

// TestWithTransaction ensures commit and rollback behave as expected.
func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		return txRepo.CreateCompany(ctx, &models.Company{Name: "Committed", TaxID: "1111111111"})
	})
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = repo.WithTransaction(ctx, func(txRepo *Repository) error {
		if err := txRepo.CreateCompany(ctx, &models.Company{Name: "Rolled back", TaxID: "2222222222"}); err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	err = repo.WithReadOnlyTransaction(ctx, func(txRepo *Repository) error {
		committed, err := txRepo.CompanyExistsByTaxID(ctx, "1111111111")
		require.NoError(t, err)
		assert.True(t, committed)

		rolledBack, err := txRepo.CompanyExistsByTaxID(ctx, "2222222222")
		require.NoError(t, err)
		assert.False(t, rolledBack)
		return nil
	})
	assert.NoError(t, err)
}

func TestNameSearch_FoldsNonASCII(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	page := models.PageRequest{Size: 10}

	company := seedCompany(t, repo, "Société Générale", "1234567890")
	dept := seedDepartment(t, repo, "Équipe", company.ID)
	require.NoError(t, repo.CreateEmployee(ctx, &models.Employee{
		FirstName: "Øyvind", LastName: "Åberg", Email: "oa@x.com", HireDate: time.Now(), DepartmentID: dept.ID,
	}))

	companies, err := repo.FindCompanies(ctx, query.And(query.NameContains(ptr("SOCIÉTÉ"), "name")), page)
	require.NoError(t, err)
	assert.Len(t, companies.Content, 1)

	departments, err := repo.FindDepartments(ctx, query.And(query.NameContains(ptr("équipe"), "name")), page)
	require.NoError(t, err)
	require.Len(t, departments.Content, 1)
	assert.Equal(t, "Équipe", departments.Content[0].Name, "the stored name keeps its case")

	for _, term := range []string{"øyv", "ÅBERG"} {
		employees, err := repo.FindEmployees(ctx, query.And(query.NameContains(ptr(term), "first_name", "last_name")), page)
		require.NoError(t, err)
		assert.Len(t, employees.Content, 1, term)
	}
}
