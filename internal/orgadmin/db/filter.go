package db

import (
	"fmt"
	"strings"

	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/query"
	"gorm.io/gorm"
)

const (
	companiesTable   = "companies"
	departmentsTable = "departments"
	employeesTable   = "employees"
)

// Child counts are correlated subqueries so they always reflect the live rows.
var countSubqueries = map[query.Relation]struct {
	parent string
	sql    string
}{
	query.DepartmentsOfCompany: {
		parent: companiesTable,
		sql:    "SELECT COUNT(*) FROM departments WHERE departments.company_id = companies.id",
	},
	query.EmployeesOfCompany: {
		parent: companiesTable,
		sql: "SELECT COUNT(*) FROM employees JOIN departments ON departments.id = employees.department_id " +
			"WHERE departments.company_id = companies.id",
	},
	query.EmployeesOfDepartment: {
		parent: departmentsTable,
		sql:    "SELECT COUNT(*) FROM employees WHERE employees.department_id = departments.id",
	},
}

// foldKeys maps a searchable column to its stored lower-cased copy.
var foldKeys = map[string]string{
	"companies.name":       "companies.name_key",
	"departments.name":     "departments.name_key",
	"employees.first_name": "employees.first_name_key",
	"employees.last_name":  "employees.last_name_key",
}

// applyFilter translates f into WHERE clauses on table.
func applyFilter(tx *gorm.DB, table string, f query.Filter) *gorm.DB {
	for _, p := range f.Predicates() {
		switch p.Op {
		case query.Equal:
			tx = tx.Where(column(table, p.Fields[0])+" = ?", p.Value)
		case query.ContainsFold:
			pattern := "%" + escapeLike(strings.ToLower(fmt.Sprint(p.Value))) + "%"
			clauses := make([]string, 0, len(p.Fields))
			args := make([]any, 0, len(p.Fields))
			for _, field := range p.Fields {
				clauses = append(clauses, foldColumn(table, field)+` LIKE ? ESCAPE '\'`)
				args = append(args, pattern)
			}
			tx = tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
		case query.CountAtLeast:
			sub, ok := countSubqueries[p.Relation]
			if !ok || sub.parent != table {
				_ = tx.AddError(fmt.Errorf("relation %d cannot filter %s", p.Relation, table))
				return tx
			}
			tx = tx.Where("("+sub.sql+") >= ?", p.Value)
		case query.OnOrAfter:
			tx = tx.Where(column(table, p.Fields[0])+" >= ?", p.Value)
		case query.OnOrBefore:
			tx = tx.Where(column(table, p.Fields[0])+" <= ?", p.Value)
		default:
			_ = tx.AddError(fmt.Errorf("unsupported filter operator %s", p.Op))
			return tx
		}
	}
	return tx
}

func column(table, field string) string {
	return table + "." + field
}

func foldColumn(table, field string) string {
	col := column(table, field)
	if key, ok := foldKeys[col]; ok {
		return key
	}
	return "LOWER(" + col + ")"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderBy resolves a requested sort against the allowed fields of a table.
// Ties are always broken by id so that pages are stable.
func orderBy(table, sort string, allowed map[string]string) (string, error) {
	if sort == "" {
		return column(table, "id") + " ASC", nil
	}
	dir := "ASC"
	field := sort
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		field = sort[1:]
	}
	col, ok := allowed[field]
	if !ok {
		return "", &e.ValidationError{Fields: map[string]string{"sort": fmt.Sprintf("unsupported sort field %q", field)}}
	}
	order := column(table, col) + " " + dir
	if col != "id" {
		order += ", " + column(table, "id") + " ASC"
	}
	return order, nil
}

// findPage counts the rows of model matching f and loads the requested page into dest.
func (r *Repository) findPage(
	tx *gorm.DB,
	model any,
	table string,
	f query.Filter,
	page models.PageRequest,
	sorts map[string]string,
	dest any,
) (int64, error) {
	order, err := orderBy(table, page.Sort, sorts)
	if err != nil {
		return 0, err
	}

	base := applyFilter(tx.Model(model), table, f).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	if err := base.Order(order).Offset(page.Offset()).Limit(page.Size).Find(dest).Error; err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return total, nil
}
