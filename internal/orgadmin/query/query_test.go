package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAnd_SkipsAbsentPredicates(t *testing.T) {
	f := And(
		FieldEquals("company_id", nil),
		NameContains(nil, "name"),
		MinCount(EmployeesOfDepartment, nil),
		Since("created_at", nil),
		Until("created_at", nil),
	)
	assert.True(t, f.Empty())
	assert.Empty(t, f.Predicates())
}

func TestAnd_KeepsPresentPredicatesInOrder(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := And(
		FieldEquals("company_id", ptr(uint(7))),
		NameContains(ptr("  it "), "name"),
		nil,
		MinCount(EmployeesOfDepartment, ptr(2)),
		Since("hire_date", &from),
	)

	preds := f.Predicates()
	require.Len(t, preds, 4)
	assert.Equal(t, Equal, preds[0].Op)
	assert.Equal(t, uint(7), preds[0].Value)
	assert.Equal(t, ContainsFold, preds[1].Op)
	assert.Equal(t, "it", preds[1].Value)
	assert.Equal(t, CountAtLeast, preds[2].Op)
	assert.Equal(t, EmployeesOfDepartment, preds[2].Relation)
	assert.Equal(t, 2, preds[2].Value)
	assert.Equal(t, OnOrAfter, preds[3].Op)
	assert.Equal(t, from, preds[3].Value)
}

func TestNameContains(t *testing.T) {
	assert.Nil(t, NameContains(ptr("   "), "name"))
	assert.Nil(t, NameContains(ptr("x")))

	p := NameContains(ptr("Do"), "first_name", "last_name")
	require.NotNil(t, p)
	assert.Equal(t, []string{"first_name", "last_name"}, p.Fields)
}

func TestMinCount_ClampsNegative(t *testing.T) {
	p := MinCount(DepartmentsOfCompany, ptr(-5))
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Value)
}

func TestPredicates_ReturnsCopy(t *testing.T) {
	f := And(FieldEquals("department_id", ptr(uint(1))))
	preds := f.Predicates()
	preds[0].Value = uint(99)
	assert.Equal(t, uint(1), f.Predicates()[0].Value)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "count_gte", CountAtLeast.String())
	assert.Equal(t, "unknown", Op(42).String())
}
