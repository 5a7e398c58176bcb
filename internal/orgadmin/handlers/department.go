package handlers

import (
	"net/http"

	"github.com/aymens/orgadmin/internal/orgadmin/models"
)

func (h *Handler) createDepartment(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in models.DepartmentInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.departments.CreateDepartment(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getDepartment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	department, err := h.departments.GetDepartment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, department)
}

func (h *Handler) findDepartments(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	page, err := pageRequest(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	search := models.DepartmentSearch{Name: queryString(q, "name")}
	if search.CompanyID, err = queryUint(q, "companyId"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if search.MinEmployees, err = queryInt(q, "minEmployees"); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.departments.FindDepartments(r.Context(), search, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) departmentExists(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	exists, err := h.departments.DepartmentExists(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, existsBody{Exists: exists})
}

func (h *Handler) getDepartmentEmployees(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.employees.GetEmployeesByDepartment(r.Context(), id, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// deleteDepartment accepts an optional transferTo query parameter naming the
// department that receives the employees of the deleted one.
func (h *Handler) deleteDepartment(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	transferTo, err := queryUint(r.URL.Query(), "transferTo")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.departments.DeleteDepartment(r.Context(), id, transferTo); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
