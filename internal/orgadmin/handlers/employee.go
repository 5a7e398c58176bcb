package handlers

import (
	"net/http"

	"github.com/aymens/orgadmin/internal/orgadmin/models"
)

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in models.EmployeeInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.employees.CreateEmployee(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *Handler) findEmployees(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	page, err := pageRequest(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	search := models.EmployeeSearch{Name: queryString(q, "name")}
	if search.DepartmentID, err = queryUint(q, "departmentId"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if search.HiredFrom, err = queryTime(q, "hiredFrom"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if search.HiredTo, err = queryTime(q, "hiredTo"); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.employees.FindEmployees(r.Context(), search, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) employeeExists(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	exists, err := h.employees.EmployeeExists(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, existsBody{Exists: exists})
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.employees.DeleteEmployee(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
