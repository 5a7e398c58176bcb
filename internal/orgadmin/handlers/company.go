package handlers

import (
	"net/http"

	"github.com/aymens/orgadmin/internal/orgadmin/models"
)

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var in models.CompanyInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.companies.CreateCompany(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	company, err := h.companies.GetCompany(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *Handler) findCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	page, err := pageRequest(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	search := models.CompanySearch{Name: queryString(q, "name")}
	if search.MinDepartments, err = queryInt(q, "minDepartments"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if search.MinEmployees, err = queryInt(q, "minEmployees"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if search.CreatedAfter, err = queryTime(q, "createdAfter"); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.companies.FindCompanies(r.Context(), search, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) companyExists(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	exists, err := h.companies.CompanyExists(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, existsBody{Exists: exists})
}

func (h *Handler) getCompanyDepartments(w http.ResponseWriter, r *http.Request, params map[string]string) {
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
	result, err := h.departments.GetDepartmentsByCompany(r.Context(), id, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) deleteCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.companies.DeleteCompany(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
