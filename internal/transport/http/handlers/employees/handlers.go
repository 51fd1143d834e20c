package employeehandler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/employee"
	"paydesk/internal/platform/requestctx"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Handler struct {
	Store employee.Store
	Perms middleware.PermissionStore
}

func NewHandler(store employee.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

type roleView struct {
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
}

type rolePayload struct {
	HourlyRate float64 `json:"hourly_rate"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.Route("/{code}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Delete("/", h.handleDeleteEmployee)
		})
	})
	r.Route("/roles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListRoles)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{name}", h.handleUpsertRole)
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "employee_list_failed", "failed to list employees")
		return
	}
	out := make([]employee.Record, 0, len(employees))
	for _, rec := range employees {
		out = append(out, rec.Public())
	}
	page := shared.ParsePagination(r, defaultPageSize, maxPageSize)
	api.Success(w, map[string]any{
		"items": shared.Page(out, page),
		"total": len(out),
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload employee.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.AddFieldErrors(payload.Validate())
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, requestID) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		shared.FailError(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	var rec employee.Record
	payload.Apply(&rec)
	rec.PasswordHash = hash

	created, err := h.Store.CreateEmployee(r.Context(), rec)
	if err != nil {
		shared.FailError(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	requestctx.Logger(r.Context()).Info("employee created", "code", created.Code)
	api.Created(w, created.Public(), requestID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	code, ok := shared.PathCode(w, r, "code")
	if !ok {
		return
	}
	rec, err := h.Store.GetEmployee(r.Context(), code)
	if err != nil {
		shared.FailError(w, r, err, "employee_fetch_failed", "failed to load employee")
		return
	}
	api.Success(w, rec.Public(), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	code, ok := shared.PathCode(w, r, "code")
	if !ok {
		return
	}
	var payload employee.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.AddFieldErrors(payload.Validate())
	if v.Reject(w, requestID) {
		return
	}

	hash := ""
	if payload.Password != "" {
		var err error
		if hash, err = auth.HashPassword(payload.Password); err != nil {
			shared.FailError(w, r, err, "employee_update_failed", "failed to update employee")
			return
		}
	}

	updated, err := h.Store.UpdateEmployee(r.Context(), code, func(rec *employee.Record) error {
		payload.Apply(rec)
		if hash != "" {
			rec.PasswordHash = hash
		}
		return nil
	})
	if err != nil {
		shared.FailError(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	api.Success(w, updated.Public(), requestID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	code, ok := shared.PathCode(w, r, "code")
	if !ok {
		return
	}
	if err := h.Store.DeleteEmployee(r.Context(), code); err != nil {
		shared.FailError(w, r, err, "employee_delete_failed", "failed to delete employee")
		return
	}
	requestctx.Logger(r.Context()).Info("employee deleted", "code", code)
	api.Success(w, map[string]int{"deleted": code}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	table, err := h.Store.RoleTable(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "role_list_failed", "failed to list roles")
		return
	}
	roles := make([]roleView, 0, len(table))
	for _, name := range table.Names() {
		roles = append(roles, roleView{Name: name, HourlyRate: table[name].HourlyRate})
	}
	api.Success(w, roles, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpsertRole(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "invalid role name", requestID)
		return
	}
	name = strings.TrimSpace(name)
	var payload rolePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Required("name", name, "is required")
	v.Positive("hourly_rate", payload.HourlyRate)
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Store.UpsertRole(r.Context(), name, employee.RoleRate{HourlyRate: payload.HourlyRate}); err != nil {
		shared.FailError(w, r, err, "role_update_failed", "failed to update role")
		return
	}
	api.Success(w, roleView{Name: name, HourlyRate: payload.HourlyRate}, requestID)
}
