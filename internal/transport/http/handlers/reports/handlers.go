package reportshandler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/reports"
	"paydesk/internal/platform/requestctx"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

type Handler struct {
	Reports *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(reportsSvc *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Reports: reportsSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/dashboard/admin", h.handleAdminDashboard)
	r.With(middleware.RequirePermission(auth.PermPayrollSelf, h.Perms)).Get("/dashboard/me", h.handleEmployeeDashboard)
	r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/charts/{name}.png", h.handleChart)
}

func (h *Handler) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Reports.AdminDashboard(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "dashboard_failed", "failed to build dashboard")
		return
	}
	api.Success(w, dashboard, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.Code == 0 {
		api.Fail(w, http.StatusForbidden, "forbidden", "employee login required", requestctx.GetRequestID(r.Context()))
		return
	}
	dashboard, err := h.Reports.EmployeeDashboard(r.Context(), user.Code)
	if err != nil {
		shared.FailError(w, r, err, "dashboard_failed", "failed to build dashboard")
		return
	}
	api.Success(w, dashboard, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var buf bytes.Buffer
	err := h.Reports.Chart(r.Context(), &buf, chi.URLParam(r, "name"))
	switch {
	case err == nil:
		api.Attachment(w, "image/png", "", buf.Bytes())
	case errors.Is(err, reports.ErrUnknownChart):
		api.Fail(w, http.StatusNotFound, "not_found", "unknown chart", requestID)
	case errors.Is(err, reports.ErrNoHistory), errors.Is(err, reports.ErrNoRoles):
		api.Fail(w, http.StatusNotFound, "no_data", err.Error(), requestID)
	default:
		shared.FailError(w, r, err, "chart_failed", "failed to render chart")
	}
}
