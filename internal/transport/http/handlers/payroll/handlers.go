package payrollhandler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/employee"
	"paydesk/internal/domain/payroll"
	"paydesk/internal/platform/jobs"
	"paydesk/internal/platform/metrics"
	"paydesk/internal/platform/requestctx"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"

	defaultRunsPage = 20
	maxRunsPage     = 50
)

type Handler struct {
	Payroll *payroll.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Perms   middleware.PermissionStore
}

func NewHandler(payrollSvc *payroll.Service, jobsSvc *jobs.Service, collector *metrics.Collector, perms middleware.PermissionStore) *Handler {
	return &Handler{Payroll: payrollSvc, Jobs: jobsSvc, Metrics: collector, Perms: perms}
}

type calculation struct {
	Employee  employee.Record   `json:"employee"`
	Breakdown payroll.Breakdown `json:"breakdown"`
}

type runPayload struct {
	Month string `json:"month"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	selfOrRead := middleware.RequireAnyPermission(h.Perms, auth.PermPayrollRead, auth.PermPayrollSelf)

	r.Route("/payroll", func(r chi.Router) {
		r.Route("/employees/{code}", func(r chi.Router) {
			r.With(selfOrRead).Get("/preview", h.handlePreview)
			r.With(selfOrRead).Get("/payslip", h.handlePayslip)
			r.With(selfOrRead).Get("/payslips", h.handleListPayslips)
			r.With(selfOrRead).Get("/payslips/{file}", h.handleStoredPayslip)
			r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/calculate", h.handleCalculate)
		})
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/run", h.handleRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/register.csv", h.handleRegisterCSV)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/register.xlsx", h.handleRegisterXLSX)
	})
}

// employeeScope resolves the {code} parameter and checks that the caller may
// see it: payroll readers see everyone, employees only themselves.
func (h *Handler) employeeScope(w http.ResponseWriter, r *http.Request) (int, bool) {
	code, ok := shared.PathCode(w, r, "code")
	if !ok {
		return 0, false
	}
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return 0, false
	}
	allowed, err := h.Perms.HasPermission(r.Context(), user.Role, auth.PermPayrollRead)
	if err != nil {
		shared.FailError(w, r, err, "permission_error", "permission check failed")
		return 0, false
	}
	if !allowed && user.Code != code {
		api.Fail(w, http.StatusForbidden, "forbidden", "employees may only view their own payroll", requestctx.GetRequestID(r.Context()))
		return 0, false
	}
	return code, true
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	code, ok := h.employeeScope(w, r)
	if !ok {
		return
	}
	b, rec, err := h.Payroll.Preview(r.Context(), code)
	if err != nil {
		shared.FailError(w, r, err, "payroll_preview_failed", "failed to preview payroll")
		return
	}
	api.Success(w, calculation{Employee: rec.Public(), Breakdown: b}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	code, ok := shared.PathCode(w, r, "code")
	if !ok {
		return
	}
	b, rec, err := h.Payroll.Calculate(r.Context(), code)
	if err != nil {
		shared.FailError(w, r, err, "payroll_calculate_failed", "failed to calculate payroll")
		return
	}
	requestctx.Logger(r.Context()).Info("payroll calculated", "code", code, "grossPay", b.GrossPay, "loanDebit", b.LoanDebit)
	api.Success(w, calculation{Employee: rec.Public(), Breakdown: b}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	code, ok := h.employeeScope(w, r)
	if !ok {
		return
	}
	slip, err := h.Payroll.GeneratePayslip(r.Context(), code)
	if err != nil {
		shared.FailError(w, r, err, "payslip_failed", "failed to generate payslip")
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordPayslip()
	}
	api.Attachment(w, contentTypePDF, slip.FileName, slip.Content)
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	code, ok := h.employeeScope(w, r)
	if !ok {
		return
	}
	slips, err := h.Payroll.ListPayslips(r.Context(), code)
	if err != nil {
		shared.FailError(w, r, err, "payslip_list_failed", "failed to list payslips")
		return
	}
	api.Success(w, slips, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleStoredPayslip(w http.ResponseWriter, r *http.Request) {
	code, ok := h.employeeScope(w, r)
	if !ok {
		return
	}
	slip, err := h.Payroll.ReadStoredPayslip(r.Context(), code, chi.URLParam(r, "file"))
	if err != nil {
		shared.FailError(w, r, err, "payslip_read_failed", "failed to read payslip")
		return
	}
	api.Attachment(w, contentTypePDF, slip.FileName, slip.Content)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload runPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Month("month", payload.Month)
	if v.Reject(w, requestID) {
		return
	}
	month := payload.Month
	if month == "" {
		month = h.Payroll.CurrentMonth()
	}

	summary, err := h.Jobs.RunPayroll(r.Context(), month)
	if h.Metrics != nil {
		h.Metrics.RecordPayrollRun(summary.Employees, err)
	}
	if err != nil {
		shared.FailError(w, r, err, "payroll_run_failed", "failed to run payroll")
		return
	}
	requestctx.Logger(r.Context()).Info("payroll run completed", "month", summary.Month, "employees", summary.Employees, "totalExpense", summary.TotalExpense)
	api.Success(w, summary, requestID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.Jobs.Runs()
	page := shared.ParsePagination(r, defaultRunsPage, maxRunsPage)
	api.Success(w, map[string]any{
		"items": shared.Page(runs, page),
		"total": len(runs),
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleRegisterCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Payroll.Register(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "register_export_failed", "failed to export register")
		return
	}
	var buf bytes.Buffer
	if err := payroll.WriteRegisterCSV(&buf, rows); err != nil {
		shared.FailError(w, r, err, "register_export_failed", "failed to export register")
		return
	}
	api.Attachment(w, contentTypeCSV, "payroll_register.csv", buf.Bytes())
}

func (h *Handler) handleRegisterXLSX(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Payroll.Register(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "register_export_failed", "failed to export register")
		return
	}
	var buf bytes.Buffer
	if err := payroll.WriteRegisterXLSX(&buf, rows); err != nil {
		shared.FailError(w, r, err, "register_export_failed", "failed to export register")
		return
	}
	api.Attachment(w, contentTypeXLSX, "payroll_register.xlsx", buf.Bytes())
}
