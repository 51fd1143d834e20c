package shared

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/employee"
	"paydesk/internal/domain/payroll"
	"paydesk/internal/platform/requestctx"
	"paydesk/internal/transport/http/api"
)

// FailError maps domain errors onto API responses. Anything unrecognised is
// logged and reported as a 500 with the given code and message.
func FailError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := requestctx.GetRequestID(r.Context())

	var inputErr *payroll.InputError
	switch {
	case errors.As(err, &inputErr):
		FailValidation(w, requestID, []ValidationIssue{{Field: inputErr.Field, Reason: "is out of range"}})
	case errors.Is(err, payroll.ErrInvalidInput), errors.Is(err, payroll.ErrInvalidMonth):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), requestID)
	case errors.Is(err, employee.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, employee.ErrUsernameTaken):
		api.Fail(w, http.StatusConflict, "username_taken", "username already in use", requestID)
	case errors.Is(err, payroll.ErrPayslipNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", requestID)
	case errors.Is(err, payroll.ErrMonthAlreadyRun):
		api.Fail(w, http.StatusConflict, "month_already_run", err.Error(), requestID)
	case errors.Is(err, employee.ErrCodeImmutable):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), requestID)
	default:
		requestctx.Logger(r.Context()).Error(message, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

// PathCode reads a positive employee code from the named URL parameter.
func PathCode(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	code, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || code <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_input", "employee code must be a positive integer", requestctx.GetRequestID(r.Context()))
		return 0, false
	}
	return code, true
}
