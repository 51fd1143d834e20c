package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrCodeImmutable      = errors.New("employee code cannot change")
	ErrHistoryExists      = errors.New("payroll history already recorded for month")
	ErrAdminNotConfigured = errors.New("admin login not configured")
)
