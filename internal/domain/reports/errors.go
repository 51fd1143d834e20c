package reports

import "errors"

var (
	ErrNoHistory    = errors.New("no payroll history recorded")
	ErrNoRoles      = errors.New("no roles to chart")
	ErrUnknownChart = errors.New("unknown chart")
)
