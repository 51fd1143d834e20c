package employee

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Input is the editable part of a record as accepted from admins.
type Input struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Username     string  `json:"username" validate:"required,min=3,max=64"`
	Password     string  `json:"password" validate:"omitempty,min=8,max=72"`
	Role         string  `json:"role" validate:"required,max=80"`
	Department   string  `json:"department" validate:"max=80"`
	Exp          int     `json:"exp" validate:"gte=0,lte=60"`
	WorkingHours float64 `json:"working_hours" validate:"gte=0,lte=744"`
	LoanBalance  float64 `json:"loan_balance" validate:"gte=0"`
}

// Apply copies the input onto rec. The password is handled by the caller since
// only its hash is stored.
func (in Input) Apply(rec *Record) {
	rec.Name = strings.TrimSpace(in.Name)
	rec.Username = strings.TrimSpace(in.Username)
	rec.Role = strings.TrimSpace(in.Role)
	rec.Department = strings.TrimSpace(in.Department)
	if rec.Department == "" {
		rec.Department = "General"
	}
	rec.Exp = in.Exp
	rec.WorkingHours = in.WorkingHours
	rec.LoanBalance = in.LoanBalance
}

type FieldError struct {
	Field  string
	Reason string
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the input against its struct tags and returns one entry per
// failing field.
func (in Input) Validate() []FieldError {
	err := inputValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Reason: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
	}
	return out
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
