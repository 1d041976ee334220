package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/attendance-register/internal/models"
	appErrors "github.com/noah-isme/attendance-register/pkg/errors"
)

// NewValidator returns a validator with the attendance specific rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerAttendanceRules(v)
	return v
}

// registerAttendanceRules is safe to call repeatedly on the same validator.
func registerAttendanceRules(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("attendance_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
}

// validationError converts validator output into a VALIDATION_ERROR with a
// readable message naming the first failing field.
func validationError(err error, fallback string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
	}
	fe := fieldErrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required", "gt":
		msg = fmt.Sprintf("%s is required", field)
	case "attendance_date":
		msg = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "attendance_status":
		msg = fmt.Sprintf("%s must be one of %s", field, statusList())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		msg = fallback
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
}

func statusList() string {
	names := make([]string, 0, len(models.AttendanceStatuses))
	for _, s := range models.AttendanceStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
