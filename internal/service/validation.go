package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"agro-attendance/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("halfhour", validateHalfHour); err != nil {
		panic(fmt.Sprintf("register halfhour validation: %v", err))
	}
}

func validateHalfHour(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return math.Mod(v*2, 1) == 0
}

// ValidationError carries every violated constraint, keyed by field. Record
// fields are keyed "<employeeId>.<field>".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateRecords checks a batch before it is sent. Time fields of vacation
// records are not checked.
func ValidateRecords(records []models.AttendanceRecord, requireReason bool) error {
	verr := &ValidationError{Fields: make(map[string]string)}

	if len(records) == 0 {
		verr.add("records", "There are no records to register.")
		return verr
	}

	seen := make(map[uint]bool, len(records))
	for i := range records {
		r := &records[i]
		prefix := fmt.Sprintf("%d.", r.EmployeeID)

		if seen[r.EmployeeID] {
			verr.add(prefix+models.FieldEmployeeID, "Duplicate record for this employee.")
			continue
		}
		seen[r.EmployeeID] = true

		collect(verr, prefix, validate.Struct(r), func(field string) bool {
			return r.IsVacation && (field == models.FieldEntryTime || field == models.FieldExitTime)
		})

		if !r.IsVacation {
			checkSchedule(verr, prefix, r.EntryTime, r.ExitTime)
		}

		if requireReason && r.HasPermission() && strings.TrimSpace(r.PermissionReason) == "" {
			verr.add(prefix+models.FieldPermissionReason, "A reason is required when permission hours are set.")
		}
	}

	return verr.orNil()
}

// ValidateDefaults checks the settings records are seeded from.
func ValidateDefaults(d models.DefaultSettings) error {
	verr := &ValidationError{Fields: make(map[string]string)}

	collect(verr, "", validate.Struct(d), nil)
	checkSchedule(verr, "", d.EntryTime, d.ExitTime)

	return verr.orNil()
}

// checkSchedule adds the required/ordering rules for an entry/exit pair.
// Format errors are reported by the struct tags.
func checkSchedule(verr *ValidationError, prefix, entry, exit string) {
	if strings.TrimSpace(entry) == "" {
		verr.add(prefix+models.FieldEntryTime, "Entry time is required.")
	}
	if strings.TrimSpace(exit) == "" {
		verr.add(prefix+models.FieldExitTime, "Exit time is required.")
	}

	in, errIn := models.ParseClock(entry)
	out, errOut := models.ParseClock(exit)
	if errIn == nil && errOut == nil && !out.After(in) {
		verr.add(prefix+models.FieldExitTime, "Exit time must be later than entry time.")
	}
}

func collect(verr *ValidationError, prefix string, err error, skip func(field string) bool) {
	if err == nil {
		return
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		verr.add(strings.TrimSuffix(prefix, "."), err.Error())
		return
	}

	for _, fe := range errs {
		field := fieldPath(fe.Namespace())
		if skip != nil && skip(field) {
			continue
		}
		verr.add(prefix+field, fieldMessage(fe))
	}
}

// fieldPath drops the struct name from a namespace such as
// "AttendanceRecord.foodAllowance.lunch".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required.", fe.Field())
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s.", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("Field '%s' must be a time of day in HH:MM format.", fe.Field())
	case "halfhour":
		return fmt.Sprintf("Field '%s' must be given in half hours.", fe.Field())
	default:
		return fmt.Sprintf("Field '%s' failed validation '%s'.", fe.Field(), fe.Tag())
	}
}
