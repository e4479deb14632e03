package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/realestate/internal/models"
)

const (
	appointmentStatusTag = "appointment_status"
	propertyStatusTag    = "property_status"
	roleTag              = "role"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation(appointmentStatusTag, validateEnum(models.AppointmentStatus.Valid))
	_ = validate.RegisterValidation(propertyStatusTag, validateEnum(models.PropertyStatus.Valid))
	_ = validate.RegisterValidation(roleTag, validateEnum(models.Role.Valid))
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Validate string based enumeration by its Valid method
func validateEnum[T ~string](valid func(T) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return valid(T(fl.Field().String()))
	}
}
