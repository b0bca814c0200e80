package validation

import (
	"fmt"
)

// DefaultMessage is the fallback message for field failing tag with param
func DefaultMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", field, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters.", field, param)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID.", field)
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits.", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, param)
	case "eqfield":
		return fmt.Sprintf("%s must match %s.", field, param)
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
