package validation

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Messages turns a gin binding error into ordered client-facing messages
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			messages = append(messages, fieldMessage(fe))
		}
		return messages
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return []string{"Request body is required."}
	case errors.As(err, &syntaxErr):
		return []string{"Request body is not valid JSON."}
	case errors.As(err, &typeErr):
		return []string{humanize(typeErr.Field) + " has an invalid type."}
	}
	return []string{"Request is invalid."}
}

func fieldMessage(fe validator.FieldError) string {
	if custom := CustomMessage(fe.Field()); custom != nil {
		if msg, ok := custom[fe.Tag()]; ok {
			return msg
		}
	}
	return DefaultMessage(humanize(fe.Field()), fe.Tag(), fe.Param())
}

// humanize turns "FirstName" into "First name"
func humanize(field string) string {
	if field == "" {
		return "Field"
	}

	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
