package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodySize обмежує розмір тіла JSON-запиту
const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Помилки називають поля так, як вони записані у JSON
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// decodeJSON розбирає тіло запиту у dst та перевіряє теги validate
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return badRequest(fmt.Sprintf("invalid request body: %v", err))
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			apiErr := newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed")
			fields := make([]FieldError, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
			}
			apiErr.Details = fields
			return apiErr
		}
		return badRequest(err.Error())
	}

	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
