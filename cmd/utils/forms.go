package utils

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}()

// ParseForm populates r.PostForm for both urlencoded and multipart bodies.
func ParseForm(r *http.Request) error {
	err := r.ParseMultipartForm(MaxImageSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// ValidateStruct runs validator tags and returns per-field messages keyed
// by lower-cased field name. An empty map means the form is valid.
func ValidateStruct(form interface{}) map[string]string {
	fieldErrors := map[string]string{}
	err := validate.Struct(form)
	if err == nil {
		return fieldErrors
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrors["form"] = "invalid submission"
		return fieldErrors
	}

	for _, fe := range verrs {
		fieldErrors[strings.ToLower(fe.Field())] = messageFor(fe)
	}
	return fieldErrors
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "slug":
		return "Use lowercase letters, numbers and hyphens only."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "oneof":
		return "Select a valid choice."
	default:
		return "Invalid value."
	}
}
