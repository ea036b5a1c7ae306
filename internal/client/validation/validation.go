// Package validation runs the client-side, pre-flight field checks.
// Anything rejected here never reaches the network layer.
package validation

import (
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"coinrush-client/internal/models"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	mobileRe   = regexp.MustCompile(`^[0-9]{10,15}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields under their json names, as the API would
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRe.MatchString(fl.Field().String())
	})
	return v
}

// Error carries per-field validation messages as a single error value.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// AsError wraps a non-empty field map into an *Error, or returns nil.
func AsError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Fields: fields}
}

// loginInput exists only to reuse struct-tag validation for the login form.
// The identifier may be an email or a username, so only presence is checked.
type loginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=50"`
}

// Login checks the login form. An empty map means the form is valid.
func Login(identifier, password string) map[string]string {
	return Struct(loginInput{Login: identifier, Password: password})
}

// Registration checks a registration payload against the signup rules.
func Registration(d models.RegisterData) map[string]string {
	return Struct(d)
}

// Struct validates any tagged struct and flattens the result into
// field → human-readable message.
func Struct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": "invalid input"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

// message maps a failed rule to the wording the signup form uses.
func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "login":
		return "Email or username is required"
	case "email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	case "password":
		switch fe.Tag() {
		case "required":
			return "Password is required"
		case "min":
			return "Password must be at least 6 characters"
		case "max":
			return "Password must be less than 50 characters"
		}
	case "name":
		switch fe.Tag() {
		case "required":
			return "Name is required"
		case "min":
			return "Name must be at least 2 characters"
		case "max":
			return "Name must be less than 50 characters"
		}
	case "username":
		switch fe.Tag() {
		case "required":
			return "Username is required"
		case "min":
			return "Username must be at least 3 characters"
		case "max":
			return "Username must be less than 30 characters"
		case "username":
			return "Username can only contain letters, numbers, and underscores"
		}
	case "mobileNumber":
		return "Please enter a valid mobile number"
	}
	return fe.Field() + " is invalid"
}
