package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 20
	passwordSpecials  = "!@#$%^&*"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsObjectID reports whether s is a 24 character hexadecimal object identifier.
func IsObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}

// FieldError describes why a single field failed validation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every failed field of a document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	reasons := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		reasons = append(reasons, f.Reason)
	}
	return strings.Join(reasons, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// CheckPassword reports whether password satisfies the complexity rules and,
// if it does not, why.
func CheckPassword(password string) (bool, string) {
	if n := utf8.RuneCountInString(password); n < passwordMinLength || n > passwordMaxLength {
		return false, "password must be between 8 and 20 characters long"
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case '0' <= r && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	if !lower || !upper || !digit || !special {
		return false, "password is too weak"
	}

	return true, ""
}

// Validator validates structs using `validate` tags and reports failures with
// English messages keyed by JSON field names.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	err := validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		ok, _ := CheckPassword(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(err)
	}

	err = validate.RegisterTranslation("password", trans,
		func(t ut.Translator) error {
			return t.Add("password", "{0} is too weak", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("password", fe.Field())
			return msg
		},
	)
	if err != nil {
		panic(err)
	}

	return &Validator{validate: validate, trans: trans}
}

// Struct validates s and returns a *ValidationError on failure.
func (v *Validator) Struct(s any) error {
	return v.translate(v.validate.Struct(s))
}

func (v *Validator) translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:  fe.Field(),
			Reason: fe.Translate(v.trans),
		})
	}

	return verr
}

var defaultValidator = New()

// Struct validates s with the package validator.
func Struct(s any) error {
	return defaultValidator.Struct(s)
}
