package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"shoezclean/backend/internal/domain"
)

var idPhonePattern = regexp.MustCompile(`^(\+62|62|0)8[1-9][0-9]{7,10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("idphone", validateIDPhone)
	_ = v.RegisterValidation("nospace", validateNoSpace)
	return v
}

// NormalizePhone strips the separators people type into phone numbers.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

// IsPhone reports whether phone is an Indonesian mobile number.
func IsPhone(phone string) bool {
	return idPhonePattern.MatchString(NormalizePhone(phone))
}

func validateIDPhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

func validateNoSpace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

// Struct validates v and reports failures as a *domain.ValidationError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "idphone":
		return "must be a valid Indonesian phone number"
	case "nospace":
		return "must not contain spaces"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Sanitize removes HTML tags from free text and trims it.
func Sanitize(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}
