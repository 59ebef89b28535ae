package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/akshadjaiswal/hot-takes-arena/pkg/hash"
)

const (
	MaxFingerprintLen = 128
	minFingerprintLen = 8
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report field names as clients send them
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	validate.RegisterValidation("mintrim", validateMinTrimmed)
	validate.RegisterValidation("fingerprint", validateFingerprint)
	validate.RegisterValidation("iphash", validateIPHash)
}

// validateMinTrimmed checks the rune length of the trimmed value against the tag param.
func validateMinTrimmed(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
}

// validateFingerprint accepts opaque client identifiers made of ASCII letters,
// digits, dashes and underscores.
func validateFingerprint(fl validator.FieldLevel) bool {
	fp := fl.Field().String()
	if len(fp) < minFingerprintLen || len(fp) > MaxFingerprintLen {
		return false
	}
	for i := 0; i < len(fp); i++ {
		c := fp[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func validateIPHash(fl validator.FieldLevel) bool {
	return hash.IsHexDigest(fl.Field().String())
}

// validateInput runs struct validation and converts failures to a VALIDATION_ERROR.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return validationError(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return validationError(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "mintrim":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "fingerprint":
		return fmt.Sprintf("%s is not a valid device fingerprint", field)
	case "iphash":
		return fmt.Sprintf("%s is not a valid address hash", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
