package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Input length limits
const (
	MaxNameLength        = 255
	MaxEmailLength       = 320
	MaxDescriptionLength = 2000
	MaxURLLength         = 2048
)

var (
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	otpPattern     = regexp.MustCompile(`^[0-9]{4,6}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	idPattern      = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the restaurant tags
// registered: phone, otp, pincode, ifsc and objectid.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fieldName(fld.Tag.Get("json"), fld.Name)
		})
		mustRegister(v, "phone", phonePattern)
		mustRegister(v, "otp", otpPattern)
		mustRegister(v, "pincode", pincodePattern)
		mustRegister(v, "ifsc", ifscPattern)
		mustRegister(v, "objectid", idPattern)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func fieldName(jsonTag, goName string) string {
	name := strings.SplitN(jsonTag, ",", 2)[0]
	if name == "" || name == "-" {
		return goName
	}
	return name
}

// Struct validates v and joins all failures into one readable error.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Var validates a single value against a tag expression.
func Var(name string, value any, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return errors.New(describe(name, ve[0].Tag(), ve[0].Param()))
	}
	return fmt.Errorf("invalid %s: %w", name, err)
}

func fieldError(fe validator.FieldError) string {
	return describe(fe.Field(), fe.Tag(), fe.Param())
}

func describe(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "phone":
		return field + " must be a valid 10-digit phone number"
	case "otp":
		return field + " must be a 4 to 6 digit code"
	case "pincode":
		return field + " must be a 6-digit pin code"
	case "ifsc":
		return field + " must be an IFSC code like SBIN0001234"
	case "objectid":
		return field + " is not a valid id"
	case "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, tag)
	}
}

// ValidatePhone checks a 10-digit mobile number.
func ValidatePhone(phone string) error {
	return Var("phone", strings.TrimSpace(phone), "required,phone")
}

// ValidateOTP checks a one-time code.
func ValidateOTP(otp string) error {
	return Var("otp", strings.TrimSpace(otp), "required,otp")
}

// ValidatePincode checks an Indian postal pin code.
func ValidatePincode(pin string) error {
	return Var("pin code", strings.TrimSpace(pin), "required,pincode")
}

// ValidateIFSC checks a bank IFSC code. Lower case input is accepted.
func ValidateIFSC(code string) error {
	return Var("IFSC code", strings.ToUpper(strings.TrimSpace(code)), "required,ifsc")
}

// ValidateID checks a resource id before it is placed in a URL path.
func ValidateID(id string) error {
	return Var("id", strings.TrimSpace(id), "required,objectid")
}

// ValidateEmail checks an optional email address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if n := utf8.RuneCountInString(email); n > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters (got %d)", MaxEmailLength, n)
	}
	return Var("email", email, "email")
}

// ValidateName checks a display name length. Empty names are allowed.
func ValidateName(name string) error {
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("name exceeds maximum length of %d characters (got %d)", MaxNameLength, n)
	}
	return nil
}

// ValidateDescription checks a free text length.
func ValidateDescription(text string) error {
	if n := utf8.RuneCountInString(text); n > MaxDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d characters (got %d)", MaxDescriptionLength, n)
	}
	return nil
}

// ParsePrice parses a rupee amount. At most two decimal places are allowed
// and the value may not be negative.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₹"))
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("price is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price cannot be negative")
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, fmt.Errorf("price %s has more than two decimal places", s)
	}
	return d, nil
}

// ParsePercent parses a discount percentage between 0 and 100.
func ParsePercent(s string) (decimal.Decimal, error) {
	d, err := ParsePrice(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid percentage: %w", err)
	}
	if d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, fmt.Errorf("percentage cannot exceed 100")
	}
	return d, nil
}
