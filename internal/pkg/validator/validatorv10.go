package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/otpgate/internal/pkg/strcase"
)

var (
	// Based on NIST 800-63B Guidelines
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	reOTPCode  = regexp.MustCompile(`^[0-9A-HJ-NP-Za-hj-np-z]{6}$`)
	reAPIKey   = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match the JSON bodies.
type V10ValidationError map[string]string

// Error implements the error interface.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerRules(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	if err := v.validate.Struct(data); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			return err
		}

		errV10 := make(V10ValidationError)
		for _, fe := range validateErrs {
			errV10[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
		}

		return errV10
	}

	return nil
}

type rule struct {
	tag     string
	message string
	fn      func(s string) bool
}

var rules = []rule{
	{"password", "{0} must be 8-72 characters", rePassword.MatchString},
	{"recipient", "{0} must be an email address or a phone number", isRecipient},
	{"otp_code", "{0} must be a 6 character code", reOTPCode.MatchString},
	{"api_key", "{0} must be a 32 character hex key", reAPIKey.MatchString},
}

func isRecipient(s string) bool {
	if rePhone.MatchString(s) {
		return true
	}

	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func registerRules(validate *validator.Validate, enTrans ut.Translator) error {
	for _, r := range rules {
		fn := r.fn
		if err := validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && fn(s)
		}); err != nil {
			return err
		}

		msg := r.message
		if err := validate.RegisterTranslation(r.tag, enTrans,
			func(ut ut.Translator) error {
				return ut.Add(fe(r.tag), msg, false)
			},
			func(ut ut.Translator, fieldErr validator.FieldError) string {
				t, err := ut.T(fe(fieldErr.Tag()), strcase.ToLowerSnake(fieldErr.Field()))
				if err != nil {
					slog.Warn("warning: error translating", "tag", fieldErr.Tag(), "error", err)
					return fieldErr.Error()
				}
				return t
			},
		); err != nil {
			return err
		}
	}

	return nil
}

func fe(tag string) string {
	return "custom_" + tag
}
