package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/freightbite/internal/pkg/strcase"
)

var (
	rePhone   = regexp.MustCompile(`^\+?[0-9]{11,15}$`)
	reOTPCode = regexp.MustCompile(`^\S{1,16}$`)

	freightStatuses = map[string]struct{}{
		"pending":   {},
		"confirmed": {},
		"completed": {},
		"cancelled": {},
	}
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to messages.
type V10ValidationError map[string]string

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

// NewV10Validator constructs a V10Validator with English translations and the
// phone, otpcode and freightstatus rules.
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

	if err := registerCustom(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

// Validate validates a struct and returns a V10ValidationError on failure.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	errV10 := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		errV10[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}

	return errV10
}

type customRule struct {
	tag     string
	message string
	fn      validator.Func
}

func stringRule(match func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return match(strings.TrimSpace(s))
	}
}

func registerCustom(validate *validator.Validate, enTrans ut.Translator) error {
	rules := []customRule{
		{
			tag:     "phone",
			message: "{0} must be a phone number of 11-15 digits",
			fn:      stringRule(rePhone.MatchString),
		},
		{
			tag:     "otpcode",
			message: "{0} must be a verification code",
			fn:      stringRule(reOTPCode.MatchString),
		},
		{
			tag:     "freightstatus",
			message: "{0} must be one of pending, confirmed, completed, cancelled",
			fn: stringRule(func(s string) bool {
				_, ok := freightStatuses[s]
				return ok
			}),
		},
	}

	for _, rule := range rules {
		if err := validate.RegisterValidation(rule.tag, rule.fn); err != nil {
			return err
		}

		msg := rule.message
		err := validate.RegisterTranslation(rule.tag, enTrans,
			func(t ut.Translator) error {
				return t.Add(rule.tag, msg, false)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				out, err := t.T(fe.Tag(), fe.Field())
				if err != nil {
					slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
					return fe.Error()
				}
				return out
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}
