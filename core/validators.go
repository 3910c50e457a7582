package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	identifierRegex = regexp.MustCompile(`^\w+$`)

	// shared rules, usable as struct tags by every domain package
	customRules = []struct {
		tag  string
		text string
		fn   validator.Func
	}{
		{"alphanum_", "only alphanumeric characters and underscores are allowed", isIdentifier},
		{"simple_email", "please provide a valid email address", isSimpleEmailField},
		{"phone", "please provide a valid phone number (at least 10 digits)", isPhoneField},
	}

	// built-in tags whose default english text is replaced
	requiredText  = "this field is required"
	requiredLikes = []string{"required", "required_with"}
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	return translator
}

// InitValidators registers the shared rules and their messages on validate.
// Errors are reported under the json name of the field.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(jsonFieldName)

	for _, rule := range customRules {
		_ = validate.RegisterValidation(rule.tag, rule.fn)
		RegisterCustomTranslation(validate, translator, rule.tag, rule.text)
	}
	for _, tag := range requiredLikes {
		RegisterCustomTranslation(validate, translator, tag, requiredText, true /* override */)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// RegisterCustomTranslation sets the message reported for tag; override replaces an existing one.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	replace := len(override) > 0 && override[0]
	register := func(t ut.Translator) error {
		return t.Add(tag, text, replace)
	}
	translate := func(t ut.Translator, fe validator.FieldError) string {
		msg, _ := t.T(tag, fe.Field())
		return msg
	}
	_ = validate.RegisterTranslation(tag, translator, register, translate)
}

// TranslateValidationErrors converts validator errors into a ValidationError.
// Any other error is returned as is.
func TranslateValidationErrors(err error, translator ut.Translator) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return NewValidationError(vErrs, flds...)
}

func isIdentifier(fl validator.FieldLevel) bool {
	return identifierRegex.MatchString(fl.Field().String())
}

func isSimpleEmailField(fl validator.FieldLevel) bool {
	return IsSimpleEmail(fl.Field().String())
}

// isPhoneField accepts digits only, at least 10 of them.
func isPhoneField(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return IsDigits(s) && len(s) >= 10
}
