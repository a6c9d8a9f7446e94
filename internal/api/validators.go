package api

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Veraticus/feeledger/internal/model"
)

// Custom validation tags and their messages.
const (
	integerTag  = "integer"
	integerText = "{0} must be a whole number"

	atLeastTag  = "atleast"
	atLeastText = "{0} must be at least {1}"

	atMostTag  = "atmost"
	atMostText = "{0} must be at most {1}"

	notBlankTag = "notblank"

	requiredTag  = "required"
	requiredText = "this field is required"
)

// requestValidator validates decoded request bodies and renders failures as
// a field to message map keyed by JSON path.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	validate := validator.New(validator.WithRequiredStructEnabled())

	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Flexible JSON values are validated as their raw text.
	validate.RegisterCustomTypeFunc(numberValue, Number{})
	validate.RegisterCustomTypeFunc(textValue, Text{})

	_ = validate.RegisterValidation(integerTag, integerValidation)
	_ = validate.RegisterValidation(atLeastTag, atLeastValidation)
	_ = validate.RegisterValidation(atMostTag, atMostValidation)
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)

	registerTranslation(validate, translator, integerTag, integerText, false)
	registerTranslation(validate, translator, atLeastTag, atLeastText, false)
	registerTranslation(validate, translator, atMostTag, atMostText, false)
	registerTranslation(validate, translator, notBlankTag, requiredText, false)
	registerTranslation(validate, translator, requiredTag, requiredText, true)

	return &requestValidator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// Struct validates req. It returns nil when req is valid.
func (v *requestValidator) Struct(req any) map[string]string {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fieldPath(fe.Namespace())] = fe.Translate(v.translator)
	}
	return fields
}

// fieldPath drops the root struct name: "payFeeRequest.student.adm_no"
// becomes "student.adm_no".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func numberValue(field reflect.Value) any {
	n, ok := field.Interface().(Number)
	if !ok || !n.set {
		return nil
	}
	return n.raw
}

func textValue(field reflect.Value) any {
	t, ok := field.Interface().(Text)
	if !ok {
		return nil
	}
	return t.value
}

func integerValidation(fl validator.FieldLevel) bool {
	_, err := model.ParseWholeNumber(fl.Field().String())
	return err == nil
}

// atLeastValidation compares a whole number against the tag parameter.
// Values that are not whole numbers are left to the integer tag.
func atLeastValidation(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	n, err := model.ParseWholeNumber(fl.Field().String())
	if err != nil {
		return true
	}
	return n >= limit
}

// atMostValidation is the upper-bound counterpart of atLeastValidation.
func atMostValidation(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	n, err := model.ParseWholeNumber(fl.Field().String())
	if err != nil {
		return true
	}
	return n <= limit
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
