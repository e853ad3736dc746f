package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

// Messages of the built-in tags used by the dashboard forms.
// They never mention the field: the UI shows them next to it.
var builtinTexts = map[string]string{
	"required": "Este campo es obligatorio",
	"min":      "Debe tener al menos {0} caracteres",
	"max":      "Debe tener como máximo {0} caracteres",
	"gt":       "Debe ser mayor que {0}",
	"gte":      "Debe ser mayor o igual a {0}",
	"lte":      "Debe ser menor o igual a {0}",
	"eqfield":  "Los valores no coinciden",
}

// NewTranslator returns the Spanish translator used for every user-facing message.
func NewTranslator() ut.Translator {
	_es := es.New()
	uni := ut.New(_es, _es)
	translator, _ := uni.GetTranslator("es")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = es_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, text := range builtinTexts {
		RegisterCustomTranslation(validate, translator, tag, text, true)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// The tag parameter (e.g. the 2 of min=2) is available to the text as {0}.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Param())
			return s
		},
	)
}

// TranslateFirst returns the translated message of the first validation failure in err.
// Errors that are not validator.ValidationErrors are returned as is.
func TranslateFirst(err error, translator ut.Translator) string {
	if err == nil {
		return ""
	}
	if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
		return vErrs[0].Translate(translator)
	}
	return err.Error()
}

// ValidationFromErrors converts validator.ValidationErrors into a ValidationError keyed by field.
func ValidationFromErrors(err error, translator ut.Translator) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return NewValidationError(nil, flds...)
}
