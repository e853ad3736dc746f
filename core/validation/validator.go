package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "Solo se permiten letras, números y guiones bajos"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	personNameTag  = "personname"
	personNameText = "Solo se permiten letras"

	emailStrictTag    = "email_strict"
	emailStrictText   = "Ingresa un correo válido (.com o .net)"
	emailStrictRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.(com|net)$`)
	emailExtendedTag  = "email_extended"
	emailExtendedText = "Ingresa un correo válido (.com, .net, .org, .edu o .gov)"
	emailExtRegex     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.(com|net|org|edu|gov)$`)

	phoneTag   = "phone"
	phoneText  = "El teléfono debe tener exactamente 10 dígitos"
	phoneRegex = regexp.MustCompile(`^\d{10}$`)

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "La contraseña debe contener al menos una mayúscula, una minúscula y un número"

	timeOfDayTag   = "hhmm"
	timeOfDayText  = "Formato de hora inválido (HH:MM)"
	timeOfDayRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

	notPastTag    = "notpast"
	notPastText   = "La fecha y hora no pueden estar en el pasado"
	within2yTag   = "within2y"
	within2yText  = "La fecha no puede superar los 2 años desde hoy"
	maxYearsAhead = 2

	noSentinelTag  = "nosentinel"
	noSentinelText = "Selecciona una ubicación en el mapa"

	// messages that are not produced by a tag
	dateRequiredText = "Selecciona una fecha"
	dateInvalidText  = "Fecha inválida (AAAA-MM-DD)"
	dateRangeText    = "La fecha de fin no puede ser anterior a la de inicio"
	integerText      = "Debe ser un número entero"
	decimalText      = "Debe ser un número válido"
	decimalsText     = "Máximo 2 decimales"

	// plain decimal notation only: no exponents, hex floats or special values
	decimalRegex = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Validator runs the field policies. It is safe for concurrent use once built.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
	now        func() time.Time
}

// New registers the dashboard validation tags on validate and returns a Validator.
// validate and translator are expected to be initialized by core.InitValidators.
func New(validate *validator.Validate, translator ut.Translator) *Validator {
	v := &Validator{
		validate:   validate,
		translator: translator,
		now:        time.Now,
	}
	v.register()
	return v
}

// NewDefault builds a Validator on a fresh validator.Validate and Spanish translator.
func NewDefault() *Validator {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return New(validate, translator)
}

// SetClock overrides the time source used by the date checks.
func (v *Validator) SetClock(now func() time.Time) {
	v.now = now
}

func (v *Validator) Translator() ut.Translator { return v.translator }

func (v *Validator) Engine() *validator.Validate { return v.validate }

func (v *Validator) register() {
	regexTags := map[string]*regexp.Regexp{
		alphaNumUnderTag: alphaNumUnderRegex,
		emailStrictTag:   emailStrictRegex,
		emailExtendedTag: emailExtRegex,
		phoneTag:         phoneRegex,
		timeOfDayTag:     timeOfDayRegex,
	}
	for tag, rx := range regexTags {
		rx := rx
		_ = v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rx.MatchString(fl.Field().String())
		})
	}
	_ = v.validate.RegisterValidation(personNameTag, personNameValidation)
	_ = v.validate.RegisterValidation(pwdComplexityTag, pwdComplexityValidation)
	_ = v.validate.RegisterValidation(notPastTag, v.notPastValidation)
	_ = v.validate.RegisterValidation(within2yTag, v.within2yValidation)
	v.validate.RegisterStructValidation(coordinatesStructValidation, form.Point{})

	texts := map[string]string{
		alphaNumUnderTag: alphaNumUnderText,
		personNameTag:    personNameText,
		emailStrictTag:   emailStrictText,
		emailExtendedTag: emailExtendedText,
		phoneTag:         phoneText,
		pwdComplexityTag: pwdComplexityText,
		timeOfDayTag:     timeOfDayText,
		notPastTag:       notPastText,
		within2yTag:      within2yText,
		noSentinelTag:    noSentinelText,
	}
	for tag, text := range texts {
		core.RegisterCustomTranslation(v.validate, v.translator, tag, text)
	}
}

// Check validates value against policy p and returns the first failure message, or "".
func (v *Validator) Check(p Policy, value interface{}) string {
	switch p.Kind {
	case KindInteger:
		s := asString(value)
		if s == "" {
			return v.tagOnly("required", "")
		}
		n, ok := asInt(value)
		if !ok {
			return integerText
		}
		return v.run(n, p.Tags)
	case KindDecimal:
		s := asString(value)
		if s == "" {
			return v.tagOnly("required", "")
		}
		f, ok := asFloat(value)
		if !ok {
			return decimalText
		}
		if msg := v.run(f, p.Tags); msg != "" {
			return msg
		}
		if p.MaxDecimals > 0 && decimalPlaces(value) > p.MaxDecimals {
			return decimalsText
		}
		return ""
	case KindCoordinates:
		c, ok := value.(form.Point)
		if !ok {
			return noSentinelText
		}
		return core.TranslateFirst(v.validate.Struct(c), v.translator)
	default:
		s := asString(value)
		if p.Raw {
			s, _ = value.(string)
		}
		return v.run(s, p.Tags)
	}
}

// DateTime validates a date (YYYY-MM-DD) combined with a time of day.
// The combined instant must not be in the past nor beyond maxYearsAhead years.
func (v *Validator) DateTime(date, hour string) string {
	date = core.CleanString(date)
	hour = core.CleanString(hour)
	if date == "" {
		return dateRequiredText
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return dateInvalidText
	}
	if msg := v.Check(TimeOfDay, hour); msg != "" {
		return msg
	}
	at, err := time.ParseInLocation(dateTimeLayout, date+" "+hour, time.Local)
	if err != nil {
		return dateInvalidText
	}
	return v.run(at, notPastTag+","+within2yTag)
}

// DateRange checks that end is not before start. Both must be YYYY-MM-DD.
func (v *Validator) DateRange(start, end string) string {
	from, err := time.Parse(dateLayout, core.CleanString(start))
	if err != nil {
		return dateInvalidText
	}
	to, err := time.Parse(dateLayout, core.CleanString(end))
	if err != nil {
		return dateInvalidText
	}
	if to.Before(from) {
		return dateRangeText
	}
	return ""
}

func (v *Validator) run(value interface{}, tags string) string {
	if tags == "" {
		return ""
	}
	return core.TranslateFirst(v.validate.Var(value, tags), v.translator)
}

func (v *Validator) tagOnly(tag, param string) string {
	s, err := v.translator.T(tag, param)
	if err != nil {
		return tag
	}
	return s
}

// Custom Validators

// personNameValidation only allows letters (any script) and spaces.
func personNameValidation(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

// pwdComplexityValidation requires 1 upper, 1 lower and 1 digit.
func pwdComplexityValidation(fl validator.FieldLevel) bool {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

func (v *Validator) notPastValidation(fl validator.FieldLevel) bool {
	at, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !at.Before(v.now().Truncate(time.Minute))
}

func (v *Validator) within2yValidation(fl validator.FieldLevel) bool {
	at, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !at.After(v.now().AddDate(maxYearsAhead, 0, 0))
}

// coordinatesStructValidation rejects the (0,0) "no location chosen" sentinel.
func coordinatesStructValidation(sl validator.StructLevel) {
	if c, ok := sl.Current().Interface().(form.Point); ok && c.IsSentinel() {
		sl.ReportError(c, "location", "Location", noSentinelTag, "")
	}
}

func asString(value interface{}) string {
	switch val := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

func asInt(value interface{}) (int64, bool) {
	switch val := value.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat(value interface{}) (float64, bool) {
	switch val := value.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		val = strings.TrimSpace(val)
		if !decimalRegex.MatchString(val) {
			return 0, false
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func decimalPlaces(value interface{}) int {
	s := asString(value)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
