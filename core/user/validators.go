package user

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/validation"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "Rol inválido"

	pwdMismatchText = "Las contraseñas no coinciden"

	pwdMaxSim      = .7
	pwdAttrSimText = "La contraseña no puede parecerse a tu nombre, usuario o correo"

	// RolePolicy accepts one of AllRoles.
	RolePolicy = validation.Policy{Name: "role", Kind: validation.KindString, Tags: "required," + allRolesTag}
)

// RegisterValidators registers the user validation tags on v. Call it once at start-up.
func RegisterValidators(v *validation.Validator) {
	_ = v.Engine().RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(v.Engine(), v.Translator(), allRolesTag, allRolesText)
}

// Custom Validators

// allRolesValidation checks that the role is one of AllRoles.
func allRolesValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	roles := append([]string(nil), AllRoles...)
	sort.Strings(roles)
	idx := sort.SearchStrings(roles, role)
	return idx < len(roles) && roles[idx] == role
}

// passwordChecks returns the cross-field rules of a form holding password and passwordConfirm.
// With attrs, the password must not resemble the values of those fields.
func passwordChecks(attrs ...string) func(vs form.Values) []core.FieldError {
	return func(vs form.Values) []core.FieldError {
		var flds []core.FieldError
		pwd := vs.String("password")
		if pwd != vs.String("passwordConfirm") {
			flds = append(flds, core.FieldError{Field: "passwordConfirm", Error: pwdMismatchText})
		}
		if pwd == "" {
			return flds
		}
		for _, attr := range attrs {
			if tooSimilar(pwd, vs.String(attr)) {
				flds = append(flds, core.FieldError{Field: "password", Error: pwdAttrSimText})
				break
			}
		}
		return flds
	}
}

func tooSimilar(pwd, usrAttr string) bool {
	usrAttr = core.CleanString(usrAttr, true /* lower */)
	if usrAttr == "" {
		return false
	}
	m := difflib.NewMatcher(strings.Split(strings.ToLower(pwd), ""), strings.Split(usrAttr, ""))
	return m.QuickRatio() >= pwdMaxSim
}
