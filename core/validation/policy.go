package validation

import (
	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
)

type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindDecimal
	KindCoordinates
)

// Policy is one canonical rule set for a semantic field type.
type Policy struct {
	Name string
	Kind Kind
	Tags string
	// Raw disables trimming (passwords).
	Raw         bool
	MaxDecimals int
}

// Canonical policies. The username, email and password rules exist twice because the
// registration and signup flows disagree on them; both variants are kept by name.
var (
	Required   = Policy{Name: "required", Kind: KindString, Tags: "required"}
	EntityName = Policy{Name: "entity_name", Kind: KindString, Tags: "required,min=2,max=100"}
	PersonName = Policy{Name: "person_name", Kind: KindString, Tags: "required,min=2,max=30,personname"}

	UsernameRegistration = Policy{Name: "username_registration", Kind: KindString, Tags: "required,min=3,max=20,alphanum_"}
	UsernameSignup       = Policy{Name: "username_signup", Kind: KindString, Tags: "required,min=2,max=30"}
	EmailStrict          = Policy{Name: "email_strict", Kind: KindString, Tags: "required,email_strict"}
	EmailExtended        = Policy{Name: "email_extended", Kind: KindString, Tags: "required,email_extended"}
	PasswordBasic        = Policy{Name: "password_basic", Kind: KindString, Tags: "required,min=6", Raw: true}
	PasswordStrong       = Policy{Name: "password_strong", Kind: KindString, Tags: "required,min=8,pwdcplx", Raw: true}

	Phone     = Policy{Name: "phone", Kind: KindString, Tags: "required,phone"}
	TimeOfDay = Policy{Name: "time_of_day", Kind: KindString, Tags: "required,hhmm"}

	CapacityCreate = Policy{Name: "capacity_create", Kind: KindInteger, Tags: "gt=0"}
	CapacityEdit   = Policy{Name: "capacity_edit", Kind: KindInteger, Tags: "gt=0,lte=100000"}
	Quantity       = Policy{Name: "quantity", Kind: KindInteger, Tags: "gt=0"}
	Price          = Policy{Name: "price", Kind: KindDecimal, Tags: "gte=0,lte=10000", MaxDecimals: 2}

	Coordinates = Policy{Name: "coordinates", Kind: KindCoordinates}
)

// Rule binds a form field to a policy.
type Rule struct {
	Field  string
	Policy Policy
}

// Table is the named policy table of one form. Rules keep their declaration order.
type Table struct {
	rules   []Rule
	byField map[string]Policy
}

func NewTable(rules ...Rule) Table {
	t := Table{
		rules:   rules,
		byField: make(map[string]Policy, len(rules)),
	}
	for _, r := range rules {
		t.byField[r.Field] = r.Policy
	}
	return t
}

// With returns a copy of t where field uses p, keeping its position.
func (t Table) With(field string, p Policy) Table {
	rules := make([]Rule, 0, len(t.rules)+1)
	var found bool
	for _, r := range t.rules {
		if r.Field == field {
			r.Policy = p
			found = true
		}
		rules = append(rules, r)
	}
	if !found {
		rules = append(rules, Rule{Field: field, Policy: p})
	}
	return NewTable(rules...)
}

func (t Table) Policy(field string) (Policy, bool) {
	p, ok := t.byField[field]
	return p, ok
}

func (t Table) Rules() []Rule { return t.rules }

// Validate checks one field. Fields without a policy always pass.
func (t Table) Validate(v *Validator, field string, value interface{}) string {
	p, ok := t.byField[field]
	if !ok {
		return ""
	}
	return v.Check(p, value)
}

// ValidateAll checks every rule against values, in declaration order.
func (t Table) ValidateAll(v *Validator, values form.Values) []core.FieldError {
	var flds []core.FieldError
	for _, r := range t.rules {
		if msg := v.Check(r.Policy, values[r.Field]); msg != "" {
			flds = append(flds, core.FieldError{Field: r.Field, Error: msg})
		}
	}
	return flds
}
