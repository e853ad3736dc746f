package form

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	String Kind = iota
	// Text is free text; it is sanitized when the payload is built.
	Text
	Integer
	Decimal
	Bool
	// Date holds YYYY-MM-DD strings in the form and time.Time in payloads.
	Date
	// Coordinates is a composite field sent as its Parts.
	Coordinates
	// Secret is sent exactly as typed (passwords).
	Secret
)

const DateLayout = "2006-01-02"

// Values maps field names to their form representation.
type Values map[string]interface{}

func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// String returns the string value of name, or "" when it is missing or not a string.
func (vs Values) String(name string) string {
	s, _ := vs[name].(string)
	return s
}

// Point is the form representation of a Coordinates field.
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// IsSentinel reports whether p is the (0,0) pair that means "no location chosen".
func (p Point) IsSentinel() bool {
	return p.Lat == 0 && p.Lng == 0
}

type Field struct {
	Name    string
	Kind    Kind
	Default interface{}
	// Parts are the payload keys of a composite field, in component order.
	Parts []string
	// Local fields are validated but never sent (e.g. a password confirmation).
	Local bool
}

// Schema is the ordered list of fields of one form.
type Schema struct {
	fields []Field
	byName map[string]int
	owners map[string]int
}

func NewSchema(fields ...Field) Schema {
	s := Schema{
		fields: fields,
		byName: make(map[string]int, len(fields)),
		owners: make(map[string]int),
	}
	for i, f := range fields {
		s.byName[f.Name] = i
		for _, part := range f.Parts {
			s.owners[part] = i
		}
	}
	return s
}

func (s Schema) Fields() []Field { return s.fields }

func (s Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Owner returns the composite field a payload key belongs to.
func (s Schema) Owner(part string) (Field, bool) {
	i, ok := s.owners[part]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Keys returns the payload keys a field is sent as.
func (f Field) Keys() []string {
	if f.Kind == Coordinates {
		return f.Parts
	}
	return []string{f.Name}
}

// Defaults returns the initial values of a create form.
func (s Schema) Defaults() Values {
	vs := make(Values, len(s.fields))
	for _, f := range s.fields {
		switch {
		case f.Default != nil:
			vs[f.Name] = f.Default
		case f.Kind == Coordinates:
			vs[f.Name] = Point{}
		case f.Kind == Bool:
			vs[f.Name] = false
		default:
			vs[f.Name] = ""
		}
	}
	return vs
}

// FromRecord converts a backend record into the form representation used as an edit baseline.
// Numbers become the strings an input would hold, dates are cut to YYYY-MM-DD.
func (s Schema) FromRecord(rec map[string]interface{}) Values {
	vs := s.Defaults()
	for _, f := range s.fields {
		if f.Kind == Coordinates {
			if len(f.Parts) == 2 {
				lat, okLat := toFloat(rec[f.Parts[0]])
				lng, okLng := toFloat(rec[f.Parts[1]])
				if okLat && okLng {
					vs[f.Name] = Point{Lat: lat, Lng: lng}
				}
			}
			continue
		}
		raw, ok := rec[f.Name]
		if !ok || raw == nil {
			continue
		}
		switch f.Kind {
		case Integer:
			if n, ok := toFloat(raw); ok {
				vs[f.Name] = strconv.FormatInt(int64(n), 10)
			}
		case Decimal:
			if n, ok := toFloat(raw); ok {
				vs[f.Name] = strconv.FormatFloat(n, 'f', 2, 64)
			}
		case Bool:
			if b, ok := raw.(bool); ok {
				vs[f.Name] = b
			}
		case Date:
			vs[f.Name] = formatDate(raw)
		default:
			if str, ok := raw.(string); ok {
				vs[f.Name] = str
			} else {
				vs[f.Name] = strings.TrimSpace(toString(raw))
			}
		}
	}
	return vs
}

func formatDate(raw interface{}) string {
	str, ok := raw.(string)
	if !ok {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.Format(DateLayout)
	}
	if len(str) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, str[:len(DateLayout)]); err == nil {
			return str[:len(DateLayout)]
		}
	}
	return str
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ChangeSet is the set of payload keys whose value differs from the original snapshot.
type ChangeSet map[string]struct{}

func (cs ChangeSet) Has(name string) bool {
	_, ok := cs[name]
	return ok
}

func (cs ChangeSet) Len() int { return len(cs) }

// Names returns the changed keys sorted.
func (cs ChangeSet) Names() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cs ChangeSet) clone() ChangeSet {
	out := make(ChangeSet, len(cs))
	for name := range cs {
		out[name] = struct{}{}
	}
	return out
}
