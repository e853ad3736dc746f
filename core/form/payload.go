package form

import (
	"encoding/json"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
)

// textPolicy strips every tag from free text before it leaves the dashboard.
var textPolicy = bluemonday.StrictPolicy()

// BuildPayload walks changed once and returns a partial record holding only the changed keys.
// Each value is coerced exactly once, here.
func BuildPayload(schema Schema, changed ChangeSet, values Values) (map[string]interface{}, error) {
	payload := make(map[string]interface{}, changed.Len())
	for _, key := range changed.Names() {
		if owner, ok := schema.Owner(key); ok {
			v, err := coercePart(owner, key, values[owner.Name])
			if err != nil {
				return nil, err
			}
			payload[key] = v
			continue
		}
		f, ok := schema.Field(key)
		if !ok {
			return nil, errors.Errorf("form: unknown field %q", key)
		}
		if f.Local {
			continue
		}
		v, err := Coerce(f, values[key])
		if err != nil {
			return nil, err
		}
		payload[key] = v
	}
	return payload, nil
}

// BuildFull coerces every schema field, for create flows.
func BuildFull(schema Schema, values Values) (map[string]interface{}, error) {
	payload := make(map[string]interface{}, len(schema.fields))
	for _, f := range schema.fields {
		if f.Local {
			continue
		}
		if f.Kind == Coordinates {
			for _, part := range f.Parts {
				v, err := coercePart(f, part, values[f.Name])
				if err != nil {
					return nil, err
				}
				payload[part] = v
			}
			continue
		}
		v, err := Coerce(f, values[f.Name])
		if err != nil {
			return nil, err
		}
		payload[f.Name] = v
	}
	return payload, nil
}

// Coerce converts a form value into its payload type.
func Coerce(f Field, value interface{}) (interface{}, error) {
	switch f.Kind {
	case Text:
		s := core.CleanString(toString(value))
		return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s))), nil
	case Integer:
		switch n := value.(type) {
		case int:
			return n, nil
		case float64:
			return int(n), nil
		}
		n, err := strconv.Atoi(core.CleanString(toString(value)))
		if err != nil {
			return nil, errors.Wrapf(err, "form: coercing %s", f.Name)
		}
		return n, nil
	case Decimal:
		if n, ok := value.(float64); ok {
			return n, nil
		}
		n, err := strconv.ParseFloat(core.CleanString(toString(value)), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "form: coercing %s", f.Name)
		}
		return n, nil
	case Bool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		b, err := strconv.ParseBool(core.CleanString(toString(value)))
		if err != nil {
			return nil, errors.Wrapf(err, "form: coercing %s", f.Name)
		}
		return b, nil
	case Date:
		s := core.CleanString(toString(value))
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, errors.Wrapf(err, "form: coercing %s", f.Name)
		}
		return t, nil
	case Coordinates:
		p, ok := value.(Point)
		if !ok {
			return nil, errors.Errorf("form: %s is not a point", f.Name)
		}
		return p, nil
	case Secret:
		s, _ := value.(string)
		return s, nil
	default:
		return core.CleanString(toString(value)), nil
	}
}

func coercePart(owner Field, part string, value interface{}) (interface{}, error) {
	p, ok := value.(Point)
	if !ok {
		return nil, errors.Errorf("form: %s is not a point", owner.Name)
	}
	for i, name := range owner.Parts {
		if name != part {
			continue
		}
		if i == 0 {
			return p.Lat, nil
		}
		return p.Lng, nil
	}
	return nil, errors.Errorf("form: %s has no part %q", owner.Name, part)
}

// DecodeValue decodes a JSON value sent by the front end into the field's form representation.
// Numbers are kept as the string an input would hold.
func DecodeValue(f Field, raw json.RawMessage) (interface{}, error) {
	switch f.Kind {
	case Coordinates:
		var p Point
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
		var pair []float64
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return nil, errors.Errorf("form: %s expects {lat,lng} or [lat,lng]", f.Name)
		}
		return Point{Lat: pair[0], Lng: pair[1]}, nil
	case Bool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, errors.Wrapf(err, "form: decoding %s", f.Name)
		}
		return b, nil
	default:
		var v interface{}
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "form: decoding %s", f.Name)
		}
		switch val := v.(type) {
		case nil:
			return "", nil
		case string:
			return val, nil
		case json.Number:
			return val.String(), nil
		default:
			return nil, errors.Errorf("form: %s expects a string or a number", f.Name)
		}
	}
}
