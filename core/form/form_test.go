package form

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testSchema() Schema {
	return NewSchema(
		Field{Name: "name", Kind: String},
		Field{Name: "description", Kind: Text},
		Field{Name: "price", Kind: Decimal},
		Field{Name: "capacity", Kind: Integer},
		Field{Name: "date", Kind: Date},
		Field{Name: "active", Kind: Bool},
		Field{Name: "location", Kind: Coordinates, Parts: []string{"latitude", "longitude"}},
	)
}

func testRecord() map[string]interface{} {
	return map[string]interface{}{
		"id":          "ev-1",
		"name":        "Concierto",
		"description": "Noche de rock",
		"price":       10.0,
		"capacity":    250.0,
		"date":        "2027-03-01T00:00:00Z",
		"active":      true,
		"latitude":    -0.18,
		"longitude":   -78.47,
	}
}

func TestSchema_FromRecord(t *testing.T) {
	got := testSchema().FromRecord(testRecord())
	want := Values{
		"name":        "Concierto",
		"description": "Noche de rock",
		"price":       "10.00",
		"capacity":    "250",
		"date":        "2027-03-01",
		"active":      true,
		"location":    Point{Lat: -0.18, Lng: -78.47},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestSchema_Defaults(t *testing.T) {
	got := testSchema().Defaults()
	if p, ok := got["location"].(Point); !ok || !p.IsSentinel() {
		t.Errorf("Defaults() location = %v, want sentinel point", got["location"])
	}
	if got["active"] != false {
		t.Errorf("Defaults() active = %v, want false", got["active"])
	}
	if got["name"] != "" {
		t.Errorf("Defaults() name = %v, want empty", got["name"])
	}
}

func TestTracker_Track(t *testing.T) {
	schema := testSchema()
	original := NewSnapshot(schema.FromRecord(testRecord()))

	tests := []struct {
		name  string
		edits [][2]interface{} // field, value
		want  []string
	}{
		{name: "no edits", want: []string{}},
		{name: "single edit", edits: [][2]interface{}{{"price", "12.50"}}, want: []string{"price"}},
		{
			name:  "edit then revert",
			edits: [][2]interface{}{{"name", "Concierto!"}, {"name", "Concierto"}},
			want:  []string{},
		},
		{
			name: "many reverted no-op edits",
			edits: [][2]interface{}{
				{"price", "11"}, {"capacity", "1"}, {"price", "10.00"}, {"capacity", "250"},
				{"location", Point{Lat: 1, Lng: 2}}, {"location", Point{Lat: -0.18, Lng: -78.47}},
			},
			want: []string{},
		},
		{
			name:  "coordinates add both parts",
			edits: [][2]interface{}{{"location", Point{Lat: -0.18, Lng: -78.5}}},
			want:  []string{"latitude", "longitude"},
		},
		{
			name:  "retyping is not coerced",
			edits: [][2]interface{}{{"price", "10.0"}},
			want:  []string{"price"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(schema, original)
			for _, e := range tt.edits {
				tracker.Track(e[0].(string), e[1])
			}
			if diff := cmp.Diff(tt.want, tracker.Changed().Names()); diff != "" {
				t.Errorf("Changed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildPayload_priceOnly(t *testing.T) {
	schema := testSchema()
	values := schema.FromRecord(testRecord())
	tracker := NewTracker(schema, NewSnapshot(values))

	values["price"] = "12.50"
	changed := tracker.Track("price", values["price"])

	got, err := BuildPayload(schema, changed, values)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}
	want := map[string]interface{}{"price": 12.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildPayload() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayload_roundTrip(t *testing.T) {
	schema := testSchema()
	original := schema.FromRecord(testRecord())
	tracker := NewTracker(schema, NewSnapshot(original))

	edited := Values{
		"name":        "  Festival  ",
		"description": "<b>Gran</b> festival & más",
		"price":       "99.99",
		"capacity":    "1000",
		"date":        "2027-05-10",
		"active":      false,
		"location":    Point{Lat: 1.5, Lng: -2.5},
	}
	values := original.Clone()
	for name, v := range edited {
		values[name] = v
		tracker.Track(name, v)
	}

	got, err := BuildPayload(schema, tracker.Changed(), values)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}
	want := map[string]interface{}{
		"name":        "Festival",
		"description": "Gran festival & más",
		"price":       99.99,
		"capacity":    1000,
		"date":        time.Date(2027, 5, 10, 0, 0, 0, 0, time.UTC),
		"active":      false,
		"latitude":    1.5,
		"longitude":   -2.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildPayload() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayload_omitsUntouched(t *testing.T) {
	schema := testSchema()
	values := schema.FromRecord(testRecord())
	tracker := NewTracker(schema, NewSnapshot(values))

	values["capacity"] = "300"
	got, err := BuildPayload(schema, tracker.Track("capacity", "300"), values)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}
	if len(got) != 1 || got["capacity"] != 300 {
		t.Errorf("BuildPayload() = %v, want only capacity=300", got)
	}
}

func TestBuildFull(t *testing.T) {
	schema := NewSchema(
		Field{Name: "name", Kind: String},
		Field{Name: "price", Kind: Decimal},
		Field{Name: "location", Kind: Coordinates, Parts: []string{"latitude", "longitude"}},
	)
	values := Values{"name": " VIP ", "price": "25", "location": Point{Lat: 3, Lng: 4}}

	got, err := BuildFull(schema, values)
	if err != nil {
		t.Fatalf("BuildFull() error = %v", err)
	}
	want := map[string]interface{}{"name": "VIP", "price": 25.0, "latitude": 3.0, "longitude": 4.0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFull() mismatch (-want +got):\n%s", diff)
	}
}

func TestCoerce_errors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value interface{}
	}{
		{name: "integer", field: Field{Name: "capacity", Kind: Integer}, value: "diez"},
		{name: "decimal", field: Field{Name: "price", Kind: Decimal}, value: "1,5"},
		{name: "date", field: Field{Name: "date", Kind: Date}, value: "01/02/2027"},
		{name: "point", field: Field{Name: "location", Kind: Coordinates}, value: "0,0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Coerce(tt.field, tt.value); err == nil {
				t.Errorf("Coerce(%v) error = nil, want error", tt.value)
			}
		})
	}
}

func TestDecodeValue(t *testing.T) {
	loc := Field{Name: "location", Kind: Coordinates, Parts: []string{"latitude", "longitude"}}
	tests := []struct {
		name    string
		field   Field
		raw     string
		want    interface{}
		wantErr bool
	}{
		{name: "string", field: Field{Name: "name", Kind: String}, raw: `"Rock"`, want: "Rock"},
		{name: "number kept as typed", field: Field{Name: "price", Kind: Decimal}, raw: `12.50`, want: "12.50"},
		{name: "null", field: Field{Name: "name", Kind: String}, raw: `null`, want: ""},
		{name: "bool", field: Field{Name: "active", Kind: Bool}, raw: `true`, want: true},
		{name: "point object", field: loc, raw: `{"lat":1,"lng":2}`, want: Point{Lat: 1, Lng: 2}},
		{name: "point pair", field: loc, raw: `[0,0]`, want: Point{}},
		{name: "bad pair", field: loc, raw: `[1]`, wantErr: true},
		{name: "object for string", field: Field{Name: "name", Kind: String}, raw: `{"a":1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue(tt.field, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !Equal(got, tt.want) {
				t.Errorf("DecodeValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestState(t *testing.T) {
	s := NewState(Values{"name": ""})
	s.SetError("name", "Este campo es obligatorio")
	s.Set("name", "Rock")
	if s.Error("name") != "" {
		t.Errorf("Set() kept error %q", s.Error("name"))
	}
	s.SetError("name", "x")
	s.Reset(Values{"name": "a"})
	if s.Get("name") != "a" || len(s.Errors()) != 0 {
		t.Errorf("Reset() values=%v errors=%v", s.Values(), s.Errors())
	}
}

func TestBuildFull_secretAndLocal(t *testing.T) {
	schema := NewSchema(
		Field{Name: "username", Kind: String},
		Field{Name: "password", Kind: Secret},
		Field{Name: "passwordConfirm", Kind: Secret, Local: true},
	)
	values := Values{"username": " ana ", "password": " Abc123 ", "passwordConfirm": " Abc123 "}

	got, err := BuildFull(schema, values)
	if err != nil {
		t.Fatalf("BuildFull() error = %v", err)
	}
	want := map[string]interface{}{"username": "ana", "password": " Abc123 "}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFull() mismatch (-want +got):\n%s", diff)
	}
}
