package form

import "reflect"

// State is the mutable FormState of one open dialog, with its per-field errors.
type State struct {
	values Values
	errors map[string]string
}

func NewState(initial Values) *State {
	return &State{
		values: initial.Clone(),
		errors: make(map[string]string),
	}
}

func (s *State) Get(name string) interface{} {
	return s.values[name]
}

// Set stores value and clears the field's error; the caller re-validates.
func (s *State) Set(name string, value interface{}) {
	s.values[name] = value
	delete(s.errors, name)
}

// Values returns a copy of the current values.
func (s *State) Values() Values {
	return s.values.Clone()
}

// Reset restores values and drops every error.
func (s *State) Reset(values Values) {
	s.values = values.Clone()
	s.errors = make(map[string]string)
}

func (s *State) SetError(name, msg string) {
	if msg == "" {
		delete(s.errors, name)
		return
	}
	s.errors[name] = msg
}

func (s *State) Error(name string) string {
	return s.errors[name]
}

// Errors returns a copy of the field errors.
func (s *State) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

func (s *State) ClearErrors() {
	s.errors = make(map[string]string)
}

// Snapshot is the OriginalSnapshot captured when a dialog opens. It is never mutated.
type Snapshot struct {
	values Values
}

func NewSnapshot(values Values) Snapshot {
	return Snapshot{values: values.Clone()}
}

func (s Snapshot) Get(name string) (interface{}, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s Snapshot) Values() Values {
	return s.values.Clone()
}

// Equal compares form values by value. Points compare both components.
func Equal(a, b interface{}) bool {
	pa, okA := a.(Point)
	pb, okB := b.(Point)
	if okA || okB {
		return okA && okB && pa.Lat == pb.Lat && pa.Lng == pb.Lng
	}
	if a == nil {
		a = ""
	}
	if b == nil {
		b = ""
	}
	return reflect.DeepEqual(a, b)
}
