package form

// Tracker keeps the ChangedFieldSet of an edit form against its original snapshot.
type Tracker struct {
	schema   Schema
	original Snapshot
	changed  ChangeSet
}

func NewTracker(schema Schema, original Snapshot) *Tracker {
	return &Tracker{
		schema:   schema,
		original: original,
		changed:  make(ChangeSet),
	}
}

// Track records the new value of field and returns the updated change set.
// A value equal to the original removes the field again, so retyping undoes an edit.
// Composite fields add or remove all their payload keys together.
func (t *Tracker) Track(field string, value interface{}) ChangeSet {
	keys := []string{field}
	if f, ok := t.schema.Field(field); ok {
		keys = f.Keys()
	}

	orig, _ := t.original.Get(field)
	if Equal(orig, value) {
		for _, key := range keys {
			delete(t.changed, key)
		}
	} else {
		for _, key := range keys {
			t.changed[key] = struct{}{}
		}
	}
	return t.changed.clone()
}

// Changed returns a copy of the current change set.
func (t *Tracker) Changed() ChangeSet {
	return t.changed.clone()
}

// Reset forgets every tracked change.
func (t *Tracker) Reset() {
	t.changed = make(ChangeSet)
}
