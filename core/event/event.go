// Package event holds the event records and the event creation/edit wizard.
package event

import (
	"context"
	"net/url"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/validation"
	"github.com/darivadeneira/evento-web/core/wizard"
)

const (
	Path = "/events"

	cityRequiredText = "Ingresa una ciudad para poder elegir la ubicación en el mapa"
	createdText      = "Evento creado correctamente"
	updatedText      = "Evento actualizado correctamente"
)

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Hour        string    `json:"hour"`
	Capacity    int       `json:"capacity"`
	City        string    `json:"city"`
	Address     string    `json:"address,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	OrganizerID string    `json:"organizerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// QueryFilter narrows event listings. From and To bound the event date, both inclusive.
type QueryFilter struct {
	Search      string `query:"search"`
	City        string `query:"city"`
	OrganizerID string `query:"organizerId"`
	From        string `query:"from"`
	To          string `query:"to"`
}

// validate checks the date bounds: each must be YYYY-MM-DD and To must not precede From.
func (qf QueryFilter) validate(v *validation.Validator) error {
	from, to := core.CleanString(qf.From), core.CleanString(qf.To)
	var flds []core.FieldError
	if from != "" {
		if msg := v.DateRange(from, from); msg != "" {
			flds = append(flds, core.FieldError{Field: "from", Error: msg})
		}
	}
	if to != "" {
		if msg := v.DateRange(to, to); msg != "" {
			flds = append(flds, core.FieldError{Field: "to", Error: msg})
		}
	}
	if len(flds) == 0 && from != "" && to != "" {
		if msg := v.DateRange(from, to); msg != "" {
			flds = append(flds, core.FieldError{Field: "to", Error: msg})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (qf QueryFilter) values() url.Values {
	q := url.Values{}
	if s := core.CleanString(qf.Search); s != "" {
		q.Set("search", s)
	}
	if c := core.CleanString(qf.City); c != "" {
		q.Set("city", c)
	}
	if qf.OrganizerID != "" {
		q.Set("organizerId", qf.OrganizerID)
	}
	if from := core.CleanString(qf.From); from != "" {
		q.Set("from", from)
	}
	if to := core.CleanString(qf.To); to != "" {
		q.Set("to", to)
	}
	return q
}

var (
	Schema = form.NewSchema(
		form.Field{Name: "name", Kind: form.String},
		form.Field{Name: "date", Kind: form.Date},
		form.Field{Name: "hour", Kind: form.String},
		form.Field{Name: "description", Kind: form.Text},
		form.Field{Name: "capacity", Kind: form.Integer},
		form.Field{Name: "city", Kind: form.String},
		form.Field{Name: "address", Kind: form.String},
		form.Field{Name: "location", Kind: form.Coordinates, Parts: []string{"latitude", "longitude"}},
	)

	createTable = validation.NewTable(
		validation.Rule{Field: "name", Policy: validation.EntityName},
		validation.Rule{Field: "hour", Policy: validation.TimeOfDay},
		validation.Rule{Field: "description", Policy: validation.EntityName},
		validation.Rule{Field: "capacity", Policy: validation.CapacityCreate},
		validation.Rule{Field: "city", Policy: validation.Required},
		validation.Rule{Field: "location", Policy: validation.Coordinates},
	)
	editTable = createTable.With("capacity", validation.CapacityEdit)

	keywords = dialog.Keywords{
		"name":        {"nombre", "título", "titulo"},
		"date":        {"fecha"},
		"hour":        {"hora"},
		"description": {"descripción", "descripcion"},
		"capacity":    {"capacidad", "aforo"},
		"city":        {"ciudad"},
		"address":     {"dirección", "direccion"},
		"location":    {"ubicación", "ubicacion", "coordenadas", "latitud", "longitud"},
	}
)

// Table returns the field policies of mode.
func Table(mode dialog.Mode) validation.Table {
	if mode == dialog.Edit {
		return editTable
	}
	return createTable
}

// Steps returns the wizard steps: basic, details and location.
// Checks inside a step run in order and the first failure wins.
func Steps(v *validation.Validator, mode dialog.Mode) []wizard.Step {
	table := Table(mode)
	return []wizard.Step{
		{
			Name:   "basic",
			Fields: []string{"name", "date", "hour"},
			Validate: func(vs form.Values) string {
				if msg := table.Validate(v, "name", vs["name"]); msg != "" {
					return msg
				}
				return v.DateTime(vs.String("date"), vs.String("hour"))
			},
		},
		{
			Name:   "details",
			Fields: []string{"description", "capacity", "city", "address"},
			Validate: func(vs form.Values) string {
				if msg := table.Validate(v, "description", vs["description"]); msg != "" {
					return msg
				}
				return table.Validate(v, "capacity", vs["capacity"])
			},
			Gate: cityGate,
		},
		{
			Name:   "location",
			Fields: []string{"location"},
			Validate: func(vs form.Values) string {
				return table.Validate(v, "location", vs["location"])
			},
		},
	}
}

// cityGate disables leaving the details step without a city: the location picker is centered
// on it.
func cityGate(vs form.Values) string {
	if core.CleanString(vs.String("city")) == "" {
		return cityRequiredText
	}
	return ""
}

type Service struct {
	backend   core.Backend
	validator *validation.Validator
}

func NewService(backend core.Backend, v *validation.Validator) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(backend, "backend"),
		vala.IsNotNil(v, "validator"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{backend: backend, validator: v}, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	var ev Event
	if err := svc.backend.Get(ctx, Path+"/"+url.PathEscape(id), nil, &ev); err != nil {
		return Event{}, errors.Wrap(err, "getting event")
	}
	return ev, nil
}

// List returns the events matching filter. Bad date bounds are a *core.ValidationError and
// never reach the backend.
func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if err := filter.validate(svc.validator); err != nil {
		return nil, err
	}
	var evs []Event
	if err := svc.backend.Get(ctx, Path, filter.values(), &evs); err != nil {
		return nil, errors.Wrap(err, "listing events")
	}
	return evs, nil
}

// Config opens an event wizard. Edit dialogs start from the stored event.
func (svc *Service) Config(ctx context.Context, mode dialog.Mode, id string, _ map[string]string) (dialog.Config, error) {
	cfg := dialog.Config{
		Kind:        "event",
		Mode:        mode,
		Schema:      Schema,
		Table:       Table(mode),
		Steps:       Steps(svc.validator, mode),
		Endpoint:    Path,
		Keywords:    keywords,
		SuccessText: createdText,
	}
	if mode == dialog.Create {
		return cfg, nil
	}

	if id == "" {
		return dialog.Config{}, core.NewValidationError(errors.New("event: id is required to edit"))
	}
	var rec core.Record
	if err := svc.backend.Get(ctx, Path+"/"+url.PathEscape(id), nil, &rec); err != nil {
		return dialog.Config{}, errors.Wrap(err, "getting event")
	}
	cfg.Original = Schema.FromRecord(rec)
	cfg.RecordID = id
	cfg.SuccessText = updatedText
	return cfg, nil
}
