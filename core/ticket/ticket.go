// Package ticket holds the ticket categories of an event and their create/edit form.
package ticket

import (
	"context"
	"net/url"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/validation"
)

const (
	Path = "/ticket-categories"

	createdText = "Categoría creada correctamente"
	updatedText = "Categoría actualizada correctamente"
)

// Category is a priced class of tickets of one event.
type Category struct {
	ID          string  `json:"id"`
	EventID     string  `json:"eventId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Capacity    int     `json:"capacity"`
	Sold        int     `json:"sold"`
}

// Available returns how many tickets are left.
func (c Category) Available() int {
	if n := c.Capacity - c.Sold; n > 0 {
		return n
	}
	return 0
}

var (
	Schema = form.NewSchema(
		form.Field{Name: "name", Kind: form.String},
		form.Field{Name: "description", Kind: form.Text},
		form.Field{Name: "price", Kind: form.Decimal},
		form.Field{Name: "capacity", Kind: form.Integer},
	)

	createTable = validation.NewTable(
		validation.Rule{Field: "name", Policy: validation.EntityName},
		validation.Rule{Field: "description", Policy: validation.EntityName},
		validation.Rule{Field: "price", Policy: validation.Price},
		validation.Rule{Field: "capacity", Policy: validation.CapacityCreate},
	)
	editTable = createTable.With("capacity", validation.CapacityEdit)

	keywords = dialog.Keywords{
		"name":        {"nombre"},
		"description": {"descripción", "descripcion"},
		"price":       {"precio", "valor"},
		"capacity":    {"capacidad", "cupo", "aforo", "cantidad"},
	}
)

func Table(mode dialog.Mode) validation.Table {
	if mode == dialog.Edit {
		return editTable
	}
	return createTable
}

type Service struct {
	backend core.Backend
}

func NewService(backend core.Backend) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(backend, "backend"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{backend: backend}, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Category, error) {
	var c Category
	if err := svc.backend.Get(ctx, Path+"/"+url.PathEscape(id), nil, &c); err != nil {
		return Category{}, errors.Wrap(err, "getting ticket category")
	}
	return c, nil
}

// ListByEvent returns the categories of an event.
func (svc *Service) ListByEvent(ctx context.Context, eventID string) ([]Category, error) {
	var cs []Category
	q := url.Values{"eventId": []string{eventID}}
	if err := svc.backend.Get(ctx, Path, q, &cs); err != nil {
		return nil, errors.Wrap(err, "listing ticket categories")
	}
	return cs, nil
}

// Config opens a category dialog. Create needs params["eventId"].
func (svc *Service) Config(ctx context.Context, mode dialog.Mode, id string, params map[string]string) (dialog.Config, error) {
	cfg := dialog.Config{
		Kind:        "category",
		Mode:        mode,
		Schema:      Schema,
		Table:       Table(mode),
		Endpoint:    Path,
		Keywords:    keywords,
		SuccessText: createdText,
	}
	if mode == dialog.Create {
		eventID := core.CleanString(params["eventId"])
		if eventID == "" {
			return dialog.Config{}, core.NewValidationError(errors.New("category: eventId is required"))
		}
		cfg.Extra = map[string]interface{}{"eventId": eventID}
		return cfg, nil
	}

	if id == "" {
		return dialog.Config{}, core.NewValidationError(errors.New("category: id is required to edit"))
	}
	var rec core.Record
	if err := svc.backend.Get(ctx, Path+"/"+url.PathEscape(id), nil, &rec); err != nil {
		return dialog.Config{}, errors.Wrap(err, "getting ticket category")
	}
	cfg.Original = Schema.FromRecord(rec)
	cfg.RecordID = id
	cfg.SuccessText = updatedText
	return cfg, nil
}
