// Package transaction holds ticket purchases and the purchase metrics shown to organizers.
package transaction

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/ticket"
	"github.com/darivadeneira/evento-web/core/validation"
)

const (
	Path = "/transactions"

	purchasedText = "Compra realizada. Recibirás tus entradas por correo"
	soldOutText   = "Solo quedan %d entradas disponibles"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Transaction struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	CategoryID string    `json:"categoryId"`
	BuyerName  string    `json:"buyerName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Quantity   int       `json:"quantity"`
	Total      float64   `json:"total"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

var (
	Schema = form.NewSchema(
		form.Field{Name: "buyerName", Kind: form.String},
		form.Field{Name: "email", Kind: form.String},
		form.Field{Name: "phone", Kind: form.String},
		form.Field{Name: "quantity", Kind: form.Integer, Default: "1"},
	)

	Table = validation.NewTable(
		validation.Rule{Field: "buyerName", Policy: validation.PersonName},
		validation.Rule{Field: "email", Policy: validation.EmailStrict},
		validation.Rule{Field: "phone", Policy: validation.Phone},
		validation.Rule{Field: "quantity", Policy: validation.Quantity},
	)

	keywords = dialog.Keywords{
		"buyerName": {"nombre", "comprador"},
		"email":     {"correo", "mail"},
		"phone":     {"teléfono", "telefono", "celular"},
		"quantity":  {"cantidad", "entradas", "disponibles", "agotad"},
	}
)

// availabilityCheck refuses buying more tickets than the category has left when the form opened.
func availabilityCheck(available int) func(vs form.Values) []core.FieldError {
	return func(vs form.Values) []core.FieldError {
		n, err := strconv.Atoi(core.CleanString(vs.String("quantity")))
		if err != nil || n <= available {
			return nil
		}
		return []core.FieldError{{Field: "quantity", Error: fmt.Sprintf(soldOutText, available)}}
	}
}

type Service struct {
	backend    core.Backend
	categories *ticket.Service
}

func NewService(backend core.Backend, categories *ticket.Service) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(backend, "backend"),
		vala.IsNotNil(categories, "categories"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{backend: backend, categories: categories}, nil
}

// ListByEvent returns the purchases of an event.
func (svc *Service) ListByEvent(ctx context.Context, eventID string) ([]Transaction, error) {
	var txs []Transaction
	q := url.Values{"eventId": []string{eventID}}
	if err := svc.backend.Get(ctx, Path, q, &txs); err != nil {
		return nil, errors.Wrap(err, "listing transactions")
	}
	return txs, nil
}

// Config opens a purchase dialog for params["categoryId"], optionally checked against
// params["eventId"]. Purchases cannot be edited.
func (svc *Service) Config(ctx context.Context, mode dialog.Mode, _ string, params map[string]string) (dialog.Config, error) {
	if mode != dialog.Create {
		return dialog.Config{}, core.NewValidationError(errors.New("purchase: only create is supported"))
	}
	categoryID := core.CleanString(params["categoryId"])
	if categoryID == "" {
		return dialog.Config{}, core.NewValidationError(errors.New("purchase: categoryId is required"))
	}
	cat, err := svc.categories.Get(ctx, categoryID)
	if err != nil {
		return dialog.Config{}, err
	}
	if eventID := core.CleanString(params["eventId"]); eventID != "" && eventID != cat.EventID {
		return dialog.Config{}, core.NewValidationError(errors.Errorf("purchase: category %s is not sold for event %s", cat.ID, eventID))
	}
	if cat.Available() == 0 {
		return dialog.Config{}, core.NewValidationError(errors.Errorf(soldOutText, 0))
	}

	return dialog.Config{
		Kind:     "purchase",
		Mode:     dialog.Create,
		Schema:   Schema,
		Table:    Table,
		Check:    availabilityCheck(cat.Available()),
		Endpoint: Path,
		Extra: map[string]interface{}{
			"eventId":    cat.EventID,
			"categoryId": cat.ID,
		},
		Keywords:    keywords,
		SuccessText: purchasedText,
	}, nil
}
