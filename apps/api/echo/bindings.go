package echoapi

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/form"
)

type (
	OpenDialogRequest struct {
		Kind   string            `json:"kind"`
		Mode   string            `json:"mode"`
		ID     string            `json:"id"`
		Params map[string]string `json:"params"`
	}

	SetFieldRequest struct {
		Value json.RawMessage `json:"value"`
	}

	StepResponse struct {
		Outcome string      `json:"outcome"`
		Dialog  dialog.View `json:"dialog"`
	}
)

func (r *OpenDialogRequest) Clean() {
	r.Kind = core.CleanString(r.Kind, true /* lower */)
	r.Mode = core.CleanString(r.Mode, true /* lower */)
	r.ID = core.CleanString(r.ID)
}

// bindPoint reads the lat and lng query parameters.
func bindPoint(ctx echo.Context) (form.Point, error) {
	var flds []core.FieldError
	parse := func(name string) float64 {
		f, err := strconv.ParseFloat(core.CleanString(ctx.QueryParam(name)), 64)
		if err != nil {
			flds = append(flds, core.FieldError{Field: name, Error: "debe ser un número"})
		}
		return f
	}
	p := form.Point{Lat: parse("lat"), Lng: parse("lng")}
	if len(flds) > 0 {
		return form.Point{}, core.NewValidationError(nil, flds...)
	}
	return p, nil
}
