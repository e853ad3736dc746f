package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/darivadeneira/evento-web/core/form"
	geocodesvc "github.com/darivadeneira/evento-web/services/geocode"
)

// Geocoder resolves the point picked on the location step.
type Geocoder interface {
	Reverse(ctx context.Context, p form.Point) (geocodesvc.Place, error)
}

func registerGeocodeAPI(g *echo.Group, jwt echo.MiddlewareFunc, geocoder Geocoder) {
	g.GET("/geocode/reverse", func(ctx echo.Context) error {
		p, err := bindPoint(ctx)
		if err != nil {
			return err
		}
		place, err := geocoder.Reverse(ctx.Request().Context(), p)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, place)
	}, jwt)
}
