// Package geocodesvc resolves map coordinates to a human readable address for the location step.
package geocodesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
)

// ErrNoLocation is returned for the [0,0] placeholder, which is never a real pick.
var ErrNoLocation = errors.New("no location selected")

// Place is the address of a point.
type Place struct {
	DisplayName string  `json:"displayName"`
	Road        string  `json:"road,omitempty"`
	City        string  `json:"city,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road    string `json:"road"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
	} `json:"address"`
}

// Nominatim is a reverse geocoder backed by an OpenStreetMap Nominatim instance.
type Nominatim struct {
	rest      *rest.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	logger    core.Logger
}

func NewNominatim(conf *core.Config, logger core.Logger) (*Nominatim, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).Check(); err != nil {
		return nil, err
	}
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.Geocoder.BaseURL, "conf.Geocoder.BaseURL"),
	).Check(); err != nil {
		return nil, err
	}
	return &Nominatim{
		rest:      &rest.Client{HTTPClient: &http.Client{Timeout: conf.Geocoder.Timeout}},
		baseURL:   conf.Geocoder.BaseURL,
		userAgent: conf.Geocoder.UserAgent,
		timeout:   conf.Geocoder.Timeout,
		logger:    logger,
	}, nil
}

// Reverse returns the address at p.
func (n *Nominatim) Reverse(ctx context.Context, p form.Point) (Place, error) {
	if p.IsSentinel() {
		return Place{}, ErrNoLocation
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	req := rest.Request{
		Method:  rest.Get,
		BaseURL: n.baseURL + "/reverse",
		Headers: map[string]string{"Accept": "application/json", "User-Agent": n.userAgent},
		QueryParams: map[string]string{
			"format": "jsonv2",
			"lat":    strconv.FormatFloat(p.Lat, 'f', -1, 64),
			"lon":    strconv.FormatFloat(p.Lng, 'f', -1, 64),
		},
	}
	res, err := n.rest.SendWithContext(ctx, req)
	if err != nil {
		n.logger.Warn(fmt.Sprintf("geocoder: %v", err))
		return Place{}, core.NewConnectivityError(err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return Place{}, core.NewServerError(res.StatusCode, "")
	}

	var np nominatimPlace
	if err := json.Unmarshal([]byte(res.Body), &np); err != nil {
		return Place{}, errors.Wrap(err, "decoding geocoder response")
	}
	if np.Error != "" {
		return Place{}, core.NewServerError(http.StatusNotFound, np.Error)
	}

	city := np.Address.City
	if city == "" {
		city = np.Address.Town
	}
	if city == "" {
		city = np.Address.Village
	}
	return Place{
		DisplayName: np.DisplayName,
		Road:        np.Address.Road,
		City:        city,
		Latitude:    p.Lat,
		Longitude:   p.Lng,
	}, nil
}
