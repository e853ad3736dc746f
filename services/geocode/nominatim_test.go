package geocodesvc

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/internal/testutil"
)

func newNominatim(t *testing.T, baseURL string) *Nominatim {
	t.Helper()
	conf := &core.Config{Geocoder: core.GeocoderConfig{BaseURL: baseURL, UserAgent: "evento-test", Timeout: time.Second}}
	n, err := NewNominatim(conf, new(testutil.Logger))
	if err != nil {
		t.Fatalf("NewNominatim() error = %v", err)
	}
	return n
}

func TestNominatim_Reverse(t *testing.T) {
	srv := testutil.NewServer(t, map[string]testutil.Route{
		"GET /reverse": {Body: map[string]interface{}{
			"display_name": "Avenida Amazonas, Quito, Pichincha, Ecuador",
			"address": map[string]interface{}{
				"road": "Avenida Amazonas",
				"town": "Quito",
			},
		}},
	})
	n := newNominatim(t, srv.URL)

	got, err := n.Reverse(context.Background(), form.Point{Lat: -0.1807, Lng: -78.4678})
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	assert.Equal(t, Place{
		DisplayName: "Avenida Amazonas, Quito, Pichincha, Ecuador",
		Road:        "Avenida Amazonas",
		City:        "Quito",
		Latitude:    -0.1807,
		Longitude:   -78.4678,
	}, got)

	rec := srv.Received()[0]
	assert.Equal(t, "jsonv2", rec.Query.Get("format"))
	assert.Equal(t, "-0.1807", rec.Query.Get("lat"))
	assert.Equal(t, "-78.4678", rec.Query.Get("lon"))
}

func TestNominatim_Reverse_errors(t *testing.T) {
	srv := testutil.NewServer(t, map[string]testutil.Route{
		"GET /reverse": {Body: map[string]interface{}{"error": "Unable to geocode"}},
	})
	n := newNominatim(t, srv.URL)

	_, err := n.Reverse(context.Background(), form.Point{})
	assert.Equal(t, ErrNoLocation, err)

	_, err = n.Reverse(context.Background(), form.Point{Lat: 10, Lng: 10})
	se, ok := core.IsServerError(err)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, se.Status)
		assert.Equal(t, "Unable to geocode", se.Message)
	}

	srv.Close()
	_, err = n.Reverse(context.Background(), form.Point{Lat: 10, Lng: 10})
	assert.True(t, core.IsConnectivityError(err))
}

func TestNewNominatim(t *testing.T) {
	_, err := NewNominatim(&core.Config{}, new(testutil.Logger))
	assert.Error(t, err)
}
