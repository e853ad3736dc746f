package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darivadeneira/evento-web/core/event"
	"github.com/darivadeneira/evento-web/core/transaction"
	"github.com/darivadeneira/evento-web/core/user"
	"github.com/darivadeneira/evento-web/internal/testutil"
)

func Test_eventApi(t *testing.T) {
	app, backend := setup(t, map[string]testutil.Route{
		"GET /events": {Body: []event.Event{{ID: "e1", Name: "Feria", City: "Quito"}}},
		"GET /ticket-categories": {Body: []map[string]interface{}{
			{"id": "c1", "eventId": "e1", "name": "General", "capacity": 100},
			{"id": "c2", "eventId": "e1", "name": "VIP", "capacity": 20},
		}},
		"GET /transactions": {Body: []map[string]interface{}{
			{"id": "t1", "categoryId": "c1", "quantity": 3, "total": 30, "status": transaction.StatusCompleted},
			{"id": "t2", "categoryId": "c2", "quantity": 2, "total": 90.5, "status": transaction.StatusCompleted},
			{"id": "t3", "categoryId": "c2", "quantity": 5, "total": 225, "status": transaction.StatusCancelled},
		}},
	})
	organizer := getToken(t, "org1", user.RoleOrganizer)
	attendee := getToken(t, "att1", user.RoleAttendee)

	want := transaction.Metrics{
		EventID:      "e1",
		TicketsSold:  5,
		Revenue:      120.5,
		Capacity:     120,
		Occupancy:    4.17,
		Transactions: 2,
		Categories: []transaction.CategoryMetrics{
			{CategoryID: "c1", Name: "General", Capacity: 100, TicketsSold: 3, Revenue: 30, Occupancy: 3, Transactions: 1},
			{CategoryID: "c2", Name: "VIP", Capacity: 20, TicketsSold: 2, Revenue: 90.5, Occupancy: 10, Transactions: 1},
		},
	}

	tests := []httpTest{
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/v1/events?city=Quito",
			token:    attendee,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []event.Event{{ID: "e1", Name: "Feria", City: "Quito"}}),
		},
		{
			name:     "metrics: no token",
			method:   http.MethodGet,
			path:     "/v1/events/e1/metrics",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "metrics: attendee",
			method:   http.MethodGet,
			path:     "/v1/events/e1/metrics",
			token:    attendee,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "metrics: organizer",
			method:   http.MethodGet,
			path:     "/v1/events/e1/metrics",
			token:    organizer,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, want),
		},
	}
	runHTTPTests(t, app, tests)

	received := backend.Received()
	if assert.Len(t, received, 3) {
		assert.Equal(t, "Quito", received[0].Query.Get("city"))
		assert.Equal(t, "e1", received[1].Query.Get("eventId"))
		assert.Equal(t, "e1", received[2].Query.Get("eventId"))
	}
}

func Test_eventApi_dateBounds(t *testing.T) {
	app, backend := setup(t, map[string]testutil.Route{
		"GET /events": {Body: []event.Event{}},
	})
	attendee := getToken(t, "att1", user.RoleAttendee)

	tests := []httpTest{
		{
			name:     "end before start",
			method:   http.MethodGet,
			path:     "/v1/events?from=2026-11-02&to=2026-11-01",
			token:    attendee,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "valid range",
			method:   http.MethodGet,
			path:     "/v1/events?from=2026-11-01&to=2026-11-30",
			token:    attendee,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []event.Event{}),
		},
	}
	runHTTPTests(t, app, tests)

	received := backend.Received()
	if assert.Len(t, received, 1) {
		assert.Equal(t, "2026-11-01", received[0].Query.Get("from"))
		assert.Equal(t, "2026-11-30", received[0].Query.Get("to"))
	}
}
