package ticket

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/dialog"
	"github.com/darivadeneira/evento-web/core/validation"
	"github.com/darivadeneira/evento-web/internal/testutil"
)

func openEdit(t *testing.T, backend *testutil.Backend) *dialog.Dialog {
	t.Helper()
	backend.Set("/ticket-categories/c1", core.Record{
		"id":          "c1",
		"eventId":     "e1",
		"name":        "General",
		"description": "Acceso general",
		"price":       10,
		"capacity":    300,
		"sold":        12,
	})
	svc, err := NewService(backend)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	cfg, err := svc.Config(context.Background(), dialog.Edit, "c1", nil)
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	d := dialog.New(cfg, validation.NewDefault(), backend)
	t.Cleanup(d.Close)
	return d
}

func TestEdit_priceOnly(t *testing.T) {
	backend := testutil.NewBackend()
	d := openEdit(t, backend)

	if got := d.View().Values["price"]; got != "10.00" {
		t.Fatalf("original price = %v, want 10.00", got)
	}
	if msg, _ := d.SetField("price", "12.50"); msg != "" {
		t.Fatalf("SetField(price) = %q", msg)
	}
	if err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []dialog.Request{{
		Method:  http.MethodPatch,
		Path:    "/ticket-categories/c1",
		Payload: map[string]interface{}{"price": 12.5},
	}}
	if diff := cmp.Diff(want, backend.Requests()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_noChanges(t *testing.T) {
	backend := testutil.NewBackend()
	d := openEdit(t, backend)

	_, _ = d.SetField("price", "11")
	_, _ = d.SetField("price", "10.00")
	if err := d.Submit(context.Background()); err != core.ErrNoChanges {
		t.Fatalf("Submit() error = %v, want ErrNoChanges", err)
	}
	if got := d.Status().Text(); got != core.NoChangesText {
		t.Errorf("Status().Text() = %q, want %q", got, core.NoChangesText)
	}
	if n := len(backend.Requests()); n != 0 {
		t.Errorf("got %d requests, want 0", n)
	}
}

func TestEdit_priceBoundaries(t *testing.T) {
	d := openEdit(t, testutil.NewBackend())

	tests := []struct {
		price string
		ok    bool
	}{
		{price: "10000.00", ok: true},
		{price: "10000.01", ok: false},
		{price: "0", ok: true},
		{price: "9.999", ok: false},
	}
	for _, tt := range tests {
		msg, _ := d.SetField("price", tt.price)
		if (msg == "") != tt.ok {
			t.Errorf("SetField(price=%s) = %q, want ok=%v", tt.price, msg, tt.ok)
		}
	}
}

func TestCreate(t *testing.T) {
	backend := testutil.NewBackend()
	svc, _ := NewService(backend)

	if _, err := svc.Config(context.Background(), dialog.Create, "", nil); err == nil {
		t.Fatal("Config(create) without eventId error = nil")
	}
	cfg, err := svc.Config(context.Background(), dialog.Create, "", map[string]string{"eventId": "e1"})
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	d := dialog.New(cfg, validation.NewDefault(), backend)
	defer d.Close()

	_, _ = d.SetField("name", "VIP")
	_, _ = d.SetField("description", "Zona preferencial")
	_, _ = d.SetField("price", "45.5")
	if msg, _ := d.SetField("capacity", "0"); msg == "" {
		t.Error("capacity 0 accepted")
	}
	if msg, _ := d.SetField("capacity", "1"); msg != "" {
		t.Errorf("capacity 1 rejected: %q", msg)
	}
	if err := d.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := map[string]interface{}{
		"eventId":     "e1",
		"name":        "VIP",
		"description": "Zona preferencial",
		"price":       45.5,
		"capacity":    1,
	}
	if diff := cmp.Diff(want, backend.Requests()[0].Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCategory_Available(t *testing.T) {
	if n := (Category{Capacity: 10, Sold: 12}).Available(); n != 0 {
		t.Errorf("Available() = %d, want 0", n)
	}
	if n := (Category{Capacity: 10, Sold: 4}).Available(); n != 6 {
		t.Errorf("Available() = %d, want 6", n)
	}
}
