// Package dialog ties one open form to its validation, change tracking, optional wizard and
// remote submission. A Dialog lives from open to close and is never persisted.
package dialog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darivadeneira/evento-web/core"
	"github.com/darivadeneira/evento-web/core/form"
	"github.com/darivadeneira/evento-web/core/validation"
	"github.com/darivadeneira/evento-web/core/wizard"
)

// DefaultCloseDelay lets the user read the success message before the dialog closes.
const DefaultCloseDelay = 1500 * time.Millisecond

const (
	createdText = "Guardado correctamente"
	updatedText = "Cambios guardados correctamente"
	unknownText = "Ocurrió un error inesperado. Inténtalo de nuevo."
)

var (
	// ErrSubmitting is returned when a submit is requested while another one is in flight.
	ErrSubmitting = errors.New("dialog: a submission is already in progress")
	// ErrSubmitted is returned by Submit and Reset once a submission succeeded.
	ErrSubmitted = errors.New("dialog: already submitted")
	// ErrClosed is returned by operations on a closed dialog.
	ErrClosed = errors.New("dialog: closed")
)

type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// ParseMode parses "create" or "edit".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "create", "":
		return Create, nil
	case "edit":
		return Edit, nil
	}
	return Create, errors.Errorf("dialog: unknown mode %q", s)
}

// Request is the single backend call a submission makes.
type Request struct {
	Method  string
	Path    string
	Payload map[string]interface{}
}

// Submitter sends a submission to the backend. Implementations must report transport failures
// as *core.ConnectivityError and rejections as *core.ServerError.
type Submitter interface {
	Submit(ctx context.Context, req Request) (map[string]interface{}, error)
}

type Config struct {
	Kind   string
	Mode   Mode
	Schema form.Schema
	Table  validation.Table
	// Steps turns the dialog into a wizard.
	Steps []wizard.Step
	// Check runs cross-field rules after the table.
	Check func(values form.Values) []core.FieldError
	// Original is the edit baseline. Create dialogs start from the schema defaults.
	Original form.Values
	// Endpoint is the collection path, e.g. /events. Edits PATCH Endpoint/RecordID.
	Endpoint string
	RecordID string
	// Extra is merged into create payloads (e.g. the owning event).
	Extra       map[string]interface{}
	Keywords    Keywords
	SuccessText string
	CloseDelay  time.Duration
	// OnClose is called once, outside the dialog lock, when the dialog closes.
	OnClose func(d *Dialog)
}

type Dialog struct {
	mu        sync.Mutex
	id        string
	cfg       Config
	validator *validation.Validator
	submitter Submitter

	defaults form.Values
	state    *form.State
	snapshot form.Snapshot
	tracker  *form.Tracker
	wizard   *wizard.Wizard

	status Status
	result map[string]interface{}
	closed bool
	timer  *time.Timer
}

// New opens a dialog.
func New(cfg Config, v *validation.Validator, s Submitter) *Dialog {
	defaults := cfg.Schema.Defaults()
	if cfg.Mode == Edit {
		for k, val := range cfg.Original {
			defaults[k] = val
		}
	}
	if cfg.CloseDelay <= 0 {
		cfg.CloseDelay = DefaultCloseDelay
	}

	d := &Dialog{
		id:        uuid.New().String(),
		cfg:       cfg,
		validator: v,
		submitter: s,
		defaults:  defaults,
		state:     form.NewState(defaults),
		snapshot:  form.NewSnapshot(defaults),
		status:    Idle{},
	}
	d.tracker = form.NewTracker(cfg.Schema, d.snapshot)
	if len(cfg.Steps) > 0 {
		d.wizard = wizard.New(cfg.Steps...)
	}
	return d
}

func (d *Dialog) ID() string { return d.id }

func (d *Dialog) Kind() string { return d.cfg.Kind }

func (d *Dialog) Mode() Mode { return d.cfg.Mode }

func (d *Dialog) Schema() form.Schema { return d.cfg.Schema }

func (d *Dialog) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Dialog) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Result returns the backend response of a successful submission.
func (d *Dialog) Result() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

// SetField stores value, re-validates the field and, in edit mode, re-tracks it.
// It returns the field's validation message, or "".
func (d *Dialog) SetField(name string, value interface{}) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}
	if _, ok := d.cfg.Schema.Field(name); !ok {
		return "", errors.Errorf("dialog: unknown field %q", name)
	}
	d.state.Set(name, value)
	if d.cfg.Mode == Edit {
		d.tracker.Track(name, value)
	}
	if _, ok := d.status.(Error); ok {
		d.status = Idle{}
	}
	msg := d.cfg.Table.Validate(d.validator, name, value)
	d.state.SetError(name, msg)
	return msg, nil
}

// Next advances the wizard. On the last valid step it submits.
// Dialogs without steps submit directly.
func (d *Dialog) Next(ctx context.Context) (wizard.Outcome, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return wizard.Closed, ErrClosed
	}
	if d.wizard == nil {
		d.mu.Unlock()
		return wizard.Submit, d.Submit(ctx)
	}
	outcome := d.wizard.Next(d.state.Values())
	d.mu.Unlock()

	if outcome != wizard.Submit {
		return outcome, nil
	}
	return outcome, d.Submit(ctx)
}

// Back moves the wizard one step back. It reports whether the step changed.
func (d *Dialog) Back() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.wizard == nil {
		return false
	}
	return d.wizard.Back()
}

// Reset restores the initial values, forgets tracked changes and returns to the first step.
func (d *Dialog) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	switch d.status.(type) {
	case Loading:
		return ErrSubmitting
	case Success:
		return ErrSubmitted
	}
	d.state.Reset(d.defaults)
	d.tracker.Reset()
	if d.wizard != nil {
		d.wizard.Reset()
	}
	d.status = Idle{}
	return nil
}

// Submit validates every field, refuses empty edits and issues exactly one backend call.
// The returned error is a *core.ValidationError, core.ErrNoChanges, ErrSubmitting, ErrSubmitted,
// ErrClosed or the submitter's error; the dialog status mirrors it.
func (d *Dialog) Submit(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	switch d.status.(type) {
	case Loading:
		d.mu.Unlock()
		return ErrSubmitting
	case Success:
		d.mu.Unlock()
		return ErrSubmitted
	}

	req, err := d.prepare()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.status = Loading{}
	d.mu.Unlock()

	res, err := d.submitter.Submit(ctx, req)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err != nil {
		d.status = d.failure(err)
		return err
	}

	d.result = res
	d.status = Success{Message: d.successText()}
	d.timer = time.AfterFunc(d.cfg.CloseDelay, func() { d.Close() })
	return nil
}

// prepare runs the local checks and builds the request. The caller holds the lock.
func (d *Dialog) prepare() (Request, error) {
	values := d.state.Values()

	if d.wizard != nil {
		if i, msg := d.wizard.Validate(values); msg != "" {
			d.wizard.Goto(i, msg)
			return Request{}, core.NewValidationError(errors.New(msg))
		}
	}
	flds := d.cfg.Table.ValidateAll(d.validator, values)
	if d.cfg.Check != nil {
		flds = append(flds, d.cfg.Check(values)...)
	}
	if len(flds) > 0 {
		for _, fe := range flds {
			d.state.SetError(fe.Field, fe.Error)
		}
		return Request{}, core.NewValidationError(nil, flds...)
	}

	if d.cfg.Mode == Edit {
		changed := d.tracker.Changed()
		if changed.Len() == 0 {
			d.status = Error{Message: core.NoChangesText}
			return Request{}, core.ErrNoChanges
		}
		payload, err := form.BuildPayload(d.cfg.Schema, changed, values)
		if err != nil {
			return Request{}, errors.Wrap(err, "building payload")
		}
		return Request{
			Method:  http.MethodPatch,
			Path:    d.cfg.Endpoint + "/" + d.cfg.RecordID,
			Payload: payload,
		}, nil
	}

	payload, err := form.BuildFull(d.cfg.Schema, values)
	if err != nil {
		return Request{}, errors.Wrap(err, "building payload")
	}
	for k, v := range d.cfg.Extra {
		payload[k] = v
	}
	return Request{Method: http.MethodPost, Path: d.cfg.Endpoint, Payload: payload}, nil
}

// failure maps a submitter error to the dialog status. The caller holds the lock.
func (d *Dialog) failure(err error) Status {
	if se, ok := core.IsServerError(err); ok {
		names := make([]string, 0, len(d.cfg.Schema.Fields()))
		for _, f := range d.cfg.Schema.Fields() {
			names = append(names, f.Name)
		}
		field := Attribute(se.Message, names, d.cfg.Keywords)
		if field != "" {
			d.state.SetError(field, se.Message)
		}
		return Error{Message: se.Message, Field: field}
	}
	if core.IsConnectivityError(err) {
		return Error{Message: core.ConnectivityText}
	}
	return Error{Message: unknownText}
}

func (d *Dialog) successText() string {
	if d.cfg.SuccessText != "" {
		return d.cfg.SuccessText
	}
	if d.cfg.Mode == Edit {
		return updatedText
	}
	return createdText
}

// Close discards the dialog. A response arriving afterwards is ignored.
func (d *Dialog) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.wizard != nil {
		d.wizard.Close()
	}
	onClose := d.cfg.OnClose
	d.mu.Unlock()

	if onClose != nil {
		onClose(d)
	}
}

// View is a point-in-time copy of the dialog for rendering.
type View struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Mode       string            `json:"mode"`
	Values     form.Values       `json:"values"`
	Errors     map[string]string `json:"errors"`
	Changed    []string          `json:"changed"`
	Step       string            `json:"step,omitempty"`
	StepFields []string          `json:"stepFields,omitempty"`
	StepIndex  int               `json:"stepIndex"`
	StepCount  int               `json:"stepCount"`
	StepError  string            `json:"stepError,omitempty"`
	Blocker    string            `json:"blocker,omitempty"`
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Field      string            `json:"field,omitempty"`
	Closed     bool              `json:"closed"`
}

func (d *Dialog) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	values := d.state.Values()
	v := View{
		ID:      d.id,
		Kind:    d.cfg.Kind,
		Mode:    d.cfg.Mode.String(),
		Values:  values,
		Errors:  d.state.Errors(),
		Changed: d.tracker.Changed().Names(),
		Status:  d.status.Kind(),
		Message: d.status.Text(),
		Closed:  d.closed,
	}
	if e, ok := d.status.(Error); ok {
		v.Field = e.Field
	}
	if d.wizard != nil {
		v.Step = d.wizard.Step().Name
		v.StepFields = d.wizard.Step().Fields
		v.StepIndex = d.wizard.Index()
		v.StepCount = d.wizard.Len()
		v.StepError = d.wizard.Err()
		v.Blocker = d.wizard.Blocker(values)
	}
	return v
}

// Form is implemented by the domain services that know how to open a dialog of their kind.
// id names the record to edit; params carries the parent references a create needs.
type Form interface {
	Config(ctx context.Context, mode Mode, id string, params map[string]string) (Config, error)
}
