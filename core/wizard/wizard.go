// Package wizard implements the linear multi-step form controller used by the dashboard dialogs.
//
// A Wizard only tracks which step is active and the step-level error. The form values it
// validates belong to the caller, which also restores them on Reset.
package wizard

import "github.com/darivadeneira/evento-web/core/form"

// Outcome is the result of a Next request.
type Outcome int

const (
	// Advanced means the active step moved forward by one.
	Advanced Outcome = iota
	// Blocked means the active step failed validation; Err holds the message.
	Blocked
	// Disabled means forward navigation is unavailable from the active step (see Step.Gate).
	Disabled
	// Submit means the last step is valid and the form must be submitted.
	Submit
	// Closed means the wizard was already closed.
	Closed
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case Blocked:
		return "blocked"
	case Disabled:
		return "disabled"
	case Submit:
		return "submit"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Step is one screen of a wizard.
type Step struct {
	Name string
	// Fields lists the form fields shown on the step, in display order.
	Fields []string
	// Validate inspects the fields of the step and returns the first failure, or "".
	// Checks run in order and the first failing one short-circuits.
	Validate func(values form.Values) string
	// Gate returns a non-empty reason when moving forward is disabled regardless of validation.
	Gate func(values form.Values) string
}

type Wizard struct {
	steps  []Step
	index  int
	err    string
	closed bool
}

// New returns a Wizard positioned on the first step. It panics without steps.
func New(steps ...Step) *Wizard {
	if len(steps) == 0 {
		panic("wizard: at least one step is required")
	}
	return &Wizard{steps: steps}
}

// Next validates the active step against values and moves forward when it passes.
// The index never goes past the last step: a valid last step yields Submit instead.
func (w *Wizard) Next(values form.Values) Outcome {
	if w.closed {
		return Closed
	}
	step := w.steps[w.index]
	if step.Gate != nil && step.Gate(values) != "" {
		return Disabled
	}
	if step.Validate != nil {
		if msg := step.Validate(values); msg != "" {
			w.err = msg
			return Blocked
		}
	}
	w.err = ""
	if w.index == len(w.steps)-1 {
		return Submit
	}
	w.index++
	return Advanced
}

// Back moves to the previous step and clears the step error. It never validates.
// It reports false on the first step or once closed.
func (w *Wizard) Back() bool {
	if w.closed || w.index == 0 {
		return false
	}
	w.index--
	w.err = ""
	return true
}

// Reset returns to the first step and clears the step error.
func (w *Wizard) Reset() {
	w.index = 0
	w.err = ""
	w.closed = false
}

// Close moves the wizard to its closed state, outside the step sequence.
func (w *Wizard) Close() {
	w.closed = true
	w.err = ""
}

func (w *Wizard) IsClosed() bool { return w.closed }

func (w *Wizard) Index() int { return w.index }

func (w *Wizard) Len() int { return len(w.steps) }

func (w *Wizard) Step() Step { return w.steps[w.index] }

// Err returns the step-level error of the last Next, if any.
func (w *Wizard) Err() string { return w.err }

// Blocker returns the reason forward navigation is disabled on the active step, or "".
func (w *Wizard) Blocker(values form.Values) string {
	if w.closed {
		return ""
	}
	if gate := w.steps[w.index].Gate; gate != nil {
		return gate(values)
	}
	return ""
}

// Validate runs every step in order and returns the index and message of the first failure.
// It returns -1 when all steps pass.
func (w *Wizard) Validate(values form.Values) (int, string) {
	for i, step := range w.steps {
		if step.Validate == nil {
			continue
		}
		if msg := step.Validate(values); msg != "" {
			return i, msg
		}
	}
	return -1, ""
}

// Goto makes step i active and sets its error. Out of range indexes are ignored.
func (w *Wizard) Goto(i int, msg string) {
	if i < 0 || i >= len(w.steps) {
		return
	}
	w.index = i
	w.err = msg
}
