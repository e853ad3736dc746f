package dialog

// Status is the UI state of a dialog. It is exactly one of Idle, Loading, Error or Success.
type Status interface {
	Kind() string
	Text() string
}

type Idle struct{}

func (Idle) Kind() string { return "idle" }
func (Idle) Text() string { return "" }

// Loading is set while the submission request is in flight.
type Loading struct{}

func (Loading) Kind() string { return "loading" }
func (Loading) Text() string { return "" }

// Error carries a message shown to the user. Field is set when the message could be
// attributed to a form field.
type Error struct {
	Message string
	Field   string
}

func (Error) Kind() string   { return "error" }
func (e Error) Text() string { return e.Message }

type Success struct {
	Message string
}

func (Success) Kind() string   { return "success" }
func (s Success) Text() string { return s.Message }
