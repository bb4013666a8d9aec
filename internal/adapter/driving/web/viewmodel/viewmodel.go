// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// Check states.
const (
	CheckPassed  = "passed"
	CheckFailed  = "failed"
	CheckSkipped = "skipped"
)

// CheckViewModel holds presentation-ready data for one dependency check.
type CheckViewModel struct {
	Name  string
	Label string
	State string // one of CheckPassed, CheckFailed, CheckSkipped

	// DescriptionHTML and NoteHTML are rendered from markdown and sanitized.
	DescriptionHTML string
	NoteHTML        string

	// Error is plain text and must be escaped when rendered.
	Error string
}

// Failed reports whether the check blocks the application.
func (c CheckViewModel) Failed() bool {
	return c.State == CheckFailed
}

// FormViewModel holds the values pre-filled into the database form. It never
// carries a password.
type FormViewModel struct {
	Driver   string
	Host     string
	Port     string
	Database string
	Username string
}

// DriverOption is one entry of the driver select.
type DriverOption struct {
	Value       string
	Label       string
	DefaultPort string
	Selected    bool
}

// Wizard holds all data needed to render the setup wizard page.
type Wizard struct {
	Title  string
	Checks []CheckViewModel
	// Failing counts the checks in the failed state.
	Failing int

	CSRFField string
	CSRFToken string

	// Error is a plain-text message shown above the form.
	Error string

	ShowForm   bool
	FormAction string
	RecheckURL string
	Form       FormViewModel
	Drivers    []DriverOption
}

// Home holds the data for the placeholder home page.
type Home struct {
	Title  string
	Checks []CheckViewModel
}
