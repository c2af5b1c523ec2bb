package errs

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/google/uuid"
)

// Severity classifies a diagnostic entry.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one accumulated warning or error from a construction pass.
type Diagnostic struct {
	Severity Severity
	Message  string
	Err      error
}

// Diagnostics accumulates the non-fatal problems found during one
// construction run (reading a grammar definition, building tables,
// compiling a scanner) so they can be rendered together instead of
// aborting on the first one. Every run is tagged with its own ID so two
// builds of the same grammar, logged side by side, can be told apart.
type Diagnostics struct {
	RunID   uuid.UUID
	entries []Diagnostic
}

// NewDiagnostics starts a fresh collector for one construction run.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{RunID: uuid.New()}
}

func (d *Diagnostics) Warn(format string, args ...any) {
	d.entries = append(d.entries, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) Error(err error) {
	d.entries = append(d.entries, Diagnostic{Severity: SeverityError, Message: err.Error(), Err: err})
}

// HasErrors reports whether any entry at SeverityError has been recorded.
func (d *Diagnostics) HasErrors() bool {
	for _, e := range d.entries {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Entries returns every recorded diagnostic, in the order they were added.
func (d *Diagnostics) Entries() []Diagnostic {
	return append([]Diagnostic{}, d.entries...)
}

// Report renders all accumulated diagnostics as a column-aligned, word
// wrapped report suitable for terminal or log output.
func (d *Diagnostics) Report() string {
	if len(d.entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("build %s: %d diagnostic(s)\n", d.RunID, len(d.entries)))

	for _, e := range d.entries {
		line := fmt.Sprintf("[%s] %s", e.Severity, e.Message)
		sb.WriteString(rosed.Edit(line).Wrap(100).String())
		sb.WriteRune('\n')
	}

	return sb.String()
}
