package output

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/steady/internal/model"
)

// Verbosity controls how much of a report an output emits.
type Verbosity int

const (
	// Minimal emits the summary only.
	Minimal Verbosity = iota
	// Standard adds records without probability vectors.
	Standard
	// Full emits everything.
	Full
)

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Full:
		return "full"
	}
	return fmt.Sprintf("Verbosity(%d)", int(v))
}

// ParseVerbosity converts "minimal", "standard" or "full" to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	}
	return Standard, fmt.Errorf("output: unknown verbosity %q", s)
}

// FormatReport returns a copy of the report trimmed to verbosity. The
// input report and its records are never modified.
func FormatReport(r Report, v Verbosity) Report {
	switch v {
	case Minimal:
		r.Records = nil
	case Standard:
		records := make([]model.Record, len(r.Records))
		for i, rec := range r.Records {
			if rec.Prediction != nil {
				p := *rec.Prediction
				p.Probabilities = nil
				rec.Prediction = &p
			}
			records[i] = rec
		}
		r.Records = records
	}
	return r
}
