package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/steady/internal/output"
)

// Output writes JSON-encoded reports to stdout.
type Output struct {
	enc       *json.Encoder
	verbosity output.Verbosity
}

// New creates a new stdout Output with verbosity-aware field omission
// and optional pretty-printed JSON.
func New(verbosity output.Verbosity, pretty bool) *Output {
	return NewWriter(os.Stdout, verbosity, pretty)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, verbosity output.Verbosity, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc, verbosity: verbosity}
}

func (o *Output) Write(_ context.Context, report output.Report) error {
	if err := o.enc.Encode(output.FormatReport(report, o.verbosity)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
