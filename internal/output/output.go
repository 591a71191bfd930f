package output

import (
	"context"
	"time"

	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/model"
)

// Report is the result of one evaluation run as delivered to outputs.
type Report struct {
	RunID           string          `json:"run_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Labels          []string        `json:"labels"`
	Strategies      []string        `json:"strategies"`
	VariantsPerBase int             `json:"variants_per_base"`
	Summary         metrics.Summary `json:"summary"`
	Records         []model.Record  `json:"records,omitempty"`
}

// Output defines the interface for report destinations.
type Output interface {
	Write(ctx context.Context, report Report) error
	Close() error
}
