// Package corpus builds the perturbed evaluation corpus: for every base
// example one unperturbed record followed by N perturbed variants.
package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crimson-sun/steady/internal/engine/idgen"
	"github.com/crimson-sun/steady/internal/engine/perturb"
	"github.com/crimson-sun/steady/internal/model"
)

// StrategyFallback marks records whose text came from the fallback rule.
const StrategyFallback = "fallback"

var (
	ErrNegativeVariants = errors.New("corpus: variants per base must be >= 0")
	ErrNoStrategies     = errors.New("corpus: at least one strategy is required")
)

// Builder constructs record groups from base examples.
type Builder struct {
	ids    idgen.Generator
	logger *slog.Logger
}

// New creates a Builder that derives base ids with ids.
func New(ids idgen.Generator, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{ids: ids, logger: logger}
}

// Build emits, per example, the base record and then v1..vN. Variant k uses
// strategies[(k-1) % len(strategies)] on the original text; a failing
// strategy is replaced by the deterministic Fallback.
func (b *Builder) Build(examples []model.BaseExample, variantsPerBase int, strategies []perturb.Strategy) ([]model.Record, error) {
	if variantsPerBase < 0 {
		return nil, ErrNegativeVariants
	}
	if variantsPerBase > 0 && len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	records := make([]model.Record, 0, len(examples)*(variantsPerBase+1))
	fallbacks := 0
	for _, ex := range examples {
		baseID := b.ids.ID(ex)
		records = append(records, model.Record{
			BaseID:    baseID,
			VariantID: model.VariantBase,
			Text:      ex.Text,
			TrueLabel: ex.Label,
			Strategy:  model.VariantBase,
		})

		for k := 1; k <= variantsPerBase; k++ {
			s := strategies[(k-1)%len(strategies)]
			text, err := apply(s, ex.Text)
			name := s.Name()
			if err != nil {
				b.logger.Debug("perturbation failed, using fallback",
					"base_id", baseID, "variant", k, "strategy", name, "error", err)
				text = Fallback(ex.Text)
				name = StrategyFallback
				fallbacks++
			}
			records = append(records, model.Record{
				BaseID:    baseID,
				VariantID: fmt.Sprintf("v%d", k),
				Text:      text,
				TrueLabel: ex.Label,
				Strategy:  name,
			})
		}
	}

	b.logger.Debug("corpus built",
		"examples", len(examples), "records", len(records), "fallbacks", fallbacks)
	return records, nil
}

// Fallback corrupts the first "the" into "teh", or appends a period when the
// text contains no "the". The result always differs from text.
func Fallback(text string) string {
	if strings.Contains(text, "the") {
		return strings.Replace(text, "the", "teh", 1)
	}
	return text + "."
}

// apply runs the strategy, converting a panic into a PerturbationError.
func apply(s perturb.Strategy, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &perturb.PerturbationError{Strategy: s.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return s.Perturb(text)
}
