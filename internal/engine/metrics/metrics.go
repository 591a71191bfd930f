// Package metrics computes group-level robustness statistics over a fully
// predicted record set: flips, base and overall accuracy, degradation,
// confidence separation and label distribution.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/crimson-sun/steady/internal/model"
)

var (
	// ErrGroupLabelMismatch means a base_id group mixes true labels.
	ErrGroupLabelMismatch = errors.New("group label mismatch")
	// ErrDuplicateVariant means a variant id occurs twice in one group.
	ErrDuplicateVariant = errors.New("duplicate variant in group")
	// ErrMissingPrediction means a record was never canonicalized.
	ErrMissingPrediction = errors.New("record has no prediction")
)

const unknownStrategy = "unknown"

// Aggregator computes Summaries. It holds no mutable state; Compute is safe
// for concurrent use and returns the same Summary for the same record set
// regardless of record order.
type Aggregator struct {
	labels model.LabelSet
}

// New creates an Aggregator. labels fixes the order of the label
// distribution; it may be nil.
func New(labels model.LabelSet) *Aggregator {
	return &Aggregator{labels: labels}
}

// Compute is shorthand for New(labels).Compute(records).
func Compute(records []model.Record, labels model.LabelSet) (Summary, error) {
	return New(labels).Compute(records)
}

// Compute groups records by base id, validates group invariants and derives
// the Summary.
func (a *Aggregator) Compute(records []model.Record) (Summary, error) {
	idx, err := buildIndex(records)
	if err != nil {
		return Summary{}, fmt.Errorf("metrics: %w", err)
	}

	s := Summary{Groups: len(idx.ids), Records: len(records)}
	var errConf, okConf float64
	baseLabels := map[string]int{}
	variants := map[string]*Slice{}
	strategies := map[string]*Slice{}

	for _, id := range idx.ids {
		members := idx.groups[id]

		basePred, hasBase := "", false
		for _, i := range members {
			if records[i].IsBase() {
				basePred, hasBase = records[i].Prediction.Label, true
				break
			}
		}

		distinct := map[string]struct{}{}
		for _, i := range members {
			r := records[i]
			pred := r.Prediction
			distinct[pred.Label] = struct{}{}

			correct := pred.Label == r.TrueLabel
			if correct {
				s.Correct++
				okConf += pred.Confidence
			} else {
				s.Errors++
				errConf += pred.Confidence
			}
			if r.IsBase() {
				s.BaseRecords++
				baseLabels[r.TrueLabel]++
				if correct {
					s.BaseCorrect++
				}
			}

			disagree := hasBase && !r.IsBase() && pred.Label != basePred
			tally(variants, r.VariantID, correct, disagree)
			strategy := r.Strategy
			if strategy == "" {
				strategy = unknownStrategy
			}
			tally(strategies, strategy, correct, disagree)
		}
		if len(distinct) > 1 {
			s.FlipCount++
		}
	}

	s.FlipRate = ratio(s.FlipCount, s.Groups)
	s.BaseAccuracy = ratio(s.BaseCorrect, s.BaseRecords)
	s.OverallAccuracy = ratio(s.Correct, s.Records)
	s.Degradation = diff(s.BaseAccuracy, s.OverallAccuracy)
	s.ErrorConfidence = mean(errConf, s.Errors)
	s.CorrectConfidence = mean(okConf, s.Correct)
	s.ConfidenceGap = diff(s.ErrorConfidence, s.CorrectConfidence)
	s.Labels = a.labelDistribution(baseLabels, s.BaseRecords)
	s.Variants = finish(variants, variantLess)
	s.Strategies = finish(strategies, strategyLess)
	return s, nil
}

// labelDistribution lists label-set classes first, in canonical order, then
// any other observed labels sorted by name.
func (a *Aggregator) labelDistribution(counts map[string]int, total int) []LabelCount {
	out := make([]LabelCount, 0, len(a.labels)+len(counts))
	seen := make(map[string]bool, len(a.labels))
	for _, c := range a.labels {
		seen[c.Name] = true
		out = append(out, LabelCount{Label: c.Name, Count: counts[c.Name], Fraction: ratio(counts[c.Name], total)})
	}
	var extra []string
	for label := range counts {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		out = append(out, LabelCount{Label: label, Count: counts[label], Fraction: ratio(counts[label], total)})
	}
	return out
}

func tally(m map[string]*Slice, name string, correct, disagree bool) {
	sl, ok := m[name]
	if !ok {
		sl = &Slice{Name: name}
		m[name] = sl
	}
	sl.Records++
	if correct {
		sl.Correct++
	}
	if disagree {
		sl.Disagreements++
	}
}

func finish(m map[string]*Slice, less func(a, b string) bool) []Slice {
	out := make([]Slice, 0, len(m))
	for _, sl := range m {
		sl.Accuracy = ratio(sl.Correct, sl.Records)
		out = append(out, *sl)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[j].Name) })
	return out
}

// index is the arena+index view of a flat record slice: group membership is
// a list of positions into the original slice.
type index struct {
	ids    []string         // base ids, sorted
	groups map[string][]int // base id -> record positions in variant order
}

func buildIndex(records []model.Record) (index, error) {
	idx := index{groups: make(map[string][]int)}
	for i, r := range records {
		if r.Prediction == nil {
			return idx, fmt.Errorf("%w: %s", ErrMissingPrediction, r.Key())
		}
		members, ok := idx.groups[r.BaseID]
		if !ok {
			idx.ids = append(idx.ids, r.BaseID)
		} else if want := records[members[0]].TrueLabel; want != r.TrueLabel {
			return idx, fmt.Errorf("%w: %s has %q and %q", ErrGroupLabelMismatch, r.BaseID, want, r.TrueLabel)
		}
		for _, j := range members {
			if records[j].VariantID == r.VariantID {
				return idx, fmt.Errorf("%w: %s", ErrDuplicateVariant, r.Key())
			}
		}
		idx.groups[r.BaseID] = append(members, i)
	}

	sort.Strings(idx.ids)
	for _, members := range idx.groups {
		slices.SortFunc(members, func(x, y int) int {
			switch {
			case variantLess(records[x].VariantID, records[y].VariantID):
				return -1
			case variantLess(records[y].VariantID, records[x].VariantID):
				return 1
			}
			return 0
		})
	}
	return idx, nil
}

// variantRank orders "base" first, then v1, v2, ... numerically, then any
// other ids.
func variantRank(id string) int {
	if id == model.VariantBase {
		return -1
	}
	if rest, ok := strings.CutPrefix(id, "v"); ok {
		if k, err := strconv.Atoi(rest); err == nil && k >= 0 {
			return k
		}
	}
	return math.MaxInt
}

func variantLess(a, b string) bool {
	ra, rb := variantRank(a), variantRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func strategyLess(a, b string) bool {
	if (a == model.VariantBase) != (b == model.VariantBase) {
		return a == model.VariantBase
	}
	return a < b
}
