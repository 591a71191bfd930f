package metrics

// Summary is the read-only robustness report for one record set. Ratios
// over an empty subset are nil and serialize as null.
type Summary struct {
	Groups      int `json:"groups"`
	Records     int `json:"records"`
	BaseRecords int `json:"base_records"`

	FlipCount int      `json:"flip_count"`
	FlipRate  *float64 `json:"flip_rate"`

	BaseCorrect     int      `json:"base_correct"`
	BaseAccuracy    *float64 `json:"base_accuracy"`
	Correct         int      `json:"correct"`
	OverallAccuracy *float64 `json:"overall_accuracy"`
	Degradation     *float64 `json:"degradation"` // base minus overall, may be negative

	Errors            int      `json:"errors"`
	ErrorConfidence   *float64 `json:"error_confidence"`
	CorrectConfidence *float64 `json:"correct_confidence"`
	ConfidenceGap     *float64 `json:"confidence_gap"` // error mean minus correct mean

	Labels     []LabelCount `json:"labels"`
	Variants   []Slice      `json:"variants"`
	Strategies []Slice      `json:"strategies"`
}

// LabelCount is the true-label distribution over base records.
type LabelCount struct {
	Label    string   `json:"label"`
	Count    int      `json:"count"`
	Fraction *float64 `json:"fraction"`
}

// Slice is accuracy over the records sharing a variant id or strategy.
// Disagreements counts records whose prediction differs from their group's
// base prediction.
type Slice struct {
	Name          string   `json:"name"`
	Records       int      `json:"records"`
	Correct       int      `json:"correct"`
	Accuracy      *float64 `json:"accuracy"`
	Disagreements int      `json:"disagreements"`
}

// Value dereferences an optional metric, reporting whether it is defined.
func Value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}
