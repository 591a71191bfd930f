package model

// VariantBase is the VariantID of the unperturbed member of a group.
const VariantBase = "base"

// Record is the unit flowing through the evaluation pipeline: one text
// submitted for classification, tagged with the group it belongs to.
type Record struct {
	BaseID     string      `json:"base_id"`
	VariantID  string      `json:"variant_id"` // "base" or "v1".."vN"
	Text       string      `json:"text"`
	TrueLabel  string      `json:"true_label"`
	Strategy   string      `json:"strategy"`   // producer of Text: "base", a strategy name, or "fallback"
	Prediction *Prediction `json:"prediction"` // nil until canonicalized
}

// Prediction is the canonicalized classifier output for one record.
type Prediction struct {
	Label         string    `json:"pred_label"`
	Confidence    float64   `json:"confidence"`
	Probabilities []float64 `json:"probabilities,omitempty"` // canonical class order
}

// Key identifies the record uniquely across a run.
func (r Record) Key() string {
	return r.BaseID + "/" + r.VariantID
}

// IsBase reports whether r is the unperturbed member of its group.
func (r Record) IsBase() bool {
	return r.VariantID == VariantBase
}

// Predicted reports whether the record carries a prediction.
func (r Record) Predicted() bool {
	return r.Prediction != nil
}
