package model

import "fmt"

// Class is one entry of a LabelSet.
type Class struct {
	Token string `yaml:"token" json:"token"` // classifier-side token, e.g. "LABEL_2"
	Name  string `yaml:"name" json:"name"`   // human label, e.g. "Business"
}

// LabelSet is the canonical class order. The slice index of a Class is its
// canonical class index; probability vectors are laid out in this order.
type LabelSet []Class

// DefaultLabels returns the AG News 4-class label set.
func DefaultLabels() LabelSet {
	return LabelSet{
		{Token: "LABEL_0", Name: "World"},
		{Token: "LABEL_1", Name: "Sports"},
		{Token: "LABEL_2", Name: "Business"},
		{Token: "LABEL_3", Name: "Sci/Tech"},
	}
}

// LabelsFromNames builds a LabelSet whose tokens are LABEL_0..LABEL_{n-1}.
func LabelsFromNames(names ...string) LabelSet {
	ls := make(LabelSet, len(names))
	for i, n := range names {
		ls[i] = Class{Token: fmt.Sprintf("LABEL_%d", i), Name: n}
	}
	return ls
}

// Names returns the class names in canonical order.
func (ls LabelSet) Names() []string {
	out := make([]string, len(ls))
	for i, c := range ls {
		out[i] = c.Name
	}
	return out
}

// IndexOfToken returns the canonical index of a classifier token, or -1.
func (ls LabelSet) IndexOfToken(token string) int {
	for i, c := range ls {
		if c.Token == token {
			return i
		}
	}
	return -1
}

// IndexOfName returns the canonical index of a class name, or -1.
func (ls LabelSet) IndexOfName(name string) int {
	for i, c := range ls {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that tokens and names are non-empty and unique.
func (ls LabelSet) Validate() error {
	if len(ls) == 0 {
		return fmt.Errorf("label set is empty")
	}
	tokens := make(map[string]bool, len(ls))
	names := make(map[string]bool, len(ls))
	for i, c := range ls {
		if c.Token == "" || c.Name == "" {
			return fmt.Errorf("label %d: token and name are required", i)
		}
		if tokens[c.Token] {
			return fmt.Errorf("duplicate label token %q", c.Token)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate label name %q", c.Name)
		}
		tokens[c.Token] = true
		names[c.Name] = true
	}
	return nil
}
