package perturb

import (
	"fmt"
	"strings"
)

// Parse resolves strategy names, in order, into strategies. dict is used by
// the synonym strategy; nil selects the built-in dictionary.
func Parse(names []string, dict Dictionary) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s, err := ByName(n, dict)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ByName returns a strategy with default settings.
func ByName(name string, dict Dictionary) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "keyboard", "typo", "char":
		return NewKeyboard(), nil
	case "synonym", "synonyms":
		return NewSynonym(dict), nil
	case "swap":
		return NewSwap(), nil
	case "identity":
		return Identity(), nil
	default:
		return nil, fmt.Errorf("unknown perturbation strategy: %s", name)
	}
}

// Names returns the names of the given strategies.
func Names(strategies []Strategy) []string {
	out := make([]string, len(strategies))
	for i, s := range strategies {
		out[i] = s.Name()
	}
	return out
}
