package perturb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode"
)

func TestStrategiesDeterministic(t *testing.T) {
	texts := []string{
		"Stocks rose today",
		"Oil prices fell sharply as the market reacted to the new report",
		"The team won the first game of the season",
	}
	for _, s := range []Strategy{NewKeyboard(), NewSynonym(nil), NewSwap()} {
		for _, text := range texts {
			a, errA := s.Perturb(text)
			b, errB := s.Perturb(text)
			if (errA == nil) != (errB == nil) {
				t.Fatalf("%s(%q): error mismatch %v vs %v", s.Name(), text, errA, errB)
			}
			if a != b {
				t.Errorf("%s(%q) not deterministic: %q vs %q", s.Name(), text, a, b)
			}
			if errA == nil && a == text {
				t.Errorf("%s(%q) returned the input unchanged without error", s.Name(), text)
			}
		}
	}
}

func TestKeyboardBoundedEdits(t *testing.T) {
	k := NewKeyboard()
	text := "Oil prices fell sharply as the market reacted to the new report"
	out, err := k.Perturb(text)
	if err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if len(out) != len(text) {
		t.Fatalf("length changed: %d -> %d", len(text), len(out))
	}
	diff := 0
	for i := range text {
		if text[i] != out[i] {
			diff++
			if !isASCIILetter(rune(text[i])) {
				t.Errorf("non-letter at %d was modified", i)
			}
		}
	}
	if diff < 1 || diff > k.MaxEdits {
		t.Errorf("edits = %d, want 1..%d", diff, k.MaxEdits)
	}
}

func TestKeyboardPreservesCase(t *testing.T) {
	out, err := NewKeyboard().Perturb("ABCDEF GHIJKL")
	if err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	for _, r := range out {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			t.Errorf("lower-case letter %q in %q", r, out)
		}
	}
}

func TestKeyboardFailures(t *testing.T) {
	tests := []struct {
		text string
		want error
	}{
		{"", ErrEmptyText},
		{"a 1 ? b", ErrNoEligibleWords},
	}
	for _, tt := range tests {
		_, err := NewKeyboard().Perturb(tt.text)
		if !errors.Is(err, tt.want) {
			t.Errorf("Perturb(%q) error = %v, want %v", tt.text, err, tt.want)
		}
		var pe *PerturbationError
		if !errors.As(err, &pe) || pe.Strategy != "keyboard" {
			t.Errorf("Perturb(%q) error %v is not a keyboard PerturbationError", tt.text, err)
		}
	}
}

func TestNeighbor(t *testing.T) {
	for c := byte('a'); c <= 'z'; c++ {
		for n := 0; n < 8; n++ {
			got := neighbor(c, n)
			if got == c {
				t.Fatalf("neighbor(%q, %d) returned the same key", c, n)
			}
		}
	}
	if got := neighbor('Q', 0); got != 'W' {
		t.Errorf("neighbor('Q', 0) = %q, want 'W'", got)
	}
}

func TestSynonymReplacesAll(t *testing.T) {
	s := &Synonym{Fraction: 1.0, Dict: Dictionary{"cat": {"feline"}}}
	out, err := s.Perturb("The cat and the Cat.")
	if err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if want := "The feline and the Feline."; out != want {
		t.Errorf("Perturb() = %q, want %q", out, want)
	}
}

func TestSynonymDefaultDictionary(t *testing.T) {
	out, err := NewSynonym(nil).Perturb("Stocks rose today")
	if err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if out == "Stocks rose today" {
		t.Error("expected a substitution")
	}
}

func TestSynonymNoEligibleWords(t *testing.T) {
	_, err := NewSynonym(nil).Perturb("Xyzzy plugh")
	if !errors.Is(err, ErrNoEligibleWords) {
		t.Errorf("error = %v, want ErrNoEligibleWords", err)
	}
	_, err = NewSynonym(nil).Perturb("")
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("error = %v, want ErrEmptyText", err)
	}
}

func TestMatchCase(t *testing.T) {
	tests := []struct{ orig, repl, want string }{
		{"Stocks", "shares", "Shares"},
		{"stocks", "shares", "shares"},
		{"Today", "on Tuesday", "On Tuesday"},
		{"Émile", "élan", "Élan"},
		{"X", "", ""},
	}
	for _, tt := range tests {
		if got := matchCase(tt.orig, tt.repl); got != tt.want {
			t.Errorf("matchCase(%q, %q) = %q, want %q", tt.orig, tt.repl, got, tt.want)
		}
	}
}

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	data := "Cat: [feline, '']\ndog: []\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadDictionary(path)
	if err != nil {
		t.Fatalf("LoadDictionary() error: %v", err)
	}
	if got := d["cat"]; len(got) != 1 || got[0] != "feline" {
		t.Errorf("d[cat] = %v, want [feline]", got)
	}
	if _, ok := d["dog"]; ok {
		t.Error("empty entry should be dropped")
	}

	if _, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSwap(t *testing.T) {
	out, err := NewSwap().Perturb("one two")
	if err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if out != "two one" {
		t.Errorf("Perturb() = %q, want %q", out, "two one")
	}

	s := &Swap{Fraction: 1.0}
	out, err = s.Perturb("one  two\tthree")
	if err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if want := "two  three\tone"; out != want {
		t.Errorf("Perturb() = %q, want %q", out, want)
	}
}

func TestSwapFailures(t *testing.T) {
	tests := []struct {
		text string
		want error
	}{
		{"   ", ErrEmptyText},
		{"single", ErrNoEligibleWords},
		{"same same", ErrUnchanged},
	}
	for _, tt := range tests {
		if _, err := NewSwap().Perturb(tt.text); !errors.Is(err, tt.want) {
			t.Errorf("Perturb(%q) error = %v, want %v", tt.text, err, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	got, err := Parse([]string{"keyboard", "Synonym", " swap "}, nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	names := Names(got)
	want := []string{"keyboard", "synonym", "swap"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if _, err := Parse([]string{"keyboard", "shuffle"}, nil); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestQuota(t *testing.T) {
	tests := []struct {
		fraction float64
		n, want  int
	}{
		{0.3, 3, 1},
		{0.3, 10, 3},
		{0.3, 11, 4},
		{0, 5, 1},
		{2, 5, 5},
	}
	for _, tt := range tests {
		if got := quota(tt.fraction, tt.n); got != tt.want {
			t.Errorf("quota(%v, %d) = %d, want %d", tt.fraction, tt.n, got, tt.want)
		}
	}
}
