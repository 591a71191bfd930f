package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/steady/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STEADY_CLASSIFIER", "STEADY_VARIANTS", "STEADY_STRATEGIES", "STEADY_BATCH_SIZE", "STEADY_WORKERS", "STEADY_LABELS", "STEADY_ID_SCHEME", "STEADY_VERBOSITY"} {
		os.Unsetenv(k)
	}
	cfg := Load()

	if cfg.Classifier.Provider != "onnx" {
		t.Fatalf("expected default provider 'onnx', got %q", cfg.Classifier.Provider)
	}
	if cfg.Perturb.VariantsPerBase != 3 {
		t.Fatalf("expected default VariantsPerBase=3, got %d", cfg.Perturb.VariantsPerBase)
	}
	if got := strings.Join(cfg.Perturb.Strategies, ","); got != "keyboard,synonym,swap" {
		t.Fatalf("expected default strategies keyboard,synonym,swap, got %q", got)
	}
	if cfg.Engine.BatchSize != 32 {
		t.Fatalf("expected default BatchSize=32, got %d", cfg.Engine.BatchSize)
	}
	if cfg.Engine.Workers != 4 {
		t.Fatalf("expected default Workers=4, got %d", cfg.Engine.Workers)
	}
	if cfg.Corpus.IDScheme != "index" {
		t.Fatalf("expected default IDScheme='index', got %q", cfg.Corpus.IDScheme)
	}
	if cfg.Output.Verbosity != "minimal" {
		t.Fatalf("expected default Verbosity='minimal', got %q", cfg.Output.Verbosity)
	}
	if len(cfg.Labels) != 4 || cfg.Labels[3].Name != "Sci/Tech" {
		t.Fatalf("expected AG News labels, got %+v", cfg.Labels)
	}
	if cfg.Classifier.Timeout != 30*time.Second {
		t.Fatalf("expected default Timeout=30s, got %v", cfg.Classifier.Timeout)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STEADY_CLASSIFIER", "http")
	t.Setenv("STEADY_ENDPOINT", "https://example.test/models/agnews")
	t.Setenv("STEADY_STRATEGIES", " swap , keyboard ,")
	t.Setenv("STEADY_VARIANTS", "5")
	t.Setenv("STEADY_LABELS", "neg,pos")
	t.Setenv("STEADY_CLASSIFIER_TIMEOUT", "2s")
	t.Setenv("STEADY_OUTPUT_PRETTY", "true")

	cfg := Load()
	if cfg.Classifier.Provider != "http" || cfg.Classifier.Endpoint != "https://example.test/models/agnews" {
		t.Fatalf("unexpected classifier config: %+v", cfg.Classifier)
	}
	if got := strings.Join(cfg.Perturb.Strategies, ","); got != "swap,keyboard" {
		t.Fatalf("expected strategies swap,keyboard, got %q", got)
	}
	if cfg.Perturb.VariantsPerBase != 5 {
		t.Fatalf("expected VariantsPerBase=5, got %d", cfg.Perturb.VariantsPerBase)
	}
	want := model.LabelSet{{Token: "LABEL_0", Name: "neg"}, {Token: "LABEL_1", Name: "pos"}}
	if len(cfg.Labels) != 2 || cfg.Labels[0] != want[0] || cfg.Labels[1] != want[1] {
		t.Fatalf("expected labels %+v, got %+v", want, cfg.Labels)
	}
	if cfg.Classifier.Timeout != 2*time.Second {
		t.Fatalf("expected Timeout=2s, got %v", cfg.Classifier.Timeout)
	}
	if !cfg.Output.Pretty {
		t.Fatal("expected Pretty=true when STEADY_OUTPUT_PRETTY=true")
	}
}

func TestLoadFile_Overlay(t *testing.T) {
	os.Unsetenv("STEADY_WORKERS")
	t.Setenv("STEADY_BATCH_SIZE", "8")

	path := filepath.Join(t.TempDir(), "steady.yaml")
	doc := `
corpus:
  path: data/agnews.jsonl
  id_scheme: hash
perturb:
  variants_per_base: 2
  strategies: [synonym]
labels:
  - {token: LABEL_0, name: negative}
  - {token: LABEL_1, name: positive}
classifier:
  provider: replay
  prediction_path: preds.jsonl
  timeout: 5s
engine:
  workers: 2
output:
  verbosity: full
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Corpus.Path != "data/agnews.jsonl" || cfg.Corpus.IDScheme != "hash" {
		t.Errorf("corpus = %+v", cfg.Corpus)
	}
	if cfg.Perturb.VariantsPerBase != 2 || len(cfg.Perturb.Strategies) != 1 || cfg.Perturb.Strategies[0] != "synonym" {
		t.Errorf("perturb = %+v", cfg.Perturb)
	}
	if len(cfg.Labels) != 2 || cfg.Labels[1].Name != "positive" {
		t.Errorf("labels = %+v", cfg.Labels)
	}
	if cfg.Classifier.Provider != "replay" || cfg.Classifier.Timeout != 5*time.Second {
		t.Errorf("classifier = %+v", cfg.Classifier)
	}
	// File value wins over default; env value survives where the file is silent.
	if cfg.Engine.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Engine.Workers)
	}
	if cfg.Engine.BatchSize != 8 {
		t.Errorf("BatchSize = %d, want 8 from env", cfg.Engine.BatchSize)
	}
	if cfg.Output.Verbosity != "full" {
		t.Errorf("Verbosity = %q, want full", cfg.Output.Verbosity)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("engine: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "bad.yaml") {
		t.Fatalf("expected error to mention the file, got: %v", err)
	}
}

// --- Validation tests ---

// validConfig returns a Config with real temp files so file-existence checks pass.
func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"model.onnx", "vocab.txt", "head.safetensors"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return Config{
		Corpus:  CorpusConfig{IDScheme: "index", IDPrefix: "agnews"},
		Perturb: PerturbConfig{VariantsPerBase: 3, Strategies: []string{"keyboard", "synonym", "swap"}},
		Labels:  model.DefaultLabels(),
		Classifier: ClassifierConfig{
			Provider:  "onnx",
			ModelPath: filepath.Join(dir, "model.onnx"),
			VocabPath: filepath.Join(dir, "vocab.txt"),
			HeadPath:  filepath.Join(dir, "head.safetensors"),
		},
		Engine:   EngineConfig{BatchSize: 32, Workers: 4},
		Output:   OutputConfig{Verbosity: "standard"},
		LogLevel: "info",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error for valid config, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad verbosity", func(c *Config) { c.Output.Verbosity = "verbose" }, "verbosity"},
		{"negative variants", func(c *Config) { c.Perturb.VariantsPerBase = -1 }, "variants"},
		{"no strategies", func(c *Config) { c.Perturb.Strategies = nil }, "strategy"},
		{"bad id scheme", func(c *Config) { c.Corpus.IDScheme = "uuid" }, "id scheme"},
		{"empty labels", func(c *Config) { c.Labels = nil }, "labels"},
		{"zero batch", func(c *Config) { c.Engine.BatchSize = 0 }, "batch size"},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }, "workers"},
		{"missing model", func(c *Config) { c.Classifier.ModelPath = "/nonexistent/model.onnx" }, "model"},
		{"missing head", func(c *Config) { c.Classifier.HeadPath = "/nonexistent/head.safetensors" }, "head"},
		{"bad provider", func(c *Config) { c.Classifier.Provider = "grpc" }, "provider"},
		{"http without endpoint", func(c *Config) { c.Classifier.Provider = "http" }, "STEADY_ENDPOINT"},
		{"replay without file", func(c *Config) { c.Classifier.Provider = "replay" }, "STEADY_PREDICTIONS"},
		{"negative ledger size", func(c *Config) { c.Output.LedgerMaxSize = -1 }, "ledger"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_NoVariantsNeedsNoStrategies(t *testing.T) {
	cfg := validConfig(t)
	cfg.Perturb.VariantsPerBase = 0
	cfg.Perturb.Strategies = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
}

func TestValidate_NoClassifier(t *testing.T) {
	cfg := validConfig(t)
	cfg.Classifier.Provider = ""
	cfg.Classifier.ModelPath = "/nonexistent/model.onnx"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error without a classifier, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Classifier.Provider = "http"
	cfg.Engine.Workers = 0
	cfg.Output.Verbosity = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple bad fields")
	}
	msg := err.Error()
	for _, want := range []string{"STEADY_ENDPOINT", "workers", "verbosity"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %v", want, msg)
		}
	}
}

func TestClassifierSettings(t *testing.T) {
	cfg := validConfig(t)
	cfg.Classifier.APIKey = "tok_123"
	cfg.Classifier.MaxRetries = 2
	cc := cfg.ClassifierSettings()
	if cc.Provider != "onnx" || cc.ModelPath != cfg.Classifier.ModelPath {
		t.Errorf("unexpected settings: %+v", cc)
	}
	if cc.NumClasses != 4 {
		t.Errorf("NumClasses = %d, want 4", cc.NumClasses)
	}
	if cc.APIKey != "tok_123" || cc.MaxRetries != 2 {
		t.Errorf("http settings not carried: %+v", cc)
	}
}

// --- getenv helper tests ---

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		set      bool
		fallback int
		want     int
	}{
		{"empty uses fallback", "", false, 32, 32},
		{"valid int", "500", true, 32, 500},
		{"zero", "0", true, 32, 0},
		{"invalid falls back", "abc", true, 32, 32},
		{"negative", "-1", true, 32, -1},
	}

	const key = "STEADY_TEST_GETENVINT"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}
			got := getenvInt(key, tt.fallback)
			if got != tt.want {
				t.Errorf("getenvInt(%q, %d) = %d, want %d", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestGetenvBool(t *testing.T) {
	const key = "STEADY_TEST_GETENVBOOL"
	os.Setenv(key, "nope")
	defer os.Unsetenv(key)
	if !getenvBool(key, true) {
		t.Error("invalid value should fall back to true")
	}
	os.Setenv(key, "0")
	if getenvBool(key, true) {
		t.Error("expected false for 0")
	}
}

func TestGetenvDuration(t *testing.T) {
	const key = "STEADY_TEST_GETENVDURATION"
	os.Setenv(key, "soon")
	defer os.Unsetenv(key)
	if got := getenvDuration(key, time.Second); got != time.Second {
		t.Errorf("invalid value: got %v, want fallback 1s", got)
	}
	os.Setenv(key, "250ms")
	if got := getenvDuration(key, time.Second); got != 250*time.Millisecond {
		t.Errorf("got %v, want 250ms", got)
	}
}

func TestVersion_IsSet(t *testing.T) {
	if Version == "" {
		t.Fatal("expected non-empty Version constant")
	}
}
