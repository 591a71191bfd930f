package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/model"
)

// Version is the current steady release.
const Version = "0.4.0"

// Config holds all steady configuration.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Perturb    PerturbConfig    `yaml:"perturb"`
	Labels     model.LabelSet   `yaml:"labels"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Engine     EngineConfig     `yaml:"engine"`
	Output     OutputConfig     `yaml:"output"`
	LogLevel   string           `yaml:"log_level"`
}

// CorpusConfig selects the base examples and how they are identified.
type CorpusConfig struct {
	Path     string `yaml:"path"` // empty selects the embedded sample
	Limit    int    `yaml:"limit"`
	IDScheme string `yaml:"id_scheme"` // "hash" or "index"
	IDPrefix string `yaml:"id_prefix"`
}

// PerturbConfig holds variant generation settings.
type PerturbConfig struct {
	VariantsPerBase int      `yaml:"variants_per_base"`
	Strategies      []string `yaml:"strategies"`
	SynonymsPath    string   `yaml:"synonyms_path"`
}

// ClassifierConfig holds classifier adapter settings.
type ClassifierConfig struct {
	Provider string `yaml:"provider"` // "onnx", "http", "replay"

	ModelPath   string `yaml:"model_path"`
	VocabPath   string `yaml:"vocab_path"`
	HeadPath    string `yaml:"head_path"`
	LibraryPath string `yaml:"library_path"`
	MaxSeqLen   int    `yaml:"max_seq_len"`
	Threads     int    `yaml:"threads"`

	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"-"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`

	PredictionPath string `yaml:"prediction_path"`
}

// EngineConfig holds classification batching settings.
type EngineConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// OutputConfig holds report destination settings. Empty paths disable the
// corresponding output.
type OutputConfig struct {
	StorePath     string `yaml:"store_path"`
	CSVPath       string `yaml:"csv_path"`
	LedgerPath    string `yaml:"ledger_path"`
	LedgerMaxSize int64  `yaml:"ledger_max_size"`
	MetricsPath   string `yaml:"metrics_path"`
	WebhookURL    string `yaml:"webhook_url"`
	WebhookToken  string `yaml:"-"`
	Stdout        bool   `yaml:"stdout"`
	Pretty        bool   `yaml:"pretty"`
	Verbosity     string `yaml:"verbosity"` // "minimal", "standard", "full"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Corpus: CorpusConfig{
			Path:     os.Getenv("STEADY_CORPUS"),
			Limit:    getenvInt("STEADY_CORPUS_LIMIT", 0),
			IDScheme: getenv("STEADY_ID_SCHEME", "index"),
			IDPrefix: getenv("STEADY_ID_PREFIX", "agnews"),
		},
		Perturb: PerturbConfig{
			VariantsPerBase: getenvInt("STEADY_VARIANTS", 3),
			Strategies:      getenvList("STEADY_STRATEGIES", []string{"keyboard", "synonym", "swap"}),
			SynonymsPath:    os.Getenv("STEADY_SYNONYMS_PATH"),
		},
		Labels: loadLabels(),
		Classifier: ClassifierConfig{
			Provider:       getenv("STEADY_CLASSIFIER", "onnx"),
			ModelPath:      getenv("STEADY_MODEL_PATH", "models/model.onnx"),
			VocabPath:      getenv("STEADY_VOCAB_PATH", "models/vocab.txt"),
			HeadPath:       os.Getenv("STEADY_HEAD_PATH"),
			LibraryPath:    os.Getenv("STEADY_ORT_LIBRARY"),
			MaxSeqLen:      getenvInt("STEADY_MAX_SEQ_LEN", 128),
			Threads:        getenvInt("STEADY_THREADS", 0),
			Endpoint:       os.Getenv("STEADY_ENDPOINT"),
			APIKey:         os.Getenv("STEADY_API_KEY"),
			Timeout:        getenvDuration("STEADY_CLASSIFIER_TIMEOUT", 30*time.Second),
			MaxRetries:     getenvInt("STEADY_MAX_RETRIES", 3),
			PredictionPath: os.Getenv("STEADY_PREDICTIONS"),
		},
		Engine: EngineConfig{
			BatchSize: getenvInt("STEADY_BATCH_SIZE", 32),
			Workers:   getenvInt("STEADY_WORKERS", 4),
		},
		Output: OutputConfig{
			StorePath:     os.Getenv("STEADY_STORE"),
			CSVPath:       os.Getenv("STEADY_CSV"),
			LedgerPath:    os.Getenv("STEADY_LEDGER"),
			LedgerMaxSize: int64(getenvInt("STEADY_LEDGER_MAX_SIZE", 0)),
			MetricsPath:   os.Getenv("STEADY_METRICS_PATH"),
			WebhookURL:    os.Getenv("STEADY_WEBHOOK_URL"),
			WebhookToken:  os.Getenv("STEADY_WEBHOOK_TOKEN"),
			Stdout:        getenvBool("STEADY_OUTPUT_STDOUT", true),
			Pretty:        getenvBool("STEADY_OUTPUT_PRETTY", false),
			Verbosity:     getenv("STEADY_VERBOSITY", "minimal"),
		},
		LogLevel: getenv("STEADY_LOG_LEVEL", "info"),
	}
}

// LoadFile overlays the YAML file at path on the environment defaults.
// Keys absent from the file keep their Load value.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable. It returns all
// problems found, joined.
func (c Config) Validate() error {
	var errs []error

	if c.Perturb.VariantsPerBase < 0 {
		errs = append(errs, fmt.Errorf("variants per base must be >= 0, got %d", c.Perturb.VariantsPerBase))
	}
	if c.Perturb.VariantsPerBase > 0 && len(c.Perturb.Strategies) == 0 {
		errs = append(errs, fmt.Errorf("at least one perturbation strategy is required"))
	}
	if c.Corpus.IDScheme != "hash" && c.Corpus.IDScheme != "index" {
		errs = append(errs, fmt.Errorf("invalid id scheme %q (must be hash or index)", c.Corpus.IDScheme))
	}
	if err := c.Labels.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("labels: %w", err))
	}

	if c.Engine.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be >= 1, got %d", c.Engine.BatchSize))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Engine.Workers))
	}

	switch c.Classifier.Provider {
	case "":
		// No classifier: commands that only build or re-score tables.
	case "onnx":
		errs = appendMissing(errs, "model", c.Classifier.ModelPath)
		errs = appendMissing(errs, "vocab", c.Classifier.VocabPath)
		if c.Classifier.HeadPath != "" {
			errs = appendMissing(errs, "head", c.Classifier.HeadPath)
		}
	case "http":
		if c.Classifier.Endpoint == "" {
			errs = append(errs, fmt.Errorf("STEADY_ENDPOINT is required for the http classifier"))
		}
	case "replay":
		if c.Classifier.PredictionPath == "" {
			errs = append(errs, fmt.Errorf("STEADY_PREDICTIONS is required for the replay classifier"))
		} else {
			errs = appendMissing(errs, "predictions", c.Classifier.PredictionPath)
		}
	default:
		errs = append(errs, fmt.Errorf("invalid classifier provider %q (must be onnx, http, or replay)", c.Classifier.Provider))
	}
	if c.Classifier.Timeout < 0 {
		errs = append(errs, fmt.Errorf("classifier timeout must be >= 0, got %v", c.Classifier.Timeout))
	}

	switch c.Output.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("invalid verbosity %q (must be minimal, standard, or full)", c.Output.Verbosity))
	}
	if c.Output.LedgerMaxSize < 0 {
		errs = append(errs, fmt.Errorf("ledger max size must be >= 0, got %d", c.Output.LedgerMaxSize))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// ClassifierSettings converts the classifier section into adapter settings.
func (c Config) ClassifierSettings() classifier.Config {
	cc := c.Classifier
	return classifier.Config{
		Provider:       cc.Provider,
		ModelPath:      cc.ModelPath,
		VocabPath:      cc.VocabPath,
		HeadPath:       cc.HeadPath,
		LibraryPath:    cc.LibraryPath,
		MaxSeqLen:      cc.MaxSeqLen,
		Threads:        cc.Threads,
		NumClasses:     len(c.Labels),
		Endpoint:       cc.Endpoint,
		APIKey:         cc.APIKey,
		Timeout:        cc.Timeout,
		MaxRetries:     cc.MaxRetries,
		PredictionPath: cc.PredictionPath,
	}
}

func appendMissing(errs []error, what, path string) []error {
	if path == "" {
		return append(errs, fmt.Errorf("%s path is required", what))
	}
	if _, err := os.Stat(path); err != nil {
		return append(errs, fmt.Errorf("%s file not found: %s", what, path))
	}
	return errs
}

// loadLabels reads STEADY_LABELS as a comma-separated list of class names
// in classifier index order. Unset selects the AG News classes.
func loadLabels() model.LabelSet {
	names := getenvList("STEADY_LABELS", nil)
	if len(names) == 0 {
		return model.DefaultLabels()
	}
	return model.LabelsFromNames(names...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
