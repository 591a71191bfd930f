package steady

import (
	"log/slog"

	"github.com/crimson-sun/steady/internal/engine/idgen"
	"github.com/crimson-sun/steady/internal/model"
)

type options struct {
	labels     model.LabelSet
	variants   int
	strategies []string
	synonyms   map[string][]string
	batchSize  int
	workers    int
	idScheme   idgen.Scheme
	idPrefix   string
	logger     *slog.Logger
}

// Option configures an Evaluator.
type Option func(*options)

// WithLabels sets the class names in classifier index order: the i-th name
// is the classifier's "LABEL_i". Default: the four AG News classes.
func WithLabels(names ...string) Option {
	return func(o *options) {
		o.labels = model.LabelsFromNames(names...)
	}
}

// WithClasses sets the label set with explicit classifier tokens.
func WithClasses(classes ...Class) Option {
	return func(o *options) {
		o.labels = make(model.LabelSet, len(classes))
		for i, c := range classes {
			o.labels[i] = model.Class{Token: c.Token, Name: c.Name}
		}
	}
}

// WithVariants sets the number of perturbed variants per example.
// Default: 3.
func WithVariants(n int) Option {
	return func(o *options) {
		o.variants = n
	}
}

// WithStrategies sets the perturbation strategies, applied round-robin to
// v1..vN. Known names: keyboard, synonym, swap, identity.
// Default: keyboard, synonym, swap.
func WithStrategies(names ...string) Option {
	return func(o *options) {
		o.strategies = names
	}
}

// WithSynonyms replaces the synonym strategy's built-in dictionary.
func WithSynonyms(dict map[string][]string) Option {
	return func(o *options) {
		o.synonyms = dict
	}
}

// WithBatchSize sets the number of texts per classifier call. Default: 32.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithWorkers sets how many classifier calls may run at once. Default: 4.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithHashIDs derives base ids from a content hash of the text instead of
// the example position.
func WithHashIDs() Option {
	return func(o *options) {
		o.idScheme = idgen.SchemeHash
	}
}

// WithIDPrefix sets the prefix of positional base ids ("agnews_0007").
func WithIDPrefix(prefix string) Option {
	return func(o *options) {
		o.idScheme = idgen.SchemeIndex
		o.idPrefix = prefix
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func defaultOptions() options {
	return options{
		labels:     model.DefaultLabels(),
		variants:   3,
		strategies: []string{"keyboard", "synonym", "swap"},
		batchSize:  32,
		workers:    4,
		idScheme:   idgen.SchemeIndex,
		idPrefix:   "agnews",
	}
}
