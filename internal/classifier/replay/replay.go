// Package replay serves precomputed classifier scores from an NDJSON file,
// so an evaluation can be re-run without the model.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/steady/internal/classifier"
)

// ErrNoPrediction is returned for a request with no stored scores.
var ErrNoPrediction = errors.New("replay: no stored prediction")

func init() {
	classifier.Register("replay", func(cfg classifier.Config) (classifier.Classifier, error) {
		return Open(cfg.PredictionPath)
	})
}

// Entry is one line of a replay file. Key takes precedence over Text when
// both are set.
type Entry struct {
	Key    string             `json:"key,omitempty"`
	Text   string             `json:"text,omitempty"`
	Scores map[string]float64 `json:"scores"`
}

// Classifier answers from stored entries.
type Classifier struct {
	byKey  map[string]map[string]float64
	byText map[string]map[string]float64
}

// Open reads a replay file.
func Open(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses NDJSON entries from r. Blank lines are skipped.
func Read(r io.Reader) (*Classifier, error) {
	c := &Classifier{
		byKey:  make(map[string]map[string]float64),
		byText: make(map[string]map[string]float64),
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, fmt.Errorf("replay: line %d: %w", line, err)
		}
		c.Add(e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return c, nil
}

// Add stores an entry. Later entries replace earlier ones.
func (c *Classifier) Add(e Entry) {
	switch {
	case e.Key != "":
		c.byKey[e.Key] = e.Scores
	case e.Text != "":
		c.byText[e.Text] = e.Scores
	}
}

// Len returns the number of stored entries.
func (c *Classifier) Len() int { return len(c.byKey) + len(c.byText) }

// Classify looks each request up by key, then by text.
func (c *Classifier) Classify(ctx context.Context, batch []classifier.Request) ([]classifier.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}
	resps := make([]classifier.Response, 0, len(batch))
	for _, r := range batch {
		scores, ok := c.byKey[r.Key]
		if !ok {
			scores, ok = c.byText[r.Text]
		}
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrNoPrediction, r.Key)
		}
		resps = append(resps, classifier.Response{Key: r.Key, Scores: scores})
	}
	return resps, nil
}

// Write records responses as replay entries keyed by request key.
func Write(w io.Writer, resps []classifier.Response) error {
	enc := json.NewEncoder(w)
	for _, r := range resps {
		if err := enc.Encode(Entry{Key: r.Key, Scores: r.Scores}); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}
	return nil
}
