// Package httpclassifier scores texts against a remote inference endpoint
// speaking the Hugging Face text-classification protocol.
package httpclassifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crimson-sun/steady/internal/classifier"
	"github.com/crimson-sun/steady/internal/httpclient"
)

// ErrMalformedResponse is returned when the endpoint's reply cannot be
// mapped onto the request batch.
var ErrMalformedResponse = errors.New("httpclassifier: malformed response")

// APIError is the non-2xx error type returned by the endpoint.
type APIError = httpclient.APIError

func init() {
	classifier.Register("http", func(cfg classifier.Config) (classifier.Classifier, error) {
		return New(cfg)
	})
}

type request struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier posts each batch in one request.
type Classifier struct {
	client *httpclient.Client
}

// New creates an HTTP classifier for cfg.Endpoint.
func New(cfg classifier.Config) (*Classifier, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("httpclassifier: endpoint is required")
	}
	opts := []httpclient.Option{httpclient.WithTimeout(cfg.Timeout)}
	if cfg.MaxRetries > 0 {
		opts = append(opts, httpclient.WithMaxRetries(cfg.MaxRetries))
	}
	return &Classifier{client: httpclient.New(cfg.Endpoint, cfg.APIKey, opts...)}, nil
}

// Classify requests every label's score for each text in the batch.
func (c *Classifier) Classify(ctx context.Context, batch []classifier.Request) ([]classifier.Response, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	req := request{
		Inputs:  make([]string, len(batch)),
		Options: map[string]any{"wait_for_model": true},
	}
	for i, r := range batch {
		req.Inputs[i] = r.Text
	}

	var raw json.RawMessage
	if err := c.client.PostJSON(ctx, "", req, &raw); err != nil {
		return nil, fmt.Errorf("httpclassifier: %w", err)
	}
	rows, err := decode(raw, len(batch))
	if err != nil {
		return nil, err
	}

	resps := make([]classifier.Response, len(batch))
	for i, r := range batch {
		scores := make(map[string]float64, len(rows[i]))
		for _, ls := range rows[i] {
			scores[ls.Label] = ls.Score
		}
		resps[i] = classifier.Response{Key: r.Key, Scores: scores}
	}
	return resps, nil
}

// decode accepts one list of label scores per input. A single-input batch
// may also come back as a bare list.
func decode(raw json.RawMessage, n int) ([][]labelScore, error) {
	var rows [][]labelScore
	if err := json.Unmarshal(raw, &rows); err != nil {
		var flat []labelScore
		if n != 1 || json.Unmarshal(raw, &flat) != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		rows = [][]labelScore{flat}
	}
	if len(rows) != n {
		return nil, fmt.Errorf("%w: %d results for %d inputs", ErrMalformedResponse, len(rows), n)
	}
	return rows, nil
}
