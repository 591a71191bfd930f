// Package webhook POSTs each report as JSON to an HTTP endpoint.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/crimson-sun/steady/internal/httpclient"
	"github.com/crimson-sun/steady/internal/output"
)

const defaultTimeout = 10 * time.Second

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.clientOpts = append(o.clientOpts, httpclient.WithHeaders(h)) }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.clientOpts = append(o.clientOpts, httpclient.WithTimeout(d)) }
}

// WithRetry sets the retry count and first backoff step for 429 and 5xx
// responses.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(o *Output) {
		o.clientOpts = append(o.clientOpts,
			httpclient.WithMaxRetries(maxRetries), httpclient.WithBaseDelay(baseDelay))
	}
}

// WithVerbosity sets how much of the report is sent. Default: Minimal.
func WithVerbosity(v output.Verbosity) Option {
	return func(o *Output) { o.verbosity = v }
}

// WithToken sends a Bearer token with every POST.
func WithToken(token string) Option {
	return func(o *Output) { o.token = token }
}

// Output delivers reports synchronously; Write returns once the endpoint
// has accepted the report or retries are exhausted.
type Output struct {
	client     *httpclient.Client
	clientOpts []httpclient.Option
	token      string
	verbosity  output.Verbosity
}

// New creates a webhook output targeting the given URL.
func New(url string, opts ...Option) *Output {
	o := &Output{
		clientOpts: []httpclient.Option{httpclient.WithTimeout(defaultTimeout)},
		verbosity:  output.Minimal,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = httpclient.New(url, o.token, o.clientOpts...)
	return o
}

func (o *Output) Write(ctx context.Context, report output.Report) error {
	if err := o.client.PostJSON(ctx, "", output.FormatReport(report, o.verbosity), nil); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
