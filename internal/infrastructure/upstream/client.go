// Package upstream holds the HTTP clients for the services the API aggregates:
// the GOlr Solr index, the GO SPARQL endpoint and MyGene.info.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/domain/shared"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
)

// maxResponseSize limits upstream bodies; GOlr annotation pages for
// well-studied genes run to a few megabytes.
const maxResponseSize = 64 * 1024 * 1024

// Options configures a single upstream client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// httpDoer is shared by the upstream clients: it runs a request inside a
// client span, records metrics and classifies failures as domain errors.
type httpDoer struct {
	name      string
	client    *http.Client
	userAgent string
	logger    *zap.Logger
	metrics   *telemetry.Metrics
}

func newHTTPDoer(name string, opts Options) *httpDoer {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &httpDoer{
		name:      name,
		client:    client,
		userAgent: opts.UserAgent,
		logger:    logger.Named(name),
		metrics:   opts.Metrics,
	}
}

// do executes req and returns the body of a successful (< 400) response.
func (d *httpDoer) do(ctx context.Context, req *http.Request) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, d.name+".request",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrUpstream, d.name),
		telemetry.WithAttribute("http.request.method", req.Method),
	)
	defer span.End()

	req = req.WithContext(ctx)
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	var (
		body []byte
		err  error
	)
	start := time.Now()
	telemetry.WithProfilingLabels(ctx, telemetry.UpstreamLabels(d.name), func(context.Context) {
		body, err = d.roundTrip(req)
	})
	elapsed := time.Since(start)

	outcome := telemetry.OutcomeSuccess
	if err != nil {
		outcome = telemetry.OutcomeError
		if errors.Is(err, shared.ErrUpstreamTimeout) {
			outcome = telemetry.OutcomeTimeout
		}
		telemetry.RecordError(span, err)
		d.logger.Warn("Upstream request failed",
			zap.String("url", req.URL.Redacted()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		telemetry.SetAttribute(span, "http.response.body.size", len(body))
		d.logger.Debug("Upstream request completed",
			zap.String("url", req.URL.Redacted()),
			zap.Duration("elapsed", elapsed),
			zap.Int("bytes", len(body)),
		)
	}
	d.metrics.ObserveUpstream(d.name, outcome, elapsed)

	return body, err
}

func (d *httpDoer) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, d.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, d.transportError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s: %w", d.name,
			shared.ErrUpstreamFailed.WithMessage(fmt.Sprintf("%s returned HTTP %d", d.name, resp.StatusCode)))
	}
	return body, nil
}

func (d *httpDoer) transportError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%s: %w: %v", d.name,
			shared.ErrUpstreamTimeout.WithMessage(d.name+" did not respond in time"), err)
	}
	return fmt.Errorf("%s: %w: %v", d.name,
		shared.ErrUpstreamUnavailable.WithMessage(d.name+" is unavailable"), err)
}

func (d *httpDoer) invalidResponse(reason string) error {
	return fmt.Errorf("%s: %w", d.name,
		shared.ErrUpstreamFailed.WithMessage(fmt.Sprintf("%s returned an invalid response: %s", d.name, reason)))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
