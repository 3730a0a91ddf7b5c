package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 16 << 20

// Poster performs one HTTP round trip against the backend endpoint.
type Poster interface {
	Post(ctx context.Context, authorization string, form url.Values) (envelope.Response, error)
}

type HTTPTransport struct {
	Endpoint       string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter
}

var _ Poster = HTTPTransport{}

func (t HTTPTransport) Post(ctx context.Context, authorization string, form url.Values) (envelope.Response, error) {
	command := form.Get(envelope.CommandKey)

	endpoint, err := validateEndpoint(t.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: wait for request slot: %w", domain.ErrTransport, err)
		}
	}

	requestCtx, cancel := t.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: create %s request: %w", domain.ErrTransport, command, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := t.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: post %s: %w", domain.ErrTransport, command, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: post %s: status %d", domain.ErrTransport, command, resp.StatusCode)
	}

	decoded, err := envelope.Decode(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// An empty body is the same transient condition as a missing root.
		if errors.Is(err, io.EOF) {
			return envelope.Response{}, nil
		}
		return nil, fmt.Errorf("%w: decode %s response: %w", domain.ErrTransport, command, err)
	}

	return decoded, nil
}

func (t HTTPTransport) httpClient() *http.Client {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return http.DefaultClient
}

func (t HTTPTransport) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := t.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func validateEndpoint(endpoint string) (string, error) {
	if strings.TrimSpace(endpoint) == "" {
		return "", errors.New("backend url is required")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("backend url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("backend url host is required")
	}

	return parsed.String(), nil
}
