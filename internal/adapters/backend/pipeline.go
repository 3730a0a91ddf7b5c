package backend

import (
	"context"
	"log/slog"
	"time"

	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/logger"
)

const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 250 * time.Millisecond
)

type PipelineConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Pipeline sends commands through a Poster and retries envelope-level
// failures. Malformed envelopes are retried at once, declared errors after a
// fixed delay. Transport errors are returned without retrying.
type Pipeline struct {
	transport   Poster
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
	sleep       func(context.Context, time.Duration) error
}

func NewPipeline(transport Poster, cfg PipelineConfig, log *slog.Logger) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Pipeline{
		transport:   transport,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		logger:      log.With("component", "backend.pipeline"),
		sleep:       sleepContext,
	}
}

// Send returns the first response classified as declared success or payload.
// When attempts run out it returns the last response as is, which may still
// be malformed or carry declared errors.
func (p *Pipeline) Send(ctx context.Context, authorization string, command string, fields envelope.Fields) (envelope.Response, error) {
	form := fields.Form(command)

	var last envelope.Response
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		resp, err := p.transport.Post(ctx, authorization, form)
		if err != nil {
			return nil, err
		}
		last = resp

		switch kind := resp.Classify(); kind {
		case envelope.KindMalformed:
			p.logger.Warn("malformed backend envelope", "command", command, "attempt", attempt, "response", map[string]any(resp))
			continue
		case envelope.KindDeclaredError:
			messages, _ := resp.Messages()
			p.logger.Error("backend declared errors", "command", command, "attempt", attempt, "errors", messages.Errors)
			if attempt == p.maxAttempts {
				return resp, nil
			}
			if err := p.sleep(ctx, p.baseDelay); err != nil {
				return nil, err
			}
		default:
			p.logger.Debug("backend command completed", "command", command, "attempt", attempt, "kind", kind.String())
			return resp, nil
		}
	}

	p.logger.Warn("backend attempts exhausted", "command", command, "attempts", p.maxAttempts)
	return last, nil
}

func (p *Pipeline) MaxAttempts() int {
	return p.maxAttempts
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
