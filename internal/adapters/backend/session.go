package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandLogin = "Login"

	loginPlatformKey = "CMD_PLATAFORM"
	loginPlatform    = "GUIA"
	authTokenKey     = "AUTH_TOKEN"
)

var errSessionNotOpen = errors.New("session is not open")

// Credentials is the pre-shared user:password pair used once at login.
type Credentials struct {
	Username string
	Password string
}

func ParseCredentials(raw string) (Credentials, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Credentials{}, fmt.Errorf("%w: credentials are empty", domain.ErrAuthentication)
	}

	username, password, ok := strings.Cut(trimmed, ":")
	if !ok || username == "" {
		return Credentials{}, fmt.Errorf("%w: credentials must be in user:password form", domain.ErrAuthentication)
	}

	return Credentials{Username: username, Password: password}, nil
}

func (c Credentials) String() string {
	return c.Username + ":" + c.Password
}

func (c Credentials) BasicAuthorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.String()))
}

// Session holds the backend token obtained at Open. The token is attached,
// without a scheme prefix, to every later call.
type Session struct {
	pipeline *Pipeline
	token    string
}

var _ ports.Caller = (*Session)(nil)

func Open(ctx context.Context, pipeline *Pipeline, credentials Credentials) (*Session, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline is nil", domain.ErrAuthentication)
	}
	if credentials.Username == "" {
		return nil, fmt.Errorf("%w: credentials are empty", domain.ErrAuthentication)
	}

	resp, err := pipeline.Send(ctx, credentials.BasicAuthorization(), CommandLogin, envelope.Fields{
		loginPlatformKey: loginPlatform,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: login: %w", domain.ErrAuthentication, err)
	}

	raw, _ := resp.Field(authTokenKey)
	token, _ := envelope.String(raw)
	if strings.TrimSpace(token) == "" {
		if messages, ok := resp.Messages(); ok && len(messages.Errors) > 0 {
			return nil, fmt.Errorf("%w: login rejected: %s", domain.ErrAuthentication, messages.Errors[len(messages.Errors)-1])
		}
		return nil, fmt.Errorf("%w: login response missing auth token", domain.ErrAuthentication)
	}

	return &Session{pipeline: pipeline, token: token}, nil
}

func (s *Session) Call(ctx context.Context, command string, fields envelope.Fields) (envelope.Response, error) {
	if s == nil || s.token == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthentication, errSessionNotOpen)
	}
	return s.pipeline.Send(ctx, s.token, command, fields)
}
