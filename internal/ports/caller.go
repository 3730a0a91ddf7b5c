package ports

import (
	"context"

	"github.com/bnema/exati-cli/internal/envelope"
)

// Caller issues one backend command and returns its decoded envelope.
type Caller interface {
	Call(ctx context.Context, command string, fields envelope.Fields) (envelope.Response, error)
}
