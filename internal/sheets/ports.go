package sheets

import (
	"context"

	"expenses/internal/core"
)

// Ports for outbound adapters.
type (
	EntryAppender interface {
		Append(ctx context.Context, e core.Entry) (rowRef string, err error)
	}
)
