// Package sink defines the outbound port for pushing ledger entries to a
// remote store, plus its concrete backends in subpackages.
package sink

import (
	"context"

	"budgeter/internal/core"
)

// Sink receives unsynced transactions. The transaction's own id is the
// idempotency key: pushing the same transaction twice must overwrite, not
// duplicate, at the remote store. A nil error means the sink confirmed the
// write and the caller may mark the transaction synced.
type Sink interface {
	Push(ctx context.Context, tx core.Transaction) error
}
