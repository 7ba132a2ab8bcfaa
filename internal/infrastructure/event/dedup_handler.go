package event

import (
	"context"

	"github.com/erp/revrec/internal/domain/shared"
	"go.uber.org/zap"
)

// dedupKeyPrefix keeps event ids apart from record markers in a shared store
const dedupKeyPrefix = "event:"

// DedupHandler passes each event id to the wrapped handler at most once per TTL
type DedupHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
}

var _ shared.EventHandler = (*DedupHandler)(nil)

// NewDedupHandler wraps next with an event id check against store
func NewDedupHandler(next shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *DedupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DedupHandler{next: next, store: store, config: config, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *DedupHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle skips events whose id was already handled.
// A store error does not drop the event; it is handled anyway.
func (h *DedupHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.next.Handle(ctx, e)
	}

	key := dedupKeyPrefix + e.EventID().String()
	fresh, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("Event dedup check failed, handling anyway",
			zap.String("event_id", e.EventID().String()),
			zap.Error(err),
		)
	case !fresh:
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", e.EventID().String()),
			zap.String("event_type", e.EventType()),
		)
		return nil
	}

	return h.next.Handle(ctx, e)
}
