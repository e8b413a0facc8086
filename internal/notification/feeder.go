package notification

import (
	"context"

	"ferre-pos/internal/domain"
	"ferre-pos/internal/stream"

	"go.uber.org/zap"
)

// RunFeeder drains stock-stream events into the store until the context
// ends or the channel closes. Shortage events become stock notifications;
// synthetic connection errors become system notifications.
func RunFeeder(ctx context.Context, events <-chan stream.Event, store *Store, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			category := domain.CategoryStock
			if ev.Kind == stream.KindConnectionError {
				category = domain.CategorySystem
			}

			n := store.Add(ev.Message, category)
			logger.Debug("Notification added",
				zap.Int64("id", n.ID),
				zap.String("category", string(category)),
			)
		}
	}
}
