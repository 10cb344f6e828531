package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/catalog-review/pkg/kafka"
)

// RatingRecomputer recomputes the cached rating of a product.
type RatingRecomputer interface {
	RecomputeRating(ctx context.Context, productID string) error
}

// RecomputeHandler returns a handler for reviews.deactivated events that
// refreshes the product rating from its remaining active ratings. Redelivered
// events are filtered through store.
func RecomputeHandler(svc RatingRecomputer, store pkgkafka.IdempotencyStore, logger *slog.Logger) pkgkafka.Handler {
	inner := func(ctx context.Context, evt *pkgkafka.Event) error {
		if evt.EventType != TopicReviewsDeactivated {
			logger.DebugContext(ctx, "ignoring unrelated event", slog.String("event_type", evt.EventType))
			return nil
		}

		var data ReviewsDeactivatedData
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("decode %s payload: %w", evt.EventType, err)
		}
		if data.ProductID == "" {
			logger.WarnContext(ctx, "reviews.deactivated event without product id", slog.String("event_id", evt.EventID))
			return nil
		}

		if err := svc.RecomputeRating(ctx, data.ProductID); err != nil {
			return fmt.Errorf("recompute rating for %s: %w", data.ProductID, err)
		}
		return nil
	}
	return pkgkafka.IdempotentHandler(store, inner, logger)
}
