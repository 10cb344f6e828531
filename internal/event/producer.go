package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/catalog-review/internal/domain"
	pkgkafka "github.com/utafrali/catalog-review/pkg/kafka"
	"github.com/utafrali/catalog-review/pkg/logger"
)

// Topics for review domain events.
var (
	TopicReviewCreated      = pkgkafka.Topic("reviews", "created")
	TopicReviewsDeactivated = pkgkafka.Topic("reviews", "deactivated")
)

const (
	AggregateTypeProduct = "product"
	SourceService        = "catalog-review"
)

// ReviewCreatedData is the payload of a review.created event.
type ReviewCreatedData struct {
	ReviewID    string    `json:"review_id"`
	RatingID    string    `json:"rating_id"`
	ProductID   string    `json:"product_id"`
	ProductSlug string    `json:"product_slug"`
	UserID      string    `json:"user_id"`
	Grade       int       `json:"grade"`
	CommentDate time.Time `json:"comment_date"`
}

// ReviewsDeactivatedData is the payload of a reviews.deactivated event.
type ReviewsDeactivatedData struct {
	ProductID   string `json:"product_id"`
	ProductSlug string `json:"product_slug"`
	Deactivated int    `json:"deactivated"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new review event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishReviewCreated publishes a review.created event keyed by product.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review, productSlug string, grade int) error {
	data := ReviewCreatedData{
		ReviewID:    review.ID,
		RatingID:    review.RatingID,
		ProductID:   review.ProductID,
		ProductSlug: productSlug,
		UserID:      review.UserID,
		Grade:       grade,
		CommentDate: review.CommentDate,
	}
	return p.publish(ctx, TopicReviewCreated, review.ProductID, data)
}

// PublishReviewsDeactivated publishes a reviews.deactivated event.
func (p *Producer) PublishReviewsDeactivated(ctx context.Context, productID, productSlug string, count int) error {
	data := ReviewsDeactivatedData{
		ProductID:   productID,
		ProductSlug: productSlug,
		Deactivated: count,
	}
	return p.publish(ctx, TopicReviewsDeactivated, productID, data)
}

func (p *Producer) publish(ctx context.Context, topic, productID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, productID, AggregateTypeProduct, SourceService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.InfoContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("event_id", evt.EventID),
		slog.String("product_id", productID),
	)
	return nil
}
