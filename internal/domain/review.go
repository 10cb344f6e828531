package domain

import (
	"time"
)

// Review is a user's comment on a product, paired with exactly one Rating.
// Review and rating are activated together and deactivated together.
type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	RatingID    string    `json:"rating_id"`
	Comment     string    `json:"comment"`
	CommentDate time.Time `json:"comment_date"`
	IsActive    bool      `json:"is_active"`
}

// ReviewView is the public projection of an active review. Grade is nil when
// the paired rating is missing or no longer active.
type ReviewView struct {
	Comment string `json:"comment"`
	Grade   *int   `json:"grade"`
}
