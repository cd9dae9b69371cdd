// Package reviews posts and reads product reviews. A review is tied to a
// completed order item; the backend rejects duplicates, this client just
// relays its verdict.
package reviews

import (
	"context"
	"errors"
	"fmt"

	"crafthub/internal/gateway"
)

// ErrBadRating is returned before any request is made when the rating falls
// outside the 1..5 scale.
var ErrBadRating = errors.New("rating must be between 1 and 5")

// Review mirrors the backend's review projection.
type Review struct {
	ID         int64  `json:"id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	AuthorName string `json:"authorName"`
	CreatedAt  string `json:"createdAt"`
}

type postRequest struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	ProductID int64  `json:"productId"`
	OrderID   int64  `json:"orderId"`
}

// Client issues review requests through the gateway.
type Client struct {
	api *gateway.Client
}

// New creates a reviews client.
func New(api *gateway.Client) *Client {
	return &Client{api: api}
}

// ByProduct returns a product's reviews, newest first per the backend.
func (c *Client) ByProduct(ctx context.Context, productID int64) ([]Review, error) {
	var reviews []Review
	if err := c.api.Get(ctx, fmt.Sprintf("/reviews/product/%d", productID), &reviews); err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	return reviews, nil
}

// Post submits a review for an order item. Marks the item reviewed
// server-side; the caller re-fetches its order list afterwards.
func (c *Client) Post(ctx context.Context, productID, orderID int64, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrBadRating
	}
	return c.api.Post(ctx, "/reviews", postRequest{
		Rating:    rating,
		Comment:   comment,
		ProductID: productID,
		OrderID:   orderID,
	}, nil)
}

// Report flags a review for moderation.
func (c *Client) Report(ctx context.Context, reviewID int64) error {
	return c.api.Patch(ctx, fmt.Sprintf("/reviews/%d/report", reviewID), nil, nil)
}

// Reported returns the flagged-review queue. Admin only.
func (c *Client) Reported(ctx context.Context) ([]Review, error) {
	var reviews []Review
	if err := c.api.Get(ctx, "/reviews/admin/reported", &reviews); err != nil {
		return nil, fmt.Errorf("fetch reported reviews: %w", err)
	}
	return reviews, nil
}

// Ignore dismisses a report, keeping the review. Admin only.
func (c *Client) Ignore(ctx context.Context, reviewID int64) error {
	return c.api.Patch(ctx, fmt.Sprintf("/reviews/admin/%d/ignore", reviewID), nil, nil)
}

// Delete removes a reported review. Admin only.
func (c *Client) Delete(ctx context.Context, reviewID int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/reviews/admin/%d", reviewID))
}
