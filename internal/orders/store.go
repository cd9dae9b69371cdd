// Package orders tracks purchases and sales. Both lists are projections of
// the last successful fetch; every mutation re-fetches the collection it
// belongs to, never patches it locally.
package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"crafthub/internal/gateway"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusDisputed  Status = "DISPUTED"
)

// Item is one purchased position inside an order.
type Item struct {
	ProductID       int64           `json:"productId"`
	ProductName     string          `json:"productName"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	IsReviewed      bool            `json:"isReviewed"`
}

// Order mirrors the backend's order projection. An order holds the items of
// a single seller; checkout splits a mixed cart into one order per seller.
type Order struct {
	ID              int64           `json:"id"`
	BuyerID         int64           `json:"buyerId"`
	BuyerName       string          `json:"buyerName"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	CreatedAt       string          `json:"createdAt"`
	Items           []Item          `json:"items"`
}

// CheckoutItem names one cart line going into an order.
type CheckoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type checkoutRequest struct {
	ShippingAddress string         `json:"shippingAddress"`
	Items           []CheckoutItem `json:"items"`
}

// Store is the orders store.
type Store struct {
	mu        sync.RWMutex
	api       *gateway.Client
	purchases []Order
	sales     []Order
}

// New creates an orders store.
func New(api *gateway.Client) *Store {
	return &Store{api: api}
}

// FetchPurchases replaces the buyer-side order list.
func (s *Store) FetchPurchases(ctx context.Context) error {
	var orders []Order
	if err := s.api.Get(ctx, "/orders/my-purchases", &orders); err != nil {
		return fmt.Errorf("fetch purchases: %w", err)
	}
	s.mu.Lock()
	s.purchases = orders
	s.mu.Unlock()
	return nil
}

// FetchSales replaces the seller-side order list.
func (s *Store) FetchSales(ctx context.Context) error {
	var orders []Order
	if err := s.api.Get(ctx, "/orders/my-sales", &orders); err != nil {
		return fmt.Errorf("fetch sales: %w", err)
	}
	s.mu.Lock()
	s.sales = orders
	s.mu.Unlock()
	return nil
}

// Checkout creates orders from the given cart lines, one order per seller.
// The server empties the cart as a side effect; the caller re-fetches it.
func (s *Store) Checkout(ctx context.Context, shippingAddress string, items []CheckoutItem) ([]Order, error) {
	var created []Order
	req := checkoutRequest{ShippingAddress: shippingAddress, Items: items}
	if err := s.api.Post(ctx, "/orders", req, &created); err != nil {
		return nil, err
	}
	if err := s.FetchPurchases(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// SetStatus advances a sale through the lifecycle. The server validates the
// transition; a rejected one comes back as an APIError and the list stays
// whatever the last fetch said.
func (s *Store) SetStatus(ctx context.Context, orderID int64, status Status) error {
	if err := s.api.Patch(ctx, fmt.Sprintf("/orders/%d/status?status=%s", orderID, status), nil, nil); err != nil {
		return err
	}
	return s.FetchSales(ctx)
}

// Cancel aborts a purchase with a free-form reason.
func (s *Store) Cancel(ctx context.Context, orderID int64, reason string) error {
	if err := s.api.PostText(ctx, fmt.Sprintf("/orders/%d/cancel", orderID), reason); err != nil {
		return err
	}
	return s.FetchPurchases(ctx)
}

// Dispute opens a dispute on a purchase.
func (s *Store) Dispute(ctx context.Context, orderID int64) error {
	if err := s.api.Post(ctx, fmt.Sprintf("/orders/%d/dispute", orderID), nil, nil); err != nil {
		return err
	}
	return s.FetchPurchases(ctx)
}

// Purchases returns a copy of the buyer-side list.
func (s *Store) Purchases() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.purchases))
	copy(out, s.purchases)
	return out
}

// Sales returns a copy of the seller-side list.
func (s *Store) Sales() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.sales))
	copy(out, s.sales)
	return out
}
