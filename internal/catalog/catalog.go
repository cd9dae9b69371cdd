// Package catalog is a read-mostly projection of the product catalog.
// Collections are never cached across sessions; each call fetches fresh and
// the display reflects the last successful fetch.
package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"crafthub/internal/gateway"
)

// Product mirrors the backend's product projection.
type Product struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price"`
	StockQuantity       int             `json:"stockQuantity"`
	ImageURL            string          `json:"imageUrl"`
	CategoryDisplayName string          `json:"categoryDisplayName"`
	SellerName          string          `json:"sellerName"`
	SellerEmail         string          `json:"sellerEmail"`
}

// Category is a catalog section.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Draft carries the fields of a product create or update.
type Draft struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    int64           `json:"categoryId"`
}

// Client issues catalog requests through the gateway.
type Client struct {
	api *gateway.Client
}

// New creates a catalog client.
func New(api *gateway.Client) *Client {
	return &Client{api: api}
}

// List returns every active product on the marketplace.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.api.Get(ctx, "/products", &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns one product by id.
func (c *Client) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := c.api.Get(ctx, fmt.Sprintf("/products/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Mine returns the calling seller's own products, all moderation states.
func (c *Client) Mine(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.api.Get(ctx, "/products/my", &products); err != nil {
		return nil, fmt.Errorf("list own products: %w", err)
	}
	return products, nil
}

// Pending returns the moderation queue. Admin only.
func (c *Client) Pending(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.api.Get(ctx, "/products/pending", &products); err != nil {
		return nil, fmt.Errorf("list pending products: %w", err)
	}
	return products, nil
}

// Categories returns the catalog sections.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.api.Get(ctx, "/categories", &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Create submits a new product for moderation. Image upload is a separate
// browser-only flow and is not part of this client.
func (c *Client) Create(ctx context.Context, d Draft) (*Product, error) {
	var p Product
	if err := c.api.Post(ctx, "/products", d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces a product's fields. The product returns to moderation.
func (c *Client) Update(ctx context.Context, id int64, d Draft) error {
	return c.api.Do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), d, nil)
}

// Approve clears a product through moderation. Admin only.
func (c *Client) Approve(ctx context.Context, id int64) error {
	return c.api.PostText(ctx, fmt.Sprintf("/products/%d/approve", id), "")
}

// Reject declines a product with a free-form reason. Admin only.
func (c *Client) Reject(ctx context.Context, id int64, reason string) error {
	return c.api.PostText(ctx, fmt.Sprintf("/products/%d/reject", id), reason)
}
