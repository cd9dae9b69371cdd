// Package account covers authentication and the user-facing profile surface:
// login, registration, profile edits, seller verification decisions, admin
// user management and the statistics dashboards.
package account

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"crafthub/internal/gateway"
	"crafthub/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse matches POST /auth/login.
type loginResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Registration carries the fields of POST /auth/register.
type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

// Profile mirrors GET /users/me.
type Profile struct {
	ID            int64   `json:"id"`
	Email         string  `json:"email"`
	FullName      string  `json:"fullName"`
	PhoneNumber   string  `json:"phoneNumber"`
	Role          string  `json:"role"`
	AvatarURL     string  `json:"avatarUrl"`
	Bio           string  `json:"bio"`
	AverageRating float64 `json:"averageRating"`
	ReviewsCount  int     `json:"reviewsCount"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Bio         string `json:"bio"`
}

type passwordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// VerificationRequest is one entry of the seller verification queue.
type VerificationRequest struct {
	ID        int64  `json:"id"`
	LegalInfo string `json:"legalInfo"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type verificationDecision struct {
	Reason string `json:"reason"`
}

// ChartPoint is one sample of a dashboard time series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	Name       string `json:"name"`
	SalesCount int64  `json:"salesCount"`
}

// SellerStats mirrors GET /stats/seller.
type SellerStats struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalSales    int64           `json:"totalSales"`
	AverageRating float64         `json:"averageRating"`
	SalesHistory  []ChartPoint    `json:"salesHistory"`
	TopProducts   []TopProduct    `json:"topProducts"`
}

// AdminStats mirrors GET /stats/admin.
type AdminStats struct {
	TotalGMV       decimal.Decimal `json:"totalGmv"`
	TotalUsers     int64           `json:"totalUsers"`
	TotalSellers   int64           `json:"totalSellers"`
	TotalProducts  int64           `json:"totalProducts"`
	PlatformGrowth []ChartPoint    `json:"platformGrowth"`
	ActiveDisputes int64           `json:"activeDisputes"`
}

// Client ties the auth endpoints to the session store: a successful login
// lands in the session, everything else reads through the bearer it set.
type Client struct {
	api      *gateway.Client
	sessions *session.Store
}

// New creates an account client.
func New(api *gateway.Client, sessions *session.Store) *Client {
	return &Client{api: api, sessions: sessions}
}

// Login exchanges credentials for a token and installs the returned identity
// in the session. Identity and token are persisted as one record.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp loginResponse
	if err := c.api.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return err
	}
	return c.sessions.SetAuth(session.Identity{
		Email:    resp.Email,
		FullName: resp.FullName,
		Role:     session.Role(resp.Role),
	}, resp.Token)
}

// Register creates an account. The user logs in separately afterwards.
func (c *Client) Register(ctx context.Context, r Registration) error {
	return c.api.Post(ctx, "/auth/register", r, nil)
}

// AdoptToken validates a token obtained out-of-band (the OAuth browser
// hand-off prints one in the callback URL) by probing /users/me with it,
// then installs it in the session.
func (c *Client) AdoptToken(ctx context.Context, token string) error {
	var p Profile
	if err := c.api.DoWithToken(ctx, http.MethodGet, "/users/me", token, nil, &p); err != nil {
		return fmt.Errorf("validate token: %w", err)
	}
	return c.sessions.SetAuth(session.Identity{
		Email:    p.Email,
		FullName: p.FullName,
		Role:     session.Role(p.Role),
	}, token)
}

// Logout clears the session. Purely local, the token is stateless.
func (c *Client) Logout() error {
	return c.sessions.Logout()
}

// Me returns the authenticated user's full profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.api.Get(ctx, "/users/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile edits the profile, then re-fetches it so the caller shows
// server truth rather than the submitted form.
func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (*Profile, error) {
	if err := c.api.Patch(ctx, "/users/me", u, nil); err != nil {
		return nil, err
	}
	return c.Me(ctx)
}

// ChangePassword rotates the password. The current token stays valid.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.api.Post(ctx, "/users/me/password", passwordChange{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// PendingVerifications returns the seller verification queue. Admin only.
func (c *Client) PendingVerifications(ctx context.Context) ([]VerificationRequest, error) {
	var reqs []VerificationRequest
	if err := c.api.Get(ctx, "/verification/pending", &reqs); err != nil {
		return nil, fmt.Errorf("fetch verification queue: %w", err)
	}
	return reqs, nil
}

// ApproveVerification grants the applicant the seller role. Admin only.
func (c *Client) ApproveVerification(ctx context.Context, id int64) error {
	return c.api.Post(ctx, fmt.Sprintf("/verification/%d/approve", id), struct{}{}, nil)
}

// RejectVerification declines an application with a reason. Admin only.
func (c *Client) RejectVerification(ctx context.Context, id int64, reason string) error {
	return c.api.Post(ctx, fmt.Sprintf("/verification/%d/reject", id), verificationDecision{Reason: reason}, nil)
}

// SellerStats returns the seller dashboard numbers.
func (c *Client) SellerStats(ctx context.Context) (*SellerStats, error) {
	var s SellerStats
	if err := c.api.Get(ctx, "/stats/seller", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AdminStats returns the platform dashboard numbers. Admin only.
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var s AdminStats
	if err := c.api.Get(ctx, "/stats/admin", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Users lists every account on the platform. Admin only.
func (c *Client) Users(ctx context.Context) ([]Profile, error) {
	var users []Profile
	if err := c.api.Get(ctx, "/admin/users", &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ToggleUserStatus blocks or unblocks an account. Admin only.
func (c *Client) ToggleUserStatus(ctx context.Context, userID int64) error {
	return c.api.Patch(ctx, fmt.Sprintf("/admin/users/%d/status", userID), nil, nil)
}

// SetUserRole changes an account's role. Admin only.
func (c *Client) SetUserRole(ctx context.Context, userID int64, role session.Role) error {
	return c.api.Patch(ctx, fmt.Sprintf("/admin/users/%d/role?role=%s", userID, role), nil, nil)
}
