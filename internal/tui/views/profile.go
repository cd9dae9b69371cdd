package views

import (
	"fmt"

	"github.com/rivo/tview"

	"crafthub/internal/account"
)

// ProfileView shows the signed-in user's profile and, for sellers, the
// dashboard numbers.
type ProfileView struct {
	*tview.TextView
}

// NewProfileView creates the profile page.
func NewProfileView() *ProfileView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Profile ")

	return &ProfileView{TextView: tv}
}

// Update renders the profile; stats may be nil for non-sellers.
func (v *ProfileView) Update(p *account.Profile, stats *account.SellerStats) {
	v.Clear()
	if p == nil {
		_, _ = fmt.Fprint(v, "\n  Not signed in.")
		return
	}

	_, _ = fmt.Fprintf(v, "[::b]%s[-:-:-] <%s>\n", sanitizeForTerminal(p.FullName), p.Email)
	_, _ = fmt.Fprintf(v, "Role: %s", p.Role)
	if p.PhoneNumber != "" {
		_, _ = fmt.Fprintf(v, " · %s", p.PhoneNumber)
	}
	_, _ = fmt.Fprint(v, "\n")
	if p.ReviewsCount > 0 {
		_, _ = fmt.Fprintf(v, "Rating: %.1f (%d reviews)\n", p.AverageRating, p.ReviewsCount)
	}
	if p.Bio != "" {
		_, _ = fmt.Fprintf(v, "\n%s\n", sanitizeForTerminal(p.Bio))
	}

	if stats != nil {
		_, _ = fmt.Fprintf(v, "\n[::b]Sales[-:-:-]\nRevenue: %s · Orders: %d · Rating: %.1f\n",
			stats.TotalRevenue, stats.TotalSales, stats.AverageRating)
		for _, tp := range stats.TopProducts {
			_, _ = fmt.Fprintf(v, "  %s — %d sold\n", sanitizeForTerminal(tp.Name), tp.SalesCount)
		}
	}
}

// UpdateAdmin renders the profile with the platform dashboard instead of the
// seller one.
func (v *ProfileView) UpdateAdmin(p *account.Profile, stats *account.AdminStats) {
	v.Update(p, nil)
	if stats == nil {
		return
	}
	_, _ = fmt.Fprintf(v, "\n[::b]Platform[-:-:-]\nGMV: %s · Users: %d · Sellers: %d · Products: %d\n",
		stats.TotalGMV, stats.TotalUsers, stats.TotalSellers, stats.TotalProducts)
	if stats.ActiveDisputes > 0 {
		_, _ = fmt.Fprintf(v, "[red]Active disputes: %d[-]\n", stats.ActiveDisputes)
	}
}
