package views

import (
	"fmt"

	"github.com/rivo/tview"

	"crafthub/internal/catalog"
	"crafthub/internal/reviews"
)

// ProductView shows one product with its reviews.
type ProductView struct {
	*tview.TextView
}

// NewProductView creates the product detail page.
func NewProductView() *ProductView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Product ")

	return &ProductView{TextView: tv}
}

// Update renders the product and its reviews.
func (v *ProductView) Update(p catalog.Product, revs []reviews.Review) {
	v.Clear()
	v.SetTitle(fmt.Sprintf(" %s ", sanitizeForTerminal(p.Name)))

	_, _ = fmt.Fprintf(v, "[::b]%s[-:-:-]\n", sanitizeForTerminal(p.Name))
	_, _ = fmt.Fprintf(v, "%s · %s · stock %d\n", p.CategoryDisplayName, p.Price, p.StockQuantity)
	_, _ = fmt.Fprintf(v, "Seller: %s <%s>\n\n", sanitizeForTerminal(p.SellerName), p.SellerEmail)
	if p.Description != "" {
		_, _ = fmt.Fprintf(v, "%s\n\n", sanitizeForTerminal(p.Description))
	}

	if len(revs) == 0 {
		_, _ = fmt.Fprint(v, "[::d]No reviews yet.[-:-:-]\n")
		return
	}
	_, _ = fmt.Fprintf(v, "[::b]Reviews (%d)[-:-:-]\n\n", len(revs))
	for i, r := range revs {
		stars := ""
		for j := 0; j < r.Rating; j++ {
			stars += "★"
		}
		// Numbered so a review can be named when reporting it.
		_, _ = fmt.Fprintf(v, "[::d]#%d[-:-:-] %s [::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			i+1, stars, sanitizeForTerminal(r.AuthorName), formatWhen(r.CreatedAt), sanitizeForTerminal(r.Comment))
	}
}
