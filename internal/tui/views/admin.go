package views

import (
	"fmt"

	"github.com/rivo/tview"

	"crafthub/internal/account"
	"crafthub/internal/catalog"
)

// AdminView is the moderation queue: pending products and seller
// verification requests.
type AdminView struct {
	*tview.Table
	products []catalog.Product
	requests []account.VerificationRequest
}

// NewAdminView creates the moderation page.
func NewAdminView() *AdminView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Moderation ")

	return &AdminView{Table: table}
}

// Update refreshes both queues. Products come first, then verification
// requests, separated by a non-selectable divider row.
func (v *AdminView) Update(products []catalog.Product, requests []account.VerificationRequest) {
	v.products = products
	v.requests = requests
	v.Clear()

	row := 0
	v.SetCell(row, 0, tview.NewTableCell(" [::b]Pending products[-:-:-]").SetSelectable(false))
	row++
	for _, p := range products {
		v.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(p.Name)).SetMaxWidth(30).SetExpansion(2))
		v.SetCell(row, 1, tview.NewTableCell(" "+sanitizeForTerminal(p.SellerName)).SetMaxWidth(20).SetExpansion(1))
		v.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf(" %s", p.Price)).SetMaxWidth(12))
		row++
	}

	v.SetCell(row, 0, tview.NewTableCell(" [::b]Seller applications[-:-:-]").SetSelectable(false))
	row++
	for _, r := range requests {
		v.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(r.LegalInfo)).SetMaxWidth(40).SetExpansion(2))
		v.SetCell(row, 1, tview.NewTableCell(" "+r.Status).SetMaxWidth(12))
		v.SetCell(row, 2, tview.NewTableCell(" "+formatWhen(r.CreatedAt)).SetMaxWidth(10))
		row++
	}
}

// SelectedProduct returns the pending product under the cursor, if the
// cursor sits in the product section.
func (v *AdminView) SelectedProduct() (catalog.Product, bool) {
	row, _ := v.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(v.products) {
		return v.products[idx], true
	}
	return catalog.Product{}, false
}

// SelectedRequest returns the verification request under the cursor, if the
// cursor sits in the applications section.
func (v *AdminView) SelectedRequest() (account.VerificationRequest, bool) {
	row, _ := v.GetSelection()
	idx := row - len(v.products) - 2
	if idx >= 0 && idx < len(v.requests) {
		return v.requests[idx], true
	}
	return account.VerificationRequest{}, false
}
