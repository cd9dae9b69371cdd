package views

import (
	"fmt"

	"github.com/rivo/tview"

	"crafthub/internal/catalog"
)

// MyProductsView is the seller's own goods table.
type MyProductsView struct {
	*tview.Table
	products []catalog.Product
	onOpen   func(p catalog.Product)
}

// NewMyProductsView creates the seller goods table.
func NewMyProductsView() *MyProductsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" My goods ")

	v := &MyProductsView{Table: table}
	table.SetSelectedFunc(func(row, col int) {
		if p, ok := v.Selected(); ok && v.onOpen != nil {
			v.onOpen(p)
		}
	})
	return v
}

// SetOnOpen sets the callback when a product row is opened for editing.
func (v *MyProductsView) SetOnOpen(fn func(p catalog.Product)) {
	v.onOpen = fn
}

// Update refreshes the table with new data.
func (v *MyProductsView) Update(products []catalog.Product) {
	v.products = products
	v.Clear()

	headers := []string{" Name", " Category", " Price", " Stock"}
	for i, h := range headers {
		v.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	}

	for i, p := range products {
		row := i + 1
		v.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(p.Name)).SetMaxWidth(35).SetExpansion(2))
		v.SetCell(row, 1, tview.NewTableCell(" "+p.CategoryDisplayName).SetMaxWidth(20).SetExpansion(1))
		v.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf(" %s", p.Price)).SetMaxWidth(12))
		v.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf(" %d", p.StockQuantity)).SetMaxWidth(8))
	}
}

// Selected returns the currently selected product.
func (v *MyProductsView) Selected() (catalog.Product, bool) {
	row, _ := v.GetSelection()
	idx := row - 1 // header
	if idx >= 0 && idx < len(v.products) {
		return v.products[idx], true
	}
	return catalog.Product{}, false
}
