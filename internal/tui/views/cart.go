package views

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/rivo/tview"

	"crafthub/internal/cart"
)

// CartView is the shopping cart table.
type CartView struct {
	*tview.Table
	items []cart.Line
}

// NewCartView creates the cart table.
func NewCartView() *CartView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Cart ")

	return &CartView{Table: table}
}

// Update refreshes the cart table. Quantities and the total are whatever
// the server last said, including stock clamps.
func (v *CartView) Update(items []cart.Line, total decimal.Decimal) {
	v.items = items
	v.Clear()
	v.SetTitle(fmt.Sprintf(" Cart — total %s ", total))

	headers := []string{" Product", " Price", " Qty", " Stock"}
	for i, h := range headers {
		v.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	}

	for i, line := range items {
		row := i + 1
		qty := fmt.Sprintf(" %d", line.Quantity)
		if line.Quantity >= line.StockQuantity {
			qty = fmt.Sprintf(" [yellow]%d[-]", line.Quantity)
		}
		v.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(line.ProductName)).SetMaxWidth(40).SetExpansion(2))
		v.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf(" %s", line.Price)).SetMaxWidth(12))
		v.SetCell(row, 2, tview.NewTableCell(qty).SetMaxWidth(8))
		v.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf(" %d", line.StockQuantity)).SetMaxWidth(8))
	}
}

// Selected returns the selected cart line.
func (v *CartView) Selected() (cart.Line, bool) {
	row, _ := v.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(v.items) {
		return v.items[idx], true
	}
	return cart.Line{}, false
}
