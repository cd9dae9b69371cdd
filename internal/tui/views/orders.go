package views

import (
	"fmt"

	"github.com/rivo/tview"

	"crafthub/internal/orders"
)

// OrdersView shows orders, switchable between purchases and sales.
type OrdersView struct {
	*tview.Table
	list  []orders.Order
	sales bool
}

// NewOrdersView creates the orders table.
func NewOrdersView() *OrdersView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Purchases ")

	return &OrdersView{Table: table}
}

// ShowSales switches the view between purchases and sales.
func (v *OrdersView) ShowSales(sales bool) {
	v.sales = sales
	if sales {
		v.SetTitle(" Sales ")
	} else {
		v.SetTitle(" Purchases ")
	}
}

// Sales reports which tab is showing.
func (v *OrdersView) Sales() bool {
	return v.sales
}

// Update refreshes the table with new data.
func (v *OrdersView) Update(list []orders.Order) {
	v.list = list
	v.Clear()

	headers := []string{" #", " Status", " Total", " Address", " Items", " Created"}
	for i, h := range headers {
		v.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	}

	for i, o := range list {
		row := i + 1
		v.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf(" %d", o.ID)).SetMaxWidth(8))
		v.SetCell(row, 1, tview.NewTableCell(" "+statusColor(o.Status)).SetMaxWidth(14))
		v.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf(" %s", o.TotalAmount)).SetMaxWidth(12))
		v.SetCell(row, 3, tview.NewTableCell(" "+sanitizeForTerminal(o.ShippingAddress)).SetMaxWidth(30).SetExpansion(1))
		v.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf(" %d", len(o.Items))).SetMaxWidth(8))
		v.SetCell(row, 5, tview.NewTableCell(" "+formatWhen(o.CreatedAt)).SetMaxWidth(10))
	}
}

// Selected returns the selected order.
func (v *OrdersView) Selected() (orders.Order, bool) {
	row, _ := v.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(v.list) {
		return v.list[idx], true
	}
	return orders.Order{}, false
}

func statusColor(s orders.Status) string {
	switch s {
	case orders.StatusPaid:
		return "[blue]" + string(s) + "[-]"
	case orders.StatusShipped:
		return "[yellow]" + string(s) + "[-]"
	case orders.StatusDelivered, orders.StatusCompleted:
		return "[green]" + string(s) + "[-]"
	case orders.StatusCancelled:
		return "[::d]" + string(s) + "[-:-:-]"
	case orders.StatusDisputed:
		return "[red]" + string(s) + "[-]"
	default:
		return string(s)
	}
}
