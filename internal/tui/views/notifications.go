package views

import (
	"github.com/rivo/tview"

	"crafthub/internal/notify"
)

// NotificationsView lists notifications, unread ones highlighted.
type NotificationsView struct {
	*tview.Table
	list []notify.Notification
}

// NewNotificationsView creates the notifications page.
func NewNotificationsView() *NotificationsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Notifications ")

	return &NotificationsView{Table: table}
}

// Update refreshes the list with new data.
func (v *NotificationsView) Update(list []notify.Notification) {
	v.list = list
	v.Clear()

	for i, n := range list {
		msg := " " + sanitizeForTerminal(n.Message)
		if !n.IsRead {
			msg = " [::b]" + sanitizeForTerminal(n.Message) + "[-:-:-]"
		}
		v.SetCell(i, 0, tview.NewTableCell(msg).SetMaxWidth(70).SetExpansion(2))
		v.SetCell(i, 1, tview.NewTableCell(" "+formatWhen(n.CreatedAt)).SetMaxWidth(8))
	}
}
