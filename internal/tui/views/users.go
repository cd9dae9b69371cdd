package views

import (
	"fmt"

	"github.com/rivo/tview"

	"crafthub/internal/account"
)

// UsersView is the admin's user management table.
type UsersView struct {
	*tview.Table
	users []account.Profile
}

// NewUsersView creates the user management page.
func NewUsersView() *UsersView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Users ")

	return &UsersView{Table: table}
}

// Update refreshes the table with new data.
func (v *UsersView) Update(users []account.Profile) {
	v.users = users
	v.Clear()

	headers := []string{" Name", " Email", " Role", " Rating"}
	for i, h := range headers {
		v.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	}

	for i, u := range users {
		row := i + 1
		v.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(u.FullName)).SetMaxWidth(25).SetExpansion(2))
		v.SetCell(row, 1, tview.NewTableCell(" "+u.Email).SetMaxWidth(30).SetExpansion(2))
		v.SetCell(row, 2, tview.NewTableCell(" "+u.Role).SetMaxWidth(8))
		rating := " -"
		if u.ReviewsCount > 0 {
			rating = fmt.Sprintf(" %.1f (%d)", u.AverageRating, u.ReviewsCount)
		}
		v.SetCell(row, 3, tview.NewTableCell(rating).SetMaxWidth(10))
	}
}

// Selected returns the currently selected user.
func (v *UsersView) Selected() (account.Profile, bool) {
	row, _ := v.GetSelection()
	idx := row - 1 // header
	if idx >= 0 && idx < len(v.users) {
		return v.users[idx], true
	}
	return account.Profile{}, false
}
