package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the profile, the signed-in identity, the unread badge
// and transient flash messages.
type StatusBar struct {
	*tview.TextView
	profile  string
	identity string
	unread   int
	cart     int
	flash    string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetIdentity updates the signed-in user display; empty means anonymous.
func (sb *StatusBar) SetIdentity(who string) {
	sb.identity = who
	sb.render()
}

// SetUnread updates the notification badge.
func (sb *StatusBar) SetUnread(n int) {
	sb.unread = n
	sb.render()
}

// SetCartCount updates the cart badge.
func (sb *StatusBar) SetCartCount(n int) {
	sb.cart = n
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	who := sb.identity
	if who == "" {
		who = "anonymous"
	}

	badge := ""
	if sb.unread > 0 {
		badge = fmt.Sprintf(" [red]●%d[-]", sb.unread)
	}
	cart := ""
	if sb.cart > 0 {
		cart = fmt.Sprintf(" | cart:%d", sb.cart)
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s%s%s | %s", sb.profile, who, badge, cart, clock)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
