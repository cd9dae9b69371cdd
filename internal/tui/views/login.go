package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"
)

// LoginView is the sign-in page: an email/password form, a token field for
// the OAuth browser hand-off and a QR code of the browser login URL.
type LoginView struct {
	*tview.Flex
	form    *tview.Form
	qrPane  *tview.TextView
	onLogin func(email, password string)
	onToken func(token string)
}

// NewLoginView creates the login page.
func NewLoginView() *LoginView {
	form := tview.NewForm()
	form.SetBorder(true).SetTitle(" Sign in ")

	qrPane := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	qrPane.SetBorder(true).SetTitle(" Browser login ")

	v := &LoginView{form: form, qrPane: qrPane}

	var email, password, token string
	form.AddInputField("Email", "", 40, nil, func(s string) { email = s })
	form.AddPasswordField("Password", "", 40, '*', func(s string) { password = s })
	form.AddButton("Login", func() {
		if v.onLogin != nil {
			v.onLogin(email, password)
		}
	})
	form.AddInputField("Token", "", 40, nil, func(s string) { token = s })
	form.AddButton("Use token", func() {
		if v.onToken != nil && strings.TrimSpace(token) != "" {
			v.onToken(strings.TrimSpace(token))
		}
	})

	v.Flex = tview.NewFlex().
		AddItem(form, 0, 1, true).
		AddItem(qrPane, 0, 1, false)
	return v
}

// SetOnLogin sets the credentials submit callback.
func (v *LoginView) SetOnLogin(fn func(email, password string)) {
	v.onLogin = fn
}

// SetOnToken sets the pasted-token submit callback.
func (v *LoginView) SetOnToken(fn func(token string)) {
	v.onToken = fn
}

// Form returns the focusable form primitive.
func (v *LoginView) Form() *tview.Form {
	return v.form
}

// ShowBrowserLogin renders the OAuth entry URL as a scannable QR code so the
// user can finish login on a phone and paste the token from the callback.
func (v *LoginView) ShowBrowserLogin(url string) {
	v.qrPane.Clear()
	_, _ = fmt.Fprintf(v.qrPane, "\n  Open or scan to sign in with Google:\n\n%s\n  %s\n\n  Paste the token from the callback URL\n  into the Token field.", renderQR(url), url)
}

// ShowMessage displays a status message in the QR pane.
func (v *LoginView) ShowMessage(msg string) {
	v.qrPane.Clear()
	_, _ = fmt.Fprintf(v.qrPane, "\n\n%s", msg)
}

// renderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
