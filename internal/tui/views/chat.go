package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"crafthub/internal/chat"
)

// DialogueList is the conversation list table.
type DialogueList struct {
	*tview.Table
	dialogues []chat.Dialogue
	onOpen    func(d chat.Dialogue)
}

// NewDialogueList creates the dialogue list.
func NewDialogueList() *DialogueList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	v := &DialogueList{Table: table}
	table.SetSelectedFunc(func(row, col int) {
		if d, ok := v.Selected(); ok && v.onOpen != nil {
			v.onOpen(d)
		}
	})
	return v
}

// SetOnOpen sets the callback when a dialogue is opened.
func (v *DialogueList) SetOnOpen(fn func(d chat.Dialogue)) {
	v.onOpen = fn
}

// Update refreshes the list with new data.
func (v *DialogueList) Update(dialogues []chat.Dialogue) {
	v.dialogues = dialogues
	v.Clear()

	headers := []string{" With", " Product", " Last message", " Time"}
	for i, h := range headers {
		v.SetCell(0, i, tview.NewTableCell(h).SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	}

	for i, d := range dialogues {
		row := i + 1
		name := sanitizeForTerminal(d.InterlocutorName)
		if d.UnreadCount > 0 {
			name = fmt.Sprintf("* %s (%d)", name, d.UnreadCount)
		}
		v.SetCell(row, 0, tview.NewTableCell(" "+name).SetMaxWidth(24).SetExpansion(1))
		v.SetCell(row, 1, tview.NewTableCell(" "+sanitizeForTerminal(d.ProductName)).SetMaxWidth(24).SetExpansion(1))
		v.SetCell(row, 2, tview.NewTableCell(" "+sanitizeForTerminal(d.LastMessage)).SetMaxWidth(40).SetExpansion(2))
		v.SetCell(row, 3, tview.NewTableCell(" "+formatWhen(d.LastMessageTime)).SetMaxWidth(8))
	}
}

// Selected returns the selected dialogue.
func (v *DialogueList) Selected() (chat.Dialogue, bool) {
	row, _ := v.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(v.dialogues) {
		return v.dialogues[idx], true
	}
	return chat.Dialogue{}, false
}

// ThreadView displays the messages of one conversation.
type ThreadView struct {
	*tview.TextView
}

// NewThreadView creates the message thread view.
func NewThreadView() *ThreadView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &ThreadView{TextView: tv}
}

// SetWith updates the title with the interlocutor and product.
func (v *ThreadView) SetWith(who, product string) {
	v.SetTitle(fmt.Sprintf(" %s — %s ", sanitizeForTerminal(who), sanitizeForTerminal(product)))
}

// Update refreshes the thread with new messages, oldest first.
func (v *ThreadView) Update(msgs []chat.Message) {
	v.Clear()
	for _, m := range msgs {
		sender := sanitizeForTerminal(m.SenderName)
		if m.IsMine {
			sender = "You"
		}
		_, _ = fmt.Fprintf(v, "[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			sender, formatWhen(m.CreatedAt), sanitizeForTerminal(m.Text))
	}
	v.ScrollToEnd()
}

// Composer is the text input for sending messages.
type Composer struct {
	*tview.InputField
	onSend func(text string)
}

// NewComposer creates a new message composer. Blank input never reaches the
// send callback. The field is not cleared here: the send runs off the UI
// goroutine, and a failure must leave the typed text in place for retry, so
// the owner calls Reset only once the send succeeded.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSend != nil {
			if text := c.GetText(); text != "" {
				c.onSend(text)
			}
		}
	})

	return c
}

// Reset clears the input after a confirmed send.
func (c *Composer) Reset() {
	c.SetText("")
}

// SetOnSend sets the callback when a message is sent.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}
