// Package dialog implements the conversation state machine. The engine
// consumes text messages and callback actions, mutates sessions and the
// record store, and returns transport-neutral replies; it never talks to
// Telegram itself.
package dialog

// Button is one inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// Keyboard is an inline keyboard layout.
type Keyboard struct {
	Rows [][]Button
}

func row(buttons ...Button) []Button { return buttons }

// Reply is one outgoing message, transport-neutral.
type Reply struct {
	Text     string
	Keyboard *Keyboard
	// MainMenu asks the transport to attach the persistent menu keyboard.
	MainMenu bool
	// Edit asks the transport to edit the triggering message in place
	// instead of sending a new one. Only meaningful for callback replies.
	Edit bool
}

func textReply(text string) Reply { return Reply{Text: text} }

func menuReply(text string) Reply { return Reply{Text: text, MainMenu: true} }

func keyboardReply(text string, kb *Keyboard) Reply {
	return Reply{Text: text, Keyboard: kb}
}

func editReply(text string, kb *Keyboard) Reply {
	return Reply{Text: text, Keyboard: kb, Edit: true}
}
