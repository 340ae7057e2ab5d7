package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestPageBindingWinsOverGlobal(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'n', Description: "Notifications", Handler: func() { got = append(got, "global") }})
	r.AddPage("Messages", &Action{Key: tcell.KeyRune, Rune: 'n', Description: "Next", Handler: func() { got = append(got, "page") }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone)
	if !r.HandleEvent("Messages", ev) || !r.HandleEvent("Home", ev) {
		t.Fatal("binding not handled")
	}
	if len(got) != 2 || got[0] != "page" || got[1] != "global" {
		t.Errorf("handlers = %v", got)
	}
	if r.HandleEvent("Home", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key handled")
	}
}

func TestHintsKeepOrderAndSkipHidden(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Handler: func() {}})
	r.AddGlobal(&Action{Key: tcell.KeyCtrlC, Description: "Quit", Handler: func() {}, Hidden: true})
	r.AddPage("Messages", &Action{Key: tcell.KeyTab, Label: "Tab", Description: "Switch pane", Handler: func() {}})
	r.AddPage("Messages", &Action{Key: tcell.KeyRune, Rune: 'i', Description: "Compose", Handler: func() {}})

	page, global := r.Hints("Messages")
	if len(page) != 2 || page[0].Key != "Tab" || page[1].Key != "i" {
		t.Errorf("page hints = %+v", page)
	}
	if len(global) != 1 || global[0].Key != "q" {
		t.Errorf("global hints = %+v", global)
	}
}
