package ui

import (
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is a page of the TUI.
type Component interface {
	tview.Primitive
	Name() string
	// Screen is the client section the page belongs to. Overlay pages
	// return "" and leave the current section unchanged.
	Screen() view.Screen
	Hints() []MenuHint
}
