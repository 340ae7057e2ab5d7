package keys

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/volchat/internal/tui/ui"
)

// Action is a keybinding.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string // key as shown in the menu
	Description string
	Handler     func()
	Hidden      bool
}

// Matches reports whether ev triggers the action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

func (a *Action) hint() ui.MenuHint {
	label := a.Label
	if label == "" {
		if a.Key == tcell.KeyRune {
			label = string(a.Rune)
		} else {
			label = tcell.KeyNames[a.Key]
		}
	}
	return ui.MenuHint{Key: label, Description: a.Description}
}

// Registry holds global and per-page keybindings in registration order.
type Registry struct {
	global []*Action
	pages  map[string][]*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]*Action)}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddPage registers a binding active on one page. Page bindings win over
// global ones with the same key.
func (r *Registry) AddPage(page string, a *Action) {
	r.pages[page] = append(r.pages[page], a)
}

// Hints returns the visible page hints and global hints.
func (r *Registry) Hints(page string) (pageHints, global []ui.MenuHint) {
	for _, a := range r.pages[page] {
		if !a.Hidden {
			pageHints = append(pageHints, a.hint())
		}
	}
	for _, a := range r.global {
		if !a.Hidden {
			global = append(global, a.hint())
		}
	}
	return pageHints, global
}

// HandleEvent runs the first binding matching ev on page. Returns true if
// one matched.
func (r *Registry) HandleEvent(page string, ev *tcell.EventKey) bool {
	for _, a := range r.pages[page] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
