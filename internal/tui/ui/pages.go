package ui

import "github.com/rivo/tview"

// Pages is a stack of components over tview.Pages. It notifies on every
// stack change.
type Pages struct {
	*tview.Pages
	stack    []Component
	onChange func(stack []Component)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []Component)) {
	p.onChange = fn
}

// Add registers a component without showing it.
func (p *Pages) Add(c Component) {
	p.AddPage(c.Name(), c, true, false)
}

// Push shows c on top of the stack. Pushing the current page is a no-op.
func (p *Pages) Push(c Component) {
	if top := p.Current(); top != nil {
		if top.Name() == c.Name() {
			return
		}
		p.HidePage(top.Name())
	}
	p.stack = append(p.stack, c)
	p.ShowPage(c.Name())
	p.SendToFront(c.Name())
	p.notify()
}

// Pop removes the top page and shows the previous one. The last page is
// never popped. Returns the popped component or nil.
func (p *Pages) Pop() Component {
	if len(p.stack) < 2 {
		return nil
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top.Name())
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current.Name())
	p.SendToFront(current.Name())
	p.notify()
	return top
}

// Current returns the top component, or nil.
func (p *Pages) Current() Component {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the page stack, bottom first.
func (p *Pages) Stack() []Component {
	return append([]Component(nil), p.stack...)
}

// Reset clears the stack and shows only c.
func (p *Pages) Reset(c Component) {
	for _, old := range p.stack {
		p.HidePage(old.Name())
	}
	p.stack = []Component{c}
	p.ShowPage(c.Name())
	p.SendToFront(c.Name())
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
