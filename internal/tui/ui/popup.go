package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/volchat/internal/notify"
	"github.com/rivo/tview"
)

// Flash is a local error line shown next to the popups.
type Flash struct {
	mu      sync.Mutex
	text    string
	expires time.Time
}

// Set shows msg for d.
func (f *Flash) Set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = msg
	f.expires = time.Now().Add(d)
}

// Get returns the current text, or "" once expired.
func (f *Flash) Get(now time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !now.Before(f.expires) {
		return ""
	}
	return f.text
}

// PopupBar renders the presenter's active popups, newest at the bottom.
// Popups in their last second are drawn dimmed.
type PopupBar struct {
	*tview.TextView
	theme *Theme
}

// NewPopupBar creates an empty popup bar.
func NewPopupBar(theme *Theme) *PopupBar {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignRight)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &PopupBar{TextView: tv, theme: theme}
}

// Update renders pops as of now. flash, when set, is drawn first.
func (pb *PopupBar) Update(pops []notify.Popup, flash string, now time.Time) {
	pb.Clear()
	if flash != "" {
		_, _ = fmt.Fprintf(pb, "[%s]%s[-]\n", colorName(pb.theme.FlashErrColor), tview.Escape(flash))
	}
	for _, p := range pops {
		_, _ = fmt.Fprintln(pb, pb.line(p, now))
	}
}

// Height is the number of rows Update needs.
func (pb *PopupBar) Height(pops []notify.Popup, flash string) int {
	n := len(pops)
	if flash != "" {
		n++
	}
	return n
}

func (pb *PopupBar) line(p notify.Popup, now time.Time) string {
	color := pb.theme.PopupGenericColor
	if p.Kind == notify.KindMessage {
		color = pb.theme.PopupMessageColor
	}
	if p.Fading(now) {
		color = pb.theme.PopupFadeColor
	}
	return fmt.Sprintf("[%s::b]%s[-:-:-] [%s]%s[-]",
		colorName(color), tview.Escape(p.Title), colorName(color), tview.Escape(p.Body))
}
