package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusData is what the status bar shows.
type StatusData struct {
	Profile      string
	OpenChannels int
	Channels     int
	Streams      map[notify.Kind]string
	Indicators   map[notify.Kind]bool
	Now          time.Time
}

// StatusBar displays profile, connection and unread state on one line.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// Update renders d.
func (sb *StatusBar) Update(d StatusData) {
	sb.Clear()

	var unread []string
	for _, k := range notify.Kinds {
		if d.Indicators[k] {
			unread = append(unread, fmt.Sprintf("[%s]● %s[-]", ui.Hex(sb.theme.IndicatorColor), k))
		}
	}
	var streams []string
	for _, k := range notify.Kinds {
		s := d.Streams[k]
		if s == "" {
			s = "-"
		}
		streams = append(streams, fmt.Sprintf("%s:%s", k, strings.ToLower(s)))
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | chats %d/%d | %s",
		tview.Escape(d.Profile), d.OpenChannels, d.Channels, strings.Join(streams, " "))
	if len(unread) > 0 {
		line += " | " + strings.Join(unread, " ")
	}
	line += " | " + d.Now.Format("15:04")
	_, _ = fmt.Fprint(sb, line)
}
