// Package tui is the terminal front end of a running client.
package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/tui/keys"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/tui/views"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

const (
	// scrollSettle lets the new bubble lay out before jumping to it.
	scrollSettle = 100 * time.Millisecond
	tickInterval = 500 * time.Millisecond
	flashTTL     = 5 * time.Second
	searchLimit  = 100
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	core     *core.Core
	profile  string
	theme    *ui.Theme
	registry *keys.Registry
	flash    ui.Flash

	root        *tview.Flex
	pages       *ui.Pages
	crumbs      *ui.Crumbs
	menu        *ui.Menu
	profileInfo *ui.ProfileInfo
	popups      *ui.PopupBar
	prompt      *ui.Prompt
	statusBar   *views.StatusBar

	home     *views.HomeView
	messages *views.MessagesPage
	notifs   *views.NotificationsView
	search   *views.SearchView
	help     *views.HelpView

	// Touched only on the tview goroutine.
	names      map[string]string
	lastScroll uint64
	lastShown  uint64
	promptPrev tview.Primitive

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp creates the TUI over a started core.
func NewApp(c *core.Core, profile string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		core:        c,
		profile:     profile,
		theme:       theme,
		registry:    keys.NewRegistry(),
		pages:       ui.NewPages(),
		crumbs:      ui.NewCrumbs(theme),
		menu:        ui.NewMenu(theme),
		profileInfo: ui.NewProfileInfo(theme),
		popups:      ui.NewPopupBar(theme),
		prompt:      ui.NewPrompt(theme),
		statusBar:   views.NewStatusBar(theme),
		home:        views.NewHomeView(theme),
		messages:    views.NewMessagesPage(theme),
		notifs:      views.NewNotificationsView(theme),
		help:        views.NewHelpView(theme),
		names:       make(map[string]string),
		ctx:         ctx,
		cancel:      cancel,
	}
	a.search = views.NewSearchView(theme, a.displayName)

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'm', Description: "Messages",
		Handler: func() { a.show(a.messages) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'n', Description: "Notifications",
		Handler: func() { a.show(a.notifs) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'h', Description: "Home",
		Handler: func() { a.pages.Reset(a.home) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: ':', Description: "Command",
		Handler: func() { a.activatePrompt(ui.PromptCommand) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: '?', Description: "Search",
		Handler: func() { a.activatePrompt(ui.PromptSearch) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'H', Description: "Help",
		Handler: func() { a.show(a.help) }})
	a.registry.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit",
		Handler: a.app.Stop})

	page := a.messages.Name()
	a.registry.AddPage(page, &keys.Action{Key: tcell.KeyRune, Rune: '/', Description: "Filter",
		Handler: func() { a.activatePrompt(ui.PromptFilter) }})
	a.registry.AddPage(page, &keys.Action{Key: tcell.KeyTab, Label: "Tab", Description: "Switch pane",
		Handler: a.togglePane})
	a.registry.AddPage(page, &keys.Action{Key: tcell.KeyRune, Rune: 'i', Description: "Compose",
		Handler: a.focusComposer})
	for n := 1; n <= 9; n++ {
		a.registry.AddPage(page, &keys.Action{Key: tcell.KeyRune, Rune: rune('0' + n), Hidden: true,
			Handler: func() {
				if id := a.messages.List.ConversationByIndex(n); id != "" {
					a.openConversation(id)
				}
			}})
	}
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(stack []ui.Component) {
		top := stack[len(stack)-1]
		if sc := top.Screen(); sc != "" {
			a.core.SetScreen(sc)
		}
		a.app.SetFocus(top)
		a.updateChrome()
	})

	a.messages.List.SetSelectedFunc(func(row, _ int) {
		if id := a.messages.List.ConversationByIndex(row); id != "" {
			a.openConversation(id)
		}
	})

	a.messages.Thread.SetOnSend(func(text string) {
		id := a.messages.Thread.ConversationID()
		if id == "" {
			return
		}
		if err := a.core.Send(id, text); err != nil {
			a.flash.Set("Send failed: "+err.Error(), flashTTL)
			a.refresh()
		}
	})

	a.search.SetSelectedFunc(func(_, _ int) {
		if id := a.search.SelectedConversation(); id != "" {
			a.openConversation(id)
		}
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		case ui.PromptFilter:
			a.messages.List.SetFilter(text)
		case ui.PromptSearch:
			a.runSearch(text)
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)
}

func (a *App) setupLayout() {
	for _, c := range []ui.Component{a.home, a.messages, a.notifs, a.search, a.help} {
		a.pages.Add(c)
	}

	header := tview.NewFlex().
		AddItem(a.profileInfo, 0, 2, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 20, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.popups, 0, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	focused := a.app.GetFocus()
	if focused == a.prompt.InputField {
		return ev
	}
	if focused == a.messages.Thread.Composer() {
		if ev.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.messages.Thread.Messages())
			return nil
		}
		return ev
	}

	top := a.pages.Current()
	if ev.Key() == tcell.KeyEscape {
		if top == a.messages && a.messages.List.Filter() != "" {
			a.messages.List.ClearFilter()
			return nil
		}
		a.pages.Pop()
		return nil
	}
	if top != nil && a.registry.HandleEvent(top.Name(), ev) {
		return nil
	}
	return ev
}

// show pushes c, or pops back to it when it is already on the stack.
func (a *App) show(c ui.Component) {
	for _, s := range a.pages.Stack() {
		if s.Name() == c.Name() {
			for a.pages.Current().Name() != c.Name() {
				a.pages.Pop()
			}
			return
		}
	}
	a.pages.Push(c)
}

func (a *App) openConversation(id string) {
	if err := a.core.Select(id); err != nil {
		a.flash.Set(err.Error(), flashTTL)
		a.refresh()
		return
	}
	a.show(a.messages)
	a.refresh()
	a.app.SetFocus(a.messages.Thread.Messages())
}

func (a *App) togglePane() {
	if a.app.GetFocus() == a.messages.List {
		a.app.SetFocus(a.messages.Thread.Messages())
	} else {
		a.app.SetFocus(a.messages.List)
	}
}

func (a *App) focusComposer() {
	if a.messages.Thread.ComposeVisible() {
		a.app.SetFocus(a.messages.Thread.Composer())
	}
}

func (a *App) activatePrompt(mode ui.PromptMode) {
	a.promptPrev = a.app.GetFocus()
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	if a.promptPrev != nil {
		a.app.SetFocus(a.promptPrev)
		a.promptPrev = nil
	}
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.app.Stop()
	case "help":
		a.show(a.help)
	case "home":
		a.pages.Reset(a.home)
	case "messages":
		a.show(a.messages)
	case "notifications":
		a.show(a.notifs)
	case "search":
		a.runSearch(cmd.Args)
	case "open":
		id := a.messages.List.FindByName(cmd.Args)
		if id == "" {
			a.flash.Set(fmt.Sprintf("No conversation matches %q", cmd.Args), flashTTL)
			return
		}
		a.openConversation(id)
	case "connect":
		if _, err := a.core.Connect(cmd.Args); err != nil {
			a.flash.Set("Connect failed: "+err.Error(), flashTTL)
			return
		}
		a.openConversation(cmd.Args)
	default:
		a.flash.Set(fmt.Sprintf("Unknown command %q", cmd.Name), flashTTL)
	}
}

func (a *App) runSearch(query string) {
	if query == "" {
		return
	}
	results, err := a.core.Search(query, "", searchLimit)
	if err != nil {
		a.flash.Set("Search failed: "+err.Error(), flashTTL)
		return
	}
	a.search.Update(query, results)
	a.show(a.search)
}

func (a *App) displayName(id string) string {
	if name, ok := a.names[id]; ok && name != "" {
		return name
	}
	return id
}

// refresh redraws every view from the core. Runs on the tview goroutine.
func (a *App) refresh() {
	now := time.Now()
	frame := view.Render(a.core.State().Snapshot(), a.core.Avatars(), nil)
	convs := a.core.Conversations()
	st := a.core.Status()

	unseen := 0
	for _, c := range convs {
		a.names[c.ID] = c.DisplayName
		if c.Unseen {
			unseen++
		}
	}
	a.messages.List.Update(convs)
	a.messages.Thread.Update(frame)
	if shown := a.core.Presenter().Shown(); shown != a.lastShown {
		a.lastShown = shown
		a.notifs.Update(a.core.Presenter().History())
	}
	if frame.ScrollSeq != a.lastScroll {
		a.lastScroll = frame.ScrollSeq
		time.AfterFunc(scrollSettle, func() {
			a.app.QueueUpdateDraw(a.messages.Thread.ScrollToEnd)
		})
	}

	open := 0
	for _, ch := range st.Channels {
		if ch.State == status.Open {
			open++
		}
	}
	streams := make(map[notify.Kind]string, len(st.Notifications))
	for k, s := range st.Notifications {
		streams[k] = string(s)
	}

	a.home.Update(views.HomeData{Indicators: st.Indicators, Notifications: streams, Unseen: unseen})
	a.profileInfo.Update(ui.ProfileData{
		Profile:       st.Profile,
		UserID:        st.UserID,
		BaseURL:       st.BaseURL,
		Conversations: len(convs),
		OpenChannels:  open,
		Channels:      len(st.Channels),
		Uptime:        now.Sub(st.StartedAt),
	})
	a.statusBar.Update(views.StatusData{
		Profile:      a.profile,
		OpenChannels: open,
		Channels:     len(st.Channels),
		Streams:      streams,
		Indicators:   st.Indicators,
		Now:          now,
	})

	pops := a.core.Presenter().Active()
	flash := a.flash.Get(now)
	a.popups.Update(pops, flash, now)
	a.root.ResizeItem(a.popups, a.popups.Height(pops, flash), 0)

	a.updateChrome()
}

func (a *App) updateChrome() {
	top := a.pages.Current()
	if top == nil {
		return
	}
	ind := a.core.Indicators().Snapshot()
	names := make([]string, 0, len(a.pages.Stack()))
	for _, c := range a.pages.Stack() {
		names = append(names, c.Name())
	}
	a.crumbs.Update(names, map[string]bool{
		a.notifs.Name():   ind[notify.KindGeneric],
		a.messages.Name(): ind[notify.KindMessage],
	})
	pageHints, global := a.registry.Hints(top.Name())
	a.menu.Update(append(top.Hints(), pageHints...), global)
}

// Run starts the TUI. Blocks until the user quits.
func (a *App) Run() error {
	a.pages.Reset(a.home)
	a.refresh()

	state := a.core.State()
	watch := a.core.Presenter().Watch()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-state.RefreshCh():
				a.app.QueueUpdateDraw(a.refresh)
			case <-watch:
				a.app.QueueUpdateDraw(a.refresh)
			case <-ticker.C:
				a.app.QueueUpdateDraw(a.refresh)
			}
		}
	}()

	err := a.app.Run()
	a.cancel()
	a.wg.Wait()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
