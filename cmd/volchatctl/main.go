package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/matheus3301/volchat/internal/config"
	"github.com/matheus3301/volchat/internal/control"
	"github.com/matheus3301/volchat/internal/lock"
	"github.com/matheus3301/volchat/internal/session"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	profileName := session.Resolve(*profileFlag)
	if err := session.ValidateName(profileName); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Commands that do not need a running client.
	switch args[0] {
	case "profiles":
		cmdProfiles(*jsonFlag)
		return
	case "profile":
		cmdProfileSet(profileName, args[1:])
		return
	}

	c := control.Dial(session.SocketPath(profileName))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := printer{json: *jsonFlag}
	switch args[0] {
	case "status":
		resp, err := c.Status(ctx)
		check(profileName, err)
		out.status(resp)
	case "conversations", "convs":
		resp, err := c.Conversations(ctx)
		check(profileName, err)
		out.conversations(resp)
	case "messages":
		fs := flag.NewFlagSet("messages", flag.ExitOnError)
		limit := fs.Int("limit", 50, "maximum messages")
		id := subArgs(fs, args[1:], 1, "messages [--limit n] <conversation>")[0]
		resp, err := c.Messages(ctx, id, *limit)
		check(profileName, err)
		out.messages(resp)
	case "select":
		id := subArgs(flag.NewFlagSet("select", flag.ExitOnError), args[1:], 1, "select <conversation>")[0]
		check(profileName, c.Select(ctx, id))
		out.ok("selected " + id)
	case "connect":
		id := subArgs(flag.NewFlagSet("connect", flag.ExitOnError), args[1:], 1, "connect <conversation>")[0]
		resp, err := c.Connect(ctx, id)
		check(profileName, err)
		if out.json {
			out.encode(resp)
			return
		}
		fmt.Printf("%s conn=%s state=%s\n", resp.ConversationID, resp.ConnID, strings.ToLower(resp.State))
	case "send":
		rest := subArgs(flag.NewFlagSet("send", flag.ExitOnError), args[1:], 2, "send <conversation> <text...>")
		check(profileName, c.Send(ctx, rest[0], strings.Join(rest[1:], " ")))
		out.ok("queued")
	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		conv := fs.String("conversation", "", "only search this conversation")
		limit := fs.Int("limit", 20, "maximum results")
		rest := subArgs(fs, args[1:], 1, "search [--conversation id] [--limit n] <text...>")
		resp, err := c.Search(ctx, strings.Join(rest, " "), *conv, *limit)
		check(profileName, err)
		out.search(resp)
	case "clear":
		kind := subArgs(flag.NewFlagSet("clear", flag.ExitOnError), args[1:], 1, "clear <generic|message>")[0]
		resp, err := c.ClearIndicator(ctx, kind)
		check(profileName, err)
		if out.json {
			out.encode(resp)
			return
		}
		fmt.Printf("%s indicator cleared: %v\n", resp.Kind, resp.Cleared)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: volchatctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                     Show connection status")
	fmt.Fprintln(os.Stderr, "  conversations              List conversations")
	fmt.Fprintln(os.Stderr, "  messages <id>              Show archived messages")
	fmt.Fprintln(os.Stderr, "  select <id>                Make a conversation active")
	fmt.Fprintln(os.Stderr, "  connect <id>               Open a conversation's channel")
	fmt.Fprintln(os.Stderr, "  send <id> <text>           Send a message")
	fmt.Fprintln(os.Stderr, "  search <text>              Search the archive")
	fmt.Fprintln(os.Stderr, "  clear <generic|message>    Clear an unread indicator")
	fmt.Fprintln(os.Stderr, "  profiles                   List known profiles")
	fmt.Fprintln(os.Stderr, "  profile --base-url URL --user-id ID [--default]")
	fmt.Fprintln(os.Stderr, "                             Create or update the profile in config.toml")
}

func subArgs(fs *flag.FlagSet, args []string, min int, usage string) []string {
	_ = fs.Parse(args)
	if fs.NArg() < min {
		fmt.Fprintf(os.Stderr, "usage: volchatctl %s\n", usage)
		os.Exit(1)
	}
	return fs.Args()
}

func check(profile string, err error) {
	if err == nil {
		return
	}
	if _, ok := err.(*control.APIError); !ok {
		fail(fmt.Errorf("cannot reach client for profile %q (is volchat or volchatd running?): %w", profile, err))
	}
	fail(err)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

type printer struct {
	json bool
}

func (p printer) encode(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func (p printer) ok(msg string) {
	if p.json {
		p.encode(map[string]string{"result": msg})
		return
	}
	fmt.Println(msg)
}

func (p printer) status(s *control.StatusResponse) {
	if p.json {
		p.encode(s)
		return
	}
	fmt.Printf("Profile: %s\n", s.Profile)
	fmt.Printf("User:    %s\n", s.UserID)
	fmt.Printf("Server:  %s\n", s.BaseURL)
	fmt.Printf("Uptime:  %s\n", s.Uptime)
	fmt.Printf("Screen:  %s\n", s.Screen)
	if s.Active != "" {
		fmt.Printf("Active:  %s\n", s.Active)
	}
	for _, k := range []string{"generic", "message"} {
		unread := ""
		if s.Indicators[k] {
			unread = " (unread)"
		}
		fmt.Printf("Notify %-8s %s%s\n", k+":", strings.ToLower(s.Notifications[k]), unread)
	}
	fmt.Printf("Popups:  %d\n", s.Popups)
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "CONVERSATION\tCONN\tSTATE")
	for _, ch := range s.Channels {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ch.ConversationID, ch.ConnID, strings.ToLower(ch.State))
	}
	_ = w.Flush()
}

func (p printer) conversations(convs []control.Conversation) {
	if p.json {
		p.encode(convs)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMSGS\tLINK\t")
	for _, c := range convs {
		flags := ""
		if c.Active {
			flags += " active"
		}
		if c.Unseen {
			flags += " unseen"
		}
		state := strings.ToLower(c.State)
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", c.ID, c.DisplayName, c.MessageCount, state, strings.TrimSpace(flags))
	}
	_ = w.Flush()
}

func (p printer) messages(msgs []control.Message) {
	if p.json {
		p.encode(msgs)
		return
	}
	for _, m := range msgs {
		sender := m.SenderName
		if sender == "" {
			sender = m.Sender
		}
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), sender, m.Body)
	}
}

func (p printer) search(hits []control.SearchHit) {
	if p.json {
		p.encode(hits)
		return
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, h := range hits {
		fmt.Printf("%s [%s] %s\n", h.Message.ConversationID, h.Message.Timestamp.Local().Format("2006-01-02 15:04"), h.Snippet)
	}
}

type profileInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
	BaseURL string `json:"base_url,omitempty"`
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
}

func cmdProfiles(jsonOut bool) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		cfg = &config.Config{}
	}
	names := make(map[string]bool)
	for name := range cfg.Profiles {
		names[name] = true
	}
	entries, _ := os.ReadDir(filepath.Join(session.BaseDir(), "profiles"))
	for _, e := range entries {
		if e.IsDir() {
			names[e.Name()] = true
		}
	}

	defaultName := session.Resolve("")
	var infos []profileInfo
	for name := range names {
		info := profileInfo{Name: name, Default: name == defaultName, BaseURL: cfg.Profiles[name].BaseURL}
		if li, err := lock.Read(session.Dir(name)); err == nil && processAlive(li.PID) {
			info.Running, info.PID = true, li.PID
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	if jsonOut {
		printer{json: true}.encode(infos)
		return
	}
	if len(infos) == 0 {
		fmt.Println("No profiles found.")
		return
	}
	for _, p := range infos {
		mark := " "
		if p.Default {
			mark = "*"
		}
		state := "stopped"
		if p.Running {
			state = fmt.Sprintf("running pid %d", p.PID)
		}
		fmt.Printf("%s %-16s %-32s %s\n", mark, p.Name, p.BaseURL, state)
	}
}

// processAlive reports whether pid exists. A crashed client leaves its
// lock file behind.
func processAlive(pid int) bool {
	return pid > 0 && syscall.Kill(pid, 0) == nil
}

func cmdProfileSet(name string, args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	baseURL := fs.String("base-url", "", "server base URL")
	userID := fs.String("user-id", "", "signed-in account id")
	cookie := fs.String("session-cookie", "", "sessionid cookie value")
	csrf := fs.String("csrf-token", "", "csrftoken cookie value")
	makeDefault := fs.Bool("default", false, "make this the default profile")
	_ = fs.Parse(args)

	path := session.ConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fail(err)
		}
		cfg = &config.Config{}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]config.Profile)
	}
	p := cfg.Profiles[name]
	for dst, v := range map[*string]string{&p.BaseURL: *baseURL, &p.UserID: *userID, &p.SessionCookie: *cookie, &p.CSRFToken: *csrf} {
		if v != "" {
			*dst = v
		}
	}
	cfg.Profiles[name] = p
	if *makeDefault || cfg.DefaultProfile == "" {
		cfg.DefaultProfile = name
	}
	if err := config.Save(path, cfg); err != nil {
		fail(err)
	}
	fmt.Printf("profile %q saved to %s\n", name, path)
}
