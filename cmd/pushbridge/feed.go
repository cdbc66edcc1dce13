package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattjoyce/pushbridge/internal/config"
	"github.com/mattjoyce/pushbridge/internal/engine"
	"github.com/mattjoyce/pushbridge/internal/feed"
	"github.com/mattjoyce/pushbridge/internal/superfeedr"
)

var feedActions = []string{"add", "list", "show", "remove", "notifications", "subscribe", "unsubscribe", "retrieve", "replay"}

func runFeedNoun(args []string) int {
	if len(args) < 1 {
		printNounHelp(os.Stderr, "feed", feedActions...)
		return 1
	}
	if isHelpToken(args[0]) {
		printNounHelp(os.Stdout, "feed", feedActions...)
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "add":
		return runFeedAdd(actionArgs)
	case "list":
		return runFeedList(actionArgs)
	case "show":
		return runFeedShow(actionArgs)
	case "remove":
		return runFeedRemove(actionArgs)
	case "notifications":
		return runFeedNotifications(actionArgs)
	case "subscribe", "unsubscribe", "retrieve", "replay":
		return runFeedHubAction(action, actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown feed action: %s\n", action)
		return 1
	}
}

// feedCommand is the shared prologue of feed actions: flags, config, stores.
type feedCommand struct {
	fs         *flag.FlagSet
	configPath string
	jsonOut    bool
	opts       optionFlag
}

func newFeedCommand(name string) *feedCommand {
	c := &feedCommand{fs: flag.NewFlagSet(name, flag.ContinueOnError), opts: optionFlag{}}
	c.fs.StringVar(&c.configPath, "config", "", "Path to configuration file or directory")
	c.fs.BoolVar(&c.jsonOut, "json", false, "Output as JSON")
	return c
}

func (c *feedCommand) withOptions() *feedCommand {
	c.fs.Var(c.opts, "opt", "Extra API field key=value (repeatable)")
	return c
}

var valueFlags = map[string]bool{
	"config": true, "opt": true, "id": true, "secret": true, "title": true,
	"limit": true, "count": true, "page": true, "by-page": true, "interval": true,
}

// parse returns the positional arguments, requiring exactly want of them.
func (c *feedCommand) parse(args []string, want int, usage string) ([]string, bool) {
	flags, positionals := splitFlagsAndPositionals(args, valueFlags)
	if err := c.fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return nil, false
	}
	if len(positionals) != want {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		return nil, false
	}
	return positionals, true
}

func (c *feedCommand) open(ctx context.Context) (*config.Config, *stores, bool) {
	cfg, _, err := loadConfig(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, nil, false
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return nil, nil, false
	}
	return cfg, st, true
}

func runFeedAdd(args []string) int {
	c := newFeedCommand("add").withOptions()
	id := c.fs.String("id", "", "Feed id (default: generated UUID)")
	secret := c.fs.String("secret", "", "HMAC secret (default: generated)")
	title := c.fs.String("title", "", "Human-readable title")
	subscribe := c.fs.Bool("subscribe", false, "Subscribe at the hub after registering")
	pos, ok := c.parse(args, 1, "pushbridge feed add <url> [--id ID] [--secret S] [--title T] [--subscribe] [--opt k=v]")
	if !ok {
		return 1
	}

	ctx := context.Background()
	cfg, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	topic := strings.TrimSpace(pos[0])
	// Validate before persisting so a bad URL never lands in the registry.
	if err := engine.ValidateURL(&feed.Record{URL: topic}); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid feed: %v\n", err)
		return 1
	}

	rec, err := st.feeds.Create(ctx, feed.Record{ID: *id, URL: topic, Secret: *secret, Title: *title})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to add feed: %v\n", err)
		return 1
	}
	fmt.Printf("Added %s\n", rec)

	if *subscribe {
		eng, err := newEngine(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot subscribe: %v\n", err)
			return 1
		}
		res, err := eng.Subscribe(ctx, rec, superfeedr.Options(c.opts))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Subscribe failed: %v\n", err)
			return 1
		}
		fmt.Printf("Subscribed %s (HTTP %d)\n", rec, res.StatusCode)
	}
	return 0
}

type feedView struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Title          string     `json:"title,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
}

func viewOf(rec *feed.Record) feedView {
	return feedView{ID: rec.ID, URL: rec.URL, Title: rec.Title, CreatedAt: rec.CreatedAt, LastNotifiedAt: rec.LastNotifiedAt}
}

func runFeedList(args []string) int {
	c := newFeedCommand("list")
	if _, ok := c.parse(args, 0, "pushbridge feed list [--json]"); !ok {
		return 1
	}

	ctx := context.Background()
	_, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	recs, err := st.feeds.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list feeds: %v\n", err)
		return 1
	}

	if c.jsonOut {
		views := make([]feedView, 0, len(recs))
		for _, rec := range recs {
			views = append(views, viewOf(rec))
		}
		if err := printJSON(views); err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		return 0
	}

	if len(recs) == 0 {
		fmt.Println("No feeds registered.")
		return 0
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tURL\tTITLE\tLAST NOTIFIED")
	for _, rec := range recs {
		last := "-"
		if rec.LastNotifiedAt != nil {
			last = rec.LastNotifiedAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.ID, rec.URL, rec.Title, last)
	}
	_ = tw.Flush()
	return 0
}

func runFeedShow(args []string) int {
	c := newFeedCommand("show")
	reveal := c.fs.Bool("show-secret", false, "Print the HMAC secret")
	pos, ok := c.parse(args, 1, "pushbridge feed show <id> [--json] [--show-secret]")
	if !ok {
		return 1
	}

	ctx := context.Background()
	cfg, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	rec, err := st.feeds.Get(ctx, pos[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	callback, err := superfeedr.FromGlobalConfig(&cfg.Superfeedr).CallbackFor(rec.ID)
	if err != nil {
		callback = "-"
	}

	if c.jsonOut {
		out := struct {
			feedView
			Callback string `json:"callback,omitempty"`
			Secret   string `json:"secret,omitempty"`
		}{feedView: viewOf(rec), Callback: callback}
		if *reveal {
			out.Secret = rec.Secret
		}
		if err := printJSON(out); err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("id:        %s\n", rec.ID)
	fmt.Printf("url:       %s\n", rec.URL)
	fmt.Printf("title:     %s\n", rec.Title)
	fmt.Printf("created:   %s\n", rec.CreatedAt.Local().Format(time.RFC3339))
	if rec.LastNotifiedAt != nil {
		fmt.Printf("notified:  %s\n", rec.LastNotifiedAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("callback:  %s\n", callback)
	if *reveal {
		fmt.Printf("secret:    %s\n", rec.Secret)
	}
	return 0
}

func runFeedRemove(args []string) int {
	c := newFeedCommand("remove")
	unsubscribe := c.fs.Bool("unsubscribe", false, "Unsubscribe at the hub before deleting")
	pos, ok := c.parse(args, 1, "pushbridge feed remove <id> [--unsubscribe]")
	if !ok {
		return 1
	}

	ctx := context.Background()
	cfg, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	if *unsubscribe {
		rec, err := st.feeds.Get(ctx, pos[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		eng, err := newEngine(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot unsubscribe: %v\n", err)
			return 1
		}
		if _, err := eng.Unsubscribe(ctx, rec, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Unsubscribe failed: %v\n", err)
			return 1
		}
	}

	if err := st.feeds.Delete(ctx, pos[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to remove feed: %v\n", err)
		return 1
	}
	fmt.Printf("Removed feed#%s\n", pos[0])
	return 0
}

func runFeedNotifications(args []string) int {
	c := newFeedCommand("notifications")
	limit := c.fs.Int("limit", feed.DefaultNotificationLimit, "Maximum notifications to show")
	body := c.fs.Bool("body", false, "Print payload bodies")
	pos, ok := c.parse(args, 1, "pushbridge feed notifications <id> [--limit N] [--body] [--json]")
	if !ok {
		return 1
	}

	ctx := context.Background()
	_, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	if _, err := st.feeds.Get(ctx, pos[0]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	notes, err := st.feeds.Notifications(ctx, pos[0], *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load notifications: %v\n", err)
		return 1
	}

	if c.jsonOut {
		type noteView struct {
			ID         string              `json:"id"`
			Params     map[string][]string `json:"params"`
			Bytes      int                 `json:"bytes"`
			Body       string              `json:"body,omitempty"`
			ReceivedAt time.Time           `json:"received_at"`
		}
		views := make([]noteView, 0, len(notes))
		for _, n := range notes {
			v := noteView{ID: n.ID, Params: n.Params, Bytes: len(n.Body), ReceivedAt: n.ReceivedAt}
			if *body {
				v.Body = string(n.Body)
			}
			views = append(views, v)
		}
		if err := printJSON(views); err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		return 0
	}

	if len(notes) == 0 {
		fmt.Println("No notifications stored.")
		return 0
	}
	for _, n := range notes {
		fmt.Printf("%s  %s  %s bytes\n", n.ReceivedAt.Local().Format(time.RFC3339), n.ID, strconv.Itoa(len(n.Body)))
		if *body {
			fmt.Println(string(n.Body))
		}
	}
	return 0
}

func runFeedHubAction(action string, args []string) int {
	c := newFeedCommand(action).withOptions()
	count := c.fs.Int("count", 0, "Number of entries (retrieve only)")
	pos, ok := c.parse(args, 1, fmt.Sprintf("pushbridge feed %s <id> [--opt k=v]", action))
	if !ok {
		return 1
	}

	ctx := context.Background()
	cfg, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	rec, err := st.feeds.Get(ctx, pos[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	eng, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach hub: %v\n", err)
		return 1
	}

	opts := superfeedr.Options(c.opts)
	if *count > 0 {
		opts["count"] = strconv.Itoa(*count)
	}

	var res *superfeedr.Response
	switch action {
	case "subscribe":
		res, err = eng.Subscribe(ctx, rec, opts)
	case "unsubscribe":
		res, err = eng.Unsubscribe(ctx, rec, opts)
	case "retrieve":
		res, err = eng.Retrieve(ctx, rec, opts)
	case "replay":
		res, err = eng.Replay(ctx, rec, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", action, err)
		return 1
	}
	if err := printResponse(res); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print response: %v\n", err)
		return 1
	}
	return 0
}
