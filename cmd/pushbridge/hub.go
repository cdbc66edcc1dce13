package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattjoyce/pushbridge/internal/superfeedr"
)

func runHubNoun(args []string) int {
	if len(args) < 1 {
		printNounHelp(os.Stderr, "hub", "list", "search")
		return 1
	}
	if isHelpToken(args[0]) {
		printNounHelp(os.Stdout, "hub", "list", "search")
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "list":
		return runHubList(actionArgs)
	case "search":
		return runHubSearch(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown hub action: %s\n", action)
		return 1
	}
}

func runHubList(args []string) int {
	c := newFeedCommand("list").withOptions()
	page := c.fs.Int("page", 1, "Page number")
	byPage := c.fs.Int("by-page", 0, "Subscriptions per page")
	detailed := c.fs.Bool("detailed", false, "Include subscription details")
	if _, ok := c.parse(args, 0, "pushbridge hub list [--page N] [--by-page N] [--detailed] [--opt k=v]"); !ok {
		return 1
	}

	opts := superfeedr.Options(c.opts)
	opts["page"] = strconv.Itoa(*page)
	if *byPage > 0 {
		opts["by_page"] = strconv.Itoa(*byPage)
	}
	if *detailed {
		opts["detailed"] = "true"
	}
	if _, set := opts["format"]; !set {
		opts["format"] = "json"
	}

	return runHubCall(c.configPath, func(ctx context.Context, eng hubEngine) (*superfeedr.Response, error) {
		return eng.List(ctx, opts)
	})
}

func runHubSearch(args []string) int {
	c := newFeedCommand("search").withOptions()
	flags, positionals := splitFlagsAndPositionals(args, valueFlags)
	if err := c.fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	query := strings.TrimSpace(strings.Join(positionals, " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: pushbridge hub search <query> [--opt k=v]")
		return 1
	}

	return runHubCall(c.configPath, func(ctx context.Context, eng hubEngine) (*superfeedr.Response, error) {
		return eng.Search(ctx, query, superfeedr.Options(c.opts))
	})
}

type hubEngine interface {
	List(ctx context.Context, opts superfeedr.Options) (*superfeedr.Response, error)
	Search(ctx context.Context, query string, opts superfeedr.Options) (*superfeedr.Response, error)
}

func runHubCall(configPath string, call func(context.Context, hubEngine) (*superfeedr.Response, error)) int {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	eng, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach hub: %v\n", err)
		return 1
	}

	res, err := call(context.Background(), eng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hub request failed: %v\n", err)
		return 1
	}
	if err := printResponse(res); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print response: %v\n", err)
		return 1
	}
	return 0
}
