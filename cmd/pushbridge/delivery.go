package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mattjoyce/pushbridge/internal/delivery"
	"github.com/mattjoyce/pushbridge/internal/tui/deliveries"
)

func runDeliveryNoun(args []string) int {
	if len(args) < 1 {
		printNounHelp(os.Stderr, "delivery", "list", "watch")
		return 1
	}
	if isHelpToken(args[0]) {
		printNounHelp(os.Stdout, "delivery", "list", "watch")
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "list":
		return runDeliveryList(actionArgs)
	case "watch":
		return runDeliveryWatch(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown delivery action: %s\n", action)
		return 1
	}
}

type deliveryView struct {
	ID         string    `json:"id"`
	FeedID     string    `json:"feed_id"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
	BodyBytes  int       `json:"body_bytes"`
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

func runDeliveryList(args []string) int {
	c := newFeedCommand("list")
	limit := c.fs.Int("limit", 20, "Maximum deliveries to show")
	rejected := c.fs.Bool("rejected", false, "Only show rejected deliveries")
	if _, ok := c.parse(args, 0, "pushbridge delivery list [--limit N] [--rejected] [--json]"); !ok {
		return 1
	}

	ctx := context.Background()
	_, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	entries, err := st.deliveries.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load deliveries: %v\n", err)
		return 1
	}
	if *rejected {
		kept := entries[:0]
		for _, e := range entries {
			if !e.Accepted {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if c.jsonOut {
		views := make([]deliveryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, deliveryView{
				ID: e.ID, FeedID: e.FeedID, Accepted: e.Accepted, Reason: e.Reason,
				BodyBytes: e.BodyBytes, RequestID: e.RequestID, ReceivedAt: e.ReceivedAt,
			})
		}
		if err := printJSON(views); err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		return 0
	}

	if len(entries) == 0 {
		fmt.Println("No deliveries recorded.")
		return 0
	}
	printDeliveries(entries)
	return 0
}

func printDeliveries(entries []delivery.Entry) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVED\tFEED\tSTATUS\tBYTES\tREASON")
	for _, e := range entries {
		status := "accepted"
		if !e.Accepted {
			status = "rejected"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			e.ReceivedAt.Local().Format(time.RFC3339), e.FeedID, status, e.BodyBytes, e.Reason)
	}
	_ = tw.Flush()
}

func runDeliveryWatch(args []string) int {
	c := newFeedCommand("watch")
	limit := c.fs.Int("limit", deliveries.DefaultLimit, "Deliveries kept on screen")
	interval := c.fs.Duration("interval", deliveries.DefaultInterval, "Poll interval")
	if _, ok := c.parse(args, 0, "pushbridge delivery watch [--limit N] [--interval 1s]"); !ok {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, st, ok := c.open(ctx)
	if !ok {
		return 1
	}
	defer st.Close()

	if err := deliveries.Run(ctx, st.deliveries, *limit, *interval); err != nil {
		fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		return 1
	}
	return 0
}
