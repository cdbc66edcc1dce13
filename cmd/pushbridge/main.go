package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "feed":
		return runFeedNoun(args)
	case "hub":
		return runHubNoun(args)
	case "delivery":
		return runDeliveryNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: pushbridge version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("pushbridge %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		info.Commit = shortenCommit(commit)
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`pushbridge - Superfeedr PubSubHubbub receiver and API client

Usage:
  pushbridge <noun> <action> [flags]

Core Resources (Nouns):
  system    Receiver lifecycle and health
  config    Configuration and integrity
  feed      Feed records and their hub subscriptions
  hub       Account-wide Superfeedr queries
  delivery  Inbound notification log

System Commands:
  system start        Run the webhook receiver in the foreground
  system status       Show config, database and lock state

Config Commands:
  config check        Validate configuration and integrity
  config lock         Authorize current config (update integrity hashes)
  config show [path]  Print the resolved configuration (YAML or --json)
  config get <path>   Print one value, e.g. superfeedr.endpoint
  config set <p>=<v>  Change a value in the root config file

Feed Commands:
  feed add <url>            Register a feed (optionally --subscribe)
  feed list                 List registered feeds
  feed show <id>            Show one feed
  feed remove <id>          Delete a feed (optionally --unsubscribe)
  feed notifications <id>   Show stored notifications
  feed subscribe <id>       Subscribe the feed at the hub
  feed unsubscribe <id>     Unsubscribe the feed at the hub
  feed retrieve <id>        Fetch past entries from the hub
  feed replay <id>          Ask the hub to re-deliver recent entries

Hub Commands:
  hub list            List the account's subscriptions
  hub search <query>  Search the account's subscriptions

Delivery Commands:
  delivery list       Show recent inbound notifications
  delivery watch      Live delivery view (TUI)

General:
  version             Show version information
  help                Show this help message

Use 'pushbridge <noun> help' for resource-specific actions.
`)
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printNounHelp(w *os.File, noun string, actions ...string) {
	fmt.Fprintf(w, "Usage: pushbridge %s <action> [flags]\n", noun)
	fmt.Fprintf(w, "Actions: %s\n", strings.Join(actions, ", "))
}

// splitFlagsAndPositionals lets flags follow positional arguments, which the
// flag package would otherwise stop parsing at.
func splitFlagsAndPositionals(args []string, takesValue map[string]bool) ([]string, []string) {
	var flags, positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}
		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue[name] && i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return flags, positionals
}

// optionFlag collects repeated --opt key=value pairs.
type optionFlag map[string]string

func (o optionFlag) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (o optionFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	o[strings.TrimSpace(key)] = val
	return nil
}
