package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/pushbridge/internal/config"
	"github.com/mattjoyce/pushbridge/internal/webhook"
)

var configActions = []string{"check", "lock", "show", "get", "set"}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printNounHelp(os.Stderr, "config", configActions...)
		return 1
	}
	if isHelpToken(args[0]) {
		printNounHelp(os.Stdout, "config", configActions...)
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: pushbridge config check [--config PATH] [--json] [--strict]")
			fmt.Println("Validate configuration syntax, values, and integrity.")
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: pushbridge config lock [--config PATH] [--dry-run] [-v]")
			fmt.Println("Write .checksums manifests for every file of the include tree.")
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		return runConfigShow(actionArgs)
	case "get":
		return runConfigGet(actionArgs)
	case "set":
		return runConfigSet(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

type checkResult struct {
	Config   string   `json:"config"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runConfigCheck(args []string) int {
	var configPath string
	var strict, jsonOut bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	result := checkConfig(configPath)

	if jsonOut {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
	} else {
		for _, e := range result.Errors {
			fmt.Printf("ERROR   %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Printf("WARNING %s\n", w)
		}
		if result.Valid {
			fmt.Println("Status: Configuration check PASSED.")
		} else {
			fmt.Println("Status: Configuration check FAILED.")
		}
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func checkConfig(configPath string) checkResult {
	cfg, resolved, err := loadConfig(configPath)
	result := checkResult{Config: resolved}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if _, err := webhook.FromGlobalConfig(&cfg.Webhook); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	if err := cfg.Superfeedr.RequireCredentials(); err != nil {
		result.Warnings = append(result.Warnings, err.Error()+" (hub commands disabled)")
	}
	if cfg.Superfeedr.CallbackURL == "" {
		result.Warnings = append(result.Warnings, "superfeedr.callback_url is not set (subscribe, unsubscribe and replay disabled)")
	}
	if _, err := config.ReadManifest(dirOf(resolved)); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, verboseShort, dryRun bool

	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Dry run")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	isVerbose := verbose || verboseShort

	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		configPath = discovered
	}

	locked, err := config.Lock(configPath, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	for _, dir := range locked {
		if isVerbose {
			fmt.Printf("Locking %s\n", dir.Dir)
			for _, name := range dir.Names() {
				fmt.Printf("  HASH %.12s %s\n", dir.Hashes[name], name)
			}
		}
		switch {
		case dryRun:
			fmt.Printf("DRY-RUN %s: %s (not written)\n", config.ChecksumsFile, dir.Manifest)
		case dir.Written:
			fmt.Printf("WROTE %s: %s\n", config.ChecksumsFile, dir.Manifest)
		}
	}
	return 0
}

func dirOf(configPath string) string {
	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		return configPath
	}
	return filepath.Dir(configPath)
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	flags, positionals := splitFlagsAndPositionals(args, valueFlags)
	if err := fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if len(positionals) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: pushbridge config show [section] [--json]")
		return 1
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	var result any = cfg
	if len(positionals) == 1 {
		if result, err = cfg.GetPath(positionals[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return printValue(result, *jsonOut)
}

func runConfigGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	flags, positionals := splitFlagsAndPositionals(args, valueFlags)
	if err := fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if len(positionals) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: pushbridge config get <path> [--json]")
		return 1
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	val, err := cfg.GetPath(positionals[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if _, isMap := val.(map[string]any); isMap || *jsonOut {
		return printValue(val, *jsonOut)
	}
	fmt.Printf("%v\n", val)
	return 0
}

func runConfigSet(args []string) int {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	flags, positionals := splitFlagsAndPositionals(args, valueFlags)
	if err := fs.Parse(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	var path, value string
	ok := false
	if len(positionals) == 1 {
		path, value, ok = strings.Cut(positionals[0], "=")
	}
	if !ok || strings.TrimSpace(path) == "" {
		fmt.Fprintln(os.Stderr, "Usage: pushbridge config set <path>=<value> [--config PATH]")
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
	}

	target, err := config.SetPath(*configPath, path, value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Apply failed: %v\n", err)
		return 1
	}
	fmt.Printf("Successfully set %q to %q in %s\n", path, value, target)

	if _, err := config.ReadManifest(filepath.Dir(target)); err == nil {
		fmt.Printf("Config is locked; run: pushbridge config lock --config %s\n", *configPath)
	}
	return 0
}

func printValue(v any, asJSON bool) int {
	if asJSON {
		if err := printJSON(v); err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		return 0
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "YAML format error: %v\n", err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}
