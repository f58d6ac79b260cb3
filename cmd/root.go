package cmd

import (
	"fmt"
	"os"
)

// Version is the release reported by `netflo version` and the dashboard header.
var Version = "0.1.0"

// knownSubcommands is the set of CLI subcommands that bypass the TUI.
var knownSubcommands = map[string]bool{
	"serve":   true,
	"poll":    true,
	"seed":    true,
	"config":  true,
	"themes":  true,
	"version": true,
	"help":    true,
}

// IsSubcommand returns true if the argument is a known CLI subcommand.
func IsSubcommand(arg string) bool {
	return knownSubcommands[arg]
}

// Execute dispatches to the appropriate CLI subcommand handler.
func Execute(args []string) {
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "serve":
		serveCmd(args[1:])
	case "poll":
		pollCmd(args[1:])
	case "seed":
		seedCmd(args[1:])
	case "config":
		configCmd(args[1:])
	case "themes":
		themesCmd()
	case "version":
		fmt.Printf("netflo v%s\n", Version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`netflo - network topology monitor

Usage:
  netflo                      Launch the dashboard
  netflo --theme NAME         Launch with theme override
  netflo --remote URL         Launch against a running 'netflo serve'
  netflo serve                Run the HTTP API and the background poller
  netflo poll                 Run one poll cycle and print the result
  netflo seed                 Load the demo network into an empty database
  netflo config <cmd>         Manage configuration
  netflo themes               List available themes
  netflo version              Show version
  netflo help                 Show this help

Serve:
  netflo serve [--listen ADDR] [--db PATH] [--no-poll]

Poll:
  netflo poll [--db PATH] [--remote URL]

Seed:
  netflo seed [--db PATH] [--force]

Config Commands:
  netflo config path          Show config file path
  netflo config theme NAME    Set default theme

Environment:
  NETFLO_STORE_URL            Database path, or server URL for the dashboard
  NETFLO_SERVICE_KEY          Key required by the poll function and mutating API calls`)
}
