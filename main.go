package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/tonhe/netflo/cmd"
	"github.com/tonhe/netflo/internal/config"
	"github.com/tonhe/netflo/internal/logging"
	"github.com/tonhe/netflo/tui"
	"github.com/tonhe/netflo/tui/styles"
)

func main() {
	if len(os.Args) > 1 && cmd.IsSubcommand(os.Args[1]) {
		cmd.Execute(os.Args[1:])
		return
	}

	fs := flag.NewFlagSet("netflo", flag.ExitOnError)
	theme := fs.String("theme", "", "Theme override for this session")
	remote := fs.String("remote", "", "URL of a running 'netflo serve' to monitor")
	db := fs.String("db", "", "SQLite database path (default from config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: netflo [--theme NAME] [--remote URL] [--db PATH]")
		fmt.Fprintln(os.Stderr, "Run 'netflo help' for subcommands.")
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: the dashboard needs a terminal. Use 'netflo serve' or 'netflo poll' instead.")
		os.Exit(1)
	}

	cfg, err := cmd.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *theme != "" {
		if styles.GetThemeByName(*theme) == nil {
			fmt.Fprintf(os.Stderr, "Error: unknown theme %q\n", *theme)
			os.Exit(1)
		}
		cfg.Theme = *theme
	}
	if *remote != "" {
		cfg.Remote = *remote
	}
	if *db != "" {
		cfg.Database = *db
		cfg.Remote = ""
	}

	// Log lines would corrupt the alt screen, so the dashboard logs to a file.
	logFile := cfg.LogFile
	if logFile == "" {
		if path, err := config.GetLogPath(); err == nil {
			logFile = path
		}
	}
	log, closer, err := cmd.NewLogger(cfg, logFile, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	backend, source, err := cmd.OpenBackend(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	model := tui.NewAppModel(cfg, backend, logging.Component(log, "tui"), source, cmd.Version)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
