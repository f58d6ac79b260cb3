package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tonhe/netflo/internal/monitor"
)

func pollCmd(args []string) {
	fs := flag.NewFlagSet("poll", flag.ExitOnError)
	db := fs.String("db", "", "SQLite database path (default from config)")
	remote := fs.String("remote", "", "Invoke the poll function of a running server instead")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: netflo poll [--db PATH] [--remote URL]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *db != "" {
		cfg.Database = *db
		cfg.Remote = ""
	}
	if *remote != "" {
		cfg.Remote = *remote
	}

	log, closer, err := NewLogger(cfg, "", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	backend, _, err := OpenBackend(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	if err := runPoll(context.Background(), backend, os.Stdout); err != nil {
		os.Exit(1)
	}
}

// runPoll runs one cycle and writes the poll function's JSON response: the
// result on success, {"error": ...} otherwise.
func runPoll(ctx context.Context, backend monitor.Backend, w io.Writer) error {
	enc := json.NewEncoder(w)
	res, err := backend.Poll(ctx)
	if err != nil {
		_ = enc.Encode(map[string]string{"error": err.Error()})
		return err
	}
	return enc.Encode(res)
}
