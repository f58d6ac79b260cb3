package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tonhe/netflo/internal/monitor"
)

func seedCmd(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	db := fs.String("db", "", "SQLite database path (default from config)")
	force := fs.Bool("force", false, "Add the demo network even if devices exist")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: netflo seed [--db PATH] [--force]")
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
	}

	log, closer, err := NewLogger(cfg, "", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	svc, err := openService(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	if err := runSeed(context.Background(), svc, *force, os.Stdout); err != nil {
		if errors.Is(err, monitor.ErrAlreadySeeded) {
			fmt.Fprintf(os.Stderr, "Error: %v. Use --force to add the demo network anyway.\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, svc *monitor.Service, force bool, w io.Writer) error {
	devices, links, err := svc.Seed(ctx, force)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Seeded %d devices and %d links.\n", devices, links)
	return nil
}
