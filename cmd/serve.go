package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tonhe/netflo/internal/api"
	"github.com/tonhe/netflo/internal/engine"
	"github.com/tonhe/netflo/internal/logging"
	"github.com/tonhe/netflo/internal/monitor"
	"github.com/tonhe/netflo/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", "", "Address to listen on (default from config)")
	db := fs.String("db", "", "SQLite database path (default from config)")
	noPoll := fs.Bool("no-poll", false, "Do not run the background poll timer")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: netflo serve [--listen ADDR] [--db PATH] [--no-poll]")
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
	if *listen != "" {
		cfg.Listen = *listen
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
		log.WithError(err).Error("opening store")
		os.Exit(1)
	}
	defer svc.Close()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.WithError(err).Error("listen")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := cfg.PollInterval
	if *noPoll {
		interval = 0
	}
	if cfg.ServiceKey == "" {
		log.Warn("no service key configured, the poll function and mutating endpoints are open")
	}
	if err := serve(ctx, ln, svc, cfg.ServiceKey, interval, log); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

// serve runs the HTTP API on ln and, when interval is positive, the poll
// timer, until ctx is cancelled or either fails.
func serve(ctx context.Context, ln net.Listener, svc *monitor.Service, serviceKey string, interval time.Duration, log *logrus.Logger) error {
	apiSrv := api.NewServer(svc, serviceKey, logging.Component(log, "api"))
	httpSrv := &http.Server{
		Handler:           apiSrv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", ln.Addr().String()).Info("listening")
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if interval > 0 {
		g.Go(func() error {
			return scheduler.Run(ctx, logging.Component(log, "scheduler"), svc.Poller(), interval)
		})
	}

	events := svc.Poller().Subscribe()
	g.Go(func() error {
		pollLog := logging.Component(log, "poller")
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				logCycle(pollLog, ev)
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		apiSrv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func logCycle(log *logrus.Entry, ev engine.Event) {
	if ev.Err != nil {
		log.WithError(ev.Err).Error("poll cycle aborted")
		return
	}
	entry := log.WithFields(logrus.Fields{
		"polled":   ev.Report.Polled,
		"duration": ev.Report.Duration.Round(time.Millisecond),
	})
	if ev.Report.Failures != nil {
		entry.WithError(ev.Report.Failures).Warn("poll cycle finished with failures")
		return
	}
	entry.Info("poll cycle finished")
}
