package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/api"
	"github.com/tonhe/netflo/internal/config"
	"github.com/tonhe/netflo/internal/engine"
	"github.com/tonhe/netflo/internal/logging"
	"github.com/tonhe/netflo/internal/monitor"
	"github.com/tonhe/netflo/internal/store"
)

// NewLogger builds the process logger from cfg. With quiet set and no
// log_file configured, output is discarded.
func NewLogger(cfg *config.Config, file string, quiet bool) (*logrus.Logger, io.Closer, error) {
	if file == "" {
		file = cfg.LogFile
	}
	return logging.New(logging.Options{Level: cfg.LogLevel, File: file, Quiet: quiet})
}

// databasePath returns the configured database or the default location.
func databasePath(cfg *config.Config) (string, error) {
	if cfg.Database != "" {
		return cfg.Database, nil
	}
	if err := config.EnsureDirs(); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return config.GetDatabasePath()
}

// openService opens the SQLite store and wires a poller over it.
func openService(cfg *config.Config, log logrus.FieldLogger) (*monitor.Service, error) {
	path, err := databasePath(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.OpenSQLite(path, logging.Component(log, "store"))
	if err != nil {
		return nil, err
	}
	poller := engine.NewPoller(st, engine.NewAgent(nil), logging.Component(log, "poller"))
	return monitor.NewService(st, poller, nil, logging.Component(log, "monitor")), nil
}

// OpenBackend returns the dashboard's data source: an API client when a
// remote server is configured, else the local database. The string names
// the source for display.
func OpenBackend(cfg *config.Config, log logrus.FieldLogger) (monitor.Backend, string, error) {
	if cfg.Remote != "" {
		client, err := api.NewClient(cfg.Remote, cfg.ServiceKey, logging.Component(log, "client"))
		if err != nil {
			return nil, "", err
		}
		return client, cfg.Remote, nil
	}
	svc, err := openService(cfg, log)
	if err != nil {
		return nil, "", err
	}
	path, _ := databasePath(cfg)
	return svc, path, nil
}
