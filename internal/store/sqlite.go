package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/topology"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DSN parameters applied to every connection.
const (
	WALEnabled         = "_journal_mode=WAL"
	ForeignKeysEnabled = "_foreign_keys=on"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db   *sqlx.DB
	feed *Feed
	log  *logrus.Entry
}

var _ Store = (*SQLite)(nil)

// OpenSQLite connects to the database at path, migrates it to the latest
// schema version and returns a ready Store.
func OpenSQLite(path string, log *logrus.Entry) (*SQLite, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	log.Infof("initialized database at %s", path)
	return &SQLite{db: db, feed: NewFeed(), log: log}, nil
}

func openDB(path string) (*sqlx.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + ForeignKeysEnabled + "&" + WALEnabled

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	sourceDriver, err := iofs.New(migrations, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init DB source driver: %w", err)
	}
	dbDriver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init DB migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init DB migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("failed to migrate DB to the latest version: %w", err)
	}
	return db, nil
}

// Subscribe returns a channel of every change made through this store.
func (s *SQLite) Subscribe() (<-chan Change, func()) {
	return s.feed.Subscribe()
}

// Close stops the change feed and closes the database.
func (s *SQLite) Close() error {
	s.feed.Close()
	return s.db.Close()
}

func (s *SQLite) ListDevices(ctx context.Context) ([]topology.Device, error) {
	devices := []topology.Device{}
	err := s.db.SelectContext(ctx, &devices, "SELECT * FROM devices ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// ListDeviceViews returns every device joined with its most recent sample.
// The most recent sample is the one with the highest id.
func (s *SQLite) ListDeviceViews(ctx context.Context) ([]topology.DeviceView, error) {
	devices, err := s.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	var latest []topology.StatSample
	err = s.db.SelectContext(ctx, &latest,
		"SELECT s.* FROM device_stats s "+
			"JOIN (SELECT device_id, MAX(id) AS id FROM device_stats GROUP BY device_id) m ON s.id = m.id")
	if err != nil {
		return nil, fmt.Errorf("listing latest stats: %w", err)
	}
	byDevice := make(map[string]topology.StatSample, len(latest))
	for _, st := range latest {
		byDevice[st.DeviceID] = st
	}

	views := make([]topology.DeviceView, 0, len(devices))
	for _, d := range devices {
		v := topology.DeviceView{Device: d}
		if st, ok := byDevice[d.ID]; ok {
			v.Latest = &st
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *SQLite) GetDevice(ctx context.Context, id string) (topology.Device, error) {
	var d topology.Device
	err := s.db.GetContext(ctx, &d, "SELECT * FROM devices WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("getting device %s: %w", id, err)
	}
	return d, nil
}

func (s *SQLite) InsertDevice(ctx context.Context, d topology.Device) error {
	_, err := s.db.NamedExecContext(ctx,
		"INSERT INTO devices (id, name, ip, type, snmp_community, x, y, created_at) "+
			"VALUES (:id, :name, :ip, :type, :snmp_community, :x, :y, :created_at)",
		d,
	)
	if err != nil {
		return fmt.Errorf("inserting device %s: %w", d.Name, err)
	}
	s.feed.Publish(Change{Table: TableDevices, Op: OpInsert, Row: d})
	return nil
}

func (s *SQLite) DeleteDevice(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	defer tx.Rollback()

	var d topology.Device
	if err := tx.GetContext(ctx, &d, "SELECT * FROM devices WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("device %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("deleting device %s: %w", id, err)
	}

	var links []topology.Link
	err = tx.SelectContext(ctx, &links,
		"SELECT * FROM links WHERE source_device_id = ? OR target_device_id = ?", id, id)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}

	for _, l := range links {
		s.feed.Publish(Change{Table: TableLinks, Op: OpDelete, Row: l})
	}
	s.feed.Publish(Change{Table: TableDevices, Op: OpDelete, Row: d})
	s.log.WithField("device", d.Name).Debugf("deleted device and %d links", len(links))
	return nil
}

// InsertStat appends a sample and sets its ID.
func (s *SQLite) InsertStat(ctx context.Context, st *topology.StatSample) error {
	res, err := s.db.NamedExecContext(ctx,
		"INSERT INTO device_stats (device_id, status, uptime, cpu, memory, timestamp) "+
			"VALUES (:device_id, :status, :uptime, :cpu, :memory, :timestamp)",
		st,
	)
	if err != nil {
		return fmt.Errorf("inserting stat for %s: %w", st.DeviceID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting stat for %s: %w", st.DeviceID, err)
	}
	st.ID = id
	s.feed.Publish(Change{Table: TableStats, Op: OpInsert, Row: *st})
	return nil
}

func (s *SQLite) LatestStat(ctx context.Context, deviceID string) (topology.StatSample, error) {
	var st topology.StatSample
	err := s.db.GetContext(ctx, &st,
		"SELECT * FROM device_stats WHERE device_id = ? ORDER BY id DESC LIMIT 1", deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("stats for %s: %w", deviceID, ErrNotFound)
	}
	if err != nil {
		return st, fmt.Errorf("latest stat for %s: %w", deviceID, err)
	}
	return st, nil
}

// RecentStats returns up to limit samples for the device, oldest first.
func (s *SQLite) RecentStats(ctx context.Context, deviceID string, limit int) ([]topology.StatSample, error) {
	if limit <= 0 {
		limit = 1
	}
	stats := []topology.StatSample{}
	err := s.db.SelectContext(ctx, &stats,
		"SELECT * FROM device_stats WHERE device_id = ? ORDER BY id DESC LIMIT ?", deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent stats for %s: %w", deviceID, err)
	}
	for i, j := 0, len(stats)-1; i < j; i, j = i+1, j-1 {
		stats[i], stats[j] = stats[j], stats[i]
	}
	return stats, nil
}

func (s *SQLite) ListLinks(ctx context.Context) ([]topology.Link, error) {
	links := []topology.Link{}
	if err := s.db.SelectContext(ctx, &links, "SELECT * FROM links ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	return links, nil
}

func (s *SQLite) LinksForDevice(ctx context.Context, deviceID string) ([]topology.Link, error) {
	links := []topology.Link{}
	err := s.db.SelectContext(ctx, &links,
		"SELECT * FROM links WHERE source_device_id = ? OR target_device_id = ? ORDER BY id",
		deviceID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("links for %s: %w", deviceID, err)
	}
	return links, nil
}

func (s *SQLite) InsertLink(ctx context.Context, l topology.Link) error {
	_, err := s.db.NamedExecContext(ctx,
		"INSERT INTO links (id, source_device_id, target_device_id, bandwidth, max_bandwidth, status) "+
			"VALUES (:id, :source_device_id, :target_device_id, :bandwidth, :max_bandwidth, :status)",
		l,
	)
	if err != nil {
		return fmt.Errorf("inserting link: %w", err)
	}
	s.feed.Publish(Change{Table: TableLinks, Op: OpInsert, Row: l})
	return nil
}

// UpdateLink writes the link's bandwidth and status.
func (s *SQLite) UpdateLink(ctx context.Context, l topology.Link) error {
	res, err := s.db.NamedExecContext(ctx,
		"UPDATE links SET bandwidth = :bandwidth, max_bandwidth = :max_bandwidth, status = :status WHERE id = :id",
		l,
	)
	if err != nil {
		return fmt.Errorf("updating link %s: %w", l.ID, err)
	}
	if err := requireAffected(res, "link", l.ID); err != nil {
		return err
	}
	s.feed.Publish(Change{Table: TableLinks, Op: OpUpdate, Row: l})
	return nil
}

func (s *SQLite) DeleteLink(ctx context.Context, id string) error {
	var l topology.Link
	err := s.db.GetContext(ctx, &l, "SELECT * FROM links WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("link %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting link %s: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM links WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting link %s: %w", id, err)
	}
	if err := requireAffected(res, "link", id); err != nil {
		return err
	}
	s.feed.Publish(Change{Table: TableLinks, Op: OpDelete, Row: l})
	return nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
