// Package store persists the topology (devices, stat samples and links) and
// publishes a change feed of every mutation.
package store

import (
	"context"
	"errors"

	"github.com/tonhe/netflo/internal/topology"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the row store behind the dashboard, the poll cycle and the API.
type Store interface {
	ListDevices(ctx context.Context) ([]topology.Device, error)
	ListDeviceViews(ctx context.Context) ([]topology.DeviceView, error)
	GetDevice(ctx context.Context, id string) (topology.Device, error)
	InsertDevice(ctx context.Context, d topology.Device) error
	// DeleteDevice removes the device together with its samples and every
	// link that references it.
	DeleteDevice(ctx context.Context, id string) error

	InsertStat(ctx context.Context, s *topology.StatSample) error
	LatestStat(ctx context.Context, deviceID string) (topology.StatSample, error)
	RecentStats(ctx context.Context, deviceID string, limit int) ([]topology.StatSample, error)

	ListLinks(ctx context.Context) ([]topology.Link, error)
	// LinksForDevice returns links where the device is source or target.
	LinksForDevice(ctx context.Context, deviceID string) ([]topology.Link, error)
	InsertLink(ctx context.Context, l topology.Link) error
	UpdateLink(ctx context.Context, l topology.Link) error
	DeleteLink(ctx context.Context, id string) error

	Subscribe() (<-chan Change, func())
	Close() error
}
