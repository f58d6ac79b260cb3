// Package monitor joins the topology store and the poller into the backend
// the dashboard and the HTTP API drive.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/engine"
	"github.com/tonhe/netflo/internal/store"
	"github.com/tonhe/netflo/internal/topology"
)

// ErrAlreadySeeded is returned by Seed when the store already holds devices.
var ErrAlreadySeeded = errors.New("topology already has devices")

// PollResult is the outcome of a triggered poll cycle.
type PollResult struct {
	Success bool `json:"success"`
	Polled  int  `json:"polled"`
}

// Backend is everything the dashboard needs from its data source. Service
// implements it in-process; api.Client implements it against a server.
type Backend interface {
	Devices(ctx context.Context) ([]topology.DeviceView, error)
	Links(ctx context.Context) ([]topology.Link, error)
	AddDevice(ctx context.Context, in topology.NewDevice) (topology.Device, error)
	RemoveDevice(ctx context.Context, id string) error
	ConnectDevices(ctx context.Context, in topology.NewLink) (topology.Link, error)
	Poll(ctx context.Context) (PollResult, error)
	// Subscribe streams store changes until ctx is done.
	Subscribe(ctx context.Context) (<-chan store.Change, error)
	History(ctx context.Context, deviceID string, limit int) ([]topology.StatSample, error)
	Close() error
}

// Service is the in-process Backend.
type Service struct {
	store  store.Store
	poller *engine.Poller
	log    *logrus.Entry

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Backend = (*Service)(nil)

// NewService returns a Service over st and poller. A nil rng uses a randomly
// seeded source for device placement.
func NewService(st store.Store, poller *engine.Poller, rng *rand.Rand, log *logrus.Entry) *Service {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{store: st, poller: poller, rng: rng, log: log}
}

// Poller exposes the poller so callers can schedule it.
func (s *Service) Poller() *engine.Poller {
	return s.poller
}

// PollerInfo reports poll cycle counters.
func (s *Service) PollerInfo() engine.Info {
	return s.poller.Info()
}

func (s *Service) Devices(ctx context.Context) ([]topology.DeviceView, error) {
	return s.store.ListDeviceViews(ctx)
}

func (s *Service) Links(ctx context.Context) ([]topology.Link, error) {
	return s.store.ListLinks(ctx)
}

// AddDevice validates the input, places the device at a random position and
// stores it. It does not poll.
func (s *Service) AddDevice(ctx context.Context, in topology.NewDevice) (topology.Device, error) {
	s.mu.Lock()
	d, err := in.Build(s.rng)
	s.mu.Unlock()
	if err != nil {
		return topology.Device{}, err
	}
	if err := s.store.InsertDevice(ctx, d); err != nil {
		return topology.Device{}, err
	}
	s.log.WithFields(logrus.Fields{"device": d.Name, "ip": d.IP}).Info("device added")
	return d, nil
}

// RemoveDevice deletes the device and every link that references it.
func (s *Service) RemoveDevice(ctx context.Context, id string) error {
	if err := s.store.DeleteDevice(ctx, id); err != nil {
		return err
	}
	s.log.WithField("id", id).Info("device removed")
	return nil
}

// ConnectDevices creates a link between two existing devices.
func (s *Service) ConnectDevices(ctx context.Context, in topology.NewLink) (topology.Link, error) {
	l, err := in.Build()
	if err != nil {
		return topology.Link{}, err
	}
	for _, id := range []string{l.SourceDeviceID, l.TargetDeviceID} {
		if _, err := s.store.GetDevice(ctx, id); err != nil {
			return topology.Link{}, err
		}
	}
	if err := s.store.InsertLink(ctx, l); err != nil {
		return topology.Link{}, err
	}
	return l, nil
}

// Poll runs one cycle. Only a failure to read the device list is an error;
// per-device failures are logged by the poller.
func (s *Service) Poll(ctx context.Context) (PollResult, error) {
	report, err := s.poller.Poll(ctx)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{Success: true, Polled: report.Polled}, nil
}

func (s *Service) Subscribe(ctx context.Context) (<-chan store.Change, error) {
	ch, cancel := s.store.Subscribe()
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, nil
}

func (s *Service) History(ctx context.Context, deviceID string, limit int) ([]topology.StatSample, error) {
	return s.store.RecentStats(ctx, deviceID, limit)
}

// Seed loads the demo network into an empty store. With force it loads the
// demo devices next to whatever exists.
func (s *Service) Seed(ctx context.Context, force bool) (devices, links int, err error) {
	if !force {
		existing, err := s.store.ListDevices(ctx)
		if err != nil {
			return 0, 0, err
		}
		if len(existing) > 0 {
			return 0, 0, fmt.Errorf("%w (%d)", ErrAlreadySeeded, len(existing))
		}
	}

	demoDevices, demoLinks := topology.DemoTopology()
	for _, d := range demoDevices {
		if err := s.store.InsertDevice(ctx, d); err != nil {
			return devices, links, err
		}
		devices++
	}
	for _, l := range demoLinks {
		if err := s.store.InsertLink(ctx, l); err != nil {
			return devices, links, err
		}
		links++
	}
	return devices, links, nil
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}
