package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/hashicorp/go-multierror"

	"github.com/tonhe/netflo/internal/logging"
	"github.com/tonhe/netflo/internal/store"
	"github.com/tonhe/netflo/internal/topology"
)

func seededStore(t *testing.T) (*store.SQLite, []topology.Device) {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "netflo.db"), logging.Discard())
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	devices, links := topology.DemoTopology()
	for _, d := range devices {
		if err := s.InsertDevice(ctx, d); err != nil {
			t.Fatalf("InsertDevice() error: %v", err)
		}
	}
	for _, l := range links {
		if err := s.InsertLink(ctx, l); err != nil {
			t.Fatalf("InsertLink() error: %v", err)
		}
	}
	return s, devices
}

func TestPollWritesSamplesAndLinkStatus(t *testing.T) {
	s, devices := seededStore(t)
	p := NewPoller(s, NewAgent(rand.New(rand.NewPCG(1, 1))), logging.Discard())
	ctx := context.Background()

	for cycle := 0; cycle < 5; cycle++ {
		report, err := p.Poll(ctx)
		if err != nil {
			t.Fatalf("Poll() error: %v", err)
		}
		if report.Polled != len(devices) {
			t.Errorf("expected %d polled, got %d", len(devices), report.Polled)
		}
		if report.Failures != nil {
			t.Errorf("unexpected failures: %v", report.Failures)
		}

		links, err := s.ListLinks(ctx)
		if err != nil {
			t.Fatalf("ListLinks() error: %v", err)
		}
		for _, l := range links {
			if l.Bandwidth < 100 || l.Bandwidth > 900 {
				t.Errorf("link %s bandwidth %v out of range", l.ID, l.Bandwidth)
			}
			if want := topology.ClassifyUtilization(l.Utilization()); l.Status != want {
				t.Errorf("link %s status %q, want %q", l.ID, l.Status, want)
			}
		}
	}

	views, err := s.ListDeviceViews(ctx)
	if err != nil {
		t.Fatalf("ListDeviceViews() error: %v", err)
	}
	for _, v := range views {
		if v.Latest == nil {
			t.Errorf("device %s has no sample after polling", v.Name)
		}
	}

	info := p.Info()
	if info.PollCount != 5 || info.ErrorCount != 0 || info.LastPolled != len(devices) {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestPollEmptyTopology(t *testing.T) {
	p := NewPoller(&fakeStore{}, NewAgent(nil), logging.Discard())
	report, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if report.Polled != 0 {
		t.Errorf("expected 0 polled, got %d", report.Polled)
	}
}

func TestPollListFailureAborts(t *testing.T) {
	fs := &fakeStore{listErr: errors.New("connection refused")}
	p := NewPoller(fs, NewAgent(nil), logging.Discard())
	events := p.Subscribe()

	_, err := p.Poll(context.Background())
	if err == nil {
		t.Fatal("expected error when devices cannot be listed")
	}
	if fs.stats != 0 {
		t.Errorf("expected no writes, got %d", fs.stats)
	}

	select {
	case ev := <-events:
		if ev.Err == nil {
			t.Error("expected event to carry the error")
		}
	case <-time.After(time.Second):
		t.Fatal("no event after failed cycle")
	}
	if p.Info().ErrorCount != 1 {
		t.Errorf("expected error count 1, got %d", p.Info().ErrorCount)
	}
}

func TestPollContinuesAfterDeviceFailure(t *testing.T) {
	fs := &fakeStore{
		devices: []topology.Device{
			{ID: "a", Name: "A", IP: "10.0.0.1"},
			{ID: "b", Name: "B", IP: "10.0.0.2"},
			{ID: "c", Name: "C", IP: "10.0.0.3"},
		},
		links: []topology.Link{
			{ID: "ab", SourceDeviceID: "a", TargetDeviceID: "b", MaxBandwidth: 1000},
		},
		statErr: map[string]error{"a": errors.New("disk full")},
		linkErr: map[string]error{"c": errors.New("timeout")},
	}
	p := NewPoller(fs, NewAgent(nil), logging.Discard())

	report, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if report.Polled != 3 {
		t.Errorf("expected 3 polled, got %d", report.Polled)
	}
	var merr *multierror.Error
	if !errors.As(report.Failures, &merr) || len(merr.Errors) != 2 {
		t.Fatalf("expected 2 failures, got %v", report.Failures)
	}
	if fs.stats != 2 {
		t.Errorf("expected 2 stat writes, got %d", fs.stats)
	}
	// a's stat write failed but its link was still recomputed, then b's.
	if fs.linkUpdates != 2 {
		t.Errorf("expected 2 link updates, got %d", fs.linkUpdates)
	}
}

func TestPollSampleFailure(t *testing.T) {
	fs := &fakeStore{devices: []topology.Device{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}
	p := NewPoller(fs, failingSampler{fail: "a"}, logging.Discard())

	report, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if report.Failures == nil {
		t.Error("expected a failure for device a")
	}
	if fs.stats != 1 {
		t.Errorf("expected 1 stat write, got %d", fs.stats)
	}
}

func TestPollerRunReturnsListError(t *testing.T) {
	p := NewPoller(&fakeStore{listErr: errors.New("boom")}, NewAgent(nil), logging.Discard())
	if err := p.Run(context.Background()); err == nil {
		t.Error("expected Run to return the list error")
	}
}

type fakeStore struct {
	mu          sync.Mutex
	devices     []topology.Device
	links       []topology.Link
	listErr     error
	statErr     map[string]error
	linkErr     map[string]error
	stats       int
	linkUpdates int
}

func (f *fakeStore) ListDevices(ctx context.Context) ([]topology.Device, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *fakeStore) InsertStat(ctx context.Context, s *topology.StatSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statErr[s.DeviceID]; err != nil {
		return err
	}
	f.stats++
	return nil
}

func (f *fakeStore) LinksForDevice(ctx context.Context, deviceID string) ([]topology.Link, error) {
	if err := f.linkErr[deviceID]; err != nil {
		return nil, err
	}
	var out []topology.Link
	for _, l := range f.links {
		if l.Touches(deviceID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateLink(ctx context.Context, l topology.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkUpdates++
	return nil
}

type failingSampler struct {
	fail string
}

func (s failingSampler) Sample(ctx context.Context, d topology.Device) (*gosnmp.SnmpPacket, error) {
	if d.ID == s.fail {
		return nil, errors.New("no response")
	}
	return NewAgent(nil).Sample(ctx, d)
}
