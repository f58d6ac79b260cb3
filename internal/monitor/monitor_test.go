package monitor

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonhe/netflo/internal/engine"
	"github.com/tonhe/netflo/internal/logging"
	"github.com/tonhe/netflo/internal/store"
	"github.com/tonhe/netflo/internal/topology"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "netflo.db"), logging.Discard())
	require.NoError(t, err)
	poller := engine.NewPoller(st, engine.NewAgent(rand.New(rand.NewPCG(3, 4))), logging.Discard())
	svc := NewService(st, poller, rand.New(rand.NewPCG(5, 6)), logging.Discard())
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestAddDeviceThenPoll(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	d, err := svc.AddDevice(ctx, topology.NewDevice{Name: "Edge-1", IP: "10.0.0.9", Type: topology.TypeRouter})
	require.NoError(t, err)

	views, err := svc.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Edge-1", views[0].Name)
	assert.Equal(t, "10.0.0.9", views[0].IP)
	assert.Equal(t, topology.StatusDown, views[0].DisplayStatus())

	res, err := svc.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, PollResult{Success: true, Polled: 1}, res)

	history, err := svc.History(ctx, d.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestAddDeviceInvalid(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.AddDevice(context.Background(), topology.NewDevice{Name: "x", IP: "not-an-ip"})
	require.ErrorIs(t, err, topology.ErrInvalidDevice)
}

func TestRemoveDeviceRemovesLinks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	n, l, err := svc.Seed(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 4, l)

	views, err := svc.Devices(ctx)
	require.NoError(t, err)
	var access topology.Device
	for _, v := range views {
		if v.Name == "Access Switch 1" {
			access = v.Device
		}
	}
	require.NotEmpty(t, access.ID)

	require.NoError(t, svc.RemoveDevice(ctx, access.ID))

	views, err = svc.Devices(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 4)
	links, err := svc.Links(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1)
	for _, link := range links {
		assert.False(t, link.Touches(access.ID))
	}

	require.ErrorIs(t, svc.RemoveDevice(ctx, access.ID), store.ErrNotFound)
}

func TestSeedRefusesNonEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, _, err := svc.Seed(ctx, false)
	require.NoError(t, err)
	_, _, err = svc.Seed(ctx, false)
	require.ErrorIs(t, err, ErrAlreadySeeded)
}

func TestConnectDevices(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	a, err := svc.AddDevice(ctx, topology.NewDevice{Name: "A", IP: "10.0.0.1"})
	require.NoError(t, err)
	b, err := svc.AddDevice(ctx, topology.NewDevice{Name: "B", IP: "10.0.0.2"})
	require.NoError(t, err)

	l, err := svc.ConnectDevices(ctx, topology.NewLink{SourceDeviceID: a.ID, TargetDeviceID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, float64(topology.DefaultMaxBandwidth), l.MaxBandwidth)

	_, err = svc.ConnectDevices(ctx, topology.NewLink{SourceDeviceID: a.ID, TargetDeviceID: "ghost"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubscribeStopsWithContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.Subscribe(ctx)
	require.NoError(t, err)

	_, err = svc.AddDevice(context.Background(), topology.NewDevice{Name: "A", IP: "10.0.0.1"})
	require.NoError(t, err)
	select {
	case c := <-ch:
		assert.Equal(t, store.TableDevices, c.Table)
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
