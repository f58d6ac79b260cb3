package topology

import (
	"time"

	"github.com/google/uuid"
)

// DemoTopology returns a small sample network: a core router, a distribution
// switch, an access switch and two servers.
func DemoTopology() ([]Device, []Link) {
	now := time.Now().UTC()
	devices := []Device{
		{Name: "Core Router", IP: "192.168.1.1", Type: TypeRouter, X: 200, Y: 350},
		{Name: "Distribution Switch", IP: "192.168.1.2", Type: TypeSwitch, X: 500, Y: 200},
		{Name: "Access Switch 1", IP: "192.168.1.3", Type: TypeSwitch, X: 800, Y: 150},
		{Name: "Web Server", IP: "192.168.1.10", Type: TypeServer, X: 1000, Y: 350},
		{Name: "Database Server", IP: "192.168.1.11", Type: TypeServer, X: 800, Y: 550},
	}
	for i := range devices {
		devices[i].ID = uuid.NewString()
		devices[i].SNMPCommunity = DefaultCommunity
		devices[i].CreatedAt = now
	}

	pairs := []struct {
		src, dst  int
		bandwidth float64
	}{
		{0, 1, 450.5},
		{1, 2, 750.2},
		{2, 3, 320.8},
		{2, 4, 890.5},
	}
	links := make([]Link, 0, len(pairs))
	for _, p := range pairs {
		l := Link{
			ID:             uuid.NewString(),
			SourceDeviceID: devices[p.src].ID,
			TargetDeviceID: devices[p.dst].ID,
			Bandwidth:      p.bandwidth,
			MaxBandwidth:   DefaultMaxBandwidth,
		}
		l.Status = ClassifyUtilization(l.Utilization())
		links = append(links, l)
	}
	return devices, links
}
