package topology

import "math"

// DeviceRadius is the radius of a device marker in world units.
const DeviceRadius = 30.0

// World dimensions of the topology canvas.
const (
	WorldWidth  = 1200.0
	WorldHeight = 700.0
)

// Distance returns the Euclidean distance from (x, y) to the device center.
func (d Device) Distance(x, y float64) float64 {
	return math.Hypot(d.X-x, d.Y-y)
}

// HitTest returns the first device, in iteration order, whose center lies
// within radius of (x, y).
func HitTest(devices []Device, x, y, radius float64) (Device, bool) {
	for _, d := range devices {
		if d.Distance(x, y) <= radius {
			return d, true
		}
	}
	return Device{}, false
}
