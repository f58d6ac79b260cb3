package topology

import (
	"fmt"
	"time"
)

// DeviceType is the category label of a device. It only selects the glyph
// the dashboard draws.
type DeviceType string

const (
	TypeRouter DeviceType = "router"
	TypeSwitch DeviceType = "switch"
	TypeServer DeviceType = "server"
)

// DeviceTypes lists the valid device categories in display order.
var DeviceTypes = []DeviceType{TypeRouter, TypeSwitch, TypeServer}

// ParseDeviceType returns the DeviceType named by s.
func ParseDeviceType(s string) (DeviceType, error) {
	for _, t := range DeviceTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown device type %q", s)
}

// Status is the operational state reported in a stat sample.
type Status string

const (
	StatusUp      Status = "up"
	StatusWarning Status = "warning"
	StatusDown    Status = "down"
)

// LinkHealth is the health tier derived from link utilization.
type LinkHealth string

const (
	HealthHealthy  LinkHealth = "healthy"
	HealthWarning  LinkHealth = "warning"
	HealthCritical LinkHealth = "critical"
)

// DefaultCommunity is used when a device is added without a community string.
const DefaultCommunity = "public"

// DefaultMaxBandwidth is the capacity (Mbps) given to links created without one.
const DefaultMaxBandwidth = 1000

// Device is a monitored network element placed on the canvas.
type Device struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	IP            string     `db:"ip" json:"ip"`
	Type          DeviceType `db:"type" json:"type"`
	SNMPCommunity string     `db:"snmp_community" json:"snmp_community"`
	X             float64    `db:"x" json:"x"`
	Y             float64    `db:"y" json:"y"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// StatSample is one poll result for a device. Samples are append-only.
type StatSample struct {
	ID        int64     `db:"id" json:"id"`
	DeviceID  string    `db:"device_id" json:"device_id"`
	Status    Status    `db:"status" json:"status"`
	Uptime    string    `db:"uptime" json:"uptime"`
	CPU       int       `db:"cpu" json:"cpu"`
	Memory    int       `db:"memory" json:"memory"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Link connects two devices. Bandwidth and Status are rewritten in place by
// every poll cycle.
type Link struct {
	ID             string     `db:"id" json:"id"`
	SourceDeviceID string     `db:"source_device_id" json:"source_device_id"`
	TargetDeviceID string     `db:"target_device_id" json:"target_device_id"`
	Bandwidth      float64    `db:"bandwidth" json:"bandwidth"`
	MaxBandwidth   float64    `db:"max_bandwidth" json:"max_bandwidth"`
	Status         LinkHealth `db:"status" json:"status"`
}

// Touches reports whether the link has deviceID as one of its endpoints.
func (l Link) Touches(deviceID string) bool {
	return l.SourceDeviceID == deviceID || l.TargetDeviceID == deviceID
}

// Utilization returns the link's current throughput as a percentage of capacity.
func (l Link) Utilization() float64 {
	return Utilization(l.Bandwidth, l.MaxBandwidth)
}

// Recompute sets the throughput to the mean of the inbound and outbound
// traffic and reclassifies the link.
func (l *Link) Recompute(inbound, outbound float64) {
	l.Bandwidth = (inbound + outbound) / 2
	l.Status = ClassifyUtilization(l.Utilization())
}

// DeviceView is a device joined with its most recent stat sample.
type DeviceView struct {
	Device
	Latest *StatSample `json:"latest,omitempty"`
}

// DisplayStatus is the status of the latest sample, or down when the device
// has never been polled.
func (v DeviceView) DisplayStatus() Status {
	if v.Latest == nil || v.Latest.Status == "" {
		return StatusDown
	}
	return v.Latest.Status
}
