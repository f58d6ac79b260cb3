package engine

import (
	"time"

	"github.com/tonhe/netflo/internal/topology"
)

// Reading is one decoded agent response.
type Reading struct {
	Status  topology.Status
	Uptime  string
	CPU     int
	Memory  int
	InMbps  float64
	OutMbps float64
}

// Report summarizes a finished poll cycle.
type Report struct {
	Polled   int
	Failures error // *multierror.Error of per-device failures, nil when clean
	Started  time.Time
	Duration time.Duration
}

// Info provides summary information about the poller.
type Info struct {
	LastPoll   time.Time `json:"last_poll"`
	PollCount  int       `json:"poll_count"`
	ErrorCount int       `json:"error_count"`
	LastPolled int       `json:"last_polled"`
}

// Event is emitted to subscribers after each poll cycle.
type Event struct {
	Report Report
	Err    error
}
