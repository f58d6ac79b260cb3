package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/tonhe/netflo/internal/topology"
)

// Store is the part of the topology store a poll cycle reads and writes.
type Store interface {
	ListDevices(ctx context.Context) ([]topology.Device, error)
	InsertStat(ctx context.Context, s *topology.StatSample) error
	LinksForDevice(ctx context.Context, deviceID string) ([]topology.Link, error)
	UpdateLink(ctx context.Context, l topology.Link) error
}

// Poller runs poll cycles: one simulated SNMP sample per device, written as
// a stat sample, followed by a recompute of every link touching the device.
//
// Cycles are not serialized against each other. A timer-driven cycle and a
// user-triggered one may interleave their writes.
type Poller struct {
	mu          sync.RWMutex
	store       Store
	agent       Sampler
	log         *logrus.Entry
	now         func() time.Time
	subscribers []chan Event
	pollCount   int
	errorCount  int
	lastPoll    time.Time
	lastPolled  int
}

// NewPoller creates a Poller writing to store and sampling through agent.
func NewPoller(store Store, agent Sampler, log *logrus.Entry) *Poller {
	return &Poller{
		store: store,
		agent: agent,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one poll cycle. It lets a Poller be handed to the scheduler.
func (p *Poller) Run(ctx context.Context) error {
	_, err := p.Poll(ctx)
	return err
}

// Poll executes a single cycle over all devices. A failure to list devices
// aborts the cycle and is returned. Per-device failures are logged, collected
// in Report.Failures, and do not stop the remaining devices.
func (p *Poller) Poll(ctx context.Context) (Report, error) {
	report := Report{Started: p.now()}

	devices, err := p.store.ListDevices(ctx)
	if err != nil {
		err = fmt.Errorf("listing devices: %w", err)
		p.log.WithError(err).Error("poll cycle aborted")
		p.finish(report, err)
		return report, err
	}

	var failures *multierror.Error
	for _, d := range devices {
		if err := p.pollDevice(ctx, d); err != nil {
			failures = multierror.Append(failures, err)
		}
	}

	report.Polled = len(devices)
	report.Failures = failures.ErrorOrNil()
	report.Duration = p.now().Sub(report.Started)
	p.log.WithFields(logrus.Fields{
		"polled":   report.Polled,
		"failures": countErrors(report.Failures),
		"duration": report.Duration,
	}).Info("poll cycle complete")

	p.finish(report, nil)
	return report, nil
}

// pollDevice samples one device and writes the results. It keeps going
// after a failed write so that a broken stat insert still updates links.
func (p *Poller) pollDevice(ctx context.Context, d topology.Device) error {
	log := p.log.WithFields(logrus.Fields{"device": d.Name, "ip": d.IP})

	pkt, err := p.agent.Sample(ctx, d)
	if err != nil {
		log.WithError(err).Warn("sample failed")
		return fmt.Errorf("%s: sample: %w", d.Name, err)
	}
	r, err := Decode(pkt)
	if err != nil {
		log.WithError(err).Warn("decode failed")
		return fmt.Errorf("%s: decode: %w", d.Name, err)
	}

	var errs *multierror.Error

	stat := &topology.StatSample{
		DeviceID:  d.ID,
		Status:    r.Status,
		Uptime:    r.Uptime,
		CPU:       r.CPU,
		Memory:    r.Memory,
		Timestamp: p.now(),
	}
	if err := p.store.InsertStat(ctx, stat); err != nil {
		log.WithError(err).Error("failed to write stat sample")
		errs = multierror.Append(errs, fmt.Errorf("%s: insert stat: %w", d.Name, err))
	}

	links, err := p.store.LinksForDevice(ctx, d.ID)
	if err != nil {
		log.WithError(err).Error("failed to read links")
		errs = multierror.Append(errs, fmt.Errorf("%s: read links: %w", d.Name, err))
		return errs.ErrorOrNil()
	}
	for _, l := range links {
		l.Recompute(r.InMbps, r.OutMbps)
		if err := p.store.UpdateLink(ctx, l); err != nil {
			log.WithError(err).WithField("link", l.ID).Error("failed to update link")
			errs = multierror.Append(errs, fmt.Errorf("%s: update link %s: %w", d.Name, l.ID, err))
		}
	}
	return errs.ErrorOrNil()
}

func (p *Poller) finish(report Report, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pollCount++
	p.lastPoll = report.Started
	p.lastPolled = report.Polled
	if err != nil {
		p.errorCount++
	}
	p.errorCount += countErrors(report.Failures)
	p.notify(Event{Report: report, Err: err})
}

// Subscribe returns a channel that receives an event after each poll cycle.
// Events are dropped for a subscriber that has not drained the previous one.
func (p *Poller) Subscribe() <-chan Event {
	ch := make(chan Event, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// notify sends the event to all subscribers (non-blocking).
// Must be called while holding the write lock on p.mu.
func (p *Poller) notify(ev Event) {
	for _, ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Info returns summary information about this poller.
func (p *Poller) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Info{
		LastPoll:   p.lastPoll,
		PollCount:  p.pollCount,
		ErrorCount: p.errorCount,
		LastPolled: p.lastPolled,
	}
}

func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if merr, ok := err.(*multierror.Error); ok {
		return len(merr.Errors)
	}
	return 1
}
