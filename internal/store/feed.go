package store

import (
	"sync"

	"github.com/tonhe/netflo/internal/topology"
)

// Table names a change feed source.
type Table string

const (
	TableDevices Table = "devices"
	TableStats   Table = "device_stats"
	TableLinks   Table = "links"
)

// Op is the kind of mutation a Change describes.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Change is one row mutation. Row holds a topology.Device, topology.StatSample
// or topology.Link matching Table.
type Change struct {
	Table Table `json:"table"`
	Op    Op    `json:"op"`
	Row   any   `json:"row"`
}

// DeviceRow returns the row as a device, if it is one.
func (c Change) DeviceRow() (topology.Device, bool) {
	d, ok := c.Row.(topology.Device)
	return d, ok
}

// StatRow returns the row as a stat sample, if it is one.
func (c Change) StatRow() (topology.StatSample, bool) {
	s, ok := c.Row.(topology.StatSample)
	return s, ok
}

// Feed fans changes out to subscribers. Each subscriber owns an unbounded
// queue drained by its own goroutine, so Publish never blocks and a slow
// reader never loses changes while subscribed.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	mu     sync.Mutex
	queue  []Change
	wake   chan struct{}
	out    chan Change
	done   chan struct{}
	closed sync.Once
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]*subscriber)}
}

// Subscribe registers a new subscriber. The cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (f *Feed) Subscribe() (<-chan Change, func()) {
	s := &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan Change),
		done: make(chan struct{}),
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = s
	f.mu.Unlock()

	go s.pump()

	cancel := func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		s.closed.Do(func() { close(s.done) })
	}
	return s.out, cancel
}

// Publish queues c for every live subscriber.
func (f *Feed) Publish(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s.push(c)
	}
}

// Close cancels every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[int]*subscriber)
	f.mu.Unlock()
	for _, s := range subs {
		s.closed.Do(func() { close(s.done) })
	}
}

func (s *subscriber) push(c Change) {
	s.mu.Lock()
	s.queue = append(s.queue, c)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.wake:
		case <-s.done:
			return
		}
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			c := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- c:
			case <-s.done:
				return
			}
		}
	}
}
