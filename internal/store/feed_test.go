package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSlowSubscriberKeepsEverything(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	ch, cancel := f.Subscribe()
	defer cancel()

	const n = 500
	for i := 0; i < n; i++ {
		f.Publish(Change{Table: TableStats, Op: OpInsert, Row: i})
	}

	for i := 0; i < n; i++ {
		c := receive(t, ch)
		assert.Equal(t, i, c.Row)
	}
}

func TestFeedFanOut(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	a, cancelA := f.Subscribe()
	defer cancelA()
	b, cancelB := f.Subscribe()
	defer cancelB()

	f.Publish(Change{Table: TableDevices, Op: OpInsert, Row: "x"})
	assert.Equal(t, "x", receive(t, a).Row)
	assert.Equal(t, "x", receive(t, b).Row)
}

func TestFeedCancelClosesChannel(t *testing.T) {
	f := NewFeed()
	ch, cancel := f.Subscribe()
	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}

	f.Publish(Change{Table: TableLinks, Op: OpUpdate})
}
