package engine

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFrameStats(t *testing.T) {
	c := qt.New(t)
	log, hook := test.NewNullLogger()
	s := NewFrameStats(time.Second, log)
	var now time.Duration
	s.now = func() time.Duration { return now }
	s.start = 0

	for range 9 {
		now += 100 * time.Millisecond
		s.Tick()
	}
	c.Assert(hook.AllEntries(), qt.HasLen, 0)

	now += 100 * time.Millisecond
	s.Tick()
	entry := hook.LastEntry()
	c.Assert(entry, qt.Not(qt.IsNil))
	c.Assert(entry.Message, qt.Equals, "Frame statistics")
	c.Assert(entry.Data["fps"], qt.Equals, 10.0)
	c.Assert(entry.Data["frame_time"], qt.Equals, 100*time.Millisecond)
	c.Assert(entry.Data["component"], qt.Equals, "stats")

	// The window restarts after each report.
	hook.Reset()
	now += 500 * time.Millisecond
	s.Tick()
	c.Assert(hook.AllEntries(), qt.HasLen, 0)
	now += 500 * time.Millisecond
	s.Tick()
	c.Assert(hook.LastEntry().Data["fps"], qt.Equals, 2.0)
}

func TestFrameStatsDisabled(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := NewFrameStats(0, log)
	qt.Assert(t, s, qt.IsNil)
	s.Tick()
}
