package engine

import (
	"time"

	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
)

// FrameStats counts presented frames and logs the rate once per interval.
type FrameStats struct {
	log      logrus.FieldLogger
	interval time.Duration
	now      func() time.Duration

	start  time.Duration
	frames int
}

// NewFrameStats returns nil when interval is not positive; a nil
// *FrameStats ignores Tick.
func NewFrameStats(interval time.Duration, log logrus.FieldLogger) *FrameStats {
	if interval <= 0 {
		return nil
	}
	s := &FrameStats{
		log:      log.WithField("component", "stats"),
		interval: interval,
		now:      hrtime.Now,
	}
	s.start = s.now()
	return s
}

// Tick records one frame.
func (s *FrameStats) Tick() {
	if s == nil {
		return
	}
	s.frames++
	elapsed := s.now() - s.start
	if elapsed < s.interval {
		return
	}
	s.log.WithFields(logrus.Fields{
		"fps":        float64(s.frames) / elapsed.Seconds(),
		"frame_time": elapsed / time.Duration(s.frames),
	}).Info("Frame statistics")
	s.start += elapsed
	s.frames = 0
}
