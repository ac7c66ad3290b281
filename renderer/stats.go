package renderer

import "time"

// Stats measures the presented frame rate over one-second windows.
type Stats struct {
	count    int
	lastTime time.Time
	fps      float64
}

func (s *Stats) frame(now time.Time) {
	s.count++
	elapsed := now.Sub(s.lastTime)
	if elapsed >= time.Second {
		s.fps = float64(s.count) / elapsed.Seconds()
		s.count = 0
		s.lastTime = now
	}
}
