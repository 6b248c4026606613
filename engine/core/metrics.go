package core

const frameWindow = 30

// FrameStats keeps a rolling average of frame times and a frames-per-
// second figure refreshed once per accumulated second. Not safe for
// concurrent use; the frame loop owns it.
type FrameStats struct {
	times  [frameWindow]float64
	cursor int
	filled bool
	avgMS  float64

	frames  int
	accumMS float64
	fps     float64
}

// Update records one frame. Returns true when the FPS figure was
// refreshed, so callers can log on second boundaries instead of every
// frame.
func (s *FrameStats) Update(frameSeconds float64) bool {
	ms := frameSeconds * 1000
	s.times[s.cursor] = ms
	s.cursor++
	if s.cursor == frameWindow {
		s.cursor = 0
		s.filled = true
	}
	if s.filled {
		sum := 0.0
		for _, t := range s.times {
			sum += t
		}
		s.avgMS = sum / frameWindow
	}

	s.accumMS += ms
	s.frames++
	if s.accumMS >= 1000 {
		s.fps = float64(s.frames)
		s.accumMS -= 1000
		s.frames = 0
		return true
	}
	return false
}

// FPS returns the last completed one-second frame count.
func (s *FrameStats) FPS() float64 {
	return s.fps
}

// FrameTimeMS returns the rolling average frame time in milliseconds.
// Zero until a full window of frames has been recorded.
func (s *FrameStats) FrameTimeMS() float64 {
	return s.avgMS
}
