package suggestion

import (
	"time"
)

// DefaultWindow is the number of most recent draws the windowed strategies look at.
const DefaultWindow = 50

// fullCoverage is the history length at which coverage-based confidence saturates.
const fullCoverage = 200

type settings struct {
	now    func() time.Time
	window int
	seed   func() uint32
}

// Option configures the built-in strategies.
type Option func(*settings)

// WithClock overrides the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWindow sets how many recent draws windowed strategies consider.
func WithWindow(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithSeed fixes the random strategy seed. Every call then yields the same set.
func WithSeed(seed uint32) Option {
	return func(s *settings) {
		s.seed = func() uint32 { return seed }
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		now:    time.Now,
		window: DefaultWindow,
		seed:   func() uint32 { return uint32(time.Now().UnixNano()) },
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
