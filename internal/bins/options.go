package bins

import "go.uber.org/zap"

type Option interface {
	apply(*State)
}

type optionFunc func(*State)

func (f optionFunc) apply(s *State) {
	f(s)
}

// WithFinder selects the nearest-bin strategy. The default is a linear scan.
func WithFinder(f Finder) Option {
	return optionFunc(func(s *State) {
		s.finder = f
	})
}

func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(s *State) {
		s.logger = logger
	})
}
