package bplustree

import "go.uber.org/zap"

// Option configures a Tree.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	splitAt int
}

// WithLogger routes structural events (splits, root growth) to logger at
// debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSplitThreshold sets the slot count at which a node becomes eligible for
// a split. It defaults to half the fanout and is clamped to [2, fanout].
func WithSplitThreshold(n int) Option {
	return func(o *options) { o.splitAt = n }
}

func splitThreshold(maxFanout, requested int) int {
	n := requested
	if n <= 0 {
		n = maxFanout / 2
	}
	return min(max(n, 2), maxFanout)
}
