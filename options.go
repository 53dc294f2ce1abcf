package imagefs

import "log/slog"

// Option configures an FS.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for operation tracing. By default nothing
// is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
