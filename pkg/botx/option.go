package botx

import (
	"time"

	"golang.org/x/exp/slog"
)

// Options defines options for Bot.
type Options struct {
	Workers int
	Logger  *slog.Logger
	// SendTimeout bounds delivery of a single response, zero means
	// the request context only.
	SendTimeout time.Duration
}

// Option defines a function that configures Bot.
type Option func(*Options)

// WithWorkers sets the number of workers to run.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		if workers > 0 {
			o.Workers = workers
		}
	}
}

// WithLogger sets the logger to use.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithSendTimeout sets the timeout for sending a single response.
func WithSendTimeout(d time.Duration) Option {
	return func(o *Options) { o.SendTimeout = d }
}
