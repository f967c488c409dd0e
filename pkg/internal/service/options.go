package service

import (
	"github.com/jonboulle/clockwork"
)

type options struct {
	clock  clockwork.Clock
	events EventPublisher
}

// Option 服务可选依赖.
type Option func(*options)

// WithClock 注入时间源，测试中使用 clockwork.NewFakeClock.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithEvents 注入事件发布器.
func WithEvents(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.events = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:  clockwork.NewRealClock(),
		events: noopPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
