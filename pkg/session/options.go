package session

import (
	"log/slog"

	"github.com/dmitrymomot/sessionkit/pkg/signout"
)

// Option is a functional option for configuring the Provider
type Option func(*Provider)

// WithConfig sets custom configuration. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(p *Provider) {
		p.cfg = cfg.withDefaults()
	}
}

// WithNavigator sets the redirect collaborator
func WithNavigator(n Navigator) Option {
	return func(p *Provider) {
		if n != nil {
			p.navigator = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithChannelOptions passes options to the sign-out channel opened by Start
func WithChannelOptions(opts ...signout.Option) Option {
	return func(p *Provider) {
		p.channelOpts = append(p.channelOpts, opts...)
	}
}
