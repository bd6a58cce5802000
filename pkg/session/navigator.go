package session

import "context"

// Navigator moves the page to another location.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string) error

func (f NavigatorFunc) Navigate(ctx context.Context, path string) error {
	return f(ctx, path)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, string) error { return nil }
