package app

import "context"

// Sink receives every user-visible line, one call per line, in emission order.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, text string) error

func (f SinkFunc) Send(ctx context.Context, text string) error {
	return f(ctx, text)
}
