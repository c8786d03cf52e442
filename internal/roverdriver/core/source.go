package core

import "context"

// CommandSource returns the next command for the rover. The last executed
// command is passed along so the producer can take it into account.
//
// Implementations must return Stop together with any error.
type CommandSource interface {
	Next(ctx context.Context, last Command) (Command, error)
}

// Link reports and restores connectivity to the command source.
type Link interface {
	Connected() bool
	// Connect blocks until the link is up or ctx is done.
	Connect(ctx context.Context) error
}

// Reporter receives controller events. Report must not block.
type Reporter interface {
	Report(ev Event)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Report(Event) {}
