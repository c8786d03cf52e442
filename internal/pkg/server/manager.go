package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/rover/pkg/log"
)

// Runnable is a long running component stopped by canceling its context.
type Runnable interface {
	Start(ctx context.Context) error
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func(ctx context.Context) error

func (f RunnableFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager runs components side by side. The first failure stops all of them.
type Manager struct {
	runnables []Runnable
}

func NewManager(runnables ...Runnable) *Manager {
	return &Manager{runnables: runnables}
}

// Add registers more components. It must be called before Start.
func (m *Manager) Add(r ...Runnable) {
	m.runnables = append(m.runnables, r...)
}

// Start launches all components in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, r := range m.runnables {
		g.Go(func() error {
			return r.Start(ctx)
		})
	}

	log.Info("All components starting...", "count", len(m.runnables))
	return g.Wait()
}
