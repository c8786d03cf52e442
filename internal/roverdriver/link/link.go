// Package link watches the network connection to the command source.
package link

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/pkg/log"
)

// Always is a link that is never down. Used when no interface is watched.
type Always struct{}

var _ core.Link = Always{}

func (Always) Connected() bool                   { return true }
func (Always) Connect(ctx context.Context) error { return ctx.Err() }

// InterfaceLink is up while a network interface is up and has a unicast address.
type InterfaceLink struct {
	name       string
	initial    time.Duration
	maxBackoff time.Duration
	logger     log.Logger

	// lookup is swapped in tests.
	lookup func(name string) (up bool, err error)
}

var _ core.Link = (*InterfaceLink)(nil)

// NewInterfaceLink watches the interface called name (e.g. wlan0).
func NewInterfaceLink(name string, initial, maxBackoff time.Duration, logger log.Logger) *InterfaceLink {
	return &InterfaceLink{
		name:       name,
		initial:    initial,
		maxBackoff: maxBackoff,
		logger:     logger,
		lookup:     interfaceUp,
	}
}

func (l *InterfaceLink) Connected() bool {
	up, err := l.lookup(l.name)
	if err != nil {
		l.logger.Debug("Interface lookup failed", "interface", l.name, "err", err.Error())
	}
	return up
}

// Connect retries with exponential backoff until the interface is up or ctx is done.
// Association itself is left to the operating system.
func (l *InterfaceLink) Connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.initial
	b.MaxInterval = l.maxBackoff
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		up, err := l.lookup(l.name)
		if err != nil {
			return err
		}
		if !up {
			return fmt.Errorf("interface %s is down", l.name)
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		l.logger.Info("Waiting for link", "interface", l.name, "attempt", attempt, "retryIn", wait, "reason", err.Error())
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("link %s not restored: %w", l.name, err)
	}
	return nil
}

func interfaceUp(name string) (bool, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return false, err
	}
	if iface.Flags&net.FlagUp == 0 {
		return false, nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return false, err
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.IsGlobalUnicast() {
			return true, nil
		}
	}
	return false, nil
}
