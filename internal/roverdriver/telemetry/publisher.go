// Package telemetry publishes drive node events over MQTT.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/autopeer-io/rover/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/rover/pkg/mqtt/topic"
)

const publishTimeout = 5 * time.Second

// OnlineStatus is the retained payload on the online topic.
type OnlineStatus struct {
	RoverID string `json:"roverID"`
	Online  bool   `json:"online"`
	Reason  string `json:"reason,omitempty"`
}

// Publisher implements core.Reporter. Report queues the event; Run publishes it.
// It also listens for stop requests on the command topic.
type Publisher struct {
	roverID string

	mc     mqtt.Client
	topics *mqtttopic.Builder
	logger log.Logger

	queue   chan core.Event
	dropped atomic.Uint64

	stops chan struct{}
}

var _ core.Reporter = (*Publisher)(nil)

// New returns a publisher buffering at most queueSize events.
func New(roverID string, client mqtt.Client, topics *mqtttopic.Builder, queueSize int, logger log.Logger) *Publisher {
	return &Publisher{
		roverID: roverID,
		mc:      client,
		topics:  topics,
		logger:  logger,
		queue:   make(chan core.Event, queueSize),
		stops:   make(chan struct{}, 1),
	}
}

// StopRequests delivers one value per pending remote stop. Requests arriving
// while one is already pending are merged into it.
func (p *Publisher) StopRequests() <-chan struct{} { return p.stops }

// OfflinePayload is registered as the Last Will of the client.
func OfflinePayload(roverID string) []byte {
	// Reception time on the broker side is authoritative, so no timestamp here.
	payload, _ := json.Marshal(OnlineStatus{RoverID: roverID, Online: false, Reason: "UnexpectedDisconnect"})
	return payload
}

// Report queues ev without blocking. Events are dropped while the queue is full.
func (p *Publisher) Report(ev core.Event) {
	select {
	case p.queue <- ev:
	default:
		n := p.dropped.Add(1)
		p.logger.Debug("Telemetry queue full, dropping event", "type", ev.Type, "dropped", n)
	}
}

// Dropped returns how many events were discarded so far.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

// Run connects to the broker and publishes queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.mc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	defer p.stop()

	if err := p.mc.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	if err := p.publishStatus(ctx, true, ""); err != nil {
		p.logger.Error(err, "Failed to publish online status")
	}

	commandTopic := p.topics.Build(paths.Command, p.roverID)
	if err := p.mc.Subscribe(ctx, commandTopic, 1, p.handleCommand); err != nil {
		p.logger.Error(err, "Failed to subscribe to command topic", "topic", commandTopic)
	}

	stateTopic := p.topics.Build(paths.State, p.roverID)
	for {
		select {
		case ev := <-p.queue:
			if err := p.publishJSON(ctx, stateTopic, false, ev); err != nil {
				p.logger.Error(err, "Failed to publish event", "type", ev.Type)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// handleCommand turns a message on the command topic into a stop request.
// Motion tokens are ignored: only the command source may start a maneuver.
func (p *Publisher) handleCommand(_ context.Context, topic string, payload []byte) {
	token := strings.TrimSpace(string(payload))
	if cmd := core.Decode(token); cmd != core.Stop {
		p.logger.Warn("Ignoring remote motion command", "topic", topic, "command", cmd)
		return
	}

	p.logger.Info("Remote stop received", "topic", topic, "payload", token)
	select {
	case p.stops <- struct{}{}:
	default:
	}
}

func (p *Publisher) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.publishStatus(ctx, false, "Shutdown"); err != nil {
		p.logger.Warn("Failed to publish offline status", "err", err.Error())
	}
	p.logger.Info("Disconnecting MQTT client...")
	p.mc.Disconnect(ctx)
}

func (p *Publisher) publishStatus(ctx context.Context, online bool, reason string) error {
	status := OnlineStatus{RoverID: p.roverID, Online: online, Reason: reason}
	return p.publishJSON(ctx, p.topics.Build(paths.Online, p.roverID), true, status)
}

func (p *Publisher) publishJSON(ctx context.Context, topic string, retain bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.mc.Publish(ctx, topic, 1, retain, payload)
}
