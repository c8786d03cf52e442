package roverdriver

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/physic"

	"github.com/autopeer-io/rover/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/rover/internal/pkg/server"
	"github.com/autopeer-io/rover/internal/roverdriver/actuator"
	"github.com/autopeer-io/rover/internal/roverdriver/controller"
	"github.com/autopeer-io/rover/internal/roverdriver/core"
	"github.com/autopeer-io/rover/internal/roverdriver/hal"
	"github.com/autopeer-io/rover/internal/roverdriver/link"
	"github.com/autopeer-io/rover/internal/roverdriver/motion"
	"github.com/autopeer-io/rover/internal/roverdriver/poller"
	"github.com/autopeer-io/rover/internal/roverdriver/telemetry"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/rover/pkg/mqtt/topic"
	"github.com/autopeer-io/rover/pkg/options"
)

type Config struct {
	RoverID         string
	PollOptions     *options.PollOptions
	MotionOptions   *options.MotionOptions
	HardwareOptions *options.HardwareOptions
	LinkOptions     *options.LinkOptions
	MqttOptions     *options.MqttOptions
	HttpOptions     *options.HttpOptions
}

// NewAgent wires the drive node from the configuration.
func (cfg *Config) NewAgent() (*Agent, error) {
	rid := DiscoverRoverID(cfg.RoverID)
	if rid == "" {
		return nil, fmt.Errorf("FATAL: unable to determine the rover ID")
	}
	logger := log.WithValues("roverID", rid)

	board, err := cfg.newBoard()
	if err != nil {
		return nil, err
	}

	steering, drive, err := cfg.newActuators(board)
	if err != nil {
		_ = board.Close()
		return nil, err
	}

	source, err := poller.NewHTTPSource(cfg.PollOptions.Endpoint, cfg.PollOptions.Timeout)
	if err != nil {
		_ = board.Close()
		return nil, err
	}

	lnk := cfg.newLink(logger)

	var reporter core.Reporter = core.NopReporter{}
	var publisher *telemetry.Publisher
	var remoteStop <-chan struct{}
	if cfg.MqttOptions.Enabled() {
		mqttClient, topicBuilder, err := cfg.initMqttClientAndTopicBuilder(rid)
		if err != nil {
			_ = board.Close()
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		publisher = telemetry.New(rid, mqttClient, topicBuilder, cfg.MqttOptions.QueueSize, logger.WithName("telemetry"))
		reporter = publisher
		remoteStop = publisher.StopRequests()
	}

	machine := motion.New(steering, drive, cfg.MotionOptions.Duration, logger.WithName("motion"))
	ctrl := controller.New(controller.Config{
		Machine:      machine,
		Source:       source,
		Link:         lnk,
		Reporter:     reporter,
		RemoteStop:   remoteStop,
		Clock:        clock.New(),
		Logger:       logger.WithName("controller"),
		PollInterval: cfg.PollOptions.Interval,
		Tick:         cfg.MotionOptions.Tick,
	})

	var httpSrv *server.HTTPServer
	if cfg.HttpOptions != nil && cfg.HttpOptions.Addr != "" {
		httpSrv = server.NewHTTPServer(cfg.HttpOptions, server.WithReadiness(func() error {
			if !lnk.Connected() {
				return errors.New("link down")
			}
			return nil
		}))
	}

	return NewAgent(rid, board, ctrl, publisher, httpSrv), nil
}

func (cfg *Config) newBoard() (core.Board, error) {
	hw := cfg.HardwareOptions
	switch hw.Driver {
	case options.HardwareDriverMemory:
		log.Warn("Using in-memory board, no pin will be driven")
		return hal.NewMemoryBoard(), nil
	case options.HardwareDriverPeriph:
		return hal.NewPeriphBoard(log.Logr(), hw.PinPrefix, hal.ServoConfig{
			MinPulse:  hw.ServoMinPulse,
			MaxPulse:  hw.ServoMaxPulse,
			Frequency: physic.Frequency(hw.ServoFrequencyHz) * physic.Hertz,
		})
	default:
		return nil, fmt.Errorf("unknown hardware driver %q", hw.Driver)
	}
}

func (cfg *Config) newActuators(board core.Board) (*actuator.SteeringBank, *actuator.MotorBank, error) {
	hw := cfg.HardwareOptions

	steering, err := actuator.NewSteeringBank(board, hw.ServoPins)
	if err != nil {
		return nil, nil, err
	}

	var axles []actuator.AxlePins
	for _, pins := range [][]int{hw.FrontPins, hw.MiddlePins, hw.BackPins} {
		if len(pins) != 4 {
			return nil, nil, fmt.Errorf("an axle needs 4 pins, got %v", pins)
		}
		axles = append(axles, actuator.AxlePins{pins[0], pins[1], pins[2], pins[3]})
	}
	drive, err := actuator.NewMotorBank(board, axles...)
	if err != nil {
		return nil, nil, err
	}
	return steering, drive, nil
}

func (cfg *Config) newLink(logger log.Logger) core.Link {
	if cfg.LinkOptions.Interface == "" {
		return link.Always{}
	}
	return link.NewInterfaceLink(cfg.LinkOptions.Interface, cfg.LinkOptions.RetryInterval, cfg.LinkOptions.MaxRetryInterval, logger.WithName("link"))
}

func (cfg *Config) initMqttClientAndTopicBuilder(rid string) (mqtt.Client, *mqtttopic.Builder, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("rover-driver-%s", rid)
	}

	mqttConfig.WillTopic = topicBuilder.Build(paths.Online, rid)
	mqttConfig.WillPayload = telemetry.OfflinePayload(rid)
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}

	return mqttClient, topicBuilder, nil
}
