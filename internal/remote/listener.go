package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/iot-sensor-simulator/internal/audit"
	"github.com/nerrad567/iot-sensor-simulator/internal/control"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/mqtt"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// commandTimeout bounds one command, including the status publish.
const commandTimeout = 5 * time.Second

// Client is the subset of *mqtt.Client the listener uses.
type Client interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishContext(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the logging interface the listener needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Listener dispatches MQTT commands to a Controller and publishes status.
type Listener struct {
	client       Client
	ctrl         *control.Controller
	commandTopic string
	statusTopic  string
	qos          byte
	logger       Logger
	now          func() time.Time
}

// Options configures a Listener.
type Options struct {
	Client       Client
	Controller   *control.Controller
	CommandTopic string
	StatusTopic  string
	QoS          byte
	Logger       Logger
}

// New creates a listener and registers it as a status notifier on the
// controller, so API-driven changes reach the status topic too.
func New(opts Options) *Listener {
	l := &Listener{
		client:       opts.Client,
		ctrl:         opts.Controller,
		commandTopic: opts.CommandTopic,
		statusTopic:  opts.StatusTopic,
		qos:          opts.QoS,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if l.statusTopic != "" {
		opts.Controller.AddNotifier(l)
	}
	return l
}

// Start subscribes to the command topic and publishes the initial status.
// With no command topic configured only status publishing is active.
func (l *Listener) Start(ctx context.Context) error {
	if l.commandTopic != "" {
		if err := l.client.Subscribe(l.commandTopic, l.qos, l.handle); err != nil {
			return fmt.Errorf("subscribing to %s: %w", l.commandTopic, err)
		}
		l.logger.Info("remote control listening", "topic", l.commandTopic)
	}
	l.NotifyStatus(ctx, l.ctrl.Status())
	return nil
}

// Close unsubscribes from the command topic.
func (l *Listener) Close() error {
	if l.commandTopic == "" {
		return nil
	}
	return l.client.Unsubscribe(l.commandTopic)
}

// NotifyStatus implements control.StatusNotifier by publishing the status
// retained, so late subscribers see the current state.
func (l *Listener) NotifyStatus(ctx context.Context, status simulation.Status) {
	if l.statusTopic == "" {
		return
	}

	payload := control.StatusPayload(status)
	payload["timestamp"] = l.now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(payload)
	if err != nil {
		l.logger.Warn("encoding status failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commandTimeout)
	defer cancel()
	if err := l.client.PublishContext(ctx, l.statusTopic, data, l.qos, true); err != nil {
		l.logger.Warn("status publish failed", "topic", l.statusTopic, "error", err)
	}
}

// handle is the MQTT message handler. Returned errors are logged by the
// client wrapper.
func (l *Listener) handle(_ string, payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := l.Dispatch(ctx, cmd); err != nil {
		return fmt.Errorf("remote %s: %w", cmd.Action, err)
	}
	return nil
}

// Dispatch runs one parsed command.
func (l *Listener) Dispatch(ctx context.Context, cmd Command) error {
	l.logger.Info("remote command received", "action", cmd.Action)

	var err error
	switch cmd.Action {
	case ActionStart:
		_, err = l.ctrl.Start(ctx, audit.SourceMQTT)
	case ActionStop:
		_, err = l.ctrl.Stop(ctx, audit.SourceMQTT)
	case ActionReset:
		l.ctrl.Reset(ctx, audit.SourceMQTT)
	case ActionResume:
		l.ctrl.Resume(ctx, audit.SourceMQTT)
	case ActionSettings:
		if cmd.Settings == nil {
			return fmt.Errorf("%w: settings action needs a settings object", ErrInvalidCommand)
		}
		_, err = l.ctrl.UpdateSettings(ctx, audit.SourceMQTT, *cmd.Settings)
	case ActionManual:
		_, err = l.ctrl.SetManual(ctx, audit.SourceMQTT, cmd.Values, cmd.Enabled)
	case ActionPreset:
		_, _, err = l.ctrl.ApplyPreset(ctx, audit.SourceMQTT, cmd.Preset)
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, cmd.Action)
	}
	return err
}
