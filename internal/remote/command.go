package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// Command actions.
const (
	ActionStart    = "start"
	ActionStop     = "stop"
	ActionReset    = "reset"
	ActionResume   = "resume"
	ActionSettings = "settings"
	ActionManual   = "manual"
	ActionPreset   = "preset"
)

// ErrInvalidCommand is returned for malformed or unknown commands.
var ErrInvalidCommand = errors.New("remote: invalid command")

// Command is one message on the command topic.
type Command struct {
	Action   string                     `json:"action"`
	Settings *simulation.SettingsUpdate `json:"settings,omitempty"`
	Values   simulation.Values          `json:"values,omitempty"`
	Enabled  *bool                      `json:"enabled,omitempty"`
	Preset   string                     `json:"preset,omitempty"`
}

// ParseCommand decodes and checks a command payload.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	switch cmd.Action {
	case ActionStart, ActionStop, ActionReset, ActionResume:
	case ActionSettings:
		if cmd.Settings == nil || cmd.Settings.IsEmpty() {
			return Command{}, fmt.Errorf("%w: settings action needs a settings object", ErrInvalidCommand)
		}
	case ActionManual:
		if cmd.Values == nil && cmd.Enabled == nil {
			return Command{}, fmt.Errorf("%w: manual action needs values or enabled", ErrInvalidCommand)
		}
	case ActionPreset:
		if cmd.Preset == "" {
			return Command{}, fmt.Errorf("%w: preset action needs a preset id", ErrInvalidCommand)
		}
	case "":
		return Command{}, fmt.Errorf("%w: action is required", ErrInvalidCommand)
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, cmd.Action)
	}
	return cmd, nil
}
