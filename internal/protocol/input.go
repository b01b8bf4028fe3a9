package protocol

import (
	"encoding/json"
	"fmt"
	"math"
)

// ActionAttack is the only recognised value of the input "action" field.
const ActionAttack = "attack"

// Command is one validated player intent. The set of implementations is
// closed: MoveCommand and AttackCommand.
type Command interface {
	isCommand()
}

// MoveCommand carries a velocity intent in world units per second.
type MoveCommand struct {
	Vx float64
	Vy float64
}

// AttackCommand asks to strike the nearest mob in range.
type AttackCommand struct{}

func (MoveCommand) isCommand()   {}
func (AttackCommand) isCommand() {}

// DecodeInput turns a raw client frame into the commands it carries, in the
// order they should be applied. Only frames that are not a JSON object or
// that are not of type "input" produce an error; bad numeric fields degrade
// to zero.
func DecodeInput(data []byte) ([]Command, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}

	var msgType string
	if raw, ok := fields["type"]; ok {
		_ = json.Unmarshal(raw, &msgType)
	}
	if msgType != TypeInput {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msgType)
	}

	var cmds []Command

	rawVx, hasVx := fields["vx"]
	rawVy, hasVy := fields["vy"]
	if hasVx || hasVy {
		cmds = append(cmds, MoveCommand{
			Vx: number(rawVx),
			Vy: number(rawVy),
		})
	}

	if raw, ok := fields["action"]; ok {
		var action string
		if json.Unmarshal(raw, &action) == nil && action == ActionAttack {
			cmds = append(cmds, AttackCommand{})
		}
	}

	return cmds, nil
}

// number reads a JSON number, returning 0 for anything missing, non-numeric
// or non-finite.
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return Finite(f)
}

// Finite returns f, or 0 when f is NaN or infinite.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
