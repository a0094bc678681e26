package history

import "errors"

// ErrNilTurn indicates a nil turn was passed to Append.
var ErrNilTurn = errors.New("cannot append nil turn")

// ErrEphemeralRole indicates an attempt to persist a system turn.
// System instructions are prompt material and never reach storage.
var ErrEphemeralRole = errors.New("system turns are ephemeral and cannot be persisted")

// InvalidRoleError is returned when a turn carries an unknown role.
type InvalidRoleError struct {
	Role Role
}

func (e InvalidRoleError) Error() string {
	if e.Role == "" {
		return "turn role is empty"
	}

	return "invalid turn role: " + string(e.Role)
}
