package game

import "errors"

var (
	// ErrInvalidTransition is returned when a lifecycle operation is not
	// legal from the current session status (e.g. starting a session that
	// already started).
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrConstruction wraps a failure of the injected player factory. The
	// session keeps running; the participant simply has no record.
	ErrConstruction = errors.New("participant record construction failed")
)
