package race

import "errors"

var (
	ErrInvalidState      = errors.New("invalid room state")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrDuplicateReaction = errors.New("player already reacted this round")
)
