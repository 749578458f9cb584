package repository

import "errors"

// Sentinel errors returned by repositories. Services translate them into
// user-facing AppErrors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record already exists")
	ErrTeamLocked    = errors.New("team is locked")
	ErrAlreadyInTeam = errors.New("profile already belongs to a team of this kind")
	ErrInvalidState  = errors.New("record is not in a valid state for this operation")
	ErrEventFull     = errors.New("event has reached its registration cap")
)
