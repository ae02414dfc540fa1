package models

import "errors"

// Custom errors
var (
	ErrGameIDRequired = errors.New("game id is required")
	ErrTeamRequired   = errors.New("home and visitor teams are required")
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key violation")
)
