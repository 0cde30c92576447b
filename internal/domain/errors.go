package domain

import "errors"

// Catalog errors
var (
	ErrMalformedEntry    = errors.New("malformed catalog entry")
	ErrCharacterNotFound = errors.New("character not found")
)

// Slot assignment errors
var (
	ErrInvalidSlotReference = errors.New("invalid slot reference")
	ErrTeamSetNotFound      = errors.New("team set not found")
	ErrTeamSetFull          = errors.New("team set has no empty slot")
)

// Persistence errors
var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrCorruptState  = errors.New("stored state is corrupt")
)

// Library errors
var (
	ErrSavedSetNotFound = errors.New("saved team set not found")
	ErrSavedSetExists   = errors.New("saved team set already exists")
	ErrInvalidName      = errors.New("name must not be empty")
	ErrInvalidShareCode = errors.New("invalid share code")
	ErrInvalidBackup    = errors.New("invalid saved team set backup")
)
