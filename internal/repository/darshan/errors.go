package darshan

import "errors"

var (
	ErrSessionNotFound      = errors.New("prepared session not found")
	ErrSessionAlreadyExists = errors.New("prepared session already exists")
	ErrVolumeNotFound       = errors.New("volume not found")
	ErrInvalidVolume        = errors.New("invalid volume")
)
