package live

import "errors"

var (
	ErrAlreadyExists = errors.New("live session already exists")
	ErrNotFound      = errors.New("live session not found")
)
