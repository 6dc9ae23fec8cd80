package engine

import "github.com/cockroachdb/errors"

var (
	ErrValidationUnavailable = errors.New("validation layer requested but not available")
	ErrNoSuitableDevice      = errors.New("no suitable GPU found")
	ErrNoMemoryType          = errors.New("no suitable memory type")
	ErrEmptyShader           = errors.New("shader binary is empty")
	ErrNotInitialized        = errors.New("renderer is not initialized")
)
