package paratick

import (
	"errors"
)

var ErrAlreadyInitialized = errors.New("per-CPU tick state already initialized")
var ErrInvalidCPUCount = errors.New("invalid virtual CPU count")
var ErrVectorTaken = errors.New("IRQ vector already installed")
