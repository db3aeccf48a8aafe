package engine

import (
	"errors"

	"github.com/wheelibin/homesim/internal/registry"
)

var (
	ErrNotFound        = registry.ErrNotFound
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")

	errStaleTrigger = errors.New("stale trigger")
)
