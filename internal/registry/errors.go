package registry

import "errors"

var ErrNotFound = errors.New("device not found")
