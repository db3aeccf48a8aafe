package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/registry"
)

// PowerCommand asks for a device to be switched on or off.
type PowerCommand struct {
	Category string
	ID       string
	On       bool

	// absolute time for an automatic switch off, ignored unless in the future
	TurnOffAt *time.Time

	// fan thresholds, only stored when both are supplied
	TempOn  *float64
	TempOff *float64
}

type IntensityCommand struct {
	Category string
	ID       string
	Value    int
}

func (c PowerCommand) Validate() error {
	if !registry.IsCategory(c.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrNotFound, c.Category)
	}
	// thresholds only apply when switching on
	if !c.On || (c.TempOn == nil && c.TempOff == nil) {
		return nil
	}
	if c.Category != constants.CategoryFans {
		return fmt.Errorf("%w: temperature thresholds are only supported for fans", ErrInvalidArgument)
	}
	for _, v := range []*float64{c.TempOn, c.TempOff} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: temperature threshold must be a finite number", ErrInvalidArgument)
		}
	}
	if c.hasThresholds() && *c.TempOff >= *c.TempOn {
		return fmt.Errorf("%w: off threshold (%v) must be below on threshold (%v)", ErrInvalidArgument, *c.TempOff, *c.TempOn)
	}
	return nil
}

func (c PowerCommand) hasThresholds() bool {
	return c.TempOn != nil && c.TempOff != nil
}

func (c IntensityCommand) Validate() error {
	if !registry.IsCategory(c.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrNotFound, c.Category)
	}
	if c.Category == constants.CategorySecurity {
		return fmt.Errorf("%w: %s devices have no intensity", ErrInvalidArgument, c.Category)
	}
	if c.Value < constants.MinIntensity || c.Value > constants.MaxIntensity {
		return fmt.Errorf("%w: intensity %d outside [%d,%d]", ErrInvalidArgument, c.Value, constants.MinIntensity, constants.MaxIntensity)
	}
	return nil
}
