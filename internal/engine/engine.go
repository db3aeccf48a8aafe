package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/clock"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/models"
	"github.com/wheelibin/homesim/internal/registry"
	"github.com/wheelibin/homesim/internal/scheduler"
)

type broadcaster interface {
	Broadcast(event string)
}

type transitionRecorder interface {
	Record(t models.Transition) error
}

// Engine applies every device state change. All mutations, whatever their
// trigger (api call, expired timer, temperature sample), are serialised by mu.
type Engine struct {
	logger      *log.Logger
	registry    *registry.Registry
	scheduler   *scheduler.Scheduler
	clock       clock.Clock
	broadcaster broadcaster
	recorder    transitionRecorder

	mu sync.Mutex
}

func NewEngine(
	logger *log.Logger,
	reg *registry.Registry,
	sched *scheduler.Scheduler,
	clk clock.Clock,
	broadcaster broadcaster,
	recorder transitionRecorder,
) *Engine {
	return &Engine{
		logger:      logger,
		registry:    reg,
		scheduler:   sched,
		clock:       clk,
		broadcaster: broadcaster,
		recorder:    recorder,
	}
}

func (e *Engine) Status() models.States {
	return e.registry.Snapshot()
}

func (e *Engine) SetPower(cmd PowerCommand) (models.Device, error) {
	if err := cmd.Validate(); err != nil {
		return models.Device{}, err
	}

	e.mu.Lock()
	now := e.clock.Now()
	d, err := e.registry.Update(cmd.Category, cmd.ID, func(d *models.Device) error {
		if cmd.On {
			switchOn(d, now, cmd)
		} else {
			switchOff(d)
		}
		return nil
	})
	if err == nil {
		e.syncTrigger(d, now)
		e.record([]models.Device{d}, constants.SourceAPI, now)
	}
	e.mu.Unlock()

	if err != nil {
		return models.Device{}, classify(err)
	}

	e.logger.Info(fmt.Sprintf("%s turned %s", d.Name, onOff(d.IsOn)), "category", d.Category, "turnOffAt", d.Schedule.Off)
	e.notify()
	return d, nil
}

func (e *Engine) SetIntensity(cmd IntensityCommand) (models.Device, error) {
	if err := cmd.Validate(); err != nil {
		return models.Device{}, err
	}

	e.mu.Lock()
	d, err := e.registry.Update(cmd.Category, cmd.ID, func(d *models.Device) error {
		d.Intensity = cmd.Value
		return nil
	})
	if err == nil {
		e.record([]models.Device{d}, constants.SourceAPI, e.clock.Now())
	}
	e.mu.Unlock()

	if err != nil {
		return models.Device{}, classify(err)
	}

	e.logger.Infof("%s intensity set to %d", d.Name, d.Intensity)
	e.notify()
	return d, nil
}

// ApplyTemperatureSample evaluates every fan against its thresholds. Fans are
// independent, so the order in which they are visited does not matter.
func (e *Engine) ApplyTemperatureSample(temperature float64) error {
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return fmt.Errorf("%w: temperature must be a finite number", ErrInvalidArgument)
	}

	e.mu.Lock()
	now := e.clock.Now()
	changed := []models.Device{}
	e.registry.ForEach(constants.CategoryFans, func(d *models.Device) {
		if d.Threshold.IsEmpty() {
			return
		}
		switch {
		case d.IsOn && d.Threshold.Off != nil && temperature <= *d.Threshold.Off:
			e.logger.Infof("%s turned off, temperature %v at or below %v", d.Name, temperature, *d.Threshold.Off)
			switchOff(d)
			changed = append(changed, d.Copy())

		case !d.IsOn && d.Threshold.On != nil && temperature > *d.Threshold.On:
			e.logger.Infof("%s turned on, temperature %v above %v", d.Name, temperature, *d.Threshold.On)
			d.IsOn = true
			d.Schedule.On = &now
			// an existing deadline is kept, an expired one is dropped
			if d.Schedule.Off != nil && !d.Schedule.Off.After(now) {
				d.Schedule.Off = nil
			}
			changed = append(changed, d.Copy())
		}
	})
	for _, d := range changed {
		e.syncTrigger(d, now)
	}
	e.record(changed, constants.SourceTemperature, now)
	e.mu.Unlock()

	if len(changed) > 0 {
		e.notify()
	}
	return nil
}

// TurnOffAll switches every device off and cancels every pending trigger,
// followed by a single broadcast.
func (e *Engine) TurnOffAll() models.States {
	e.mu.Lock()
	all := []models.Device{}
	for _, category := range registry.Categories {
		e.registry.ForEach(category, func(d *models.Device) {
			switchOff(d)
			all = append(all, d.Copy())
		})
	}
	e.scheduler.CancelAll()
	e.record(all, constants.SourceBulk, e.clock.Now())
	e.mu.Unlock()

	e.logger.Info("All devices turned off", "total", len(all))
	e.notify()
	return e.registry.Snapshot()
}

// Shutdown cancels every pending trigger without touching device state.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduler.CancelAll()
}

// syncTrigger arms or cancels the device's deferred off so it always matches
// Schedule.Off. Callers hold e.mu.
func (e *Engine) syncTrigger(d models.Device, now time.Time) {
	key := d.Key()
	if !d.IsOn || d.Schedule.Off == nil || !d.Schedule.Off.After(now) {
		e.scheduler.Cancel(key)
		return
	}

	category, id, fireAt := d.Category, d.ID, *d.Schedule.Off
	e.scheduler.Arm(key, fireAt, func(gen uint64) {
		e.expire(category, id, gen, fireAt)
	})
}

// expire is the deferred off action. The device may have been switched off or
// rescheduled since the trigger was armed, in which case it does nothing.
func (e *Engine) expire(category string, id string, gen uint64, fireAt time.Time) {
	e.mu.Lock()
	if !e.scheduler.Complete(models.DeviceKey(category, id), gen) {
		e.mu.Unlock()
		e.logger.Debug("trigger superseded before it ran", "device", models.DeviceKey(category, id))
		return
	}
	d, err := e.registry.Update(category, id, func(d *models.Device) error {
		if !d.IsOn || d.Schedule.Off == nil || !d.Schedule.Off.Equal(fireAt) {
			return errStaleTrigger
		}
		switchOff(d)
		return nil
	})
	if err == nil {
		e.record([]models.Device{d}, constants.SourceTimer, e.clock.Now())
	}
	e.mu.Unlock()

	if err != nil {
		if errors.Is(err, errStaleTrigger) {
			e.logger.Debug("stale trigger ignored", "device", models.DeviceKey(category, id))
		} else {
			e.logger.Error(classify(err))
		}
		return
	}

	e.logger.Infof("%s turned off by schedule", d.Name)
	e.notify()
}

// record writes the history while e.mu is held, so rows land in the order the
// transitions were applied.
func (e *Engine) record(devices []models.Device, source string, now time.Time) {
	for _, d := range devices {
		err := e.recorder.Record(models.Transition{
			Category:  d.Category,
			DeviceID:  d.ID,
			On:        d.IsOn,
			Intensity: d.Intensity,
			Source:    source,
			At:        now,
		})
		if err != nil {
			e.logger.Error(err)
		}
	}
}

func (e *Engine) notify() {
	e.broadcaster.Broadcast(constants.EventStateChanged)
}

func switchOn(d *models.Device, now time.Time, cmd PowerCommand) {
	d.IsOn = true
	d.Schedule = models.OnOffSchedule{On: &now}
	if cmd.TurnOffAt != nil && cmd.TurnOffAt.After(now) {
		off := *cmd.TurnOffAt
		d.Schedule.Off = &off
	}
	if d.Category == constants.CategoryFans {
		d.Threshold = nil
		if cmd.hasThresholds() {
			on, off := *cmd.TempOn, *cmd.TempOff
			d.Threshold = &models.TempThreshold{On: &on, Off: &off}
		}
	}
}

func switchOff(d *models.Device) {
	d.IsOn = false
	d.Schedule = models.OnOffSchedule{}
	d.Threshold = nil
}

func classify(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
