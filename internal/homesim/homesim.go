package homesim

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/clock"
	"github.com/wheelibin/homesim/internal/environment"
	"github.com/wheelibin/homesim/internal/models"
)

const readingsBuffer = 16

type TemperatureEngine interface {
	ApplyTemperatureSample(temperature float64) error
	// cancels pending triggers, device state is left as is
	Shutdown()
}

type Environment interface {
	Record(r models.Reading)
	RefreshDaylight(baseDate time.Time)
}

// App owns the main loop: external temperature readings and the daily
// daylight refresh.
type App struct {
	logger      *log.Logger
	engine      TemperatureEngine
	environment Environment
	clock       clock.Clock
	readings    chan models.Reading
}

func NewApp(logger *log.Logger, engine TemperatureEngine, environment Environment, clk clock.Clock) *App {
	return &App{
		logger:      logger,
		engine:      engine,
		environment: environment,
		clock:       clk,
		readings:    make(chan models.Reading, readingsBuffer),
	}
}

// Readings is the channel the mqtt feed pushes samples into.
func (a *App) Readings() chan<- models.Reading {
	return a.readings
}

// ApplyReading evaluates the fans against the sample, then stores it as the
// current environment reading. A rejected sample is not stored.
func (a *App) ApplyReading(r models.Reading) error {
	if err := a.engine.ApplyTemperatureSample(r.Temperature); err != nil {
		return err
	}
	a.environment.Record(r)
	return nil
}

func (a *App) Run(ctx context.Context) {
	a.logger.Debug("App.Run")

	newDay := make(chan struct{}, 1)
	armNewDay := func() clock.Timer {
		return a.clock.AfterFunc(environment.DurationUntilNextDay(a.clock.Now()), func() {
			select {
			case newDay <- struct{}{}:
			default:
			}
		})
	}
	dayTimer := armNewDay()
	defer func() { dayTimer.Stop() }()

	a.environment.RefreshDaylight(a.clock.Now())

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("App.Run: stop signal received")
			a.engine.Shutdown()
			return

		case r := <-a.readings:
			a.logger.Debug("App.Run: temperature reading", "temperature", r.Temperature, "humidity", r.Humidity)
			if err := a.ApplyReading(r); err != nil {
				a.logger.Error(err)
			}

		case <-newDay:
			a.logger.Debug("App.Run: new day, refreshing daylight")
			dayTimer = armNewDay()
			a.environment.RefreshDaylight(a.clock.Now())
		}
	}
}
