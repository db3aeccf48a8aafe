package engine_test

import (
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wheelibin/homesim/internal/clock"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/engine"
	"github.com/wheelibin/homesim/internal/models"
	"github.com/wheelibin/homesim/internal/registry"
	"github.com/wheelibin/homesim/internal/scheduler"
	"github.com/wheelibin/homesim/mocks"
)

var start = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	engine      *engine.Engine
	clock       *clock.Fake
	scheduler   *scheduler.Scheduler
	registry    *registry.Registry
	broadcaster *mocks.MockEngineBroadcaster
	recorder    *mocks.MockEngineTransitionRecorder
}

func defaultSeed() []models.Device {
	return []models.Device{
		{ID: "livingRoom", Category: constants.CategoryLights, Name: "Living Room"},
		{ID: "kitchen", Category: constants.CategoryLights, Name: "Kitchen"},
		{ID: "office", Category: constants.CategoryLights, Name: "Office"},
		{ID: "office", Category: constants.CategoryFans, Name: "Office Fan", Threshold: &models.TempThreshold{On: lo.ToPtr(28.0), Off: lo.ToPtr(22.0)}},
		{ID: "kitchen", Category: constants.CategoryFans, Name: "Kitchen Fan", Intensity: 255},
		{ID: "mainGate", Category: constants.CategorySecurity, Name: "Main Gate", Type: "gate"},
	}
}

func newFixture(t *testing.T, seed []models.Device) *fixture {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	clk := clock.NewFake(start)
	sched := scheduler.NewScheduler(logger, clk)
	reg := registry.NewRegistry(seed)
	broadcaster := mocks.NewMockEngineBroadcaster(t)
	recorder := mocks.NewMockEngineTransitionRecorder(t)
	broadcaster.On("Broadcast", constants.EventStateChanged).Return().Maybe()
	recorder.On("Record", mock.Anything).Return(nil).Maybe()

	return &fixture{
		engine:      engine.NewEngine(logger, reg, sched, clk, broadcaster, recorder),
		clock:       clk,
		scheduler:   sched,
		registry:    reg,
		broadcaster: broadcaster,
		recorder:    recorder,
	}
}

func (f *fixture) device(t *testing.T, category string, id string) models.Device {
	d, err := f.registry.Find(category, id)
	require.NoError(t, err)
	return d
}

// sources returns the source of every recorded transition, in order.
func (f *fixture) sources() []string {
	return lo.Map(f.recorder.Calls, func(c mock.Call, _ int) string {
		return c.Arguments.Get(0).(models.Transition).Source
	})
}

func assertFullyOff(t *testing.T, f *fixture, d models.Device) {
	t.Helper()
	assert.False(t, d.IsOn)
	assert.Nil(t, d.Schedule.On)
	assert.Nil(t, d.Schedule.Off)
	assert.Nil(t, d.Threshold)
	_, pending := f.scheduler.Pending(d.Key())
	assert.False(t, pending)
}

func Test_SetPower(t *testing.T) {

	t.Run("on: should record the on time and broadcast", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())

		// act
		d, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: true})

		// assert
		require.NoError(t, err)
		assert.True(t, d.IsOn)
		require.NotNil(t, d.Schedule.On)
		assert.Equal(t, start, *d.Schedule.On)
		assert.Nil(t, d.Schedule.Off)
		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 1)
		assert.Equal(t, []string{constants.SourceAPI}, f.sources())
	})

	t.Run("scheduled off: should switch off once at the deadline", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		offAt := start.Add(1000 * time.Millisecond)

		// act
		_, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryFans, ID: "kitchen", On: true, TurnOffAt: &offAt})
		require.NoError(t, err)
		f.clock.Advance(999 * time.Millisecond)
		assert.True(t, f.device(t, constants.CategoryFans, "kitchen").IsOn)
		f.clock.Advance(time.Millisecond)
		f.clock.Advance(time.Minute)

		// assert
		assertFullyOff(t, f, f.device(t, constants.CategoryFans, "kitchen"))
		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 2)
		assert.Equal(t, []string{constants.SourceAPI, constants.SourceTimer}, f.sources())
	})

	t.Run("manual off before the deadline: timer should never act", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		offAt := start.Add(5000 * time.Millisecond)

		// act
		_, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "livingRoom", On: true, TurnOffAt: &offAt})
		require.NoError(t, err)
		d, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "livingRoom", On: false})
		require.NoError(t, err)
		f.clock.Advance(10 * time.Second)

		// assert
		assertFullyOff(t, f, d)
		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 2)
		assert.Equal(t, []string{constants.SourceAPI, constants.SourceAPI}, f.sources())
		assert.Equal(t, 0, f.clock.Pending())
	})

	t.Run("re-armed deadline: only the second deadline should fire", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		first := start.Add(2 * time.Second)
		second := start.Add(5 * time.Second)

		// act
		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "office", On: true, TurnOffAt: &first})
		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "office", On: true, TurnOffAt: &second})
		f.clock.Advance(3 * time.Second)

		// assert
		assert.True(t, f.device(t, constants.CategoryLights, "office").IsOn)
		f.clock.Advance(2 * time.Second)
		assertFullyOff(t, f, f.device(t, constants.CategoryLights, "office"))
		f.clock.Advance(time.Hour)
		assert.Equal(t, []string{constants.SourceAPI, constants.SourceAPI, constants.SourceTimer}, f.sources())
	})

	t.Run("deadline not in the future: should be ignored", func(t *testing.T) {
		f := newFixture(t, defaultSeed())

		for _, offAt := range []time.Time{start, start.Add(-time.Minute)} {
			offAt := offAt
			d, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: true, TurnOffAt: &offAt})

			require.NoError(t, err)
			assert.True(t, d.IsOn)
			assert.Nil(t, d.Schedule.Off)
			assert.Equal(t, 0, f.scheduler.PendingCount())
		}
	})

	t.Run("on again without deadline: should cancel the pending trigger", func(t *testing.T) {
		f := newFixture(t, defaultSeed())
		offAt := start.Add(time.Second)

		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: true, TurnOffAt: &offAt})
		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: true})
		f.clock.Advance(time.Minute)

		assert.True(t, f.device(t, constants.CategoryLights, "kitchen").IsOn)
		assert.Equal(t, 0, f.scheduler.PendingCount())
	})

	t.Run("security devices can be scheduled too", func(t *testing.T) {
		f := newFixture(t, defaultSeed())
		offAt := start.Add(time.Second)

		_, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategorySecurity, ID: "mainGate", On: true, TurnOffAt: &offAt})
		require.NoError(t, err)
		f.clock.Advance(time.Second)

		assertFullyOff(t, f, f.device(t, constants.CategorySecurity, "mainGate"))
	})
}

func Test_SetPower_Thresholds(t *testing.T) {

	t.Run("both thresholds: should be stored", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())

		// act
		d, err := f.engine.SetPower(engine.PowerCommand{
			Category: constants.CategoryFans, ID: "kitchen", On: true,
			TempOn: lo.ToPtr(30.0), TempOff: lo.ToPtr(25.0),
		})

		// assert
		require.NoError(t, err)
		require.NotNil(t, d.Threshold)
		assert.Equal(t, 30.0, *d.Threshold.On)
		assert.Equal(t, 25.0, *d.Threshold.Off)
	})

	t.Run("single threshold: should clear both", func(t *testing.T) {
		f := newFixture(t, defaultSeed())

		d, err := f.engine.SetPower(engine.PowerCommand{
			Category: constants.CategoryFans, ID: "office", On: true, TempOn: lo.ToPtr(30.0),
		})

		require.NoError(t, err)
		assert.Nil(t, d.Threshold)
	})

	tests := []struct {
		name string
		cmd  engine.PowerCommand
	}{
		{
			name: "inverted band",
			cmd:  engine.PowerCommand{Category: constants.CategoryFans, ID: "kitchen", On: true, TempOn: lo.ToPtr(20.0), TempOff: lo.ToPtr(25.0)},
		},
		{
			name: "empty band",
			cmd:  engine.PowerCommand{Category: constants.CategoryFans, ID: "kitchen", On: true, TempOn: lo.ToPtr(25.0), TempOff: lo.ToPtr(25.0)},
		},
		{
			name: "thresholds on a light",
			cmd:  engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: true, TempOn: lo.ToPtr(30.0), TempOff: lo.ToPtr(20.0)},
		},
	}

	for _, c := range tests {
		t.Run(c.name+": should fail with invalid argument and leave state untouched", func(t *testing.T) {
			// arrange
			f := newFixture(t, defaultSeed())
			before := f.engine.Status()

			// act
			_, err := f.engine.SetPower(c.cmd)

			// assert
			assert.ErrorIs(t, err, engine.ErrInvalidArgument)
			assert.Equal(t, before, f.engine.Status())
			f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
		})
	}
}

func Test_SetPower_Off(t *testing.T) {

	t.Run("should ignore thresholds sent with an off command", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())

		// act
		d, err := f.engine.SetPower(engine.PowerCommand{
			Category: constants.CategoryFans, ID: "office", On: false,
			TempOn: lo.ToPtr(20.0), TempOff: lo.ToPtr(25.0),
		})

		// assert
		require.NoError(t, err)
		assertFullyOff(t, f, d)
		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 1)
	})

	t.Run("should clear schedule, thresholds and timer", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		offAt := start.Add(time.Hour)
		_, err := f.engine.SetPower(engine.PowerCommand{
			Category: constants.CategoryFans, ID: "kitchen", On: true, TurnOffAt: &offAt,
			TempOn: lo.ToPtr(30.0), TempOff: lo.ToPtr(25.0),
		})
		require.NoError(t, err)

		// act
		d, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryFans, ID: "kitchen", On: false})

		// assert
		require.NoError(t, err)
		assertFullyOff(t, f, d)
		assert.Equal(t, 255, d.Intensity)
	})

	t.Run("unknown device: should return not found without broadcasting", func(t *testing.T) {
		f := newFixture(t, defaultSeed())

		_, err := f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "garage", On: false})

		assert.ErrorIs(t, err, engine.ErrNotFound)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("unknown category: should return not found", func(t *testing.T) {
		f := newFixture(t, defaultSeed())

		_, err := f.engine.SetPower(engine.PowerCommand{Category: "heaters", ID: "office", On: true})

		assert.ErrorIs(t, err, engine.ErrNotFound)
	})
}

func Test_SetIntensity(t *testing.T) {

	tests := []struct {
		name     string
		category string
		id       string
		value    int
		wantErr  error
	}{
		{name: "lower bound", category: constants.CategoryLights, id: "kitchen", value: 0},
		{name: "upper bound", category: constants.CategoryLights, id: "kitchen", value: 255},
		{name: "fan speed", category: constants.CategoryFans, id: "office", value: 128},
		{name: "below range", category: constants.CategoryLights, id: "kitchen", value: -1, wantErr: engine.ErrInvalidArgument},
		{name: "above range", category: constants.CategoryFans, id: "office", value: 256, wantErr: engine.ErrInvalidArgument},
		{name: "security device", category: constants.CategorySecurity, id: "mainGate", value: 10, wantErr: engine.ErrInvalidArgument},
		{name: "unknown device", category: constants.CategoryFans, id: "attic", value: 10, wantErr: engine.ErrNotFound},
	}

	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			// arrange
			f := newFixture(t, defaultSeed())
			before := f.engine.Status()

			// act
			d, err := f.engine.SetIntensity(engine.IntensityCommand{Category: c.category, ID: c.id, Value: c.value})

			// assert
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				assert.Equal(t, before, f.engine.Status())
				f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.value, d.Intensity)
			assert.False(t, d.IsOn)
			f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 1)
		})
	}

	t.Run("should not disturb power or schedule", func(t *testing.T) {
		f := newFixture(t, defaultSeed())
		offAt := start.Add(time.Minute)
		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "office", On: true, TurnOffAt: &offAt})

		d, err := f.engine.SetIntensity(engine.IntensityCommand{Category: constants.CategoryLights, ID: "office", Value: 12})

		require.NoError(t, err)
		assert.True(t, d.IsOn)
		assert.Equal(t, offAt, *d.Schedule.Off)
		deadline, pending := f.scheduler.Pending(d.Key())
		assert.True(t, pending)
		assert.Equal(t, offAt, deadline)
	})
}

func Test_ApplyTemperatureSample(t *testing.T) {

	t.Run("hysteresis: should switch on above and off at the lower threshold", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())

		// act + assert
		require.NoError(t, f.engine.ApplyTemperatureSample(29))
		fan := f.device(t, constants.CategoryFans, "office")
		assert.True(t, fan.IsOn)
		assert.Equal(t, start, *fan.Schedule.On)

		require.NoError(t, f.engine.ApplyTemperatureSample(25))
		assert.True(t, f.device(t, constants.CategoryFans, "office").IsOn)

		require.NoError(t, f.engine.ApplyTemperatureSample(22))
		assertFullyOff(t, f, f.device(t, constants.CategoryFans, "office"))

		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 2)
		assert.Equal(t, []string{constants.SourceTemperature, constants.SourceTemperature}, f.sources())
	})

	t.Run("fan with an empty threshold: should be ignored", func(t *testing.T) {
		seed := append(defaultSeed(), models.Device{ID: "porch", Category: constants.CategoryFans, Name: "Porch Fan", Threshold: &models.TempThreshold{}})
		f := newFixture(t, seed)

		require.NoError(t, f.engine.ApplyTemperatureSample(40))

		assert.False(t, f.device(t, constants.CategoryFans, "porch").IsOn)
		assert.True(t, f.device(t, constants.CategoryFans, "office").IsOn)
	})

	t.Run("at the on threshold: should stay off", func(t *testing.T) {
		f := newFixture(t, defaultSeed())

		require.NoError(t, f.engine.ApplyTemperatureSample(28))

		assert.False(t, f.device(t, constants.CategoryFans, "office").IsOn)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("fans without thresholds and lights: should be ignored", func(t *testing.T) {
		f := newFixture(t, defaultSeed())
		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryFans, ID: "kitchen", On: true})
		_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: true})

		require.NoError(t, f.engine.ApplyTemperatureSample(-40))

		assert.True(t, f.device(t, constants.CategoryFans, "kitchen").IsOn)
		assert.True(t, f.device(t, constants.CategoryLights, "kitchen").IsOn)
	})

	t.Run("manually configured band: should switch off when it cools down", func(t *testing.T) {
		f := newFixture(t, defaultSeed())
		_, err := f.engine.SetPower(engine.PowerCommand{
			Category: constants.CategoryFans, ID: "kitchen", On: true,
			TempOn: lo.ToPtr(26.0), TempOff: lo.ToPtr(21.5),
		})
		require.NoError(t, err)

		require.NoError(t, f.engine.ApplyTemperatureSample(21.6))
		assert.True(t, f.device(t, constants.CategoryFans, "kitchen").IsOn)
		require.NoError(t, f.engine.ApplyTemperatureSample(21.5))
		assertFullyOff(t, f, f.device(t, constants.CategoryFans, "kitchen"))
	})

	t.Run("activation should re-arm an existing future deadline", func(t *testing.T) {
		// arrange
		offAt := start.Add(10 * time.Second)
		seed := []models.Device{{
			ID: "bedroom", Category: constants.CategoryFans, Name: "Bedroom Fan",
			Schedule:  models.OnOffSchedule{Off: &offAt},
			Threshold: &models.TempThreshold{On: lo.ToPtr(28.0), Off: lo.ToPtr(22.0)},
		}}
		f := newFixture(t, seed)

		// act
		require.NoError(t, f.engine.ApplyTemperatureSample(30))

		// assert
		fan := f.device(t, constants.CategoryFans, "bedroom")
		assert.True(t, fan.IsOn)
		assert.Equal(t, offAt, *fan.Schedule.Off)
		deadline, pending := f.scheduler.Pending(fan.Key())
		assert.True(t, pending)
		assert.Equal(t, offAt, deadline)

		f.clock.Advance(10 * time.Second)
		assertFullyOff(t, f, f.device(t, constants.CategoryFans, "bedroom"))
		assert.Equal(t, []string{constants.SourceTemperature, constants.SourceTimer}, f.sources())
	})

	t.Run("activation should drop an expired deadline", func(t *testing.T) {
		offAt := start.Add(-time.Second)
		seed := []models.Device{{
			ID: "bedroom", Category: constants.CategoryFans, Name: "Bedroom Fan",
			Schedule:  models.OnOffSchedule{Off: &offAt},
			Threshold: &models.TempThreshold{On: lo.ToPtr(28.0), Off: lo.ToPtr(22.0)},
		}}
		f := newFixture(t, seed)

		require.NoError(t, f.engine.ApplyTemperatureSample(30))

		fan := f.device(t, constants.CategoryFans, "bedroom")
		assert.True(t, fan.IsOn)
		assert.Nil(t, fan.Schedule.Off)
		assert.Equal(t, 0, f.scheduler.PendingCount())
	})

	t.Run("non finite sample: should fail with invalid argument", func(t *testing.T) {
		f := newFixture(t, defaultSeed())
		assert.ErrorIs(t, f.engine.ApplyTemperatureSample(math.NaN()), engine.ErrInvalidArgument)
		assert.ErrorIs(t, f.engine.ApplyTemperatureSample(math.Inf(1)), engine.ErrInvalidArgument)
	})
}

func Test_TurnOffAll(t *testing.T) {

	t.Run("should switch everything off and cancel every timer", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		deadlines := []time.Time{start.Add(time.Second), start.Add(2 * time.Second), start.Add(3 * time.Second)}
		targets := []engine.PowerCommand{
			{Category: constants.CategoryLights, ID: "kitchen", On: true, TurnOffAt: &deadlines[0]},
			{Category: constants.CategoryFans, ID: "office", On: true, TurnOffAt: &deadlines[1], TempOn: lo.ToPtr(30.0), TempOff: lo.ToPtr(20.0)},
			{Category: constants.CategorySecurity, ID: "mainGate", On: true, TurnOffAt: &deadlines[2]},
		}
		for _, cmd := range targets {
			_, err := f.engine.SetPower(cmd)
			require.NoError(t, err)
		}
		require.Equal(t, 3, f.scheduler.PendingCount())

		// act
		states := f.engine.TurnOffAll()
		f.clock.Advance(time.Minute)

		// assert
		for _, d := range append(append(states.Lights, states.Fans...), states.Security...) {
			assertFullyOff(t, f, d)
		}
		assert.Equal(t, states, f.engine.Status())
		assert.Equal(t, 0, f.clock.Pending())
		// three switch-ons and a single broadcast for the bulk switch-off
		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 4)
		assert.NotContains(t, f.sources(), constants.SourceTimer)
	})

	t.Run("nothing on: should still broadcast", func(t *testing.T) {
		f := newFixture(t, defaultSeed())

		f.engine.TurnOffAll()

		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 1)
	})
}

func Test_ConcurrentTriggers(t *testing.T) {

	t.Run("concurrent api calls, samples and timers should leave consistent state", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		var wg sync.WaitGroup

		// act
		for i := 0; i < 20; i++ {
			wg.Add(3)
			i := i
			go func() {
				defer wg.Done()
				offAt := start.Add(time.Duration(i+1) * time.Second)
				_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryFans, ID: "office", On: i%2 == 0, TurnOffAt: &offAt})
			}()
			go func() {
				defer wg.Done()
				_, _ = f.engine.SetIntensity(engine.IntensityCommand{Category: constants.CategoryFans, ID: "office", Value: i})
			}()
			go func() {
				defer wg.Done()
				_ = f.engine.ApplyTemperatureSample(float64(15 + i))
			}()
		}
		wg.Wait()
		f.clock.Advance(time.Minute)

		// assert
		fan := f.device(t, constants.CategoryFans, "office")
		assertFullyOff(t, f, fan)
		assert.Equal(t, 0, f.scheduler.PendingCount())
	})

	t.Run("history should follow the order transitions were applied", func(t *testing.T) {
		// arrange
		f := newFixture(t, defaultSeed())
		var wg sync.WaitGroup

		// act
		for i := 0; i < 50; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				_, _ = f.engine.SetPower(engine.PowerCommand{Category: constants.CategoryLights, ID: "kitchen", On: i%2 == 0})
			}()
		}
		wg.Wait()

		// assert
		calls := f.recorder.Calls
		require.Len(t, calls, 50)
		last := calls[len(calls)-1].Arguments.Get(0).(models.Transition)
		assert.Equal(t, f.device(t, constants.CategoryLights, "kitchen").IsOn, last.On)
	})
}
