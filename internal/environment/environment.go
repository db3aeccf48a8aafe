package environment

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nathan-osman/go-sunrise"
	"github.com/wheelibin/homesim/internal/models"
)

var ErrInvalidGeoLocation = errors.New("invalid geo location")

// Environment holds the latest temperature/humidity sample and today's
// sunrise and sunset for the dashboard.
type Environment struct {
	logger *log.Logger

	hasLocation bool
	lat, lng    float64

	mu       sync.RWMutex
	reading  *models.Reading
	daylight *models.Daylight
}

// NewEnvironment parses geoLocation ("lat,lng"); an empty value disables the
// daylight calculation.
func NewEnvironment(logger *log.Logger, geoLocation string) (*Environment, error) {
	e := &Environment{logger: logger}
	if strings.TrimSpace(geoLocation) == "" {
		return e, nil
	}
	lat, lng, err := ParseGeoLocation(geoLocation)
	if err != nil {
		return nil, err
	}
	e.lat, e.lng, e.hasLocation = lat, lng, true
	return e, nil
}

func ParseGeoLocation(geoLocation string) (float64, float64, error) {
	latLng := strings.Split(geoLocation, ",")
	if len(latLng) != 2 {
		return 0, 0, fmt.Errorf("%w: %q, expected \"lat,lng\"", ErrInvalidGeoLocation, geoLocation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latLng[0]), 64)
	if err != nil || math.Abs(lat) > 90 {
		return 0, 0, fmt.Errorf("%w: bad latitude %q", ErrInvalidGeoLocation, latLng[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(latLng[1]), 64)
	if err != nil || math.Abs(lng) > 180 {
		return 0, 0, fmt.Errorf("%w: bad longitude %q", ErrInvalidGeoLocation, latLng[1])
	}
	return lat, lng, nil
}

// Record stores a sample. Humidity is informational only.
func (e *Environment) Record(r models.Reading) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reading = &r
}

// RefreshDaylight calculates sunrise and sunset for the day of baseDate.
func (e *Environment) RefreshDaylight(baseDate time.Time) {
	if !e.hasLocation {
		return
	}
	rise, set := sunrise.SunriseSunset(e.lat, e.lng, baseDate.Year(), baseDate.Month(), baseDate.Day())

	e.mu.Lock()
	defer e.mu.Unlock()

	// no sunrise or sunset at all (polar day/night)
	if rise.IsZero() || set.IsZero() {
		e.daylight = nil
		e.logger.Warn("No sunrise/sunset for location", "date", baseDate.Format("2006-01-02"))
		return
	}
	e.daylight = &models.Daylight{Sunrise: rise, Sunset: set}
	e.logger.Info("Calculated local sunrise and sunset",
		"sunrise", rise.Local().Format("15:04"),
		"sunset", set.Local().Format("15:04"),
	)
}

func (e *Environment) Snapshot() models.Environment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	env := models.Environment{}
	if e.reading != nil {
		r := *e.reading
		env.Reading = &r
	}
	if e.daylight != nil {
		d := *e.daylight
		env.Daylight = &d
	}
	return env
}

// DurationUntilNextDay returns the time left until local midnight after now.
func DurationUntilNextDay(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
