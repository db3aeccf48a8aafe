package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wheelibin/homesim/internal/catalog"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/engine"
	"github.com/wheelibin/homesim/internal/models"
)

// query parameter parsing; every failure wraps engine.ErrInvalidArgument

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", engine.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func requiredString(q url.Values, name string) (string, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return "", invalid("missing %s", name)
	}
	return v, nil
}

func optionalFloat(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalid("%s must be a number", name)
	}
	return &v, nil
}

// parsePowerCommand reads ?id=&state=on|off&turnOffAt=<epoch ms>&minTemp=&maxTemp=.
// minTemp is the switch-off threshold and maxTemp the switch-on threshold.
func parsePowerCommand(category string, q url.Values) (engine.PowerCommand, error) {
	cmd := engine.PowerCommand{Category: category}

	id, err := requiredString(q, "id")
	if err != nil {
		return cmd, err
	}
	cmd.ID = id

	switch q.Get("state") {
	case "on":
		cmd.On = true
	case "off":
		cmd.On = false
	default:
		return cmd, invalid("state must be on or off")
	}

	if raw := strings.TrimSpace(q.Get("turnOffAt")); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cmd, invalid("turnOffAt must be epoch milliseconds")
		}
		at := time.UnixMilli(ms)
		cmd.TurnOffAt = &at
	}

	if cmd.TempOff, err = optionalFloat(q, "minTemp"); err != nil {
		return cmd, err
	}
	if cmd.TempOn, err = optionalFloat(q, "maxTemp"); err != nil {
		return cmd, err
	}

	return cmd, nil
}

// parseIntensity accepts a number or, for fans, a speed label.
func parseIntensity(category string, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid("missing intensity")
	}
	if category == constants.CategoryFans {
		if v, ok := catalog.SpeedIntensity(raw); ok {
			return v, nil
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		if category == constants.CategoryFans {
			return 0, invalid("intensity must be an integer or a speed label")
		}
		return 0, invalid("intensity must be an integer")
	}
	return v, nil
}

func parseIntensityCommand(category string, q url.Values, param string) (engine.IntensityCommand, error) {
	cmd := engine.IntensityCommand{Category: category}

	id, err := requiredString(q, "id")
	if err != nil {
		return cmd, err
	}
	cmd.ID = id

	if cmd.Value, err = parseIntensity(category, q.Get(param)); err != nil {
		return cmd, err
	}
	return cmd, nil
}

type readingRequest struct {
	Temperature *float64 `json:"temperature"`
	Humidity    float64  `json:"humidity"`
}

func (req readingRequest) toReading(at time.Time) (models.Reading, error) {
	if req.Temperature == nil {
		return models.Reading{}, invalid("missing temperature")
	}
	return models.Reading{Temperature: *req.Temperature, Humidity: req.Humidity, At: at}, nil
}

func decodeReading(body []byte, at time.Time) (models.Reading, error) {
	req := readingRequest{}
	if err := json.Unmarshal(body, &req); err != nil {
		return models.Reading{}, invalid("malformed body: %v", err)
	}
	return req.toReading(at)
}

func parseReadingQuery(q url.Values, at time.Time) (models.Reading, error) {
	t, err := optionalFloat(q, "t")
	if err != nil {
		return models.Reading{}, err
	}
	h, err := optionalFloat(q, "h")
	if err != nil {
		return models.Reading{}, err
	}
	req := readingRequest{Temperature: t}
	if h != nil {
		req.Humidity = *h
	}
	return req.toReading(at)
}

func parseLimit(q url.Values, max int) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return max, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, invalid("limit must be a positive integer")
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}
