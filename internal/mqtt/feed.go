package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/models"
)

type publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StatePublisher is a broadcast sink that publishes each event name on the state topic.
type StatePublisher struct {
	logger    *log.Logger
	publisher publisher
	topic     string
	qos       byte
}

func NewStatePublisher(logger *log.Logger, publisher publisher, topic string, qos byte) *StatePublisher {
	return &StatePublisher{logger: logger, publisher: publisher, topic: topic, qos: qos}
}

func (p *StatePublisher) Broadcast(event string) {
	if err := p.publisher.Publish(p.topic, []byte(event), p.qos, false); err != nil {
		p.logger.Error("Error publishing state change", "topic", p.topic, "err", err)
	}
}

type readingPayload struct {
	Temperature *float64 `json:"temperature"`
	Humidity    float64  `json:"humidity"`
}

// DecodeReading parses a `{"temperature": n, "humidity": n}` payload.
// Humidity is optional, temperature is not.
func DecodeReading(payload []byte, at time.Time) (models.Reading, error) {
	var p readingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return models.Reading{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if p.Temperature == nil {
		return models.Reading{}, fmt.Errorf("%w: missing temperature", ErrInvalidPayload)
	}
	if math.IsNaN(*p.Temperature) || math.IsInf(*p.Temperature, 0) {
		return models.Reading{}, fmt.Errorf("%w: temperature must be a finite number", ErrInvalidPayload)
	}
	return models.Reading{Temperature: *p.Temperature, Humidity: p.Humidity, At: at}, nil
}

// TemperatureHandler decodes readings and forwards them to the app loop.
// Malformed payloads are dropped.
func TemperatureHandler(ctx context.Context, now func() time.Time, readings chan<- models.Reading) MessageHandler {
	return func(topic string, payload []byte) error {
		reading, err := DecodeReading(payload, now())
		if err != nil {
			return err
		}
		select {
		case readings <- reading:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
