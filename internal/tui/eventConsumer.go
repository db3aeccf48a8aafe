package tui

import (
	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/homesim/internal/constants"
)

// EventConsumer listens to the simulator's state change stream.
type EventConsumer struct {
	logger *log.Logger

	client       *sse.Client
	eventChannel chan *sse.Event
}

func NewEventConsumer(logger *log.Logger, baseURL string) *EventConsumer {
	client := sse.NewClient(baseURL + "/api/events")
	client.OnConnect(func(_ *sse.Client) {
		logger.Info("Connected to homesim, listening for events...")
	})
	client.OnDisconnect(func(_ *sse.Client) {
		logger.Info("Disconnected from homesim")
	})
	return &EventConsumer{logger: logger, client: client}
}

// Subscribe delivers events to eventChannel; the client reconnects on its own.
func (c *EventConsumer) Subscribe(eventChannel chan *sse.Event) error {
	c.eventChannel = eventChannel
	return c.client.SubscribeChan(constants.SSEStreamState, c.eventChannel)
}

func (c *EventConsumer) Unsubscribe() {
	c.logger.Debug("Unsubscribe events")
	if c.eventChannel != nil {
		c.client.Unsubscribe(c.eventChannel)
	}
}
