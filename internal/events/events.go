package events

import "github.com/charmbracelet/log"

// Broadcaster notifies subscribers that device state changed. Events carry no
// payload; consumers re-query the status.
type Broadcaster interface {
	Broadcast(event string)
}

// Fanout forwards every event to each sink.
type Fanout struct {
	logger *log.Logger
	sinks  []Broadcaster
}

func NewFanout(logger *log.Logger, sinks ...Broadcaster) *Fanout {
	return &Fanout{logger: logger, sinks: sinks}
}

func (f *Fanout) Broadcast(event string) {
	f.logger.Debug("Broadcasting", "event", event, "sinks", len(f.sinks))
	for _, s := range f.sinks {
		s.Broadcast(event)
	}
}
