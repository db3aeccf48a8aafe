package events

import (
	"net/http"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/homesim/internal/constants"
)

// SSEBroadcaster pushes state change events over server-sent events.
type SSEBroadcaster struct {
	logger *log.Logger
	server *sse.Server
}

func NewSSEBroadcaster(logger *log.Logger) *SSEBroadcaster {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(constants.SSEStreamState)

	return &SSEBroadcaster{logger: logger, server: server}
}

func (b *SSEBroadcaster) Broadcast(event string) {
	b.server.Publish(constants.SSEStreamState, &sse.Event{
		Event: []byte(event),
		Data:  []byte(event),
	})
}

// ServeHTTP streams events to a client, defaulting to the state stream.
func (b *SSEBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("stream") == "" {
		q.Set("stream", constants.SSEStreamState)
		r.URL.RawQuery = q.Encode()
	}
	b.logger.Debug("SSE client connected", "remote", r.RemoteAddr)
	b.server.ServeHTTP(w, r)
}

func (b *SSEBroadcaster) Close() {
	b.server.Close()
}
