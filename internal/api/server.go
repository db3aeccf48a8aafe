package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/clock"
	"github.com/wheelibin/homesim/internal/engine"
	"github.com/wheelibin/homesim/internal/models"
)

const shutdownTimeout = 5 * time.Second
const readHeaderTimeout = 10 * time.Second

type deviceEngine interface {
	Status() models.States
	SetPower(cmd engine.PowerCommand) (models.Device, error)
	SetIntensity(cmd engine.IntensityCommand) (models.Device, error)
	TurnOffAll() models.States
}

type environmentReader interface {
	Snapshot() models.Environment
}

type readingApplier interface {
	ApplyReading(r models.Reading) error
}

type transitionHistory interface {
	Recent(limit int) ([]models.Transition, error)
}

// streamHandler is a long-lived event stream that must be closed before the
// http server can drain.
type streamHandler interface {
	http.Handler
	Close()
}

type Deps struct {
	Engine      deviceEngine
	Environment environmentReader
	Readings    readingApplier
	History     transitionHistory
	Events      streamHandler
	WebSocket   streamHandler
	Clock       clock.Clock

	AllowedOrigins []string
	HistoryLimit   int
}

// Server is the http façade over the engine.
type Server struct {
	logger *log.Logger
	deps   Deps
	router http.Handler
}

func NewServer(logger *log.Logger, deps Deps) *Server {
	s := &Server{logger: logger, deps: deps}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then closes the event streams
// and drains in-flight requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	for _, stream := range []streamHandler{s.deps.Events, s.deps.WebSocket} {
		if stream != nil {
			srv.RegisterOnShutdown(stream.Close)
		}
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("Error starting http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("Error shutting down http server: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
