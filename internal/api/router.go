package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wheelibin/homesim/internal/constants"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errCodeNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "Method Not Allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Get("/turn-off", s.handleTurnOffAll)
		r.Post("/turn-off", s.handleTurnOffAll)

		r.Get("/temperature", s.handleTemperatureQuery)
		r.Post("/temperature", s.handleTemperatureBody)

		r.Get("/history", s.handleHistory)

		if s.deps.Events != nil {
			r.Get("/events", s.deps.Events.ServeHTTP)
		}
		if s.deps.WebSocket != nil {
			r.Get("/ws", s.deps.WebSocket.ServeHTTP)
		}

		r.Get("/"+constants.CategoryFans+"/speed", s.handleFanSpeed)
		r.Route("/{category}", func(r chi.Router) {
			r.Get("/", s.handleSetPower)
			r.Get("/intensity", s.handleSetIntensity)
		})
	})

	return r
}
