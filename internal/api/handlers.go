package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/models"
)

const maxBodySize = 1 << 16

type statusResponse struct {
	Success     bool               `json:"success"`
	States      models.States      `json:"states"`
	Environment models.Environment `json:"environment"`
}

type turnOffResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	States  models.States `json:"states"`
}

type powerResponse struct {
	Success bool          `json:"success"`
	ID      string        `json:"id"`
	State   string        `json:"state"`
	Device  models.Device `json:"device"`
}

type intensityResponse struct {
	Success   bool          `json:"success"`
	ID        string        `json:"id"`
	Intensity int           `json:"intensity"`
	Device    models.Device `json:"device"`
}

type speedResponse struct {
	Success bool          `json:"success"`
	ID      string        `json:"id"`
	Speed   int           `json:"speed"`
	Device  models.Device `json:"device"`
}

type temperatureResponse struct {
	Success     bool               `json:"success"`
	Environment models.Environment `json:"environment"`
	States      models.States      `json:"states"`
}

type historyResponse struct {
	Success     bool                `json:"success"`
	Transitions []models.Transition `json:"transitions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Success:     true,
		States:      s.deps.Engine.Status(),
		Environment: s.deps.Environment.Snapshot(),
	})
}

func (s *Server) handleTurnOffAll(w http.ResponseWriter, _ *http.Request) {
	states := s.deps.Engine.TurnOffAll()
	writeJSON(w, http.StatusOK, turnOffResponse{Success: true, Message: "All devices turned off", States: states})
}

func (s *Server) handleSetPower(w http.ResponseWriter, r *http.Request) {
	cmd, err := parsePowerCommand(chi.URLParam(r, "category"), r.URL.Query())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	d, err := s.deps.Engine.SetPower(cmd)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, powerResponse{Success: true, ID: d.ID, State: r.URL.Query().Get("state"), Device: d})
}

func (s *Server) handleSetIntensity(w http.ResponseWriter, r *http.Request) {
	cmd, err := parseIntensityCommand(chi.URLParam(r, "category"), r.URL.Query(), "value")
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	d, err := s.deps.Engine.SetIntensity(cmd)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, intensityResponse{Success: true, ID: d.ID, Intensity: d.Intensity, Device: d})
}

func (s *Server) handleFanSpeed(w http.ResponseWriter, r *http.Request) {
	cmd, err := parseIntensityCommand(constants.CategoryFans, r.URL.Query(), "s")
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	d, err := s.deps.Engine.SetIntensity(cmd)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, speedResponse{Success: true, ID: d.ID, Speed: d.Intensity, Device: d})
}

func (s *Server) handleTemperatureBody(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeEngineError(w, r, invalid("unreadable body"))
		return
	}

	reading, err := decodeReading(body, s.deps.Clock.Now())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.applyReading(w, r, reading)
}

func (s *Server) handleTemperatureQuery(w http.ResponseWriter, r *http.Request) {
	reading, err := parseReadingQuery(r.URL.Query(), s.deps.Clock.Now())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.applyReading(w, r, reading)
}

func (s *Server) applyReading(w http.ResponseWriter, r *http.Request, reading models.Reading) {
	if err := s.deps.Readings.ApplyReading(reading); err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, temperatureResponse{
		Success:     true,
		Environment: s.deps.Environment.Snapshot(),
		States:      s.deps.Engine.Status(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), s.deps.HistoryLimit)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	transitions, err := s.deps.History.Recent(limit)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Success: true, Transitions: transitions})
}
