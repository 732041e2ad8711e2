package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/iot-sensor-simulator/internal/audit"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// statusResponse is the body of GET /status.
type statusResponse struct {
	Status           string              `json:"status"`
	Simulation       string              `json:"simulation"`
	Topic            string              `json:"topic,omitempty"`
	Settings         simulation.Settings `json:"settings"`
	ManualOverride   bool                `json:"manualOverride"`
	LastManualValues simulation.Values   `json:"lastManualValues"`
}

// actionResponse is the {success, message, ...} body returned by every
// control endpoint that reaches the engine. Success is false only for
// no-op start and stop.
type actionResponse struct {
	Success          bool                 `json:"success"`
	Message          string               `json:"message"`
	Simulation       string               `json:"simulation,omitempty"`
	Settings         *simulation.Settings `json:"settings,omitempty"`
	ManualOverride   *bool                `json:"manualOverride,omitempty"`
	LastManualValues simulation.Values    `json:"lastManualValues,omitempty"`
}

// manualRequest is the body of POST /simulation/manual.
type manualRequest struct {
	Values  simulation.Values `json:"values"`
	Enabled *bool             `json:"enabled"`
}

// handleStatus returns the engine status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.ctrl.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "running",
		Simulation:       st.State(),
		Topic:            s.topic,
		Settings:         st.Settings,
		ManualOverride:   st.ManualOverride,
		LastManualValues: st.LastManualValues,
	})
}

// handleGetSettings returns the current settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	settings := s.ctrl.Status().Settings
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Current settings", Settings: &settings})
}

// handleStart starts the simulation. Starting a running simulation is a
// no-op answered with 200 and success false.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.Start(r.Context(), audit.SourceAPI)
	if errors.Is(err, simulation.ErrAlreadyInState) {
		s.writeNoop(w, "Simulation already running")
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:    true,
		Message:    "Simulation started",
		Simulation: st.State(),
		Settings:   &st.Settings,
	})
}

// handleStop stops the simulation. Stopping a stopped simulation is a
// no-op answered like handleStart's.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.Stop(r.Context(), audit.SourceAPI)
	if errors.Is(err, simulation.ErrAlreadyInState) {
		s.writeNoop(w, "Simulation already stopped")
		return
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:    true,
		Message:    "Simulation stopped",
		Simulation: st.State(),
	})
}

func (s *Server) writeNoop(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, actionResponse{
		Success:    false,
		Message:    message,
		Simulation: s.ctrl.Status().State(),
	})
}

// handleReset restores defaults and leaves manual mode.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.Reset(r.Context(), audit.SourceAPI)
	writeJSON(w, http.StatusOK, actionResponse{
		Success:        true,
		Message:        "Settings reset to defaults",
		Simulation:     st.State(),
		Settings:       &st.Settings,
		ManualOverride: &st.ManualOverride,
	})
}

// handleResume leaves manual mode, keeping the last manual values.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	ov, _ := s.ctrl.Resume(r.Context(), audit.SourceAPI)
	writeJSON(w, http.StatusOK, actionResponse{
		Success:          true,
		Message:          "Automatic simulation resumed",
		ManualOverride:   &ov.Enabled,
		LastManualValues: ov.LastValues,
	})
}

// handleUpdateSettings applies a partial settings change.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u simulation.SettingsUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	if u.IsEmpty() {
		writeBadRequest(w, "at least one of ranges, updateFrequency or noiseLevel is required")
		return
	}

	settings, err := s.ctrl.UpdateSettings(r.Context(), audit.SourceAPI, u)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Message: "Settings updated", Settings: &settings})
}

// handleManual sets manual values and/or the manual flag.
func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Values == nil && req.Enabled == nil {
		writeBadRequest(w, "values or enabled is required")
		return
	}

	ov, err := s.ctrl.SetManual(r.Context(), audit.SourceAPI, req.Values, req.Enabled)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	msg := "Manual values updated"
	if !ov.Enabled {
		msg = "Manual values stored; automatic mode active"
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:          true,
		Message:          msg,
		ManualOverride:   &ov.Enabled,
		LastManualValues: ov.LastValues,
	})
}
