package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/iot-sensor-simulator/internal/audit"
	"github.com/nerrad567/iot-sensor-simulator/internal/preset"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// presetRequest is the body of POST and PUT /presets.
type presetRequest struct {
	Name                   string            `json:"name"`
	Description            string            `json:"description"`
	Ranges                 simulation.Ranges `json:"ranges"`
	UpdateFrequencySeconds *float64          `json:"updateFrequency"`
	NoiseLevel             *float64          `json:"noiseLevel"`
}

func (req presetRequest) toPreset(id string) *preset.Preset {
	return &preset.Preset{
		ID:                     id,
		Name:                   req.Name,
		Description:            req.Description,
		Ranges:                 req.Ranges,
		UpdateFrequencySeconds: req.UpdateFrequencySeconds,
		NoiseLevel:             req.NoiseLevel,
	}
}

// handleListPresets returns built-in and custom presets.
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets, "count": len(presets)})
}

// handleGetPreset returns one preset.
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.presets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreatePreset stores a custom preset.
func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := req.toPreset("")
	if err := s.presets.Create(r.Context(), p); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.ctrl.Record(r.Context(), audit.ActionPresetCreate, audit.SourceAPI, map[string]any{"preset_id": p.ID, "name": p.Name})
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdatePreset replaces a custom preset.
func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := req.toPreset(chi.URLParam(r, "id"))
	if err := s.presets.Update(r.Context(), p); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.ctrl.Record(r.Context(), audit.ActionPresetUpdate, audit.SourceAPI, map[string]any{"preset_id": p.ID, "name": p.Name})
	writeJSON(w, http.StatusOK, p)
}

// handleDeletePreset removes a custom preset.
func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.presets.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.ctrl.Record(r.Context(), audit.ActionPresetDelete, audit.SourceAPI, map[string]any{"preset_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// handleApplyPreset pushes a preset's settings to the engine.
func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	p, settings, err := s.ctrl.ApplyPreset(r.Context(), audit.SourceAPI, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		Success:  true,
		Message:  "Preset " + p.Name + " applied",
		Settings: &settings,
	})
}
