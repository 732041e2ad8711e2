package preset

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// SettingsApplier is the subset of *simulation.Engine presets apply to.
type SettingsApplier interface {
	UpdateSettings(u simulation.SettingsUpdate) (simulation.Settings, error)
}

// Service combines built-in and stored presets.
//
// A nil Repository is allowed: only built-ins are then available and
// create/update/delete return ErrReadOnly.
type Service struct {
	repo    Repository
	applier SettingsApplier
}

// NewService creates a preset service.
func NewService(repo Repository, applier SettingsApplier) *Service {
	return &Service{repo: repo, applier: applier}
}

// List returns built-ins first, then custom presets by name.
func (s *Service) List(ctx context.Context) ([]Preset, error) {
	out := BuiltIns()
	if s.repo == nil {
		return out, nil
	}
	custom, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, custom...), nil
}

// Get returns a built-in or custom preset by ID.
func (s *Service) Get(ctx context.Context, id string) (*Preset, error) {
	if p, ok := BuiltIn(id); ok {
		return &p, nil
	}
	if s.repo == nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new custom preset, assigning its ID.
func (s *Service) Create(ctx context.Context, p *Preset) error {
	if s.repo == nil {
		return ErrReadOnly
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	if isReservedName(p.Name) {
		return fmt.Errorf("%w: %s is a built-in preset", ErrExists, p.Name)
	}

	p.ID = uuid.NewString()
	p.BuiltIn = false
	return s.repo.Create(ctx, p)
}

// Update replaces a custom preset. Built-ins return ErrReadOnly.
func (s *Service) Update(ctx context.Context, p *Preset) error {
	if _, ok := BuiltIn(p.ID); ok || s.repo == nil {
		return ErrReadOnly
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	if isReservedName(p.Name) {
		return fmt.Errorf("%w: %s is a built-in preset", ErrExists, p.Name)
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a custom preset. Built-ins return ErrReadOnly.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := BuiltIn(id); ok || s.repo == nil {
		return ErrReadOnly
	}
	return s.repo.Delete(ctx, id)
}

// Apply loads a preset and pushes it to the engine, returning the
// resulting settings.
func (s *Service) Apply(ctx context.Context, id string) (*Preset, simulation.Settings, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, simulation.Settings{}, err
	}
	settings, err := s.applier.UpdateSettings(p.Update())
	if err != nil {
		return nil, simulation.Settings{}, fmt.Errorf("applying preset %s: %w", id, err)
	}
	return p, settings, nil
}
