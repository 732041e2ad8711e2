package preset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// Repository defines persistence for custom presets.
type Repository interface {
	Create(ctx context.Context, p *Preset) error
	List(ctx context.Context) ([]Preset, error)
	Get(ctx context.Context, id string) (*Preset, error)
	Update(ctx context.Context, p *Preset) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed preset repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const presetColumns = `id, name, description, ranges, update_frequency, noise_level, created_at, updated_at`

// Create inserts a preset. CreatedAt and UpdatedAt are set when zero.
func (r *SQLiteRepository) Create(ctx context.Context, p *Preset) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	ranges, err := json.Marshal(p.Ranges)
	if err != nil {
		return fmt.Errorf("marshalling ranges: %w", err)
	}

	const query = `INSERT INTO presets (` + presetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, string(ranges),
		nullFloat(p.UpdateFrequencySeconds), nullFloat(p.NoiseLevel),
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrExists, p.Name)
		}
		return fmt.Errorf("inserting preset %s: %w", p.ID, err)
	}
	return nil
}

// List returns custom presets ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Preset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+presetColumns+` FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying presets: %w", err)
	}
	defer rows.Close()

	presets := []Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating presets: %w", err)
	}
	return presets, nil
}

// Get returns a preset by ID, or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Preset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+presetColumns+` FROM presets WHERE id = ?`, id)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Update replaces a preset's fields and bumps UpdatedAt.
func (r *SQLiteRepository) Update(ctx context.Context, p *Preset) error {
	p.UpdatedAt = time.Now().UTC()

	ranges, err := json.Marshal(p.Ranges)
	if err != nil {
		return fmt.Errorf("marshalling ranges: %w", err)
	}

	const query = `UPDATE presets SET name = ?, description = ?, ranges = ?,
		update_frequency = ?, noise_level = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, string(ranges),
		nullFloat(p.UpdateFrequencySeconds), nullFloat(p.NoiseLevel),
		p.UpdatedAt.Format(time.RFC3339Nano), p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrExists, p.Name)
		}
		return fmt.Errorf("updating preset %s: %w", p.ID, err)
	}
	return requireOneRow(res)
}

// Delete removes a preset by ID, or returns ErrNotFound.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting preset %s: %w", id, err)
	}
	return requireOneRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(s scanner) (*Preset, error) {
	var (
		p                    Preset
		ranges               string
		frequency, noise     sql.NullFloat64
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &ranges, &frequency, &noise, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning preset: %w", err)
	}

	p.Ranges = simulation.Ranges{}
	if err := json.Unmarshal([]byte(ranges), &p.Ranges); err != nil {
		return nil, fmt.Errorf("decoding ranges for preset %s: %w", p.ID, err)
	}
	if frequency.Valid {
		p.UpdateFrequencySeconds = &frequency.Float64
	}
	if noise.Valid {
		p.NoiseLevel = &noise.Float64
	}

	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for preset %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at for preset %s: %w", p.ID, err)
	}
	return &p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation matches go-sqlite3's constraint error text without
// importing the driver here.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
