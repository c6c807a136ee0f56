// Package layerstore provides persistent storage for heatmap layers using SQLite.
package layerstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/heat-tiles/server/internal/heatmap"
	"github.com/heat-tiles/server/pkg/gradient"
)

// Params is the per-layer render parameter set.
type Params struct {
	Radius       int               `json:"radius"`
	Opacity      float64           `json:"opacity"`
	Smoothing    float64           `json:"smoothing"`
	MaxIntensity float64           `json:"max_intensity"`
	Gradient     gradient.Gradient `json:"gradient"`
}

// Layer is a stored heatmap layer: parameters plus the full point set.
type Layer struct {
	ID        string
	Name      string
	Params    Params
	Points    []heatmap.WeightedPoint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LayerSummary describes a stored layer without its point payload.
type LayerSummary struct {
	ID        string
	Name      string
	NumPoints int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store provides persistent storage for heatmap layers using SQLite.
type Store struct {
	db    *sql.DB
	codec *pointCodec
	mu    sync.Mutex
}

// NewStore creates a new SQLite-based layer store.
func NewStore(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	codec, err := newPointCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, codec: codec}
	if err := s.migrate(); err != nil {
		codec.close()
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection and the point codec.
func (s *Store) Close() error {
	s.codec.close()
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS layers (
		layer_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		radius INTEGER NOT NULL,
		opacity REAL NOT NULL,
		smoothing REAL NOT NULL,
		max_intensity REAL NOT NULL DEFAULT 0,
		gradient_json TEXT NOT NULL,
		points_blob BLOB NOT NULL,
		n_points INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_layers_name ON layers(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateLayer inserts a new layer record.
func (s *Store) CreateLayer(layer *Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gradientJSON, err := json.Marshal(layer.Params.Gradient)
	if err != nil {
		return fmt.Errorf("failed to marshal gradient: %w", err)
	}

	createdAt := layer.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := layer.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.Exec(`
		INSERT INTO layers (layer_id, name, radius, opacity, smoothing, max_intensity, gradient_json, points_blob, n_points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		layer.ID,
		layer.Name,
		layer.Params.Radius,
		layer.Params.Opacity,
		layer.Params.Smoothing,
		layer.Params.MaxIntensity,
		string(gradientJSON),
		s.codec.encode(layer.Points),
		len(layer.Points),
		createdAt.Format(time.RFC3339),
		updatedAt.Format(time.RFC3339),
	)
	return err
}

// GetLayer retrieves a layer by ID, points included. Returns (nil, nil) when
// the layer does not exist.
func (s *Store) GetLayer(layerID string) (*Layer, error) {
	row := s.db.QueryRow(`
		SELECT layer_id, name, radius, opacity, smoothing, max_intensity, gradient_json, points_blob, created_at, updated_at
		FROM layers WHERE layer_id = ?
	`, layerID)

	var layer Layer
	var gradientJSON string
	var blob []byte
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&layer.ID,
		&layer.Name,
		&layer.Params.Radius,
		&layer.Params.Opacity,
		&layer.Params.Smoothing,
		&layer.Params.MaxIntensity,
		&gradientJSON,
		&blob,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(gradientJSON), &layer.Params.Gradient); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gradient: %w", err)
	}
	layer.Points, err = s.codec.decode(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode points for layer %s: %w", layerID, err)
	}

	layer.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	layer.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)

	return &layer, nil
}

// ListLayers returns summaries of every stored layer, oldest first.
func (s *Store) ListLayers() ([]*LayerSummary, error) {
	rows, err := s.db.Query(`
		SELECT layer_id, name, n_points, created_at, updated_at
		FROM layers ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layers []*LayerSummary
	for rows.Next() {
		var l LayerSummary
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(&l.ID, &l.Name, &l.NumPoints, &createdAtStr, &updatedAtStr); err != nil {
			return nil, err
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
		l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
		layers = append(layers, &l)
	}
	return layers, rows.Err()
}

// UpdateParams persists a layer's render parameters.
func (s *Store) UpdateParams(layerID string, p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gradientJSON, err := json.Marshal(p.Gradient)
	if err != nil {
		return fmt.Errorf("failed to marshal gradient: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE layers SET radius = ?, opacity = ?, smoothing = ?, max_intensity = ?, gradient_json = ?, updated_at = ?
		WHERE layer_id = ?
	`,
		p.Radius,
		p.Opacity,
		p.Smoothing,
		p.MaxIntensity,
		string(gradientJSON),
		time.Now().Format(time.RFC3339),
		layerID,
	)
	return err
}

// ReplacePoints persists a layer's new point set.
func (s *Store) ReplacePoints(layerID string, points []heatmap.WeightedPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE layers SET points_blob = ?, n_points = ?, updated_at = ?
		WHERE layer_id = ?
	`,
		s.codec.encode(points),
		len(points),
		time.Now().Format(time.RFC3339),
		layerID,
	)
	return err
}

// DeleteLayer removes a layer.
func (s *Store) DeleteLayer(layerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM layers WHERE layer_id = ?", layerID)
	return err
}
