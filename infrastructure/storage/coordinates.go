// Package storage persists small bits of run state between test
// sessions.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"webrunner/domain/interfaces"
)

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CoordinateStore - a JSON file of named viewport-relative points.
// Coordinates are stored as fractions of the viewport so a point saved
// at one window size stays meaningful at another.
type CoordinateStore struct {
	path string
	mu   sync.Mutex
}

func NewCoordinateStore(path string) *CoordinateStore {
	return &CoordinateStore{path: path}
}

// Save records a point under a key, creating the file and any parent
// directories on first use.
func (s *CoordinateStore) Save(key string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, err := s.read()
	if err != nil {
		return err
	}
	points[key] = point{X: x, Y: y}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create coordinate store directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode coordinates: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write coordinate store: %w", err)
	}
	return nil
}

// Load returns the point saved under a key.
func (s *CoordinateStore) Load(key string) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, err := s.read()
	if err != nil {
		return 0, 0, err
	}
	p, ok := points[key]
	if !ok {
		return 0, 0, fmt.Errorf("no coordinates saved under %q", key)
	}
	return p.X, p.Y, nil
}

func (s *CoordinateStore) read() (map[string]point, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]point{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read coordinate store: %w", err)
	}
	points := map[string]point{}
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("failed to decode coordinate store: %w", err)
	}
	return points, nil
}

var _ interfaces.CoordinateStore = (*CoordinateStore)(nil)
