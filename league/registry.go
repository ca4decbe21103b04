// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package league

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/danielhkuo/courtside/models"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// TeamDefinition is one team in the league file, with the roster and
// picks it starts a season with.
type TeamDefinition struct {
	models.Team `yaml:",inline"`
	Roster      []models.Player `yaml:"roster"`
	Picks       []models.Pick   `yaml:"picks"`
}

// Definition is the parsed league file.
type Definition struct {
	Name    string           `yaml:"name"`
	Weeks   int              `yaml:"weeks"`
	Teams   []TeamDefinition `yaml:"teams"`
	Members []Member         `yaml:"members"`
}

// ParseDefinition decodes and validates a league file.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse league file: %w", err)
	}

	seen := make(map[string]bool)
	for _, t := range def.Teams {
		if t.Name == "" {
			return Definition{}, errors.New("league file: team without a name")
		}
		key := Normalize(t.Name)
		if seen[key] {
			return Definition{}, fmt.Errorf("league file: duplicate team %q", t.Name)
		}
		seen[key] = true
	}
	return def, nil
}

// Registry holds the current league definition. It is safe for concurrent
// use and doubles as a static member Directory.
type Registry struct {
	mu   sync.RWMutex
	path string
	def  Definition
}

func NewRegistry(def Definition) *Registry {
	return &Registry{def: def}
}

// LoadFile reads a league file and remembers its path for Reload and Watch.
func LoadFile(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the league file. The previous definition stays in place
// if the new file does not parse.
func (r *Registry) Reload() error {
	if r.path == "" {
		return errors.New("registry has no backing file")
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read league file: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.def = def
	r.mu.Unlock()
	return nil
}

func (r *Registry) Definition() Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Teams returns the canonical team list.
func (r *Registry) Teams() []models.Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	teams := make([]models.Team, len(r.def.Teams))
	for i, t := range r.def.Teams {
		teams[i] = t.Team
	}
	return teams
}

func (r *Registry) Members(ctx context.Context) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return StaticDirectory(r.def.Members).Members(ctx)
}

func (r *Registry) Member(ctx context.Context, id string) (Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return StaticDirectory(r.def.Members).Member(ctx, id)
}

// Watch reloads the league file whenever it changes, until ctx is done.
// The directory is watched rather than the file so editors that replace
// the file on save are still seen.
func (r *Registry) Watch(ctx context.Context) error {
	if r.path == "" {
		return errors.New("registry has no backing file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("failed to watch league file: %w", err)
	}

	target := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.Reload(); err != nil {
				slog.Warn("league file reload failed", "path", r.path, "error", err)
				continue
			}
			slog.Info("league file reloaded", "path", r.path, "teams", len(r.Teams()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("league file watcher error", "error", err)
		}
	}
}
