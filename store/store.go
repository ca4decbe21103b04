// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidName = errors.New("invalid document name")
)

// Document names
const (
	DocSeason              = "season"
	DocTeams               = "teams"
	DocSchedule            = "schedule"
	DocStandings           = "standings"
	DocScores              = "scores"
	DocPendingTrades       = "pendingTrades"
	DocScoreRequests       = "scoreRequests"
	DocProgressionRequests = "progressionRequests"
	DocProgressionHistory  = "progressionHistory"
	DocRegressionNotices   = "regressionNotices"
	DocPicks               = "picks"
	DocTradeLedger         = "tradeLedger"
	DocTradeBlock          = "tradeBlock"
	DocScouting            = "scouting"

	rosterPrefix = "rosters/"
)

// RosterDoc returns the document name holding a team's roster.
func RosterDoc(slug string) string {
	return rosterPrefix + slug
}

// Store serializes access per document: at most one read-modify-write of a
// given document runs at a time. Callers holding one document may open a
// different one, never the same.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(backend Backend) *Store {
	return &Store{backend: backend, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Load reads one document. A missing document loads as the zero value.
func Load[T any](ctx context.Context, s *Store, name string) (T, error) {
	unlock := s.lock(name)
	defer unlock()
	return read[T](ctx, s, name)
}

// Update runs a whole-document read/modify/write inside the document's
// critical section. If fn returns an error nothing is written.
func Update[T any](ctx context.Context, s *Store, name string, fn func(*T) error) error {
	unlock := s.lock(name)
	defer unlock()

	doc, err := read[T](ctx, s, name)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.backend.Write(ctx, name, data)
}

// Put overwrites a document without reading it first.
func Put[T any](ctx context.Context, s *Store, name string, doc T) error {
	return Update(ctx, s, name, func(cur *T) error {
		*cur = doc
		return nil
	})
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	unlock := s.lock(name)
	defer unlock()
	return s.backend.Delete(ctx, name)
}

// List returns document names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.backend.List(ctx, prefix)
}

func read[T any](ctx context.Context, s *Store, name string) (T, error) {
	var doc T
	if err := ctx.Err(); err != nil {
		return doc, err
	}

	data, err := s.backend.Read(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return doc, nil
}
