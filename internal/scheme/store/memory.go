package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
)

// InMemory serves a validated catalog. Inactive schemes are kept but reported as
// not found, so no new eligibility checks or applications can target them.
//
// Returned schemes are shared and must be treated as read-only.
type InMemory struct {
	mu      sync.RWMutex
	schemes map[id.SchemeID]*models.Scheme
}

func NewInMemory(schemes []*models.Scheme) *InMemory {
	s := &InMemory{schemes: make(map[id.SchemeID]*models.Scheme, len(schemes))}
	for _, scheme := range schemes {
		s.schemes[scheme.ID] = scheme
	}
	return s
}

// NewDefault builds a store from the embedded catalog.
func NewDefault() (*InMemory, error) {
	schemes, err := DefaultSchemes()
	if err != nil {
		return nil, err
	}
	return NewInMemory(schemes), nil
}

func (s *InMemory) GetScheme(_ context.Context, schemeID id.SchemeID) (*models.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scheme, ok := s.schemes[schemeID]
	if !ok || !scheme.Active {
		return nil, sentinel.ErrNotFound
	}
	return scheme, nil
}

// ListSchemes returns active schemes ordered by ID. An empty category matches all.
func (s *InMemory) ListSchemes(_ context.Context, category string) ([]*models.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Scheme, 0, len(s.schemes))
	for _, scheme := range s.schemes {
		if !scheme.Active {
			continue
		}
		if category != "" && !strings.EqualFold(scheme.Category, category) {
			continue
		}
		out = append(out, scheme)
	}
	slices.SortFunc(out, func(a, b *models.Scheme) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out, nil
}

// Replace swaps the whole catalog, e.g. after a reload.
func (s *InMemory) Replace(schemes []*models.Scheme) {
	next := make(map[id.SchemeID]*models.Scheme, len(schemes))
	for _, scheme := range schemes {
		next[scheme.ID] = scheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemes = next
}
