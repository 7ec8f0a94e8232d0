package imageindex

import (
	"context"
	"fmt"
	"sync"

	domain "resize-server/internal/domain/image"
)

// InMemoryIndex is a thread-safe index implementation useful for demos/tests.
// It mirrors the error contract of Repository exactly.
type InMemoryIndex struct {
	mu      sync.RWMutex
	records []domain.Record
}

func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

func (m *InMemoryIndex) Insert(ctx context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.UserID == rec.UserID &&
			existing.ImageID == rec.ImageID &&
			existing.SubimageID == rec.SubimageID {
			return fmt.Errorf("record (%s, %s, %q): %w", rec.UserID, rec.ImageID, rec.SubimageID, domain.ErrDuplicateImage)
		}
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *InMemoryIndex) FindOne(ctx context.Context, f domain.Filter) (domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []domain.Record
	for _, rec := range m.records {
		if matchFilter(rec, f) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Record{}, fmt.Errorf("no record matches: %w", domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return domain.Record{}, fmt.Errorf("%d records match: %w", len(matches), domain.ErrAmbiguousRecord)
	}
}

func (m *InMemoryIndex) FindMany(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []domain.Record
	for _, rec := range m.records {
		if matchFilter(rec, f) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

func (m *InMemoryIndex) RemoveWhere(ctx context.Context, f domain.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.Record
	var removed int64
	for _, rec := range m.records {
		if matchFilter(rec, f) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return removed, nil
}

func matchFilter(rec domain.Record, f domain.Filter) bool {
	if rec.UserID != f.UserID {
		return false
	}
	if f.ImageID != nil && rec.ImageID != *f.ImageID {
		return false
	}
	if f.SubimageID != nil && rec.SubimageID != *f.SubimageID {
		return false
	}
	if f.Origin != nil && rec.Origin != *f.Origin {
		return false
	}
	return true
}
