// Package favorite owns the set of point ids the user has bookmarked, each
// carrying a denormalized copy of the point for list display. The list is
// refetched wholesale after every mutation rather than patched
// incrementally, trading a round trip for the absence of merge bugs
// between optimistic and authoritative state.
package favorite

import (
	"context"
	"sync"

	"github.com/onnwee/pinmap/internal/geo"
	"github.com/onnwee/pinmap/internal/pointapi"
	"github.com/onnwee/pinmap/internal/tracing"
)

// Entry is a user's bookmark of a point. The point copy lets the favorites
// list render without a second round trip; the entry may outlive its point
// on a stale client, so renderers must tolerate a dangling point id.
type Entry struct {
	ID          int64
	PointID     int64
	Position    geo.Point
	Description string
}

// API is the subset of the remote favorite API the store depends on.
type API interface {
	ListFavorites(ctx context.Context, token string) ([]pointapi.FavoriteEntry, error)
	AddFavorite(ctx context.Context, token string, pointID int64) error
	RemoveFavorite(ctx context.Context, token string, pointID int64) error
}

// Contains reports whether entries holds a bookmark for the given point id.
// A linear scan: favorites lists are small and refetched wholesale, so no
// index is maintained.
func Contains(entries []Entry, pointID int64) bool {
	for _, e := range entries {
		if e.PointID == pointID {
			return true
		}
	}
	return false
}

// Store mirrors the remote favorite store for the current user.
// Thread-safe via RWMutex.
type Store struct {
	mu      sync.RWMutex
	api     API
	entries []Entry
}

// NewStore creates a store backed by the given remote API.
func NewStore(api API) *Store {
	return &Store{api: api}
}

// Load fetches the caller's favorites in server insertion order and
// replaces the in-memory list. On failure the prior list is preserved.
func (s *Store) Load(ctx context.Context, token string) ([]Entry, error) {
	ctx, endSpan := tracing.StartRemoteSpan(ctx, "favorite", tracing.RemoteOperationList)
	remote, err := s.api.ListFavorites(ctx, token)
	endSpan(err)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(remote))
	for _, e := range remote {
		entries = append(entries, Entry{
			ID:          e.ID,
			PointID:     e.Point.ID,
			Position:    geo.Point{Lat: e.Point.Latitude, Lng: e.Point.Longitude},
			Description: e.Point.Description,
		})
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	return s.Entries(), nil
}

// IsFavorite reports whether the current list holds a bookmark for the
// given point id.
func (s *Store) IsFavorite(pointID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Contains(s.entries, pointID)
}

// Add posts a favorite for the given point id. The store does not insert a
// synthetic entry on success (it lacks the denormalized point copy needed
// to render one), so the caller is expected to re-run Load.
func (s *Store) Add(ctx context.Context, token string, pointID int64) error {
	ctx, endSpan := tracing.StartRemoteSpan(ctx, "favorite", tracing.RemoteOperationCreate)
	err := s.api.AddFavorite(ctx, token, pointID)
	endSpan(err)
	return err
}

// Remove deletes a favorite by point id. Same re-fetch-to-refresh contract
// as Add.
func (s *Store) Remove(ctx context.Context, token string, pointID int64) error {
	ctx, endSpan := tracing.StartRemoteSpan(ctx, "favorite", tracing.RemoteOperationDelete)
	err := s.api.RemoveFavorite(ctx, token, pointID)
	endSpan(err)
	return err
}

// Entries returns a copy of the favorites list in server order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}
