// Package annotation owns the authoritative in-memory mirror of the user's
// points. The list is mutated only on confirmed remote success; a failed
// call never partially applies.
package annotation

import (
	"context"
	"errors"
	"sync"

	"github.com/onnwee/pinmap/internal/geo"
	"github.com/onnwee/pinmap/internal/pointapi"
	"github.com/onnwee/pinmap/internal/tracing"
)

// ErrUnknownPoint is returned when an update targets an id that is not in
// the authoritative list.
var ErrUnknownPoint = errors.New("annotation: unknown point id")

// Point is the internal shape of a persisted point. A Point always carries
// a server-assigned id; drafts without one never enter the store.
type Point struct {
	ID          int64
	Position    geo.Point
	Description string
}

// Draft holds the fields of a point that has not been persisted yet.
type Draft struct {
	Position    geo.Point
	Description string
}

// API is the subset of the remote point API the store depends on.
type API interface {
	ListPoints(ctx context.Context, token string) ([]pointapi.Point, error)
	CreatePoint(ctx context.Context, token string, draft pointapi.PointDraft) (pointapi.Point, error)
	UpdatePoint(ctx context.Context, token string, id int64, draft pointapi.PointDraft) (pointapi.Point, error)
	DeletePoint(ctx context.Context, token string, id int64) error
}

// Store mirrors the remote point store for the current user.
// Thread-safe via RWMutex.
type Store struct {
	mu     sync.RWMutex
	api    API
	points []Point
}

// NewStore creates a store backed by the given remote API.
func NewStore(api API) *Store {
	return &Store{api: api}
}

// fromWire maps the remote field names onto the internal Point shape.
func fromWire(p pointapi.Point) Point {
	return Point{
		ID:          p.ID,
		Position:    geo.Point{Lat: p.Latitude, Lng: p.Longitude},
		Description: p.Description,
	}
}

// Load fetches the caller's points and replaces the in-memory list. On
// failure the prior list is preserved untouched and the error is returned;
// the caller decides whether to clear its displayed markers.
func (s *Store) Load(ctx context.Context, token string) ([]Point, error) {
	ctx, endSpan := tracing.StartRemoteSpan(ctx, "point", tracing.RemoteOperationList)
	remote, err := s.api.ListPoints(ctx, token)
	endSpan(err)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(remote))
	for _, p := range remote {
		points = append(points, fromWire(p))
	}

	s.mu.Lock()
	s.points = points
	s.mu.Unlock()

	return s.Points(), nil
}

// Create posts the draft. On success the returned point (now carrying a
// server id) is appended to the list and returned; on failure the list is
// left unchanged.
func (s *Store) Create(ctx context.Context, token string, draft Draft) (Point, error) {
	ctx, endSpan := tracing.StartRemoteSpan(ctx, "point", tracing.RemoteOperationCreate)
	created, err := s.api.CreatePoint(ctx, token, pointapi.PointDraft{
		Latitude:    draft.Position.Lat,
		Longitude:   draft.Position.Lng,
		Description: draft.Description,
	})
	endSpan(err)
	if err != nil {
		return Point{}, err
	}

	point := fromWire(created)
	s.mu.Lock()
	s.points = append(s.points, point)
	s.mu.Unlock()

	return point, nil
}

// Update puts a new description for the point with the given id. The
// point's coordinates are resent unchanged; editing never relocates a
// point. On success only the matching point's description is replaced
// locally; on failure nothing changes.
func (s *Store) Update(ctx context.Context, token string, id int64, description string) (Point, error) {
	current, ok := s.Get(id)
	if !ok {
		return Point{}, ErrUnknownPoint
	}

	ctx, endSpan := tracing.StartRemoteSpan(ctx, "point", tracing.RemoteOperationUpdate)
	updated, err := s.api.UpdatePoint(ctx, token, id, pointapi.PointDraft{
		Latitude:    current.Position.Lat,
		Longitude:   current.Position.Lng,
		Description: description,
	})
	endSpan(err)
	if err != nil {
		return Point{}, err
	}

	s.mu.Lock()
	for i := range s.points {
		if s.points[i].ID == id {
			s.points[i].Description = updated.Description
			break
		}
	}
	s.mu.Unlock()

	return fromWire(updated), nil
}

// Remove deletes the point with the given id. On success the id is removed
// from the list; on failure the list is unchanged.
func (s *Store) Remove(ctx context.Context, token string, id int64) error {
	ctx, endSpan := tracing.StartRemoteSpan(ctx, "point", tracing.RemoteOperationDelete)
	err := s.api.DeletePoint(ctx, token, id)
	endSpan(err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	points := s.points[:0]
	for _, p := range s.points {
		if p.ID != id {
			points = append(points, p)
		}
	}
	s.points = points
	s.mu.Unlock()

	return nil
}

// Points returns a copy of the authoritative list in server order.
func (s *Store) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := make([]Point, len(s.points))
	copy(points, s.points)
	return points
}

// Get returns the point with the given id, if present.
func (s *Store) Get(id int64) (Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.points {
		if p.ID == id {
			return p, true
		}
	}
	return Point{}, false
}
