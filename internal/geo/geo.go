// Package geo provides the coordinate model and display utilities shared by
// the map annotation client.
package geo

import "context"

// Point represents a geographic coordinate with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCenter is the fallback viewport center used when geolocation is
// denied or unavailable.
var DefaultCenter = Point{Lat: -28.2650862084303, Lng: -52.3974821975343}

// Zoom levels for the map viewport. The fallback center renders zoomed out;
// a resolved or user-selected position renders zoomed in.
const (
	DefaultZoom = 12
	FocusZoom   = 16
)

// Resolver resolves the user's current position for the initial viewport
// center. Implementations should return an error rather than a guess when
// no position is available; callers fall back to DefaultCenter.
type Resolver interface {
	Resolve(ctx context.Context) (Point, error)
}

// FixedResolver always resolves to a configured point. It backs the
// PINMAP_CENTER_LAT/LNG configuration override and tests.
type FixedResolver struct {
	Point Point
}

// Resolve returns the configured point.
func (r FixedResolver) Resolve(_ context.Context) (Point, error) {
	return r.Point, nil
}

// ResolveCenter resolves the initial viewport center and zoom. On resolver
// failure (or a nil resolver) it returns DefaultCenter at DefaultZoom;
// a successful resolution returns the position at FocusZoom.
func ResolveCenter(ctx context.Context, r Resolver) (Point, int) {
	if r == nil {
		return DefaultCenter, DefaultZoom
	}
	p, err := r.Resolve(ctx)
	if err != nil {
		return DefaultCenter, DefaultZoom
	}
	return p, FocusZoom
}
