package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/onnwee/pinmap/internal/annotation"
	"github.com/onnwee/pinmap/internal/auth"
	"github.com/onnwee/pinmap/internal/favorite"
	"github.com/onnwee/pinmap/internal/geo"
	"github.com/onnwee/pinmap/internal/metrics"
	"github.com/onnwee/pinmap/internal/pointapi"
)

// Controller construction errors. Every collaborator is an explicit,
// statically checked field; there are no ad-hoc defaults for required ones.
var (
	ErrMissingAuth        = errors.New("session: auth session is required")
	ErrMissingAnnotations = errors.New("session: annotation store is required")
	ErrMissingFavorites   = errors.New("session: favorite store is required")
	ErrMissingViewport    = errors.New("session: viewport is required")
	ErrMissingNotifier    = errors.New("session: notifier is required")
	ErrMissingConfirmer   = errors.New("session: confirmer is required")
)

// Operation errors.
var (
	ErrNoActiveSession  = errors.New("session: no active session")
	ErrNotEditing       = errors.New("session: no point bound to session")
	ErrEmptyDescription = errors.New("session: description is empty")
	ErrUnknownMarker    = errors.New("session: unknown marker id")
	ErrUnknownFavorite  = errors.New("session: unknown favorite point id")
)

// deleteConfirmPrompt gates point deletion behind an explicit yes/no.
const deleteConfirmPrompt = "Are you sure you want to delete this point?"

// Viewport is the map-rendering capability the controller drives. The
// state machine itself is map-agnostic; projecting coordinates to screen
// positions is the renderer's business.
type Viewport interface {
	SetCenter(center geo.Point, zoom int)
	RenderMarkers(points []annotation.Point)
}

// Notifier surfaces blocking user-visible notifications, carrying the
// server-provided message when one is available.
type Notifier interface {
	Notify(message string)
}

// Confirmer asks the user a yes/no question and reports the answer.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Config enumerates every collaborator the controller accepts.
type Config struct {
	Auth        *auth.Session
	Annotations *annotation.Store
	Favorites   *favorite.Store
	Viewport    Viewport
	Notifier    Notifier
	Confirmer   Confirmer

	// Metrics is optional; nil disables transition and refresh counters.
	Metrics *metrics.Metrics

	// Logger is optional; nil falls back to slog.Default().
	Logger *slog.Logger
}

// Controller sequences the network calls each user action triggers and
// owns the single live EditSession. All remote calls within one transition
// are awaited sequentially; in-flight responses from a superseded session
// are discarded via the session instance tag.
type Controller struct {
	auth        *auth.Session
	annotations *annotation.Store
	favorites   *favorite.Store
	viewport    Viewport
	notifier    Notifier
	confirmer   Confirmer
	metrics     *metrics.Metrics
	logger      *slog.Logger

	mu      sync.Mutex
	session EditSession
}

// NewController validates the configuration and returns a controller at
// rest (no popup, no session).
func NewController(cfg Config) (*Controller, error) {
	if cfg.Auth == nil {
		return nil, ErrMissingAuth
	}
	if cfg.Annotations == nil {
		return nil, ErrMissingAnnotations
	}
	if cfg.Favorites == nil {
		return nil, ErrMissingFavorites
	}
	if cfg.Viewport == nil {
		return nil, ErrMissingViewport
	}
	if cfg.Notifier == nil {
		return nil, ErrMissingNotifier
	}
	if cfg.Confirmer == nil {
		return nil, ErrMissingConfirmer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		auth:        cfg.Auth,
		annotations: cfg.Annotations,
		favorites:   cfg.Favorites,
		viewport:    cfg.Viewport,
		notifier:    cfg.Notifier,
		confirmer:   cfg.Confirmer,
		metrics:     cfg.Metrics,
		logger:      logger,
		session:     closedSession(),
	}, nil
}

// Session returns a snapshot of the live session.
func (c *Controller) Session() EditSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Startup resolves the initial viewport center and loads both stores. A
// failed point listing is surfaced and renders an empty marker set rather
// than stale or undefined state; a failed favorite listing is surfaced and
// leaves the favorites list empty.
func (c *Controller) Startup(ctx context.Context, resolver geo.Resolver) {
	center, zoom := geo.ResolveCenter(ctx, resolver)
	c.viewport.SetCenter(center, zoom)

	points, err := c.annotations.Load(ctx, c.auth.Token())
	if err != nil {
		c.notifier.Notify(pointapi.UserMessage(err))
		points = nil
	}
	c.viewport.RenderMarkers(points)

	c.reloadFavorites(ctx)
}

// MapClicked opens a creating session at the clicked coordinate, discarding
// any prior session and its unsaved edits.
func (c *Controller) MapClicked(position geo.Point) {
	c.transition(creatingSession(position))
}

// MarkerClicked opens an editing session bound to the given point, seeding
// the draft with its description and the favorite flag from the current
// favorites list, and recenters the viewport on the marker.
func (c *Controller) MarkerClicked(pointID int64) error {
	point, ok := c.annotations.Get(pointID)
	if !ok {
		return ErrUnknownMarker
	}

	c.transition(editingSession(point.ID, point.Position, point.Description, c.favorites.IsFavorite(point.ID)))
	c.viewport.SetCenter(point.Position, geo.FocusZoom)
	return nil
}

// SetDraft replaces the in-progress description text.
func (c *Controller) SetDraft(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.State == StateClosed {
		return ErrNoActiveSession
	}
	c.session.Draft = text
	return nil
}

// BeginInlineEdit switches the description label into an editable field.
func (c *Controller) BeginInlineEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.State != StateEditing {
		return ErrNotEditing
	}
	c.session.InlineEdit = true
	return nil
}

// EndInlineEdit reverts the description field to a static label, as on
// loss of focus. The draft text is kept.
func (c *Controller) EndInlineEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.State != StateEditing {
		return ErrNotEditing
	}
	c.session.InlineEdit = false
	return nil
}

// Submit persists the draft: a creating session posts a new point, an
// editing session puts the new description. On success the session closes
// and the marker set re-renders; on failure the session is left exactly as
// it was and the error is surfaced. Empty drafts are rejected before any
// network call.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess.State == StateClosed {
		return ErrNoActiveSession
	}
	if strings.TrimSpace(sess.Draft) == "" {
		return ErrEmptyDescription
	}

	var err error
	switch sess.State {
	case StateCreating:
		_, err = c.annotations.Create(ctx, c.auth.Token(), annotation.Draft{
			Position:    sess.Position,
			Description: sess.Draft,
		})
	case StateEditing:
		_, err = c.annotations.Update(ctx, c.auth.Token(), sess.PointID, sess.Draft)
	}
	if err != nil {
		c.notifier.Notify(pointapi.UserMessage(err))
		return err
	}

	if c.superseded(sess) {
		// The store already applied the mutation (keyed by point id); only
		// the session-level effects of this response are discarded.
		c.logger.Debug("discarding response for superseded session", "state", string(sess.State))
		return nil
	}

	c.transition(closedSession())
	c.viewport.RenderMarkers(c.annotations.Points())
	return nil
}

// ToggleFavorite flips the bound point's favorite membership: add when it
// is not favorited, remove when it is. On success the favorites list is
// refetched wholesale and the session's flag refreshed. A missing or
// expired token short-circuits locally; the network is never reached.
func (c *Controller) ToggleFavorite(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess.State != StateEditing {
		return ErrNotEditing
	}

	token, err := c.auth.Require()
	if err != nil {
		c.notifier.Notify("not authenticated")
		return err
	}

	if sess.IsFavorite {
		err = c.favorites.Remove(ctx, token, sess.PointID)
	} else {
		err = c.favorites.Add(ctx, token, sess.PointID)
	}
	if err != nil {
		c.notifier.Notify(pointapi.UserMessage(err))
		return err
	}

	c.reloadFavorites(ctx)

	c.mu.Lock()
	if c.session.instance == sess.instance {
		c.session.IsFavorite = c.favorites.IsFavorite(sess.PointID)
	}
	c.mu.Unlock()
	return nil
}

// RequestDelete asks for confirmation and, when granted, deletes the bound
// point. Declining leaves the session untouched; a remote failure leaves
// both the session and the store untouched and surfaces the error.
func (c *Controller) RequestDelete(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess.State != StateEditing {
		return ErrNotEditing
	}

	if !c.confirmer.Confirm(deleteConfirmPrompt) {
		return nil
	}

	if err := c.annotations.Remove(ctx, c.auth.Token(), sess.PointID); err != nil {
		c.notifier.Notify(pointapi.UserMessage(err))
		return err
	}

	if c.superseded(sess) {
		c.logger.Debug("discarding response for superseded session", "state", string(sess.State))
		return nil
	}

	c.transition(closedSession())
	c.viewport.RenderMarkers(c.annotations.Points())
	return nil
}

// Close dismisses the popup unconditionally, discarding the draft. Closing
// over an open session also refreshes the favorites list so the panel
// stays consistent with any toggles made while the popup was up.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	wasOpen := c.session.State != StateClosed
	c.mu.Unlock()

	c.transition(closedSession())

	if wasOpen {
		c.reloadFavorites(ctx)
	}
}

// OpenFavorites refreshes and returns the favorites list for panel
// display. On failure the error is surfaced and the panel shows an empty
// list rather than crashing on stale entries.
func (c *Controller) OpenFavorites(ctx context.Context) []favorite.Entry {
	token := c.auth.Token()
	entries, err := c.favorites.Load(ctx, token)
	if c.metrics != nil {
		c.metrics.IncFavoriteRefresh()
	}
	if err != nil {
		c.notifier.Notify(pointapi.UserMessage(err))
		return nil
	}
	return entries
}

// SelectFavorite recenters the viewport on a favorites-list entry. Entries
// whose underlying point was deleted elsewhere still recenter best-effort
// on the denormalized coordinates.
func (c *Controller) SelectFavorite(pointID int64) error {
	for _, e := range c.favorites.Entries() {
		if e.PointID == pointID {
			c.viewport.SetCenter(e.Position, geo.FocusZoom)
			return nil
		}
	}
	return ErrUnknownFavorite
}

// RemoveFavorite removes a bookmark from the favorites panel, the second
// removal path alongside the in-popup toggle. The list is refetched after
// the mutation.
func (c *Controller) RemoveFavorite(ctx context.Context, pointID int64) error {
	token, err := c.auth.Require()
	if err != nil {
		c.notifier.Notify("not authenticated")
		return err
	}

	if err := c.favorites.Remove(ctx, token, pointID); err != nil {
		c.notifier.Notify(pointapi.UserMessage(err))
		return err
	}

	c.reloadFavorites(ctx)

	c.mu.Lock()
	if c.session.State == StateEditing && c.session.PointID == pointID {
		c.session.IsFavorite = false
	}
	c.mu.Unlock()
	return nil
}

// transition installs the new session and counts the state change.
func (c *Controller) transition(next EditSession) {
	c.mu.Lock()
	c.session = next
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.IncSessionTransition(string(next.State))
	}
}

// superseded reports whether the given session is no longer the live one.
func (c *Controller) superseded(sess EditSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.instance != sess.instance
}

// reloadFavorites refetches the favorites list wholesale. Refresh failures
// are logged, not surfaced; the panel re-fetches again next time it opens.
func (c *Controller) reloadFavorites(ctx context.Context) {
	if _, err := c.favorites.Load(ctx, c.auth.Token()); err != nil {
		c.logger.Warn("favorites refresh failed", "error", err)
	}
	if c.metrics != nil {
		c.metrics.IncFavoriteRefresh()
	}
}
