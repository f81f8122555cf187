package session

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/pinmap/internal/annotation"
	"github.com/onnwee/pinmap/internal/auth"
	"github.com/onnwee/pinmap/internal/favorite"
	"github.com/onnwee/pinmap/internal/geo"
	"github.com/onnwee/pinmap/internal/pointapi"
)

// fakeRemote is a scriptable stand-in for both remote APIs.
type fakeRemote struct {
	points      []pointapi.Point
	favorites   []pointapi.FavoriteEntry
	nextPointID int64
	nextFavID   int64

	failPointsList bool
	failPointWrite bool
	failFavList    bool
	failFavWrite   bool

	createCalls    int
	updateCalls    int
	deleteCalls    int
	favAddCalls    int
	favRemoveCalls int

	// onCreate runs inside CreatePoint, before it returns. Used to
	// supersede the session while a call is in flight.
	onCreate func()
}

func fetchErr() error {
	return &pointapi.RemoteError{Kind: pointapi.KindFetch, Op: "test", Status: 500, Message: "remote store unavailable"}
}

func writeErr() error {
	return &pointapi.RemoteError{Kind: pointapi.KindWrite, Op: "test", Status: 500, Message: "remote store unavailable"}
}

func (f *fakeRemote) ListPoints(_ context.Context, _ string) ([]pointapi.Point, error) {
	if f.failPointsList {
		return nil, fetchErr()
	}
	return append([]pointapi.Point(nil), f.points...), nil
}

func (f *fakeRemote) CreatePoint(_ context.Context, _ string, draft pointapi.PointDraft) (pointapi.Point, error) {
	f.createCalls++
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.failPointWrite {
		return pointapi.Point{}, writeErr()
	}
	f.nextPointID++
	p := pointapi.Point{
		ID:          f.nextPointID,
		Latitude:    draft.Latitude,
		Longitude:   draft.Longitude,
		Description: draft.Description,
	}
	f.points = append(f.points, p)
	return p, nil
}

func (f *fakeRemote) UpdatePoint(_ context.Context, _ string, id int64, draft pointapi.PointDraft) (pointapi.Point, error) {
	f.updateCalls++
	if f.failPointWrite {
		return pointapi.Point{}, writeErr()
	}
	for i := range f.points {
		if f.points[i].ID == id {
			f.points[i].Description = draft.Description
			return f.points[i], nil
		}
	}
	return pointapi.Point{}, writeErr()
}

func (f *fakeRemote) DeletePoint(_ context.Context, _ string, id int64) error {
	f.deleteCalls++
	if f.failPointWrite {
		return writeErr()
	}
	for i := range f.points {
		if f.points[i].ID == id {
			f.points = append(f.points[:i], f.points[i+1:]...)
			return nil
		}
	}
	return writeErr()
}

func (f *fakeRemote) ListFavorites(_ context.Context, _ string) ([]pointapi.FavoriteEntry, error) {
	if f.failFavList {
		return nil, fetchErr()
	}
	return append([]pointapi.FavoriteEntry(nil), f.favorites...), nil
}

func (f *fakeRemote) AddFavorite(_ context.Context, _ string, pointID int64) error {
	f.favAddCalls++
	if f.failFavWrite {
		return writeErr()
	}
	var point pointapi.Point
	for _, p := range f.points {
		if p.ID == pointID {
			point = p
		}
	}
	f.nextFavID++
	f.favorites = append(f.favorites, pointapi.FavoriteEntry{ID: f.nextFavID, Point: point})
	return nil
}

func (f *fakeRemote) RemoveFavorite(_ context.Context, _ string, pointID int64) error {
	f.favRemoveCalls++
	if f.failFavWrite {
		return writeErr()
	}
	for i := range f.favorites {
		if f.favorites[i].Point.ID == pointID {
			f.favorites = append(f.favorites[:i], f.favorites[i+1:]...)
			break
		}
	}
	return nil
}

// fakeViewport records rendering calls.
type fakeViewport struct {
	center      geo.Point
	zoom        int
	markers     []annotation.Point
	renderCalls int
}

func (v *fakeViewport) SetCenter(center geo.Point, zoom int) {
	v.center = center
	v.zoom = zoom
}

func (v *fakeViewport) RenderMarkers(points []annotation.Point) {
	v.markers = points
	v.renderCalls++
}

// fakeNotifier records surfaced messages.
type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

// fakeConfirmer answers every prompt with a scripted answer.
type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type fixture struct {
	remote      *fakeRemote
	annotations *annotation.Store
	favorites   *favorite.Store
	viewport    *fakeViewport
	notifier    *fakeNotifier
	confirmer   *fakeConfirmer
	controller  *Controller
}

func newFixture(t *testing.T, remote *fakeRemote) *fixture {
	t.Helper()

	f := &fixture{
		remote:      remote,
		annotations: annotation.NewStore(remote),
		favorites:   favorite.NewStore(remote),
		viewport:    &fakeViewport{},
		notifier:    &fakeNotifier{},
		confirmer:   &fakeConfirmer{answer: true},
	}

	controller, err := NewController(Config{
		Auth:        auth.NewSession("tok-1", nil),
		Annotations: f.annotations,
		Favorites:   f.favorites,
		Viewport:    f.viewport,
		Notifier:    f.notifier,
		Confirmer:   f.confirmer,
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	f.controller = controller
	return f
}

func TestNewController_RequiredFields(t *testing.T) {
	annotations := annotation.NewStore(&fakeRemote{})
	favorites := favorite.NewStore(&fakeRemote{})
	session := auth.NewSession("tok-1", nil)
	viewport := &fakeViewport{}
	notifier := &fakeNotifier{}
	confirmer := &fakeConfirmer{}

	full := Config{
		Auth:        session,
		Annotations: annotations,
		Favorites:   favorites,
		Viewport:    viewport,
		Notifier:    notifier,
		Confirmer:   confirmer,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing auth", func(c *Config) { c.Auth = nil }, ErrMissingAuth},
		{"missing annotations", func(c *Config) { c.Annotations = nil }, ErrMissingAnnotations},
		{"missing favorites", func(c *Config) { c.Favorites = nil }, ErrMissingFavorites},
		{"missing viewport", func(c *Config) { c.Viewport = nil }, ErrMissingViewport},
		{"missing notifier", func(c *Config) { c.Notifier = nil }, ErrMissingNotifier},
		{"missing confirmer", func(c *Config) { c.Confirmer = nil }, ErrMissingConfirmer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			if _, err := NewController(cfg); err != tt.want {
				t.Errorf("NewController error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewController(full); err != nil {
		t.Errorf("NewController with full config failed: %v", err)
	}
}

func TestController_InitialStateClosed(t *testing.T) {
	f := newFixture(t, &fakeRemote{})
	if got := f.controller.Session().State; got != StateClosed {
		t.Errorf("initial state = %v, want %v", got, StateClosed)
	}
}

// Scenario: map click at (10,20), type "Cafe", submit; the created point
// enters the store with its server id and the session closes.
func TestController_CreateFlow(t *testing.T) {
	remote := &fakeRemote{nextPointID: 6}
	f := newFixture(t, remote)
	ctx := context.Background()

	f.controller.MapClicked(geo.Point{Lat: 10, Lng: 20})
	sess := f.controller.Session()
	if sess.State != StateCreating {
		t.Fatalf("state = %v, want %v", sess.State, StateCreating)
	}
	if sess.Position != (geo.Point{Lat: 10, Lng: 20}) {
		t.Errorf("position = %+v, want clicked coordinate", sess.Position)
	}
	if sess.Draft != "" {
		t.Errorf("draft = %q, want empty", sess.Draft)
	}

	if err := f.controller.SetDraft("Cafe"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}
	if err := f.controller.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	points := f.annotations.Points()
	if len(points) != 1 || points[0].ID != 7 {
		t.Fatalf("store should contain exactly point 7, got %+v", points)
	}
	if f.controller.Session().State != StateClosed {
		t.Errorf("state after submit = %v, want %v", f.controller.Session().State, StateClosed)
	}
	if len(f.viewport.markers) != 1 {
		t.Errorf("viewport should render the new marker, got %+v", f.viewport.markers)
	}
}

// Scenario: marker click on an existing point with no favorites opens an
// editing session seeded from the point.
func TestController_MarkerClicked(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{
		{ID: 7, Latitude: 10, Longitude: 20, Description: "Cafe"},
	}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)

	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	sess := f.controller.Session()
	if sess.State != StateEditing {
		t.Fatalf("state = %v, want %v", sess.State, StateEditing)
	}
	if sess.PointID != 7 {
		t.Errorf("point id = %d, want 7", sess.PointID)
	}
	if sess.Draft != "Cafe" {
		t.Errorf("draft = %q, want %q", sess.Draft, "Cafe")
	}
	if sess.IsFavorite {
		t.Error("isFavorite = true, want false with empty favorites")
	}
	if sess.InlineEdit {
		t.Error("inlineEdit should start false")
	}

	// Marker selection recenters the viewport.
	if f.viewport.center != (geo.Point{Lat: 10, Lng: 20}) || f.viewport.zoom != geo.FocusZoom {
		t.Errorf("viewport = %+v zoom %d, want marker position at focus zoom", f.viewport.center, f.viewport.zoom)
	}
}

func TestController_MarkerClicked_Unknown(t *testing.T) {
	f := newFixture(t, &fakeRemote{})
	if err := f.controller.MarkerClicked(99); !errors.Is(err, ErrUnknownMarker) {
		t.Errorf("MarkerClicked error = %v, want ErrUnknownMarker", err)
	}
}

// Scenario: toggling the favorite on an editing session adds the bookmark,
// reloads the list, and refreshes the session flag.
func TestController_ToggleFavorite_Add(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	if err := f.controller.ToggleFavorite(ctx); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}

	if !f.favorites.IsFavorite(7) {
		t.Error("favorites list should contain point 7 after toggle")
	}
	if !f.controller.Session().IsFavorite {
		t.Error("session flag should refresh to true")
	}
	if remote.favAddCalls != 1 {
		t.Errorf("remote add called %d times, want 1", remote.favAddCalls)
	}
}

// The toggle is symmetric: a second toggle removes the bookmark in place.
func TestController_ToggleFavorite_Remove(t *testing.T) {
	remote := &fakeRemote{
		points:    []pointapi.Point{{ID: 7, Description: "Cafe"}},
		favorites: []pointapi.FavoriteEntry{{ID: 1, Point: pointapi.Point{ID: 7, Description: "Cafe"}}},
	}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}
	if !f.controller.Session().IsFavorite {
		t.Fatal("session should open with isFavorite true")
	}

	if err := f.controller.ToggleFavorite(ctx); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}

	if f.favorites.IsFavorite(7) {
		t.Error("favorite should be removed after toggle")
	}
	if f.controller.Session().IsFavorite {
		t.Error("session flag should refresh to false")
	}
	if remote.favRemoveCalls != 1 {
		t.Errorf("remote remove called %d times, want 1", remote.favRemoveCalls)
	}
}

func TestController_ToggleFavorite_NotAuthenticated(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}

	annotations := annotation.NewStore(remote)
	favorites := favorite.NewStore(remote)
	notifier := &fakeNotifier{}
	controller, err := NewController(Config{
		Auth:        auth.NewSession("", nil),
		Annotations: annotations,
		Favorites:   favorites,
		Viewport:    &fakeViewport{},
		Notifier:    notifier,
		Confirmer:   &fakeConfirmer{},
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	ctx := context.Background()
	controller.Startup(ctx, nil)
	if err := controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	err = controller.ToggleFavorite(ctx)
	if !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("ToggleFavorite error = %v, want ErrNotAuthenticated", err)
	}
	// The short-circuit happens before any network call.
	if remote.favAddCalls != 0 || remote.favRemoveCalls != 0 {
		t.Error("favorite API must not be reached without a token")
	}
	if len(notifier.messages) == 0 || notifier.messages[len(notifier.messages)-1] != "not authenticated" {
		t.Errorf("expected 'not authenticated' notification, got %v", notifier.messages)
	}
}

func TestController_ToggleFavorite_FailureKeepsSession(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	remote.failFavWrite = true
	if err := f.controller.ToggleFavorite(ctx); err == nil {
		t.Fatal("expected error from failed toggle")
	}

	sess := f.controller.Session()
	if sess.State != StateEditing || sess.PointID != 7 {
		t.Errorf("session changed after failed toggle: %+v", sess)
	}
	if sess.IsFavorite {
		t.Error("favorite flag must stay false after failure")
	}
	if len(f.notifier.messages) == 0 {
		t.Error("failure should be surfaced via notifier")
	}
}

// Scenario: confirmed delete removes the point and closes the session.
func TestController_RequestDelete_Confirmed(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	if err := f.controller.RequestDelete(ctx); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}

	if _, ok := f.annotations.Get(7); ok {
		t.Error("point 7 should be gone after confirmed delete")
	}
	if f.controller.Session().State != StateClosed {
		t.Errorf("state = %v, want %v", f.controller.Session().State, StateClosed)
	}
	if len(f.confirmer.prompts) != 1 {
		t.Errorf("confirmation asked %d times, want 1", len(f.confirmer.prompts))
	}
}

func TestController_RequestDelete_Declined(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	f.confirmer.answer = false
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	if err := f.controller.RequestDelete(ctx); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}

	if remote.deleteCalls != 0 {
		t.Error("declined delete must not reach the network")
	}
	if f.controller.Session().State != StateEditing {
		t.Errorf("session should stay open, got %v", f.controller.Session().State)
	}
}

func TestController_RequestDelete_FailureKeepsSession(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	remote.failPointWrite = true
	if err := f.controller.RequestDelete(ctx); err == nil {
		t.Fatal("expected error from failed delete")
	}

	if f.controller.Session().State != StateEditing {
		t.Error("session should stay open after failed delete")
	}
	if _, ok := f.annotations.Get(7); !ok {
		t.Error("point 7 should survive a failed delete")
	}
}

// Scenario: submitting an empty or all-whitespace draft never reaches the
// store or the network.
func TestController_Submit_EmptyDraft(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	for _, draft := range []string{"", "   ", "\t\n"} {
		if err := f.controller.SetDraft(draft); err != nil {
			t.Fatalf("SetDraft failed: %v", err)
		}
		if f.controller.Session().CanSubmit() {
			t.Errorf("CanSubmit with draft %q = true, want false", draft)
		}
		if err := f.controller.Submit(ctx); !errors.Is(err, ErrEmptyDescription) {
			t.Errorf("Submit with draft %q error = %v, want ErrEmptyDescription", draft, err)
		}
	}

	if remote.updateCalls != 0 {
		t.Errorf("update called %d times, want 0", remote.updateCalls)
	}
}

func TestController_Submit_NoSession(t *testing.T) {
	f := newFixture(t, &fakeRemote{})
	if err := f.controller.Submit(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Submit error = %v, want ErrNoActiveSession", err)
	}
}

func TestController_Submit_EditFlow(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Latitude: 10, Longitude: 20, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}
	if err := f.controller.BeginInlineEdit(); err != nil {
		t.Fatalf("BeginInlineEdit failed: %v", err)
	}
	if err := f.controller.SetDraft("Bakery"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}

	if err := f.controller.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got, _ := f.annotations.Get(7)
	if got.Description != "Bakery" {
		t.Errorf("description = %q, want %q", got.Description, "Bakery")
	}
	// Successful submit closes the session, which also ends inline edit.
	if f.controller.Session().State != StateClosed {
		t.Errorf("state = %v, want %v", f.controller.Session().State, StateClosed)
	}
}

func TestController_Submit_CreateFailureKeepsCreating(t *testing.T) {
	remote := &fakeRemote{failPointWrite: true}
	f := newFixture(t, remote)
	ctx := context.Background()

	f.controller.MapClicked(geo.Point{Lat: 10, Lng: 20})
	if err := f.controller.SetDraft("Cafe"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}

	if err := f.controller.Submit(ctx); err == nil {
		t.Fatal("expected error from failed create")
	}

	sess := f.controller.Session()
	if sess.State != StateCreating {
		t.Errorf("state = %v, want creating after failure", sess.State)
	}
	if sess.Draft != "Cafe" {
		t.Errorf("draft = %q, want preserved after failure", sess.Draft)
	}
	if len(f.annotations.Points()) != 0 {
		t.Error("failed create must not leave a half-formed point in the store")
	}
	if len(f.notifier.messages) == 0 {
		t.Error("failure should be surfaced via notifier")
	}
}

// Scenario: a failed point listing surfaces the error and renders an empty
// marker set, not stale or undefined state.
func TestController_Startup_ListFailure(t *testing.T) {
	remote := &fakeRemote{failPointsList: true}
	f := newFixture(t, remote)

	f.controller.Startup(context.Background(), nil)

	if f.viewport.renderCalls == 0 {
		t.Fatal("viewport should render after startup")
	}
	if len(f.viewport.markers) != 0 {
		t.Errorf("markers should be empty on listing failure, got %+v", f.viewport.markers)
	}
	if len(f.notifier.messages) == 0 {
		t.Error("listing failure should be surfaced via notifier")
	}
	if f.viewport.center != geo.DefaultCenter || f.viewport.zoom != geo.DefaultZoom {
		t.Errorf("viewport should fall back to the default center, got %+v", f.viewport.center)
	}
}

func TestController_Startup_ResolverCenters(t *testing.T) {
	f := newFixture(t, &fakeRemote{})

	f.controller.Startup(context.Background(), geo.FixedResolver{Point: geo.Point{Lat: 1, Lng: 2}})

	if f.viewport.center != (geo.Point{Lat: 1, Lng: 2}) || f.viewport.zoom != geo.FocusZoom {
		t.Errorf("viewport = %+v zoom %d, want resolved position at focus zoom", f.viewport.center, f.viewport.zoom)
	}
}

func TestController_MapClicked_DiscardsPriorSession(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}
	if err := f.controller.SetDraft("unsaved edit"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}

	f.controller.MapClicked(geo.Point{Lat: 1, Lng: 2})

	sess := f.controller.Session()
	if sess.State != StateCreating {
		t.Fatalf("state = %v, want %v", sess.State, StateCreating)
	}
	if sess.Draft != "" {
		t.Errorf("unsaved prior draft leaked into new session: %q", sess.Draft)
	}
}

func TestController_Close_DiscardsDraft(t *testing.T) {
	f := newFixture(t, &fakeRemote{})
	ctx := context.Background()

	f.controller.MapClicked(geo.Point{Lat: 10, Lng: 20})
	if err := f.controller.SetDraft("Cafe"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}

	f.controller.Close(ctx)

	sess := f.controller.Session()
	if sess.State != StateClosed {
		t.Errorf("state = %v, want %v", sess.State, StateClosed)
	}
	if sess.Draft != "" {
		t.Errorf("draft = %q, want discarded", sess.Draft)
	}
}

func TestController_InlineEdit(t *testing.T) {
	remote := &fakeRemote{points: []pointapi.Point{{ID: 7, Description: "Cafe"}}}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)

	// Inline edit is only meaningful while editing.
	if err := f.controller.BeginInlineEdit(); !errors.Is(err, ErrNotEditing) {
		t.Errorf("BeginInlineEdit while closed = %v, want ErrNotEditing", err)
	}

	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}
	if err := f.controller.BeginInlineEdit(); err != nil {
		t.Fatalf("BeginInlineEdit failed: %v", err)
	}
	if !f.controller.Session().InlineEdit {
		t.Error("inlineEdit should be true after BeginInlineEdit")
	}

	// Loss of focus reverts to the static label but keeps the draft.
	if err := f.controller.SetDraft("Bakery"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}
	if err := f.controller.EndInlineEdit(); err != nil {
		t.Fatalf("EndInlineEdit failed: %v", err)
	}
	sess := f.controller.Session()
	if sess.InlineEdit {
		t.Error("inlineEdit should be false after EndInlineEdit")
	}
	if sess.Draft != "Bakery" {
		t.Errorf("draft = %q, want kept on blur", sess.Draft)
	}
}

func TestController_OpenFavorites(t *testing.T) {
	remote := &fakeRemote{favorites: []pointapi.FavoriteEntry{
		{ID: 1, Point: pointapi.Point{ID: 7, Latitude: 10, Longitude: 20, Description: "Cafe"}},
	}}
	f := newFixture(t, remote)

	entries := f.controller.OpenFavorites(context.Background())
	if len(entries) != 1 || entries[0].PointID != 7 {
		t.Errorf("unexpected favorites: %+v", entries)
	}
}

func TestController_OpenFavorites_FailureShowsEmpty(t *testing.T) {
	remote := &fakeRemote{failFavList: true}
	f := newFixture(t, remote)

	entries := f.controller.OpenFavorites(context.Background())
	if entries != nil {
		t.Errorf("favorites on failure = %+v, want nil", entries)
	}
	if len(f.notifier.messages) == 0 {
		t.Error("failure should be surfaced via notifier")
	}
}

func TestController_SelectFavorite(t *testing.T) {
	remote := &fakeRemote{favorites: []pointapi.FavoriteEntry{
		{ID: 1, Point: pointapi.Point{ID: 7, Latitude: 10, Longitude: 20, Description: "Cafe"}},
	}}
	f := newFixture(t, remote)
	f.controller.OpenFavorites(context.Background())

	if err := f.controller.SelectFavorite(7); err != nil {
		t.Fatalf("SelectFavorite failed: %v", err)
	}
	if f.viewport.center != (geo.Point{Lat: 10, Lng: 20}) || f.viewport.zoom != geo.FocusZoom {
		t.Errorf("viewport = %+v zoom %d, want favorite position at focus zoom", f.viewport.center, f.viewport.zoom)
	}

	if err := f.controller.SelectFavorite(99); !errors.Is(err, ErrUnknownFavorite) {
		t.Errorf("SelectFavorite(99) = %v, want ErrUnknownFavorite", err)
	}
}

func TestController_RemoveFavorite_PanelPath(t *testing.T) {
	remote := &fakeRemote{
		points:    []pointapi.Point{{ID: 7, Description: "Cafe"}},
		favorites: []pointapi.FavoriteEntry{{ID: 1, Point: pointapi.Point{ID: 7, Description: "Cafe"}}},
	}
	f := newFixture(t, remote)
	ctx := context.Background()
	f.controller.Startup(ctx, nil)
	if err := f.controller.MarkerClicked(7); err != nil {
		t.Fatalf("MarkerClicked failed: %v", err)
	}

	if err := f.controller.RemoveFavorite(ctx, 7); err != nil {
		t.Fatalf("RemoveFavorite failed: %v", err)
	}

	if f.favorites.IsFavorite(7) {
		t.Error("favorite should be gone after panel removal")
	}
	// An editing session bound to the same point sees the change.
	if f.controller.Session().IsFavorite {
		t.Error("session flag should drop after panel removal")
	}
}

// A response arriving after its session was superseded is discarded: the
// store keeps the confirmed mutation, but the new session stays live.
func TestController_StaleResponseDiscarded(t *testing.T) {
	remote := &fakeRemote{nextPointID: 6}
	f := newFixture(t, remote)
	ctx := context.Background()

	f.controller.MapClicked(geo.Point{Lat: 10, Lng: 20})
	if err := f.controller.SetDraft("Cafe"); err != nil {
		t.Fatalf("SetDraft failed: %v", err)
	}

	// A second map click lands while the create call is in flight.
	remote.onCreate = func() {
		f.controller.MapClicked(geo.Point{Lat: 1, Lng: 2})
	}

	if err := f.controller.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The confirmed create is applied to the store (keyed by point id).
	if len(f.annotations.Points()) != 1 {
		t.Errorf("store should hold the created point, got %+v", f.annotations.Points())
	}

	// The superseding session survives; the stale response does not close it.
	sess := f.controller.Session()
	if sess.State != StateCreating {
		t.Errorf("state = %v, want the new creating session", sess.State)
	}
	if sess.Position != (geo.Point{Lat: 1, Lng: 2}) {
		t.Errorf("position = %+v, want the second click's coordinate", sess.Position)
	}
}
