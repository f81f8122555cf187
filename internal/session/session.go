// Package session implements the popup state machine that mediates between
// the annotation store, the favorite store, and the map viewport. Exactly
// one edit session is live at a time; opening a new one discards any
// unsaved edits of the previous session.
package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/onnwee/pinmap/internal/geo"
)

// State identifies what the popup is currently doing.
type State string

const (
	// StateClosed means no popup is visible.
	StateClosed State = "closed"

	// StateCreating means the popup is drafting a new point at a clicked
	// coordinate. The draft has no point id yet.
	StateCreating State = "creating"

	// StateEditing means the popup is bound to an existing point.
	StateEditing State = "editing"
)

// EditSession is the popup's current mode and draft state. Each session
// carries an instance tag; responses from remote calls issued by a
// superseded session are discarded instead of applied to the new one.
type EditSession struct {
	State    State
	Position geo.Point

	// PointID binds an editing session to its point. Zero while creating.
	PointID int64

	// Draft is the in-progress description text.
	Draft string

	// IsFavorite reflects the favorite membership of the bound point at
	// open time, refreshed after each successful toggle.
	IsFavorite bool

	// InlineEdit tracks whether the description is an editable field or a
	// static label within an editing session (click-to-edit).
	InlineEdit bool

	instance uuid.UUID
}

// CanSubmit reports whether the draft description is submittable. Empty and
// all-whitespace drafts never reach the network layer.
func (s EditSession) CanSubmit() bool {
	if s.State != StateCreating && s.State != StateEditing {
		return false
	}
	return strings.TrimSpace(s.Draft) != ""
}

// closedSession returns the rest state.
func closedSession() EditSession {
	return EditSession{State: StateClosed, instance: uuid.New()}
}

// creatingSession opens a draft at the clicked coordinate.
func creatingSession(position geo.Point) EditSession {
	return EditSession{
		State:    StateCreating,
		Position: position,
		instance: uuid.New(),
	}
}

// editingSession binds the popup to an existing point.
func editingSession(pointID int64, position geo.Point, description string, isFavorite bool) EditSession {
	return EditSession{
		State:      StateEditing,
		Position:   position,
		PointID:    pointID,
		Draft:      description,
		IsFavorite: isFavorite,
		instance:   uuid.New(),
	}
}
