package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/onnwee/pinmap/internal/annotation"
	"github.com/onnwee/pinmap/internal/favorite"
	"github.com/onnwee/pinmap/internal/geo"
	"github.com/onnwee/pinmap/internal/session"
)

// terminal renders the map state as text and reads user input. It implements
// the controller's Viewport, Notifier, and Confirmer collaborators.
type terminal struct {
	in      *bufio.Scanner
	out     io.Writer
	markers []annotation.Point
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// readLine reads one input line. Returns false on EOF.
func (t *terminal) readLine() (string, bool) {
	if !t.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.in.Text()), true
}

// SetCenter prints the new viewport center with its geohash cell label.
func (t *terminal) SetCenter(center geo.Point, zoom int) {
	fmt.Fprintf(t.out, "viewport: (%.6f, %.6f) zoom %d cell %s\n", center.Lat, center.Lng, zoom, geo.Label(center))
}

// RenderMarkers prints the current marker set.
func (t *terminal) RenderMarkers(points []annotation.Point) {
	t.markers = points
	fmt.Fprintf(t.out, "markers: %d\n", len(points))
	for _, p := range points {
		fmt.Fprintf(t.out, "  [%d] (%.6f, %.6f) %s %s\n", p.ID, p.Position.Lat, p.Position.Lng, geo.Label(p.Position), p.Description)
	}
}

// Notify prints a user-visible message.
func (t *terminal) Notify(message string) {
	fmt.Fprintln(t.out, "!", message)
}

// Confirm asks a yes/no question and reads the answer from input. EOF and
// anything but an explicit yes count as no.
func (t *terminal) Confirm(prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, ok := t.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	}
	return false
}

// renderFavorites prints the favorites panel.
func (t *terminal) renderFavorites(entries []favorite.Entry) {
	fmt.Fprintf(t.out, "favorites: %d\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(t.out, "  point %d (%.6f, %.6f) %s\n", e.PointID, e.Position.Lat, e.Position.Lng, e.Description)
	}
}

// prompt prints the current session state before the next command.
func (t *terminal) prompt(sess session.EditSession) {
	switch sess.State {
	case session.StateCreating:
		fmt.Fprintf(t.out, "[creating at (%.6f, %.6f) draft %q] > ", sess.Position.Lat, sess.Position.Lng, sess.Draft)
	case session.StateEditing:
		mode := "label"
		if sess.InlineEdit {
			mode = "editing"
		}
		star := " "
		if sess.IsFavorite {
			star = "*"
		}
		fmt.Fprintf(t.out, "[point %d%s %s draft %q] > ", sess.PointID, star, mode, sess.Draft)
	default:
		fmt.Fprint(t.out, "> ")
	}
}

// help lists the available commands.
func (t *terminal) help() {
	fmt.Fprint(t.out, `commands:
  click <lat> <lng>  open a new point draft at a coordinate
  open <id>          open an existing point
  draft <text>       set the description draft
  edit               switch the description into an editable field
  blur               switch the description back to a label
  save               submit the draft
  fav                toggle favorite on the open point
  del                delete the open point (asks for confirmation)
  close              dismiss the popup, discarding the draft
  favs               show the favorites panel
  goto <id>          recenter on a favorite point
  unfav <id>         remove a favorite from the panel
  points             list all markers
  logout             drop the auth token
  quit               exit
`)
}
