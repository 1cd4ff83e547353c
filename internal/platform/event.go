package platform

import (
	"fmt"

	"github.com/1broseidon/sabiwm/internal/core"
)

// EventKind identifies what happened on the backend.
type EventKind int

const (
	EventUnknown EventKind = iota
	// EventBackendChanged reports an output layout change, e.g. a RandR
	// reconfiguration.
	EventBackendChanged
	EventWindowCreated
	EventWindowClosed
	EventWindowHid
	EventWindowRevealed
	// EventWindowChangeRequest carries the geometry a client asked for.
	EventWindowChangeRequest
	EventMouseEnter
	EventMouseLeave
	EventButtonPressed
	EventButtonReleased
	EventKeyPressed
)

var eventKindNames = map[EventKind]string{
	EventUnknown:             "unknown",
	EventBackendChanged:      "backend-changed",
	EventWindowCreated:       "window-created",
	EventWindowClosed:        "window-closed",
	EventWindowHid:           "window-hid",
	EventWindowRevealed:      "window-revealed",
	EventWindowChangeRequest: "window-change-request",
	EventMouseEnter:          "mouse-enter",
	EventMouseLeave:          "mouse-leave",
	EventButtonPressed:       "button-pressed",
	EventButtonReleased:      "button-released",
	EventKeyPressed:          "key-pressed",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a single window-system notification.
//
// Window is the subject of the event; it is NoWindow for kinds that carry
// none or when an optional window is absent. Target is the child window of
// a button press, if any. Rect is only set for EventWindowChangeRequest.
type Event struct {
	Kind   EventKind
	Window WindowID
	Target WindowID
	Rect   core.Rectangle
}

func BackendChanged() Event           { return Event{Kind: EventBackendChanged} }
func WindowCreated(w WindowID) Event  { return Event{Kind: EventWindowCreated, Window: w} }
func WindowClosed(w WindowID) Event   { return Event{Kind: EventWindowClosed, Window: w} }
func WindowHid(w WindowID) Event      { return Event{Kind: EventWindowHid, Window: w} }
func WindowRevealed(w WindowID) Event { return Event{Kind: EventWindowRevealed, Window: w} }
func MouseEnter(w WindowID) Event     { return Event{Kind: EventMouseEnter, Window: w} }
func MouseLeave(w WindowID) Event     { return Event{Kind: EventMouseLeave, Window: w} }
func ButtonReleased() Event           { return Event{Kind: EventButtonReleased} }
func KeyPressed(w WindowID) Event     { return Event{Kind: EventKeyPressed, Window: w} }
func Unknown() Event                  { return Event{Kind: EventUnknown} }

func WindowChangeRequest(w WindowID, r core.Rectangle) Event {
	return Event{Kind: EventWindowChangeRequest, Window: w, Rect: r}
}

func ButtonPressed(w, target WindowID) Event {
	return Event{Kind: EventButtonPressed, Window: w, Target: target}
}

// Subject returns the event's window and whether one is present.
func (e Event) Subject() (WindowID, bool) {
	return e.Window, e.Window != NoWindow
}

func (e Event) String() string {
	switch e.Kind {
	case EventWindowChangeRequest:
		return fmt.Sprintf("%s(%d, %s)", e.Kind, e.Window, e.Rect)
	case EventButtonPressed:
		return fmt.Sprintf("%s(%d, %d)", e.Kind, e.Window, e.Target)
	case EventBackendChanged, EventButtonReleased, EventUnknown:
		return e.Kind.String()
	default:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Window)
	}
}
