// Package dnd turns drag gestures into ordered store mutations and a single
// persistence commit per gesture.
package dnd

import (
	"fmt"

	"nexus/internal/kanban/store"
)

// Kind tags what a gesture is dragging.
type Kind int

const (
	KindCard Kind = iota
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindCard:
		return "card"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Item is the dragged element, classified once at drag-start.
type Item struct {
	Kind Kind
	ID   string
}

// Card tags id as a card drag.
func Card(id string) Item { return Item{Kind: KindCard, ID: id} }

// List tags id as a list drag.
func List(id string) Item { return Item{Kind: KindList, ID: id} }

func (i Item) String() string {
	return i.Kind.String() + ":" + i.ID
}

// Rect is the vertical extent of an element on screen.
type Rect struct {
	Top    float64
	Height float64
}

// Mid returns the vertical midpoint.
func (r Rect) Mid() float64 {
	return r.Top + r.Height/2
}

// Hover describes the drop target under the pointer. An empty OverID means
// the pointer is outside every valid target.
type Hover struct {
	OverID string
	// Active is the dragged element's current rect, Over is the hovered one.
	Active Rect
	Over   Rect
}

// Below reports whether the dragged element sits past the hovered element's
// midpoint.
func (h Hover) Below() bool {
	return h.Active.Top > h.Over.Mid()
}

// ResolveContainer maps an element id to the list that contains it. A list id
// resolves to itself and a card id to its list. Both lookups are map hits on
// the store, so this is safe to call on every pointer tick.
func ResolveContainer(s *store.Store, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	if s.HasList(id) {
		return id, true
	}
	return s.CardListID(id)
}
