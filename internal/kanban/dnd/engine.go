package dnd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"nexus/internal/kanban/position"
	"nexus/internal/kanban/store"
	"nexus/internal/logs"
)

var (
	ErrAlreadyDragging = errors.New("dnd: a gesture is already in progress")
	ErrNotDragging     = errors.New("dnd: no gesture in progress")
	ErrUnknownItem     = errors.New("dnd: unknown item")
)

// CardUpdate is the persisted outcome for one card.
type CardUpdate struct {
	CardID string
	// FromListID is the list the server still files the card under.
	FromListID string
	ListID     string
	Position   float64
}

// ListUpdate is the persisted outcome for one list.
type ListUpdate struct {
	ListID   string
	Position float64
}

// Commit is everything one finished gesture needs persisted. The moved item
// comes first; any renumbered siblings follow it.
type Commit struct {
	Seq     uint64
	BoardID string
	Item    Item
	Cards   []CardUpdate
	Lists   []ListUpdate
}

// Rebalanced reports whether siblings were renumbered along with the item.
func (c Commit) Rebalanced() bool {
	return len(c.Cards)+len(c.Lists) > 1
}

// Result is the outcome of persisting a commit.
type Result struct {
	Seq uint64
	Err error
	// Partial is set when some updates of the commit were applied before
	// Err, leaving the server between the old and the new order.
	Partial bool
}

// Settlement tells the UI what Settle did with a result.
type Settlement struct {
	Seq uint64
	// Stale is set when a newer gesture has changed the board since.
	Stale      bool
	RolledBack bool
	// NeedsReload means local order can no longer be trusted and the board
	// should be fetched again.
	NeedsReload bool
	Notice      string
}

// Engine is the drag state machine: Idle until Start, Dragging until End.
// Like the store it drives, it belongs to the UI goroutine.
type Engine struct {
	store    *store.Store
	alloc    position.Allocator
	seq      uint64
	active   *Item
	snapshot store.Snapshot
	pending  map[uint64]store.Snapshot
	// last is the gesture whose commit produced the current local order.
	last uint64
}

// NewEngine returns an idle engine over s. Out-of-range indexes reaching the
// allocator are logged unless alloc already reports them elsewhere.
func NewEngine(s *store.Store, alloc position.Allocator) *Engine {
	if alloc.OnViolation == nil {
		alloc.OnViolation = func(err *position.InvariantError) {
			logs.Logger.WithError(err).Error("position index out of range")
		}
	}
	return &Engine{
		store:   s,
		alloc:   alloc,
		pending: map[uint64]store.Snapshot{},
	}
}

// Active returns the item being dragged, if any.
func (e *Engine) Active() (Item, bool) {
	if e.active == nil {
		return Item{}, false
	}
	return *e.active, true
}

// Dragging reports whether a gesture is in progress.
func (e *Engine) Dragging() bool {
	return e.active != nil
}

// Seq returns the id of the most recent gesture.
func (e *Engine) Seq() uint64 {
	return e.seq
}

// Pending returns how many commits are waiting for Settle.
func (e *Engine) Pending() int {
	return len(e.pending)
}

// Start begins a gesture. The store is only snapshotted here, not changed.
func (e *Engine) Start(item Item) error {
	if e.active != nil {
		return ErrAlreadyDragging
	}
	switch item.Kind {
	case KindCard:
		if _, ok := e.store.Card(item.ID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownItem, item)
		}
	case KindList:
		if !e.store.HasList(item.ID) {
			return fmt.Errorf("%w: %s", ErrUnknownItem, item)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownItem, item)
	}

	e.seq++
	e.active = &item
	e.snapshot = e.store.Snapshot()
	e.logger().Debug("drag start")
	return nil
}

// Over handles a hover tick and reports whether the store changed. Only a
// card hovering a different list moves, so same-list hovering never churns.
func (e *Engine) Over(h Hover) bool {
	if e.active == nil || e.active.Kind != KindCard {
		return false
	}
	from, ok := ResolveContainer(e.store, e.active.ID)
	if !ok {
		return false
	}
	to, ok := ResolveContainer(e.store, h.OverID)
	if !ok || from == to {
		return false
	}

	idx := e.cardIndex(to, h)
	if err := e.store.MoveCard(e.active.ID, to, idx); err != nil {
		e.logger().WithError(err).Warn("hover move failed")
		return false
	}
	e.logger().WithFields(logrus.Fields{"list_id": to, "index": idx}).Debug("drag over")
	return true
}

// End finishes the gesture. It returns the commit to persist, or nil when the
// gesture changed nothing or was dropped outside a target. The active item is
// cleared on every path.
func (e *Engine) End(h Hover) (*Commit, error) {
	if e.active == nil {
		return nil, ErrNotDragging
	}
	item := *e.active
	defer e.clear()

	if h.OverID == "" {
		e.abort("dropped outside")
		return nil, nil
	}

	switch item.Kind {
	case KindCard:
		return e.endCard(item, h)
	case KindList:
		return e.endList(item, h)
	}
	e.abort("unknown kind")
	return nil, nil
}

// Cancel aborts the gesture, restoring the pre-drag arrangement.
func (e *Engine) Cancel() {
	if e.active == nil {
		return
	}
	defer e.clear()
	e.abort("cancelled")
}

func (e *Engine) endCard(item Item, h Hover) (*Commit, error) {
	if _, ok := ResolveContainer(e.store, item.ID); !ok {
		e.abort("active card vanished")
		return nil, nil
	}
	to, ok := ResolveContainer(e.store, h.OverID)
	if !ok {
		e.abort("unresolved drop target")
		return nil, nil
	}

	idx := e.cardIndex(to, h)
	if err := e.store.MoveCard(item.ID, to, idx); err != nil {
		e.abort(err.Error())
		return nil, nil
	}

	origin, _ := e.snapshot.Card(item.ID)
	final := e.store.CardIndex(item.ID)
	if to == origin.ListID && final == e.snapshot.CardIndex(item.ID) {
		e.abort("dropped in place")
		return nil, nil
	}

	place, err := e.alloc.Place(e.store.CardPositions(to, item.ID), final)
	if err != nil {
		e.abort(err.Error())
		return nil, err
	}

	commit := &Commit{Seq: e.seq, BoardID: e.store.BoardID(), Item: item}
	moved := CardUpdate{CardID: item.ID, FromListID: origin.ListID, ListID: to, Position: place.Position}
	commit.Cards = append(commit.Cards, moved)
	_ = e.store.SetCardPosition(item.ID, place.Position)

	if place.Rebalanced() {
		for i, id := range e.store.CardIDs(to) {
			if id == item.ID {
				continue
			}
			_ = e.store.SetCardPosition(id, place.Renumbered[i])
			commit.Cards = append(commit.Cards, CardUpdate{CardID: id, FromListID: to, ListID: to, Position: place.Renumbered[i]})
		}
		e.logger().WithField("list_id", to).Info("renumbered card positions")
	}

	e.track(commit)
	e.logger().WithFields(logrus.Fields{"list_id": to, "position": place.Position}).Debug("drag end")
	return commit, nil
}

func (e *Engine) endList(item Item, h Hover) (*Commit, error) {
	over, ok := ResolveContainer(e.store, h.OverID)
	if !ok || over == item.ID {
		e.abort("list dropped in place")
		return nil, nil
	}

	if err := e.store.MoveList(item.ID, e.store.ListIndex(over)); err != nil {
		e.abort(err.Error())
		return nil, nil
	}

	final := e.store.ListIndex(item.ID)
	place, err := e.alloc.Place(e.store.ListPositions(item.ID), final)
	if err != nil {
		e.abort(err.Error())
		return nil, err
	}

	commit := &Commit{Seq: e.seq, BoardID: e.store.BoardID(), Item: item}
	commit.Lists = append(commit.Lists, ListUpdate{ListID: item.ID, Position: place.Position})
	_ = e.store.SetListPosition(item.ID, place.Position)

	if place.Rebalanced() {
		for i, id := range e.store.ListIDs() {
			if id == item.ID {
				continue
			}
			_ = e.store.SetListPosition(id, place.Renumbered[i])
			commit.Lists = append(commit.Lists, ListUpdate{ListID: id, Position: place.Renumbered[i]})
		}
		e.logger().Info("renumbered list positions")
	}

	e.track(commit)
	e.logger().WithField("position", place.Position).Debug("drag end")
	return commit, nil
}

// Settle applies the outcome of persisting a commit. A failure of the latest
// committed gesture rolls the order back to its pre-drag snapshot. A failure
// of an older gesture cannot be rolled back without undoing newer moves, so
// it asks for a reload instead, as does a commit that was only partly
// applied.
func (e *Engine) Settle(r Result) Settlement {
	snap, ok := e.pending[r.Seq]
	if !ok {
		return Settlement{Seq: r.Seq, Stale: true}
	}
	delete(e.pending, r.Seq)

	stale := r.Seq != e.last || e.active != nil
	out := Settlement{Seq: r.Seq, Stale: stale}
	if r.Err == nil {
		return out
	}

	entry := logs.Logger.WithFields(logrus.Fields{"gesture": r.Seq, "board_id": e.store.BoardID()}).WithError(r.Err)
	if stale || r.Partial {
		entry.WithField("partial", r.Partial).Warn("move failed to persist, board needs reload")
		out.NeedsReload = true
		out.Notice = "A move could not be saved; reloading board"
		return out
	}

	entry.Warn("move failed to persist, rolling back")
	e.store.RestoreOrder(snap)
	out.RolledBack = true
	out.Notice = fmt.Sprintf("Could not save move: %v", r.Err)
	return out
}

// cardIndex applies the drop index rules within list: hovering the list itself
// appends, hovering a sibling lands before or after it by the midpoint.
func (e *Engine) cardIndex(list string, h Hover) int {
	activeID := e.active.ID
	if h.OverID == list {
		return len(e.store.CardPositions(list, activeID))
	}
	if h.OverID == activeID {
		return e.store.CardIndex(activeID)
	}

	idx := 0
	for _, id := range e.store.CardIDs(list) {
		if id == activeID {
			continue
		}
		if id == h.OverID {
			if h.Below() {
				idx++
			}
			return idx
		}
		idx++
	}
	return idx
}

func (e *Engine) track(c *Commit) {
	e.pending[c.Seq] = e.snapshot
	e.last = c.Seq
}

func (e *Engine) abort(reason string) {
	e.store.Restore(e.snapshot)
	e.logger().WithField("reason", reason).Debug("drag aborted")
}

func (e *Engine) clear() {
	e.active = nil
	e.snapshot = store.Snapshot{}
}

func (e *Engine) logger() *logrus.Entry {
	fields := logrus.Fields{"gesture": e.seq, "board_id": e.store.BoardID()}
	if e.active != nil {
		switch e.active.Kind {
		case KindCard:
			fields["card_id"] = e.active.ID
		case KindList:
			fields["list_id"] = e.active.ID
		}
	}
	return logs.Logger.WithFields(fields)
}
