package dnd

import (
	"errors"
	"reflect"
	"testing"

	"nexus/internal/kanban/models"
	"nexus/internal/kanban/position"
	"nexus/internal/kanban/store"
)

// board builds A = [1@10, 2@20], B = [3@10].
func board(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	lists := []models.List{
		{ID: "A", Name: "To Do", Position: 10},
		{ID: "B", Name: "Done", Position: 20},
	}
	cards := []models.Card{
		{ID: "1", ListID: "A", Title: "one", Position: 10},
		{ID: "2", ListID: "A", Title: "two", Position: 20},
		{ID: "3", ListID: "B", Title: "three", Position: 10},
	}
	if err := s.SetCardsAndLists("board", cards, lists); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

type placed struct {
	ID  string
	Pos float64
}

func view(s *store.Store, listID string) []placed {
	var out []placed
	for _, c := range s.CardsForList(listID) {
		out = append(out, placed{c.ID, c.Position})
	}
	return out
}

func assertOrdered(t *testing.T, s *store.Store) {
	t.Helper()
	for _, l := range s.Lists() {
		keys := s.CardPositions(l.ID, "")
		for i := 1; i < len(keys); i++ {
			if !(keys[i-1] < keys[i]) {
				t.Errorf("list %s not ordered: %v", l.ID, keys)
			}
		}
	}
	keys := s.ListPositions("")
	for i := 1; i < len(keys); i++ {
		if !(keys[i-1] < keys[i]) {
			t.Errorf("lists not ordered: %v", keys)
		}
	}
}

func TestResolveContainer(t *testing.T) {
	s := board(t)

	tests := []struct {
		id       string
		expected string
		ok       bool
	}{
		{"A", "A", true},
		{"3", "B", true},
		{"1", "A", true},
		{"nope", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveContainer(s, tt.id)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ResolveContainer(%q) = %q, %v; expected %q, %v", tt.id, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestDragCardToEndOfOtherList(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	if err := e.Start(Card("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.Over(Hover{OverID: "B"}) {
		t.Fatal("expected cross-list hover to move the card")
	}
	commit, err := e.End(Hover{OverID: "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := view(s, "A"); !reflect.DeepEqual(got, []placed{{"2", 20}}) {
		t.Errorf("expected A = [2@20], got %v", got)
	}
	if got := view(s, "B"); !reflect.DeepEqual(got, []placed{{"3", 10}, {"1", 10 + position.Base}}) {
		t.Errorf("expected B = [3@10 1@65546], got %v", got)
	}
	if commit == nil {
		t.Fatal("expected a commit")
	}
	expected := []CardUpdate{{CardID: "1", FromListID: "A", ListID: "B", Position: 65546}}
	if !reflect.DeepEqual(commit.Cards, expected) {
		t.Errorf("expected %+v, got %+v", expected, commit.Cards)
	}
	if commit.BoardID != "board" || commit.Seq != 1 {
		t.Errorf("unexpected commit header %+v", commit)
	}
	if _, dragging := e.Active(); dragging {
		t.Error("expected active item cleared")
	}
}

func TestDragCardWithoutHover(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(Card("1"))
	commit, err := e.End(Hover{OverID: "3", Active: Rect{Top: 12}, Over: Rect{Top: 0, Height: 10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commit == nil || commit.Cards[0].ListID != "B" {
		t.Fatalf("expected move to B, got %+v", commit)
	}
	if got := view(s, "B"); got[1].ID != "1" {
		t.Errorf("expected card 1 after card 3, got %v", got)
	}
}

func TestHoverSameListIsNoop(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})
	_ = e.Start(Card("1"))
	version := s.Version()

	if e.Over(Hover{OverID: "2"}) {
		t.Error("expected same-list hover to be ignored")
	}
	if e.Over(Hover{OverID: "A"}) {
		t.Error("expected hover on own list to be ignored")
	}
	if e.Over(Hover{OverID: "ghost"}) {
		t.Error("expected unresolved hover to be ignored")
	}
	if s.Version() != version {
		t.Error("expected store untouched")
	}
}

func TestHoverSiblingMidpoint(t *testing.T) {
	above := Hover{OverID: "3", Active: Rect{Top: 2}, Over: Rect{Top: 0, Height: 10}}
	below := Hover{OverID: "3", Active: Rect{Top: 6}, Over: Rect{Top: 0, Height: 10}}

	for name, tt := range map[string]struct {
		hover    Hover
		expected []string
	}{
		"above midpoint": {above, []string{"2", "3"}},
		"below midpoint": {below, []string{"3", "2"}},
	} {
		t.Run(name, func(t *testing.T) {
			s := board(t)
			e := NewEngine(s, position.Allocator{})
			_ = e.Start(Card("2"))
			e.Over(tt.hover)
			if got := s.CardIDs("B"); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestReorderWithinList(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(Card("1"))
	commit, err := e.End(Hover{OverID: "2", Active: Rect{Top: 8}, Over: Rect{Top: 0, Height: 10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.CardIDs("A"); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("expected [2 1], got %v", got)
	}
	if commit == nil || commit.Cards[0].Position != 20+position.Base {
		t.Errorf("unexpected commit %+v", commit)
	}
	assertOrdered(t, s)
}

func TestDropOutsideRestores(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})
	beforeCards, beforeLists := s.Cards(), s.Lists()

	_ = e.Start(Card("1"))
	e.Over(Hover{OverID: "B"})
	commit, err := e.End(Hover{})
	if err != nil || commit != nil {
		t.Fatalf("expected no commit and no error, got %+v, %v", commit, err)
	}
	if !reflect.DeepEqual(beforeCards, s.Cards()) || !reflect.DeepEqual(beforeLists, s.Lists()) {
		t.Error("expected store value-equal to pre-gesture state")
	}
	if e.Dragging() {
		t.Error("expected active item cleared")
	}
	if e.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", e.Pending())
	}
}

func TestDropInPlaceIsNoop(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})
	before := s.Cards()

	_ = e.Start(Card("1"))
	e.Over(Hover{OverID: "B"})
	commit, _ := e.End(Hover{OverID: "2", Active: Rect{Top: 0}, Over: Rect{Top: 10, Height: 10}})
	if commit != nil {
		t.Errorf("expected no commit for drop at original slot, got %+v", commit)
	}
	if !reflect.DeepEqual(before, s.Cards()) {
		t.Error("expected original arrangement")
	}
}

func TestUnresolvedDropRestores(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})
	before := s.Cards()

	_ = e.Start(Card("1"))
	e.Over(Hover{OverID: "B"})
	commit, _ := e.End(Hover{OverID: "header-of-nothing"})
	if commit != nil {
		t.Errorf("expected no commit, got %+v", commit)
	}
	if !reflect.DeepEqual(before, s.Cards()) {
		t.Error("expected original arrangement")
	}
	if e.Dragging() {
		t.Error("expected active item cleared")
	}
}

func TestRollbackOnFailure(t *testing.T) {
	s := store.New()
	_ = s.SetCardsAndLists("board",
		[]models.Card{{ID: "x", ListID: "A", Position: 15}},
		[]models.List{{ID: "A", Position: 1}, {ID: "B", Position: 2}})
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(Card("x"))
	e.Over(Hover{OverID: "B"})
	commit, _ := e.End(Hover{OverID: "B"})
	if commit == nil {
		t.Fatal("expected a commit")
	}

	got := e.Settle(Result{Seq: commit.Seq, Err: errors.New("503 service unavailable")})
	if !got.RolledBack || got.Notice == "" || got.NeedsReload {
		t.Errorf("unexpected settlement %+v", got)
	}
	c, _ := s.Card("x")
	if c.ListID != "A" || c.Position != 15 {
		t.Errorf("expected card back in A at 15, got %s at %v", c.ListID, c.Position)
	}
	if e.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", e.Pending())
	}
}

func TestSettleSuccess(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(Card("1"))
	commit, _ := e.End(Hover{OverID: "B"})
	got := e.Settle(Result{Seq: commit.Seq})
	if got.RolledBack || got.Stale || got.NeedsReload {
		t.Errorf("unexpected settlement %+v", got)
	}
	if listID, _ := s.CardListID("1"); listID != "B" {
		t.Errorf("expected card to stay in B, got %s", listID)
	}

	again := e.Settle(Result{Seq: commit.Seq})
	if !again.Stale {
		t.Error("expected duplicate result to be stale")
	}
}

func TestStaleFailureRequestsReload(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(Card("1"))
	first, _ := e.End(Hover{OverID: "B"})
	_ = e.Start(Card("2"))
	second, _ := e.End(Hover{OverID: "B"})

	got := e.Settle(Result{Seq: first.Seq, Err: errors.New("timeout")})
	if !got.Stale || !got.NeedsReload || got.RolledBack {
		t.Errorf("unexpected settlement %+v", got)
	}
	if got := s.CardIDs("B"); !reflect.DeepEqual(got, []string{"3", "1", "2"}) {
		t.Errorf("expected newer arrangement kept, got %v", got)
	}

	if res := e.Settle(Result{Seq: second.Seq}); res.Stale {
		t.Errorf("expected latest gesture to be current, got %+v", res)
	}
}

func TestFailureDuringNewDragIsStale(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(Card("1"))
	commit, _ := e.End(Hover{OverID: "B"})
	_ = e.Start(Card("2"))

	got := e.Settle(Result{Seq: commit.Seq, Err: errors.New("boom")})
	if !got.NeedsReload {
		t.Errorf("expected reload while another gesture is active, got %+v", got)
	}
	if !e.Dragging() {
		t.Error("expected the new gesture to be untouched")
	}
}

func TestMoveList(t *testing.T) {
	s := board(t)
	_ = s.AddList(models.List{ID: "C", Position: 30})
	e := NewEngine(s, position.Allocator{})

	if err := e.Start(List("A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Over(Hover{OverID: "C"}) {
		t.Error("expected list hover to leave the store alone")
	}
	commit, err := e.End(Hover{OverID: "C"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.ListIDs(); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("expected [B C A], got %v", got)
	}
	expected := []ListUpdate{{ListID: "A", Position: 30 + position.Base}}
	if commit == nil || !reflect.DeepEqual(commit.Lists, expected) {
		t.Errorf("expected %+v, got %+v", expected, commit)
	}
	if e.Dragging() {
		t.Error("expected active item cleared")
	}
	assertOrdered(t, s)
}

func TestMoveListOverCardUsesItsList(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(List("B"))
	commit, _ := e.End(Hover{OverID: "1"})
	if got := s.ListIDs(); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("expected [B A], got %v", got)
	}
	if commit == nil || commit.Lists[0].Position != 5 {
		t.Errorf("expected B at 5, got %+v", commit)
	}
}

func TestMoveListOntoItselfIsNoop(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	_ = e.Start(List("A"))
	commit, err := e.End(Hover{OverID: "A"})
	if commit != nil || err != nil {
		t.Errorf("expected no-op, got %+v, %v", commit, err)
	}
	if e.Dragging() {
		t.Error("expected active item cleared")
	}
}

func TestStartErrors(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	if err := e.Start(Card("ghost")); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
	if err := e.Start(List("1")); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected a card id to be rejected as a list, got %v", err)
	}
	_ = e.Start(Card("1"))
	if err := e.Start(Card("2")); !errors.Is(err, ErrAlreadyDragging) {
		t.Errorf("expected ErrAlreadyDragging, got %v", err)
	}
	e.Cancel()
	if _, err := e.End(Hover{OverID: "B"}); !errors.Is(err, ErrNotDragging) {
		t.Errorf("expected ErrNotDragging, got %v", err)
	}
}

func TestRebalanceCarriesSiblings(t *testing.T) {
	s := store.New()
	_ = s.SetCardsAndLists("board",
		[]models.Card{
			{ID: "a", ListID: "L", Position: 1},
			{ID: "b", ListID: "L", Position: 1.5},
			{ID: "m", ListID: "M", Position: 1},
		},
		[]models.List{{ID: "L", Position: 1}, {ID: "M", Position: 2}})
	e := NewEngine(s, position.Allocator{Epsilon: 1})

	_ = e.Start(Card("m"))
	commit, err := e.End(Hover{OverID: "b", Active: Rect{Top: 0}, Over: Rect{Top: 10, Height: 10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !commit.Rebalanced() {
		t.Fatalf("expected renumbering, got %+v", commit)
	}
	if commit.Cards[0].CardID != "m" {
		t.Errorf("expected moved card first, got %+v", commit.Cards)
	}
	if got := view(s, "L"); !reflect.DeepEqual(got, []placed{{"a", position.Base}, {"m", 2 * position.Base}, {"b", 3 * position.Base}}) {
		t.Errorf("unexpected renumbered view %v", got)
	}
	if len(commit.Cards) != 3 {
		t.Errorf("expected 3 updates, got %d", len(commit.Cards))
	}
}

func TestOrderingHoldsAcrossManyMoves(t *testing.T) {
	s := board(t)
	e := NewEngine(s, position.Allocator{})

	moves := []struct {
		card  string
		hover Hover
	}{
		{"1", Hover{OverID: "B"}},
		{"3", Hover{OverID: "2", Active: Rect{Top: 0}, Over: Rect{Top: 10, Height: 10}}},
		{"2", Hover{OverID: "1", Active: Rect{Top: 20}, Over: Rect{Top: 0, Height: 10}}},
		{"1", Hover{OverID: "A"}},
		{"3", Hover{OverID: "A"}},
	}
	for i := 0; i < 30; i++ {
		m := moves[i%len(moves)]
		if err := e.Start(Card(m.card)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e.Over(m.hover)
		if _, err := e.End(m.hover); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertOrdered(t, s)
	}
	if len(s.Cards()) != 3 {
		t.Errorf("expected 3 cards, got %d", len(s.Cards()))
	}
}

func TestStrictAllocatorSurfacesViolation(t *testing.T) {
	var seen int
	a := position.Allocator{Strict: true, OnViolation: func(*position.InvariantError) { seen++ }}
	s := board(t)
	e := NewEngine(s, a)

	_ = e.Start(Card("1"))
	if _, err := e.End(Hover{OverID: "B"}); err != nil {
		t.Fatalf("valid drop should not violate: %v", err)
	}
	if seen != 0 {
		t.Errorf("expected no violations, got %d", seen)
	}
}
