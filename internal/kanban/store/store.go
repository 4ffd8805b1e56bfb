// Package store holds the local, normalized copy of one board: flat slices
// of lists and cards, with per-list views derived by filtering on ListID.
//
// A Store is owned by a single goroutine (the UI event loop) and is not safe
// for concurrent use. Every mutation completes before the call returns, so a
// reader never observes a half-applied change.
package store

import (
	"errors"
	"fmt"
	"sort"

	"nexus/internal/kanban/models"
	"nexus/internal/kanban/position"
)

var (
	ErrUnknownList = errors.New("store: unknown list")
	ErrUnknownCard = errors.New("store: unknown card")
	ErrDuplicateID = errors.New("store: duplicate id")
)

// Store is the single source of truth the views render from.
type Store struct {
	boardID  string
	metadata models.Board
	lists    []models.List
	cards    []models.Card
	listIdx  map[string]int
	cardIdx  map[string]int
	version  uint64
}

// New returns an empty store
func New() *Store {
	return &Store{
		listIdx: map[string]int{},
		cardIdx: map[string]int{},
	}
}

// BoardID returns the id of the loaded board
func (s *Store) BoardID() string {
	return s.boardID
}

// Version increases on every mutation
func (s *Store) Version() uint64 {
	return s.version
}

// Metadata returns the board metadata
func (s *Store) Metadata() models.Board {
	return s.metadata
}

// SetMetadata replaces the board metadata
func (s *Store) SetMetadata(metadata models.Board) {
	s.metadata = metadata
	s.version++
}

// AddLabelToBoard appends a newly created label to the board metadata
func (s *Store) AddLabelToBoard(label models.Label) {
	labels := append([]models.Label(nil), s.metadata.Labels...)
	s.metadata.Labels = append(labels, label)
	s.version++
}

// SetCardsAndLists replaces the whole board. Lists and cards are ordered by
// position; a card referencing an unknown list rejects the whole call and
// leaves the store untouched.
func (s *Store) SetCardsAndLists(boardID string, cards []models.Card, lists []models.List) error {
	newLists := append([]models.List(nil), lists...)
	sort.SliceStable(newLists, func(i, j int) bool {
		return newLists[i].Position < newLists[j].Position
	})

	listIdx := make(map[string]int, len(newLists))
	for i, l := range newLists {
		if _, dup := listIdx[l.ID]; dup {
			return fmt.Errorf("%w: list %s", ErrDuplicateID, l.ID)
		}
		listIdx[l.ID] = i
	}

	newCards := make([]models.Card, len(cards))
	for i, c := range cards {
		if _, ok := listIdx[c.ListID]; !ok {
			return fmt.Errorf("%w: card %s references list %s", ErrUnknownList, c.ID, c.ListID)
		}
		newCards[i] = c.Clone()
	}
	sort.SliceStable(newCards, func(i, j int) bool {
		return newCards[i].Position < newCards[j].Position
	})

	cardIdx := make(map[string]int, len(newCards))
	for i, c := range newCards {
		if _, dup := cardIdx[c.ID]; dup {
			return fmt.Errorf("%w: card %s", ErrDuplicateID, c.ID)
		}
		cardIdx[c.ID] = i
	}

	s.boardID = boardID
	s.lists = newLists
	s.cards = newCards
	s.listIdx = listIdx
	s.cardIdx = cardIdx
	s.version++
	return nil
}

// EnrichCard shallow-merges a patch into one card
func (s *Store) EnrichCard(cardID string, patch models.CardPatch) error {
	i, ok := s.cardIdx[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	s.cards[i] = patch.Apply(s.cards[i])
	s.version++
	return nil
}

// Lists returns the lists in display order
func (s *Store) Lists() []models.List {
	return append([]models.List(nil), s.lists...)
}

// Cards returns every card in store order
func (s *Store) Cards() []models.Card {
	out := make([]models.Card, len(s.cards))
	for i, c := range s.cards {
		out[i] = c.Clone()
	}
	return out
}

// CardsForList returns the cards of one list in display order
func (s *Store) CardsForList(listID string) []models.Card {
	var out []models.Card
	for _, c := range s.cards {
		if c.ListID == listID {
			out = append(out, c.Clone())
		}
	}
	return out
}

// List looks up a list by id
func (s *Store) List(id string) (models.List, bool) {
	i, ok := s.listIdx[id]
	if !ok {
		return models.List{}, false
	}
	return s.lists[i], true
}

// Card looks up a card by id
func (s *Store) Card(id string) (models.Card, bool) {
	i, ok := s.cardIdx[id]
	if !ok {
		return models.Card{}, false
	}
	return s.cards[i].Clone(), true
}

// HasList reports whether id names a list
func (s *Store) HasList(id string) bool {
	_, ok := s.listIdx[id]
	return ok
}

// CardListID returns the list a card currently belongs to
func (s *Store) CardListID(cardID string) (string, bool) {
	i, ok := s.cardIdx[cardID]
	if !ok {
		return "", false
	}
	return s.cards[i].ListID, true
}

// ListIndex returns the display index of a list, or -1
func (s *Store) ListIndex(listID string) int {
	if i, ok := s.listIdx[listID]; ok {
		return i
	}
	return -1
}

// CardIndex returns the display index of a card within its list, or -1
func (s *Store) CardIndex(cardID string) int {
	i, ok := s.cardIdx[cardID]
	if !ok {
		return -1
	}
	listID := s.cards[i].ListID
	idx := 0
	for j := 0; j < i; j++ {
		if s.cards[j].ListID == listID {
			idx++
		}
	}
	return idx
}

// CardCount returns how many cards a list holds
func (s *Store) CardCount(listID string) int {
	n := 0
	for _, c := range s.cards {
		if c.ListID == listID {
			n++
		}
	}
	return n
}

// CardPositions returns the keys of a list's cards in display order,
// skipping excludeID.
func (s *Store) CardPositions(listID, excludeID string) []float64 {
	var keys []float64
	for _, c := range s.cards {
		if c.ListID == listID && c.ID != excludeID {
			keys = append(keys, c.Position)
		}
	}
	return keys
}

// CardIDs returns the ids of a list's cards in display order
func (s *Store) CardIDs(listID string) []string {
	var ids []string
	for _, c := range s.cards {
		if c.ListID == listID {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ListPositions returns list keys in display order, skipping excludeID
func (s *Store) ListPositions(excludeID string) []float64 {
	keys := make([]float64, 0, len(s.lists))
	for _, l := range s.lists {
		if l.ID != excludeID {
			keys = append(keys, l.Position)
		}
	}
	return keys
}

// ListIDs returns list ids in display order
func (s *Store) ListIDs() []string {
	ids := make([]string, len(s.lists))
	for i, l := range s.lists {
		ids[i] = l.ID
	}
	return ids
}

// MoveCard reassigns a card to toListID and places it at index among that
// list's other cards. The index is clamped into range.
func (s *Store) MoveCard(cardID, toListID string, index int) error {
	i, ok := s.cardIdx[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	if _, ok := s.listIdx[toListID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, toListID)
	}

	if index < 0 {
		index = 0
	}
	card := s.cards[i]
	card.ListID = toListID

	rest := make([]models.Card, 0, len(s.cards))
	rest = append(rest, s.cards[:i]...)
	rest = append(rest, s.cards[i+1:]...)

	at, seen, last := -1, 0, -1
	for j := range rest {
		if rest[j].ListID != toListID {
			continue
		}
		if seen == index {
			at = j
			break
		}
		seen++
		last = j
	}
	if at < 0 {
		if last >= 0 {
			at = last + 1
		} else {
			at = len(rest)
		}
	}

	out := make([]models.Card, 0, len(s.cards))
	out = append(out, rest[:at]...)
	out = append(out, card)
	out = append(out, rest[at:]...)

	s.cards = out
	s.reindexCards()
	s.version++
	return nil
}

// MoveList moves a list to index in display order (remove and reinsert)
func (s *Store) MoveList(listID string, index int) error {
	from, ok := s.listIdx[listID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, listID)
	}
	to := position.Clamp(index, len(s.lists)-1)
	if from == to {
		return nil
	}

	list := s.lists[from]
	out := make([]models.List, 0, len(s.lists))
	out = append(out, s.lists[:from]...)
	out = append(out, s.lists[from+1:]...)
	out = append(out[:to], append([]models.List{list}, out[to:]...)...)

	s.lists = out
	s.reindexLists()
	s.version++
	return nil
}

// SetCardPosition overwrites a card's key without reordering
func (s *Store) SetCardPosition(cardID string, pos float64) error {
	i, ok := s.cardIdx[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	s.cards[i].Position = pos
	s.version++
	return nil
}

// SetListPosition overwrites a list's key without reordering
func (s *Store) SetListPosition(listID string, pos float64) error {
	i, ok := s.listIdx[listID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, listID)
	}
	s.lists[i].Position = pos
	s.version++
	return nil
}

// RenameList changes a list's name
func (s *Store) RenameList(listID, name string) error {
	i, ok := s.listIdx[listID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, listID)
	}
	s.lists[i].Name = name
	s.version++
	return nil
}

// AddList appends a list at the end of the display order
func (s *Store) AddList(list models.List) error {
	if _, dup := s.listIdx[list.ID]; dup {
		return fmt.Errorf("%w: list %s", ErrDuplicateID, list.ID)
	}
	s.lists = append(s.lists, list)
	s.reindexLists()
	s.version++
	return nil
}

// AddCard appends a card at the end of its list
func (s *Store) AddCard(card models.Card) error {
	if _, ok := s.listIdx[card.ListID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, card.ListID)
	}
	if _, dup := s.cardIdx[card.ID]; dup {
		return fmt.Errorf("%w: card %s", ErrDuplicateID, card.ID)
	}
	s.cards = append(s.cards, card.Clone())
	s.reindexCards()
	s.version++
	return nil
}

// RemoveCard drops a card from the store
func (s *Store) RemoveCard(cardID string) error {
	i, ok := s.cardIdx[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	s.cards = append(s.cards[:i:i], s.cards[i+1:]...)
	s.reindexCards()
	s.version++
	return nil
}

// RemoveList drops a list. Only empty lists can be removed.
func (s *Store) RemoveList(listID string) error {
	i, ok := s.listIdx[listID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, listID)
	}
	if s.CardCount(listID) > 0 {
		return fmt.Errorf("store: list %s still has cards", listID)
	}
	s.lists = append(s.lists[:i:i], s.lists[i+1:]...)
	s.reindexLists()
	s.version++
	return nil
}

// ReplaceCardID swaps a provisional id for the one assigned by the server
func (s *Store) ReplaceCardID(oldID, newID string) error {
	i, ok := s.cardIdx[oldID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCard, oldID)
	}
	if _, dup := s.cardIdx[newID]; dup {
		return fmt.Errorf("%w: card %s", ErrDuplicateID, newID)
	}
	s.cards[i].ID = newID
	s.reindexCards()
	s.version++
	return nil
}

// ReplaceListID swaps a provisional list id and repoints its cards
func (s *Store) ReplaceListID(oldID, newID string) error {
	i, ok := s.listIdx[oldID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownList, oldID)
	}
	if _, dup := s.listIdx[newID]; dup {
		return fmt.Errorf("%w: list %s", ErrDuplicateID, newID)
	}
	s.lists[i].ID = newID
	for j := range s.cards {
		if s.cards[j].ListID == oldID {
			s.cards[j].ListID = newID
		}
	}
	s.reindexLists()
	s.version++
	return nil
}

func (s *Store) reindexCards() {
	idx := make(map[string]int, len(s.cards))
	for i, c := range s.cards {
		idx[c.ID] = i
	}
	s.cardIdx = idx
}

func (s *Store) reindexLists() {
	idx := make(map[string]int, len(s.lists))
	for i, l := range s.lists {
		idx[l.ID] = i
	}
	s.listIdx = idx
}
