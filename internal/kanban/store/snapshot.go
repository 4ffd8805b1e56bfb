package store

import "nexus/internal/kanban/models"

// Snapshot is a deep copy of the store's ordering state
type Snapshot struct {
	boardID string
	lists   []models.List
	cards   []models.Card
}

// Snapshot captures lists and cards so a failed gesture can be undone
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		boardID: s.boardID,
		lists:   s.Lists(),
		cards:   s.Cards(),
	}
}

// Restore puts lists and cards back to a snapshot. Metadata is left alone.
func (s *Store) Restore(snap Snapshot) {
	s.boardID = snap.boardID
	s.lists = append([]models.List(nil), snap.lists...)
	s.cards = make([]models.Card, len(snap.cards))
	for i, c := range snap.cards {
		s.cards[i] = c.Clone()
	}
	s.reindexLists()
	s.reindexCards()
	s.version++
}

// Card returns a card as it was when the snapshot was taken
func (snap Snapshot) Card(id string) (models.Card, bool) {
	for _, c := range snap.cards {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return models.Card{}, false
}

// List returns a list as it was when the snapshot was taken
func (snap Snapshot) List(id string) (models.List, bool) {
	for _, l := range snap.lists {
		if l.ID == id {
			return l, true
		}
	}
	return models.List{}, false
}

// CardIndex returns the card's index within its list at snapshot time, or -1
func (snap Snapshot) CardIndex(id string) int {
	listID := ""
	for _, c := range snap.cards {
		if c.ID == id {
			listID = c.ListID
			break
		}
	}
	if listID == "" {
		return -1
	}
	idx := 0
	for _, c := range snap.cards {
		if c.ID == id {
			return idx
		}
		if c.ListID == listID {
			idx++
		}
	}
	return -1
}

// ListIndex returns the list's display index at snapshot time, or -1
func (snap Snapshot) ListIndex(id string) int {
	for i, l := range snap.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// RestoreOrder puts every list and card back at the container and key it had
// in the snapshot while keeping field edits made since. Only entries still in
// the store are restored: lists and cards removed or renamed since the
// snapshot are not brought back, and ones created since stay at the end of
// their container. Cards whose list no longer exists are dropped.
func (s *Store) RestoreOrder(snap Snapshot) {
	lists := make([]models.List, 0, len(s.lists))
	seenList := make(map[string]bool, len(snap.lists))
	for _, old := range snap.lists {
		l, ok := s.List(old.ID)
		if !ok {
			continue
		}
		l.Position = old.Position
		lists = append(lists, l)
		seenList[l.ID] = true
	}
	for _, l := range s.lists {
		if !seenList[l.ID] {
			lists = append(lists, l)
			seenList[l.ID] = true
		}
	}

	cards := make([]models.Card, 0, len(s.cards))
	seenCard := make(map[string]bool, len(snap.cards))
	for _, old := range snap.cards {
		c, ok := s.Card(old.ID)
		if !ok {
			continue
		}
		// A list renamed since keeps its cards where they now are.
		if seenList[old.ListID] {
			c.ListID = old.ListID
			c.Position = old.Position
		}
		cards = append(cards, c)
		seenCard[c.ID] = true
	}
	for _, c := range s.cards {
		if !seenCard[c.ID] {
			cards = append(cards, c.Clone())
		}
	}

	kept := cards[:0]
	for _, c := range cards {
		if seenList[c.ListID] {
			kept = append(kept, c)
		}
	}

	s.boardID = snap.boardID
	s.lists = lists
	s.cards = kept
	s.reindexLists()
	s.reindexCards()
	s.version++
}
