package operations

import (
	"context"
	"fmt"
	"strings"

	"nexus/internal/api"
	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/position"
	"nexus/internal/kanban/store"
)

// CreateCard appends a card to a list under a provisional id.
func (o *Ops) CreateCard(listID, title string) (*Edit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("card title cannot be empty")
	}
	if !o.store.HasList(listID) {
		return nil, fmt.Errorf("invalid list %s", listID)
	}
	if IsProvisional(listID) {
		return nil, fmt.Errorf("list is still being created")
	}

	siblings := o.store.CardPositions(listID, "")
	pos, err := position.Allocate(siblings, len(siblings))
	if err != nil {
		return nil, err
	}

	boardID := o.store.BoardID()
	tmpID := provisionalID()
	card := models.Card{ID: tmpID, BoardID: boardID, ListID: listID, Title: title, Position: pos}
	if err := o.store.AddCard(card); err != nil {
		return nil, err
	}

	return o.edit("create card",
		func(ctx context.Context) (any, error) {
			return o.client.CreateCard(ctx, boardID, listID, api.CreateCardRequest{Title: title, Position: pos})
		},
		func(result any) {
			created := result.(models.Card)
			_ = o.store.ReplaceCardID(tmpID, created.ID)
		},
		func() { _ = o.store.RemoveCard(tmpID) },
	), nil
}

// UpdateCard applies a field patch and sends it; the old values come back on
// failure.
func (o *Ops) UpdateCard(cardID string, patch models.CardPatch) (*Edit, error) {
	card, ok := o.store.Card(cardID)
	if !ok {
		return nil, fmt.Errorf("invalid card %s", cardID)
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("card title cannot be empty")
		}
		patch.Title = &trimmed
	}

	revert := patch.Revert(card)
	if err := o.store.EnrichCard(cardID, patch); err != nil {
		return nil, err
	}

	boardID := o.store.BoardID()
	req := api.UpdateCardRequest{
		Title:       patch.Title,
		Completed:   patch.Completed,
		Cover:       patch.Cover,
		CoverSize:   patch.CoverSize,
		Description: patch.Description,
	}
	return o.edit("update card",
		func(ctx context.Context) (any, error) {
			return nil, o.client.UpdateCard(ctx, boardID, card.ListID, cardID, req)
		},
		nil,
		func() { _ = o.store.EnrichCard(cardID, revert) },
	), nil
}

// ToggleCompleted flips a card's completed flag.
func (o *Ops) ToggleCompleted(cardID string) (*Edit, error) {
	card, ok := o.store.Card(cardID)
	if !ok {
		return nil, fmt.Errorf("invalid card %s", cardID)
	}
	return o.UpdateCard(cardID, models.CardPatch{Completed: models.BoolPtr(!card.Completed)})
}

// CreateLabel creates a board label. Labels need a server id before cards can
// use them, so nothing changes locally until the call succeeds.
func (o *Ops) CreateLabel(name, color string) (*Edit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("label name cannot be empty")
	}
	boardID := o.store.BoardID()
	return o.edit("create label",
		func(ctx context.Context) (any, error) {
			return o.client.CreateLabel(ctx, boardID, api.CreateLabelRequest{Name: name, Color: color})
		},
		func(result any) { o.store.AddLabelToBoard(result.(models.Label)) },
		nil,
	), nil
}

// ToggleLabel attaches or detaches a board label.
func (o *Ops) ToggleLabel(cardID, labelID string) (*Edit, error) {
	card, ok := o.store.Card(cardID)
	if !ok {
		return nil, fmt.Errorf("invalid card %s", cardID)
	}
	meta := o.store.Metadata()
	label := meta.GetLabel(labelID)
	if label == nil {
		return nil, fmt.Errorf("invalid label %s", labelID)
	}

	var labels []models.LabelRef
	if card.HasLabel(labelID) {
		for _, l := range card.Labels {
			if l.ID != labelID {
				labels = append(labels, l)
			}
		}
	} else {
		labels = append(append(labels, card.Labels...), models.LabelRef{ID: label.ID, Name: label.Name, Color: label.Color})
	}
	patch := models.CardPatch{Labels: labels, SetLabels: true}
	revert := patch.Revert(card)
	_ = o.store.EnrichCard(cardID, patch)

	boardID := o.store.BoardID()
	return o.edit("toggle label",
		func(ctx context.Context) (any, error) {
			return nil, o.client.ToggleCardLabel(ctx, boardID, cardID, labelID)
		},
		nil,
		func() { _ = o.store.EnrichCard(cardID, revert) },
	), nil
}

// ToggleMember assigns or unassigns a board member.
func (o *Ops) ToggleMember(cardID, userID string) (*Edit, error) {
	card, ok := o.store.Card(cardID)
	if !ok {
		return nil, fmt.Errorf("invalid card %s", cardID)
	}
	meta := o.store.Metadata()
	if meta.GetMember(userID) == nil {
		return nil, fmt.Errorf("invalid member %s", userID)
	}

	var members []string
	if card.HasMember(userID) {
		for _, id := range card.MemberIDs {
			if id != userID {
				members = append(members, id)
			}
		}
	} else {
		members = append(append(members, card.MemberIDs...), userID)
	}
	patch := models.CardPatch{MemberIDs: members, SetMembers: true}
	revert := patch.Revert(card)
	_ = o.store.EnrichCard(cardID, patch)

	boardID := o.store.BoardID()
	return o.edit("toggle member",
		func(ctx context.Context) (any, error) {
			return nil, o.client.ToggleCardMember(ctx, boardID, cardID, userID)
		},
		nil,
		func() { _ = o.store.EnrichCard(cardID, revert) },
	), nil
}

// MoveCardTo drags a card to index within listID, as a pointer gesture would:
// the card hovers the target list, then drops on the sibling at index from
// above, or on the list itself when index is past the end.
func MoveCardTo(e *dnd.Engine, s *store.Store, cardID, listID string, index int) (*dnd.Commit, error) {
	if !s.HasList(listID) {
		return nil, fmt.Errorf("invalid list %s", listID)
	}
	if index < 0 {
		return nil, fmt.Errorf("invalid card index %d", index)
	}
	if err := e.Start(dnd.Card(cardID)); err != nil {
		return nil, err
	}

	hover := DropHover(s, cardID, listID, index)
	e.Over(dnd.Hover{OverID: listID})
	return e.End(hover)
}

// DropHover is the hover that lands cardID at index within listID: above the
// sibling currently at index, or on the list itself past the end.
func DropHover(s *store.Store, cardID, listID string, index int) dnd.Hover {
	var siblings []string
	for _, id := range s.CardIDs(listID) {
		if id != cardID {
			siblings = append(siblings, id)
		}
	}
	if index >= 0 && index < len(siblings) {
		return dnd.Hover{OverID: siblings[index], Active: dnd.Rect{Top: 0}, Over: dnd.Rect{Top: 1, Height: 2}}
	}
	return dnd.Hover{OverID: listID}
}
