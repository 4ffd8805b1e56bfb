package operations

import (
	"context"
	"fmt"
	"strings"

	"nexus/internal/api"
	"nexus/internal/kanban/models"
)

// AddChecklist creates a checklist on a card once the server has assigned it
// an id.
func (o *Ops) AddChecklist(cardID, title string) (*Edit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("checklist title cannot be empty")
	}
	if _, ok := o.store.Card(cardID); !ok {
		return nil, fmt.Errorf("invalid card %s", cardID)
	}

	boardID := o.store.BoardID()
	return o.edit("add checklist",
		func(ctx context.Context) (any, error) {
			return o.client.CreateChecklist(ctx, boardID, cardID, api.CreateChecklistRequest{Title: title})
		},
		func(result any) {
			card, ok := o.store.Card(cardID)
			if !ok {
				return
			}
			lists := append(card.Checklists, result.(models.Checklist))
			_ = o.store.EnrichCard(cardID, models.CardPatch{Checklists: lists, SetLists: true})
		},
		nil,
	), nil
}

// AddChecklistItem appends an item once the server has assigned it an id.
func (o *Ops) AddChecklistItem(cardID, checklistID, name string) (*Edit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("item name cannot be empty")
	}
	card, idx, err := o.checklist(cardID, checklistID)
	if err != nil {
		return nil, err
	}
	pos := float64(len(card.Checklists[idx].Items) + 1)

	boardID := o.store.BoardID()
	return o.edit("add checklist item",
		func(ctx context.Context) (any, error) {
			return o.client.CreateChecklistItem(ctx, boardID, checklistID, api.ChecklistItemRequest{Name: &name, Position: &pos})
		},
		func(result any) {
			o.mutateChecklist(cardID, checklistID, func(items []models.ChecklistItem) []models.ChecklistItem {
				item := result.(models.ChecklistItem)
				if item.Name == "" {
					item.Name = name
				}
				return append(items, item)
			})
		},
		nil,
	), nil
}

// ToggleChecklistItem flips an item's completed flag.
func (o *Ops) ToggleChecklistItem(cardID, checklistID, itemID string) (*Edit, error) {
	card, idx, err := o.checklist(cardID, checklistID)
	if err != nil {
		return nil, err
	}
	completed, found := false, false
	for _, item := range card.Checklists[idx].Items {
		if item.ID == itemID {
			completed, found = !item.Completed, true
		}
	}
	if !found {
		return nil, fmt.Errorf("invalid checklist item %s", itemID)
	}

	setItem := func(done bool) {
		o.mutateChecklist(cardID, checklistID, func(items []models.ChecklistItem) []models.ChecklistItem {
			for i := range items {
				if items[i].ID == itemID {
					items[i].Completed = done
				}
			}
			return items
		})
	}
	setItem(completed)

	boardID := o.store.BoardID()
	return o.edit("toggle checklist item",
		func(ctx context.Context) (any, error) {
			return nil, o.client.UpdateChecklistItem(ctx, boardID, checklistID, itemID, api.ChecklistItemRequest{Completed: &completed})
		},
		nil,
		func() { setItem(!completed) },
	), nil
}

// DeleteChecklistItem removes an item, putting it back on failure.
func (o *Ops) DeleteChecklistItem(cardID, checklistID, itemID string) (*Edit, error) {
	card, idx, err := o.checklist(cardID, checklistID)
	if err != nil {
		return nil, err
	}
	before := card.Checklists[idx].Items
	found := false
	for _, item := range before {
		found = found || item.ID == itemID
	}
	if !found {
		return nil, fmt.Errorf("invalid checklist item %s", itemID)
	}

	o.mutateChecklist(cardID, checklistID, func(items []models.ChecklistItem) []models.ChecklistItem {
		kept := items[:0]
		for _, item := range items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		return kept
	})

	boardID := o.store.BoardID()
	return o.edit("delete checklist item",
		func(ctx context.Context) (any, error) {
			return nil, o.client.DeleteChecklistItem(ctx, boardID, checklistID, itemID)
		},
		nil,
		func() {
			o.mutateChecklist(cardID, checklistID, func([]models.ChecklistItem) []models.ChecklistItem {
				return append([]models.ChecklistItem(nil), before...)
			})
		},
	), nil
}

func (o *Ops) checklist(cardID, checklistID string) (models.Card, int, error) {
	card, ok := o.store.Card(cardID)
	if !ok {
		return models.Card{}, 0, fmt.Errorf("invalid card %s", cardID)
	}
	for i, cl := range card.Checklists {
		if cl.ID == checklistID {
			return card, i, nil
		}
	}
	return models.Card{}, 0, fmt.Errorf("invalid checklist %s", checklistID)
}

// mutateChecklist rewrites one checklist's items through EnrichCard.
func (o *Ops) mutateChecklist(cardID, checklistID string, fn func([]models.ChecklistItem) []models.ChecklistItem) {
	card, idx, err := o.checklist(cardID, checklistID)
	if err != nil {
		return
	}
	lists := card.Checklists
	lists[idx].Items = fn(lists[idx].Items)
	_ = o.store.EnrichCard(cardID, models.CardPatch{Checklists: lists, SetLists: true})
}
