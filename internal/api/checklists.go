package api

import (
	"context"
	"fmt"
	"net/http"

	"nexus/internal/kanban/models"
)

// CreateChecklistRequest is the body of a checklist creation.
type CreateChecklistRequest struct {
	Title string `json:"title"`
}

// ChecklistItemRequest creates or updates an item. Nil fields are omitted on
// update.
type ChecklistItemRequest struct {
	Name      *string  `json:"name,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
	Position  *float64 `json:"position,omitempty"`
}

// CreateChecklist adds an empty checklist to a card.
func (c *Client) CreateChecklist(ctx context.Context, boardID, cardID string, req CreateChecklistRequest) (models.Checklist, error) {
	var cl models.Checklist
	path := boardPath(boardID, "cards", esc(cardID), "checklists", "create")
	if err := c.do(ctx, http.MethodPost, path, req, &cl); err != nil {
		return models.Checklist{}, fmt.Errorf("create checklist: %w", err)
	}
	if cl.Title == "" {
		cl.Title = req.Title
	}
	return cl, nil
}

// CreateChecklistItem appends an item to a checklist.
func (c *Client) CreateChecklistItem(ctx context.Context, boardID, checklistID string, req ChecklistItemRequest) (models.ChecklistItem, error) {
	var item models.ChecklistItem
	path := boardPath(boardID, "checklists", esc(checklistID), "items", "create")
	if err := c.do(ctx, http.MethodPost, path, req, &item); err != nil {
		return models.ChecklistItem{}, fmt.Errorf("create checklist item: %w", err)
	}
	return item, nil
}

// UpdateChecklistItem renames, toggles or repositions an item.
func (c *Client) UpdateChecklistItem(ctx context.Context, boardID, checklistID, itemID string, req ChecklistItemRequest) error {
	path := boardPath(boardID, "checklists", esc(checklistID), "items", esc(itemID), "update")
	if err := c.do(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("update checklist item %s: %w", itemID, err)
	}
	return nil
}

// DeleteChecklistItem removes an item.
func (c *Client) DeleteChecklistItem(ctx context.Context, boardID, checklistID, itemID string) error {
	path := boardPath(boardID, "checklists", esc(checklistID), "items", esc(itemID), "delete")
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete checklist item %s: %w", itemID, err)
	}
	return nil
}
