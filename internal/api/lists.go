package api

import (
	"context"
	"fmt"
	"net/http"

	"nexus/internal/kanban/models"
)

// UpdateListRequest is a partial list update.
type UpdateListRequest struct {
	Name     *string  `json:"name,omitempty"`
	Position *float64 `json:"position,omitempty"`
}

// CreateListRequest is the body of a list creation.
type CreateListRequest struct {
	Name     string  `json:"name"`
	Position float64 `json:"position"`
}

// UpdateList sends a partial update for a list.
func (c *Client) UpdateList(ctx context.Context, boardID, listID string, req UpdateListRequest) error {
	if err := c.do(ctx, http.MethodPut, boardPath(boardID, "lists", esc(listID), "update"), req, nil); err != nil {
		return fmt.Errorf("update list %s: %w", listID, err)
	}
	return nil
}

// CreateList creates a list and returns it as stored.
func (c *Client) CreateList(ctx context.Context, boardID string, req CreateListRequest) (models.List, error) {
	var list models.List
	if err := c.do(ctx, http.MethodPost, boardPath(boardID, "lists", "create"), req, &list); err != nil {
		return models.List{}, fmt.Errorf("create list: %w", err)
	}
	if list.BoardID == "" {
		list.BoardID = boardID
	}
	if list.Name == "" {
		list.Name = req.Name
	}
	if list.Position == 0 {
		list.Position = req.Position
	}
	return list, nil
}
