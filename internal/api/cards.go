package api

import (
	"context"
	"fmt"
	"net/http"

	"nexus/internal/kanban/models"
)

// UpdateCardRequest is a partial card update. Nil fields are omitted.
// ListID moves the card to another list.
type UpdateCardRequest struct {
	Title       *string  `json:"title,omitempty"`
	Completed   *bool    `json:"completed,omitempty"`
	Cover       *string  `json:"cover,omitempty"`
	CoverSize   *string  `json:"cover_size,omitempty"`
	Description *string  `json:"description,omitempty"`
	Position    *float64 `json:"position,omitempty"`
	ListID      *string  `json:"list_id,omitempty"`
}

// CreateCardRequest is the body of a card creation.
type CreateCardRequest struct {
	Title    string  `json:"title"`
	Position float64 `json:"position"`
}

// UpdateCard sends a partial update for a card filed under listID.
func (c *Client) UpdateCard(ctx context.Context, boardID, listID, cardID string, req UpdateCardRequest) error {
	path := boardPath(boardID, "lists", esc(listID), "cards", esc(cardID), "update")
	if err := c.do(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("update card %s: %w", cardID, err)
	}
	return nil
}

// CreateCard creates a card at the end of a list and returns it as stored.
func (c *Client) CreateCard(ctx context.Context, boardID, listID string, req CreateCardRequest) (models.Card, error) {
	var card models.Card
	path := boardPath(boardID, "lists", esc(listID), "cards", "create")
	if err := c.do(ctx, http.MethodPost, path, req, &card); err != nil {
		return models.Card{}, fmt.Errorf("create card: %w", err)
	}
	if card.ListID == "" {
		card.ListID = listID
	}
	if card.BoardID == "" {
		card.BoardID = boardID
	}
	if card.Title == "" {
		card.Title = req.Title
	}
	if card.Position == 0 {
		card.Position = req.Position
	}
	return card, nil
}

// ToggleCardLabel attaches or detaches a label.
func (c *Client) ToggleCardLabel(ctx context.Context, boardID, cardID, labelID string) error {
	path := boardPath(boardID, "cards", esc(cardID), "labels", esc(labelID), "toggle")
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("toggle label %s on card %s: %w", labelID, cardID, err)
	}
	return nil
}

// ToggleCardMember assigns or unassigns a board member.
func (c *Client) ToggleCardMember(ctx context.Context, boardID, cardID, userID string) error {
	path := boardPath(boardID, "cards", esc(cardID), "members", esc(userID), "toggle")
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("toggle member %s on card %s: %w", userID, cardID, err)
	}
	return nil
}
