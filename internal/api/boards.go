package api

import (
	"context"
	"fmt"
	"net/http"

	"nexus/internal/kanban/models"
)

// BoardDetails is the cards-and-lists payload of one board.
type BoardDetails struct {
	ID    string        `json:"id"`
	Lists []models.List `json:"lists"`
	Cards []models.Card `json:"cards"`
}

// GetBoardMetadata fetches name, background, labels and members.
func (c *Client) GetBoardMetadata(ctx context.Context, boardID string) (models.Board, error) {
	var board models.Board
	if err := c.do(ctx, http.MethodGet, boardPath(boardID, "metadata"), nil, &board); err != nil {
		return models.Board{}, fmt.Errorf("get board metadata: %w", err)
	}
	if board.ID == "" {
		board.ID = boardID
	}
	return board, nil
}

// GetBoardDetails fetches every list and card of a board.
func (c *Client) GetBoardDetails(ctx context.Context, boardID string) (BoardDetails, error) {
	var details BoardDetails
	if err := c.do(ctx, http.MethodGet, boardPath(boardID, "details"), nil, &details); err != nil {
		return BoardDetails{}, fmt.Errorf("get board details: %w", err)
	}
	if details.ID == "" {
		details.ID = boardID
	}
	for i := range details.Lists {
		if details.Lists[i].BoardID == "" {
			details.Lists[i].BoardID = boardID
		}
	}
	for i := range details.Cards {
		if details.Cards[i].BoardID == "" {
			details.Cards[i].BoardID = boardID
		}
	}
	return details, nil
}

// CreateBoardRequest is the body of a board creation. Background is a color
// or an image URL; Visibility is one of private, team or public.
type CreateBoardRequest struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Visibility string `json:"visibility,omitempty"`
}

// CreateBoard creates a board owned by the token's user.
func (c *Client) CreateBoard(ctx context.Context, req CreateBoardRequest) (models.Board, error) {
	var board models.Board
	if err := c.do(ctx, http.MethodPost, "/boards/create", req, &board); err != nil {
		return models.Board{}, fmt.Errorf("create board: %w", err)
	}
	return board, nil
}

// CreateLabelRequest is the body of a label creation.
type CreateLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateLabel adds a label to the board.
func (c *Client) CreateLabel(ctx context.Context, boardID string, req CreateLabelRequest) (models.Label, error) {
	var label models.Label
	if err := c.do(ctx, http.MethodPost, boardPath(boardID, "labels", "create"), req, &label); err != nil {
		return models.Label{}, fmt.Errorf("create label: %w", err)
	}
	if label.BoardID == "" {
		label.BoardID = boardID
	}
	return label, nil
}
