// Package operations holds the board edits other than drags: loading a board,
// creating lists and cards, field edits, labels, members and checklists.
//
// Edits are optimistic. Building an Edit changes the store right away; Send
// performs the API call and may run on any goroutine; the Done it returns
// must run on the store's goroutine and either confirms or reverts the
// change.
package operations

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"nexus/internal/api"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/store"
	"nexus/internal/logs"
)

// Source fetches boards.
type Source interface {
	GetBoardMetadata(ctx context.Context, boardID string) (models.Board, error)
	GetBoardDetails(ctx context.Context, boardID string) (api.BoardDetails, error)
}

// Client is the write side of the board API.
type Client interface {
	CreateList(ctx context.Context, boardID string, req api.CreateListRequest) (models.List, error)
	UpdateList(ctx context.Context, boardID, listID string, req api.UpdateListRequest) error
	CreateCard(ctx context.Context, boardID, listID string, req api.CreateCardRequest) (models.Card, error)
	UpdateCard(ctx context.Context, boardID, listID, cardID string, req api.UpdateCardRequest) error
	CreateLabel(ctx context.Context, boardID string, req api.CreateLabelRequest) (models.Label, error)
	ToggleCardLabel(ctx context.Context, boardID, cardID, labelID string) error
	ToggleCardMember(ctx context.Context, boardID, cardID, userID string) error
	CreateChecklist(ctx context.Context, boardID, cardID string, req api.CreateChecklistRequest) (models.Checklist, error)
	CreateChecklistItem(ctx context.Context, boardID, checklistID string, req api.ChecklistItemRequest) (models.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, boardID, checklistID, itemID string, req api.ChecklistItemRequest) error
	DeleteChecklistItem(ctx context.Context, boardID, checklistID, itemID string) error
}

// Invalidator evicts cached copies of a board.
type Invalidator interface {
	Invalidate(ctx context.Context, boardID string) error
}

// Done finishes an edit on the store's goroutine and returns the API error,
// if any.
type Done func() error

// Edit is an optimistic change already applied to the store.
type Edit struct {
	Label string
	send  func(ctx context.Context) Done
}

// Send runs the API call. It is safe to call off the store's goroutine.
func (e *Edit) Send(ctx context.Context) Done {
	return e.send(ctx)
}

// Run sends and finishes in one go, for callers that own the store on the
// current goroutine.
func (e *Edit) Run(ctx context.Context) error {
	return e.Send(ctx)()
}

// Loaded is a fetched board waiting to be applied.
type Loaded struct {
	Metadata models.Board
	Details  api.BoardDetails
}

// FetchBoard fetches metadata and lists+cards of a board: one call each.
func FetchBoard(ctx context.Context, src Source, boardID string) (Loaded, error) {
	meta, err := src.GetBoardMetadata(ctx, boardID)
	if err != nil {
		return Loaded{}, fmt.Errorf("load board %s: %w", boardID, err)
	}
	details, err := src.GetBoardDetails(ctx, boardID)
	if err != nil {
		return Loaded{}, fmt.Errorf("load board %s: %w", boardID, err)
	}
	return Loaded{Metadata: meta, Details: details}, nil
}

// Apply replaces the store's contents with the fetched board.
func (l Loaded) Apply(s *store.Store) error {
	if err := s.SetCardsAndLists(l.Metadata.ID, l.Details.Cards, l.Details.Lists); err != nil {
		return fmt.Errorf("load board %s: %w", l.Metadata.ID, err)
	}
	s.SetMetadata(l.Metadata)
	logs.Logger.WithFields(logrus.Fields{
		"board_id": l.Metadata.ID,
		"lists":    len(l.Details.Lists),
		"cards":    len(l.Details.Cards),
	}).Info("board loaded")
	return nil
}

// LoadBoard fetches a board and applies it.
func LoadBoard(ctx context.Context, src Source, s *store.Store, boardID string) error {
	loaded, err := FetchBoard(ctx, src, boardID)
	if err != nil {
		return err
	}
	return loaded.Apply(s)
}

// Ops builds edits against one store.
type Ops struct {
	store  *store.Store
	client Client
	cache  Invalidator
}

// New returns Ops for s. cache may be nil.
func New(s *store.Store, client Client, cache Invalidator) *Ops {
	return &Ops{store: s, client: client, cache: cache}
}

// edit wraps a remote call with cache eviction, logging and the finishing
// step. onSuccess and onFailure run on the store's goroutine.
func (o *Ops) edit(label string, call func(ctx context.Context) (any, error), onSuccess func(result any), onFailure func()) *Edit {
	boardID := o.store.BoardID()
	return &Edit{
		Label: label,
		send: func(ctx context.Context) Done {
			result, err := call(ctx)
			entry := logs.Logger.WithFields(logrus.Fields{"board_id": boardID, "edit": label})
			if err == nil && o.cache != nil {
				if cerr := o.cache.Invalidate(ctx, boardID); cerr != nil {
					entry.WithError(cerr).Warn("cache invalidation failed")
				}
			}
			return func() error {
				if o.store.BoardID() != boardID {
					// The board was replaced while the call was in flight.
					return err
				}
				if err != nil {
					entry.WithError(err).Warn("edit failed, reverting")
					if onFailure != nil {
						onFailure()
					}
					return fmt.Errorf("%s: %w", label, err)
				}
				entry.Debug("edit saved")
				if onSuccess != nil {
					onSuccess(result)
				}
				return nil
			}
		},
	}
}

var boardVisibilities = []string{"private", "team", "public"}

// ValidateBoard checks a new board's name and visibility the way the board
// API does. An empty visibility means private.
func ValidateBoard(name, background, visibility string) (api.CreateBoardRequest, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return api.CreateBoardRequest{}, fmt.Errorf("board name cannot be empty")
	case len([]rune(trimmed)) > 20:
		return api.CreateBoardRequest{}, fmt.Errorf("board name too long (max 20 characters)")
	case strings.TrimSpace(background) == "":
		return api.CreateBoardRequest{}, fmt.Errorf("board background cannot be empty")
	}
	if visibility == "" {
		visibility = "private"
	}
	if !slices.Contains(boardVisibilities, visibility) {
		return api.CreateBoardRequest{}, fmt.Errorf("invalid visibility %q (want one of %s)", visibility, strings.Join(boardVisibilities, ", "))
	}
	return api.CreateBoardRequest{Name: trimmed, Background: strings.TrimSpace(background), Visibility: visibility}, nil
}

const provisionalPrefix = "tmp-"

func provisionalID() string {
	return provisionalPrefix + uuid.NewString()
}

// IsProvisional reports whether id was assigned locally and still awaits
// the server's id.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, provisionalPrefix)
}
