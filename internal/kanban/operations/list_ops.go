package operations

import (
	"context"
	"fmt"
	"strings"

	"nexus/internal/api"
	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/position"
)

// ValidateListName checks if list name is valid (trim, length check)
func ValidateListName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return "", fmt.Errorf("list name cannot be empty")
	}

	if len(trimmed) > 50 {
		return "", fmt.Errorf("list name too long (max 50 characters)")
	}

	return trimmed, nil
}

// CreateList appends a list under a provisional id. The server's id replaces
// it once the call succeeds; on failure the list is removed again, along with
// any cards added to it meanwhile.
func (o *Ops) CreateList(name string) (*Edit, error) {
	validated, err := ValidateListName(name)
	if err != nil {
		return nil, err
	}
	for _, l := range o.store.Lists() {
		if strings.EqualFold(l.Name, validated) {
			return nil, fmt.Errorf("list name already exists")
		}
	}

	siblings := o.store.ListPositions("")
	pos, err := position.Allocate(siblings, len(siblings))
	if err != nil {
		return nil, err
	}

	boardID := o.store.BoardID()
	tmpID := provisionalID()
	if err := o.store.AddList(models.List{ID: tmpID, BoardID: boardID, Name: validated, Position: pos}); err != nil {
		return nil, err
	}

	return o.edit("create list",
		func(ctx context.Context) (any, error) {
			return o.client.CreateList(ctx, boardID, api.CreateListRequest{Name: validated, Position: pos})
		},
		func(result any) {
			created := result.(models.List)
			_ = o.store.ReplaceListID(tmpID, created.ID)
		},
		func() {
			for _, id := range o.store.CardIDs(tmpID) {
				_ = o.store.RemoveCard(id)
			}
			_ = o.store.RemoveList(tmpID)
		},
	), nil
}

// RenameList renames a list, restoring the old name on failure.
func (o *Ops) RenameList(listID, name string) (*Edit, error) {
	validated, err := ValidateListName(name)
	if err != nil {
		return nil, err
	}
	list, ok := o.store.List(listID)
	if !ok {
		return nil, fmt.Errorf("invalid list %s", listID)
	}
	for _, l := range o.store.Lists() {
		if l.ID != listID && strings.EqualFold(l.Name, validated) {
			return nil, fmt.Errorf("list name already exists")
		}
	}
	if err := o.store.RenameList(listID, validated); err != nil {
		return nil, err
	}

	boardID := o.store.BoardID()
	return o.edit("rename list",
		func(ctx context.Context) (any, error) {
			return nil, o.client.UpdateList(ctx, boardID, listID, api.UpdateListRequest{Name: &validated})
		},
		nil,
		func() { _ = o.store.RenameList(listID, list.Name) },
	), nil
}

// MoveListTo drags a list onto the list currently at index, as a pointer
// gesture would. It returns nil when the list is already there.
func MoveListTo(e *dnd.Engine, listID string, index int, listIDs []string) (*dnd.Commit, error) {
	if len(listIDs) == 0 {
		return nil, fmt.Errorf("board has no lists")
	}
	if index < 0 || index >= len(listIDs) {
		return nil, fmt.Errorf("invalid list index %d", index)
	}
	if err := e.Start(dnd.List(listID)); err != nil {
		return nil, err
	}
	over := dnd.Hover{OverID: listIDs[index]}
	e.Over(over)
	return e.End(over)
}
