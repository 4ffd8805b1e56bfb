package operations_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"nexus/internal/api"
	"nexus/internal/api/apitest"
	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/operations"
	"nexus/internal/kanban/position"
	"nexus/internal/kanban/store"
	ksync "nexus/internal/kanban/sync"
)

type fixture struct {
	srv    *apitest.Server
	client *api.Client
	store  *store.Store
	ops    *operations.Ops
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddBoard(
		models.Board{
			ID:      "b1",
			Name:    "Roadmap",
			Labels:  []models.Label{{ID: "bug", Name: "Bug", Color: "red"}},
			Members: []models.Member{{ID: "u1", FullName: "Ada Lovelace", Username: "ada"}},
		},
		[]models.List{{ID: "A", Name: "To Do", Position: 10}, {ID: "B", Name: "Done", Position: 20}},
		[]models.Card{
			{ID: "1", ListID: "A", Title: "one", Position: 10, Checklists: []models.Checklist{
				{ID: "cl1", Title: "Steps", Items: []models.ChecklistItem{{ID: "i1", Name: "first", Position: 1}}},
			}},
			{ID: "2", ListID: "A", Title: "two", Position: 20},
			{ID: "3", ListID: "B", Title: "three", Position: 10},
		},
	)
	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.BaseURL(), Token: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := store.New()
	if err := operations.LoadBoard(context.Background(), client, s, "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &fixture{srv: srv, client: client, store: s, ops: operations.New(s, client, nil)}
}

func cardIDs(s *store.Store, listID string) []string {
	return s.CardIDs(listID)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoadBoard(t *testing.T) {
	f := setup(t)

	if got := f.store.Metadata().Name; got != "Roadmap" {
		t.Errorf("expected board name Roadmap, got %q", got)
	}
	if got := f.store.ListIDs(); !equal(got, []string{"A", "B"}) {
		t.Errorf("expected lists [A B], got %v", got)
	}
	if got := cardIDs(f.store, "A"); !equal(got, []string{"1", "2"}) {
		t.Errorf("expected cards [1 2], got %v", got)
	}
	if n := len(f.srv.CallsTo(http.MethodGet, "/boards/b1")); n != 2 {
		t.Errorf("expected two fetches, got %d", n)
	}
}

func TestLoadBoard_NotFound(t *testing.T) {
	f := setup(t)
	err := operations.LoadBoard(context.Background(), f.client, store.New(), "missing")
	if !errors.Is(err, api.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreateList(t *testing.T) {
	f := setup(t)

	edit, err := f.ops.CreateList("  Doing ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := f.store.ListIDs()
	tmpID := ids[len(ids)-1]
	list, _ := f.store.List(tmpID)
	if list.Name != "Doing" || list.Position != 20+position.Base {
		t.Errorf("expected Doing appended at %v, got %+v", 20+position.Base, list)
	}

	if err := edit.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.HasList(tmpID) {
		t.Error("expected provisional id replaced")
	}
	ids = f.store.ListIDs()
	if _, ok := f.srv.List("b1", ids[len(ids)-1]); !ok {
		t.Errorf("expected server id %s in store", ids[len(ids)-1])
	}
}

func TestCreateList_Validation(t *testing.T) {
	f := setup(t)
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "   "},
		{"duplicate", "to do"},
		{"too long", "0123456789012345678901234567890123456789012345678901"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.ops.CreateList(tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}
	if n := len(f.store.Lists()); n != 2 {
		t.Errorf("expected no list added, got %d lists", n)
	}
}

func TestCreateList_FailureRemoves(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodPost, "/lists/create", http.StatusInternalServerError)

	edit, err := f.ops.CreateList("Doing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(f.store.Lists()); n != 3 {
		t.Fatalf("expected optimistic list, got %d lists", n)
	}
	if err := edit.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if n := len(f.store.Lists()); n != 2 {
		t.Errorf("expected list removed, got %d lists", n)
	}
}

func TestCreateCard(t *testing.T) {
	f := setup(t)

	edit, err := f.ops.CreateCard("B", "four")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := cardIDs(f.store, "B")
	if len(ids) != 2 || ids[0] != "3" {
		t.Fatalf("expected new card after 3, got %v", ids)
	}
	remote, ok := f.srv.Card("b1", ids[1])
	if !ok {
		t.Fatalf("expected server id %s in store", ids[1])
	}
	if remote.Title != "four" || remote.Position != 10+position.Base {
		t.Errorf("unexpected server card %+v", remote)
	}
}

func TestCreateCard_FailureRemoves(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodPost, "/cards/create", http.StatusBadGateway)

	edit, err := f.ops.CreateCard("A", "four")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := cardIDs(f.store, "A"); !equal(got, []string{"1", "2"}) {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestCreateCard_InProvisionalList(t *testing.T) {
	f := setup(t)
	if _, err := f.ops.CreateList("Doing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := f.store.ListIDs()
	if _, err := f.ops.CreateCard(ids[len(ids)-1], "early"); err == nil {
		t.Error("expected error for a list without a server id")
	}
}

func TestUpdateCard(t *testing.T) {
	f := setup(t)

	edit, err := f.ops.UpdateCard("1", models.CardPatch{Title: models.StringPtr(" renamed "), Description: models.StringPtr("notes")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card, _ := f.store.Card("1"); card.Title != "renamed" {
		t.Errorf("expected optimistic title, got %q", card.Title)
	}
	if err := edit.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remote, _ := f.srv.Card("b1", "1")
	if remote.Title != "renamed" || remote.Description != "notes" {
		t.Errorf("unexpected server card %+v", remote)
	}

	call := f.srv.CallsTo(http.MethodPut, "/cards/1/update")[0]
	if _, ok := call.Body["list_id"]; ok {
		t.Error("expected field edit to omit list_id")
	}
}

func TestUpdateCard_FailureReverts(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodPut, "/cards/2/update", http.StatusInternalServerError)

	edit, err := f.ops.ToggleCompleted("2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card, _ := f.store.Card("2"); !card.Completed {
		t.Fatal("expected optimistic completion")
	}
	if err := edit.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if card, _ := f.store.Card("2"); card.Completed {
		t.Error("expected completion reverted")
	}
}

func TestDoneAfterBoardReplaced(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodPut, "/cards/2/update", http.StatusInternalServerError)

	edit, err := f.ops.ToggleCompleted("2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	done := edit.Send(context.Background())
	if err := f.store.SetCardsAndLists("b2", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := done(); err == nil {
		t.Error("expected the API error to be reported")
	}
	if n := len(f.store.Cards()); n != 0 {
		t.Errorf("expected replaced board untouched, got %d cards", n)
	}
}

func TestToggleLabelAndMember(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	edit, err := f.ops.ToggleLabel("1", "bug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	edit, err = f.ops.ToggleMember("1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	card, _ := f.store.Card("1")
	if !card.HasLabel("bug") || !card.HasMember("u1") {
		t.Errorf("expected label and member, got %+v", card)
	}
	remote, _ := f.srv.Card("b1", "1")
	if !remote.HasLabel("bug") || !remote.HasMember("u1") {
		t.Errorf("expected server label and member, got %+v", remote)
	}

	if _, err := f.ops.ToggleLabel("1", "nope"); err == nil {
		t.Error("expected error for unknown label")
	}
	if _, err := f.ops.ToggleMember("1", "nobody"); err == nil {
		t.Error("expected error for unknown member")
	}
}

func TestToggleLabel_FailureReverts(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodPost, "/labels/bug/toggle", http.StatusServiceUnavailable)

	edit, err := f.ops.ToggleLabel("2", "bug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if card, _ := f.store.Card("2"); card.HasLabel("bug") {
		t.Error("expected label detached again")
	}
}

func TestCreateLabel(t *testing.T) {
	f := setup(t)

	edit, err := f.ops.CreateLabel("Urgent", "orange")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(f.store.Metadata().Labels); n != 1 {
		t.Fatalf("expected label deferred until saved, got %d labels", n)
	}
	if err := edit.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels := f.store.Metadata().Labels
	if len(labels) != 2 || labels[1].Name != "Urgent" || labels[1].ID == "" {
		t.Errorf("unexpected labels %+v", labels)
	}
}

func TestChecklists(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	edit, err := f.ops.AddChecklistItem("1", "cl1", "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	card, _ := f.store.Card("1")
	items := card.Checklists[0].Items
	if len(items) != 2 || items[1].Name != "second" || items[1].ID == "" {
		t.Fatalf("unexpected items %+v", items)
	}

	edit, err = f.ops.ToggleChecklistItem("1", "cl1", "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done, total := mustCard(t, f.store, "1").ChecklistProgress(); done != 1 || total != 2 {
		t.Errorf("expected 1/2 done, got %d/%d", done, total)
	}

	edit, err = f.ops.DeleteChecklistItem("1", "cl1", items[1].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	remote, _ := f.srv.Card("b1", "1")
	if n := len(remote.Checklists[0].Items); n != 1 {
		t.Errorf("expected one server item, got %d", n)
	}

	edit, err = f.ops.AddChecklist("2", "Review")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lists := mustCard(t, f.store, "2").Checklists; len(lists) != 1 || lists[0].Title != "Review" {
		t.Errorf("unexpected checklists %+v", lists)
	}
}

func TestDeleteChecklistItem_FailureRestores(t *testing.T) {
	f := setup(t)
	f.srv.Fail(http.MethodDelete, "/items/i1/delete", http.StatusInternalServerError)

	edit, err := f.ops.DeleteChecklistItem("1", "cl1", "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, total := mustCard(t, f.store, "1").ChecklistProgress(); total != 0 {
		t.Fatalf("expected item removed optimistically, got %d", total)
	}
	if err := edit.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, total := mustCard(t, f.store, "1").ChecklistProgress(); total != 1 {
		t.Errorf("expected item restored, got %d", total)
	}
}

func mustCard(t *testing.T, s *store.Store, id string) models.Card {
	t.Helper()
	card, ok := s.Card(id)
	if !ok {
		t.Fatalf("card %s missing", id)
	}
	return card
}

func TestMoveCardTo(t *testing.T) {
	f := setup(t)
	engine := dnd.NewEngine(f.store, position.Allocator{})
	syncer := ksync.New(f.client, nil)

	commit, err := operations.MoveCardTo(engine, f.store, "2", "B", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commit == nil {
		t.Fatal("expected commit")
	}
	if got := cardIDs(f.store, "B"); !equal(got, []string{"2", "3"}) {
		t.Errorf("expected [2 3], got %v", got)
	}
	if s := engine.Settle(syncer.Commit(context.Background(), *commit)); s.RolledBack || s.NeedsReload {
		t.Errorf("unexpected settlement %+v", s)
	}
	remote, _ := f.srv.Card("b1", "2")
	if remote.ListID != "B" || remote.Position != 5 {
		t.Errorf("expected card at B/5, got %s/%v", remote.ListID, remote.Position)
	}
}

func TestMoveCardTo_Indexes(t *testing.T) {
	tests := []struct {
		name     string
		card     string
		list     string
		index    int
		expected []string
		noop     bool
	}{
		{"to end of list", "1", "A", 5, []string{"2", "1"}, false},
		{"to front of list", "2", "A", 0, []string{"2", "1"}, false},
		{"same place", "1", "A", 0, []string{"1", "2"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			engine := dnd.NewEngine(f.store, position.Allocator{})
			commit, err := operations.MoveCardTo(engine, f.store, tt.card, tt.list, tt.index)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (commit == nil) != tt.noop {
				t.Errorf("expected noop=%v, got commit %+v", tt.noop, commit)
			}
			if got := cardIDs(f.store, tt.list); !equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			if engine.Dragging() {
				t.Error("expected drag cleared")
			}
		})
	}
}

func TestMoveListTo(t *testing.T) {
	f := setup(t)
	engine := dnd.NewEngine(f.store, position.Allocator{})
	syncer := ksync.New(f.client, nil)

	commit, err := operations.MoveListTo(engine, "A", 1, f.store.ListIDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.store.ListIDs(); !equal(got, []string{"B", "A"}) {
		t.Errorf("expected [B A], got %v", got)
	}
	engine.Settle(syncer.Commit(context.Background(), *commit))
	remote, _ := f.srv.List("b1", "A")
	if remote.Position != 20+position.Base {
		t.Errorf("expected list A at %v, got %v", 20+position.Base, remote.Position)
	}

	if _, err := operations.MoveListTo(engine, "A", 2, f.store.ListIDs()); err == nil {
		t.Error("expected error for index out of range")
	}
}

func TestMoveRollbackAfterCreateSettles(t *testing.T) {
	tests := []struct {
		name      string
		createErr bool
		wantFresh int
	}{
		{"create succeeded", false, 1},
		{"create failed", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			engine := dnd.NewEngine(f.store, position.Allocator{})
			if tt.createErr {
				f.srv.Fail(http.MethodPost, "/cards/create", http.StatusInternalServerError)
			}

			edit, err := f.ops.CreateCard("A", "fresh")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			commit, err := operations.MoveCardTo(engine, f.store, "2", "B", 0)
			if err != nil || commit == nil {
				t.Fatalf("expected commit, got %v", err)
			}
			_ = edit.Run(context.Background())

			engine.Settle(dnd.Result{Seq: commit.Seq, Err: errors.New("move rejected")})

			var fresh []string
			for _, c := range f.store.Cards() {
				if operations.IsProvisional(c.ID) {
					t.Errorf("expected no provisional card after settling, got %s", c.ID)
				}
				if c.Title == "fresh" {
					fresh = append(fresh, c.ID)
				}
			}
			if len(fresh) != tt.wantFresh {
				t.Errorf("expected %d fresh card(s), got %v", tt.wantFresh, fresh)
			}
			if got := cardIDs(f.store, "B"); !equal(got, []string{"3"}) {
				t.Errorf("expected move rolled back to [3], got %v", got)
			}
		})
	}
}

func TestValidateBoard(t *testing.T) {
	tests := []struct {
		name, board, background, visibility string
		wantErr                             bool
		wantVisibility                      string
	}{
		{"defaults to private", "  Launch ", "#0079bf", "", false, "private"},
		{"team", "Launch", "blue", "team", false, "team"},
		{"empty name", "  ", "blue", "", true, ""},
		{"long name", strings.Repeat("x", 21), "blue", "", true, ""},
		{"no background", "Launch", "", "", true, ""},
		{"bad visibility", "Launch", "blue", "secret", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := operations.ValidateBoard(tt.board, tt.background, tt.visibility)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Name != "Launch" || req.Visibility != tt.wantVisibility {
				t.Errorf("unexpected request %+v", req)
			}
		})
	}
}
