package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nexus/internal/api"
	"nexus/internal/api/apitest"
	"nexus/internal/config"
	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/operations"
	"nexus/internal/kanban/position"
	"nexus/internal/kanban/store"
	ksync "nexus/internal/kanban/sync"
	kanbanview "nexus/internal/tui/kanban"
)

func testDeps(t *testing.T) DepsFunc {
	t.Helper()
	srv := apitest.New(t)
	srv.AddBoard(
		models.Board{ID: "b1", Name: "Roadmap"},
		[]models.List{{ID: "A", Name: "To Do", Position: 10}},
		[]models.Card{{ID: "1", ListID: "A", Title: "one", Position: 10}},
	)
	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.BaseURL()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return func() kanbanview.Deps {
		st := store.New()
		return kanbanview.Deps{
			Store:   st,
			Engine:  dnd.NewEngine(st, position.Allocator{}),
			Syncer:  ksync.New(client, nil),
			Ops:     operations.New(st, client, nil),
			Source:  client,
			Timeout: 5 * time.Second,
		}
	}
}

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func TestAppOpensBoardFromPicker(t *testing.T) {
	m := NewAppModel(&config.Config{Boards: []string{"b1"}}, testDeps(t))
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 40})
	if m.currentView != ViewBoardPicker {
		t.Fatalf("expected picker without a default board")
	}

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected open command")
	}
	m, cmd = update(m, cmd())
	if m.currentView != ViewBoard || !m.boardLoaded {
		t.Fatalf("expected board view")
	}
	m, _ = update(m, cmd())
	if !strings.Contains(m.View(), "Roadmap") {
		t.Errorf("expected board name in view")
	}

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m, _ = update(m, cmd())
	if m.currentView != ViewBoardPicker {
		t.Errorf("expected q to return to the picker")
	}
}

func TestAppDefaultBoard(t *testing.T) {
	m := NewAppModel(&config.Config{DefaultBoard: "b1"}, testDeps(t))
	if m.currentView != ViewBoard || m.Init() == nil {
		t.Errorf("expected default board to open on start")
	}
}

func TestAppHelpOverlay(t *testing.T) {
	m := NewAppModel(&config.Config{}, testDeps(t))
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 40})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !m.showHelp || !strings.Contains(m.View(), "grab card") {
		t.Fatalf("expected help overlay")
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if m.showHelp {
		t.Errorf("expected any key to dismiss help")
	}
}
