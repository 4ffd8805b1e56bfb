package kanban

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/operations"
	"nexus/internal/kanban/store"
	"nexus/internal/logs"
	"nexus/internal/tui/messages"
)

type boardMode int

const (
	boardModeNormal boardMode = iota
	boardModeDragCard
	boardModeDragList
	boardModeFilter
	boardModePrompt
	boardModeSelector
)

// Committer persists a finished gesture.
type Committer interface {
	Commit(ctx context.Context, c dnd.Commit) dnd.Result
}

// Deps are the collaborators a board view works through. Store and Engine
// belong to the bubbletea goroutine.
type Deps struct {
	Store   *store.Store
	Engine  *dnd.Engine
	Syncer  Committer
	Ops     *operations.Ops
	Source  operations.Source
	Timeout time.Duration
}

// BoardLoadedMsg carries a fetched board back to Update.
type BoardLoadedMsg struct {
	BoardID string
	Loaded  operations.Loaded
	Err     error
}

// CommitResultMsg carries the outcome of persisting a gesture.
type CommitResultMsg struct {
	Result dnd.Result
}

type editDoneMsg struct {
	label string
	done  operations.Done
}

type BoardModel struct {
	deps    Deps
	boardID string
	loaded  bool
	loading bool
	// reloadPending defers a reload until the gesture in progress ends.
	reloadPending bool

	selectedCol            int
	selectedCard           int
	mode                   boardMode
	width                  int
	height                 int
	err                    error
	message                string
	notice                 string
	columnScrollOffsets    []int // scroll position (card index) for each list
	columnCursorPos        []int // cursor position (card index) for each list
	columnHorizontalOffset int   // first visible list index

	filterInput  textinput.Model
	filterQuery  string
	filterActive bool

	prompt     textinput.Model
	promptKind promptKind

	selector     *SelectorModel
	selectorKind selectorKind

	// dropSlot is the index among the dragged card's siblings it would land at.
	dropSlot int
	// dropList is the index of the list a dragged list would land on.
	dropList int
}

func NewBoardModel(boardID string, deps Deps) BoardModel {
	return BoardModel{
		deps:    deps,
		boardID: boardID,
		mode:    boardModeNormal,
		loading: true,
	}
}

// BoardID returns the id of the board shown.
func (m BoardModel) BoardID() string {
	return m.boardID
}

// SetSize updates the view dimensions
func (m *BoardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// IsModal returns true if the board is in a mode that owns every key.
func (m BoardModel) IsModal() bool {
	return m.mode != boardModeNormal
}

func (m BoardModel) Init() tea.Cmd {
	return m.fetch()
}

func (m BoardModel) context() (context.Context, context.CancelFunc) {
	if m.deps.Timeout > 0 {
		return context.WithTimeout(context.Background(), m.deps.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (m BoardModel) fetch() tea.Cmd {
	src, boardID := m.deps.Source, m.boardID
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		loaded, err := operations.FetchBoard(ctx, src, boardID)
		return BoardLoadedMsg{BoardID: boardID, Loaded: loaded, Err: err}
	}
}

// reload refetches the board, or waits for the gesture in progress to end.
func (m BoardModel) reload() (BoardModel, tea.Cmd) {
	if m.deps.Engine.Dragging() {
		m.reloadPending = true
		return m, nil
	}
	m.reloadPending = false
	m.loading = true
	return m, m.fetch()
}

func (m BoardModel) persist(c *dnd.Commit) tea.Cmd {
	if c == nil {
		return nil
	}
	syncer, commit := m.deps.Syncer, *c
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		return CommitResultMsg{Result: syncer.Commit(ctx, commit)}
	}
}

func (m BoardModel) send(edit *operations.Edit) tea.Cmd {
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		return editDoneMsg{label: edit.Label, done: edit.Send(ctx)}
	}
}

// Update handles board events as a child view
func (m BoardModel) Update(msg tea.Msg) (BoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case BoardLoadedMsg:
		if msg.BoardID != m.boardID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		if m.deps.Engine.Dragging() {
			// The fetch raced a new gesture; fetch again once it ends.
			m.reloadPending = true
			return m, nil
		}
		if err := msg.Loaded.Apply(m.deps.Store); err != nil {
			m.err = err
			return m, nil
		}
		m.loaded = true
		m.reloadBoardState()
		return m, nil

	case CommitResultMsg:
		settled := m.deps.Engine.Settle(msg.Result)
		if settled.Notice != "" {
			m.notice = settled.Notice
		}
		if settled.RolledBack {
			m.reloadBoardState()
		}
		if settled.NeedsReload {
			return m.reload()
		}
		return m, nil

	case editDoneMsg:
		if err := msg.done(); err != nil {
			m.err = err
		} else {
			m.message = capitalize(msg.label) + " saved"
		}
		m.reloadBoardState()
		return m, nil

	case editorFinishedMsg:
		return m.finishEditor(msg)

	case messages.DataRefreshMsg:
		return m.reload()

	case tea.KeyMsg:
		switch m.mode {
		case boardModeNormal:
			return m.updateNormal(msg)
		case boardModeDragCard:
			return m.updateDragCard(msg)
		case boardModeDragList:
			return m.updateDragList(msg)
		case boardModeFilter:
			return m.updateFilter(msg)
		case boardModePrompt:
			return m.updatePrompt(msg)
		case boardModeSelector:
			return m.updateSelector(msg)
		}
	}

	return m, nil
}

func (m BoardModel) updateNormal(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	m.message = ""
	m.err = nil
	m.notice = ""

	lists := m.deps.Store.Lists()
	k := boardKeys

	switch {
	case msg.String() == "esc" && m.filterActive:
		m.clearFilter()

	case key.Matches(msg, k.Back):
		return m, messages.SwitchView(messages.ViewBoardPicker)

	case key.Matches(msg, k.Filter):
		ti := textinput.New()
		ti.Placeholder = "filter..."
		ti.CharLimit = 100
		ti.Width = 40
		ti.SetValue(m.filterQuery)
		ti.Focus()
		m.filterInput = ti
		m.mode = boardModeFilter
		m.selectedCard = 0
		m.setCursor()
		return m, textinput.Blink

	case key.Matches(msg, k.Left):
		if m.selectedCol > 0 {
			m.selectColumn(m.selectedCol - 1)
		}

	case key.Matches(msg, k.Right):
		if m.selectedCol < len(lists)-1 {
			m.selectColumn(m.selectedCol + 1)
		}

	case key.Matches(msg, k.Down):
		if m.selectedCard < len(m.visibleCards(m.selectedCol))-1 {
			m.selectedCard++
			m.setCursor()
			m.adjustScrollPosition()
		}

	case key.Matches(msg, k.Up):
		if m.selectedCard > 0 {
			m.selectedCard--
			m.setCursor()
			m.adjustScrollPosition()
		}

	case key.Matches(msg, k.GrabCard):
		return m.startCardDrag()

	case key.Matches(msg, k.GrabList):
		return m.startListDrag()

	case key.Matches(msg, k.Description):
		return m.handleEditDescription()

	case key.Matches(msg, k.NewCard):
		if _, ok := m.currentList(); ok {
			return m.openPrompt(promptNewCard, "")
		}

	case key.Matches(msg, k.NewList):
		return m.openPrompt(promptNewList, "")

	case key.Matches(msg, k.RenameList):
		if list, ok := m.currentList(); ok {
			return m.openPrompt(promptRenameList, list.Name)
		}

	case key.Matches(msg, k.EditTitle):
		if card, ok := m.currentCard(); ok {
			return m.openPrompt(promptEditTitle, card.Title)
		}

	case key.Matches(msg, k.Complete):
		if card, ok := m.currentCard(); ok {
			return m.runEdit(m.deps.Ops.ToggleCompleted(card.ID))
		}

	case key.Matches(msg, k.Labels):
		return m.openLabelSelector()

	case key.Matches(msg, k.NewLabel):
		return m.openPrompt(promptNewLabel, "")

	case key.Matches(msg, k.Members):
		return m.openMemberSelector()

	case key.Matches(msg, k.Checklist):
		if _, ok := m.currentCard(); ok {
			return m.openPrompt(promptNewChecklist, "")
		}

	case key.Matches(msg, k.ChecklistIt):
		if card, ok := m.currentCard(); ok && len(card.Checklists) > 0 {
			return m.openPrompt(promptNewChecklistItem, "")
		}

	case key.Matches(msg, k.Reload):
		return m.reload()
	}

	return m, nil
}

func (m BoardModel) updateFilter(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		// Lock filter and return to normal mode
		m.filterQuery = m.filterInput.Value()
		m.filterActive = m.filterQuery != ""
		m.selectedCard = 0
		m.setCursor()
		m.adjustScrollPosition()
		m.mode = boardModeNormal
		return m, nil

	case "esc":
		m.clearFilter()
		m.mode = boardModeNormal
		return m, nil

	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		// Live recompute
		m.filterQuery = m.filterInput.Value()
		m.filterActive = m.filterQuery != ""
		m.clampCursor()
		m.adjustScrollPosition()
		return m, cmd
	}
}

func (m *BoardModel) clearFilter() {
	m.filterQuery = ""
	m.filterActive = false
	m.selectedCard = 0
	m.setCursor()
	m.adjustScrollPosition()
}

func (m *BoardModel) selectColumn(index int) {
	m.selectedCol = index
	// Restore saved cursor position
	if index < len(m.columnCursorPos) {
		m.selectedCard = m.columnCursorPos[index]
	}
	m.clampCursor()
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

func (m *BoardModel) setCursor() {
	if m.selectedCol < len(m.columnCursorPos) {
		m.columnCursorPos[m.selectedCol] = m.selectedCard
	}
}

func (m *BoardModel) clampCursor() {
	visible := len(m.visibleCards(m.selectedCol))
	if m.selectedCard >= visible {
		m.selectedCard = max(0, visible-1)
	}
	m.setCursor()
}

// focusCard moves the cursor onto cardID wherever it now is.
func (m *BoardModel) focusCard(cardID string) {
	listID, ok := m.deps.Store.CardListID(cardID)
	if !ok {
		return
	}
	m.selectedCol = m.deps.Store.ListIndex(listID)
	for i, c := range m.visibleCards(m.selectedCol) {
		if c.ID == cardID {
			m.selectedCard = i
		}
	}
	m.setCursor()
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// reloadBoardState resizes per-list state after the lists changed.
func (m *BoardModel) reloadBoardState() {
	n := len(m.deps.Store.Lists())
	if len(m.columnScrollOffsets) != n {
		offsets := make([]int, n)
		copy(offsets, m.columnScrollOffsets)
		m.columnScrollOffsets = offsets
	}
	if len(m.columnCursorPos) != n {
		cursors := make([]int, n)
		copy(cursors, m.columnCursorPos)
		m.columnCursorPos = cursors
	}
	if m.selectedCol >= n {
		m.selectedCol = max(0, n-1)
	}
	m.clampCursor()

	if m.columnHorizontalOffset >= n {
		m.columnHorizontalOffset = max(0, n-1)
	}
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

func (m BoardModel) currentList() (models.List, bool) {
	lists := m.deps.Store.Lists()
	if m.selectedCol < 0 || m.selectedCol >= len(lists) {
		return models.List{}, false
	}
	return lists[m.selectedCol], true
}

func (m BoardModel) currentCard() (models.Card, bool) {
	cards := m.visibleCards(m.selectedCol)
	if m.selectedCard < 0 || m.selectedCard >= len(cards) {
		return models.Card{}, false
	}
	return cards[m.selectedCard], true
}

// cardSearchString builds a single string from the card fields the filter
// matches against
func cardSearchString(card models.Card) string {
	parts := []string{card.Title}
	for _, l := range card.Labels {
		parts = append(parts, "#"+l.Name)
	}
	if card.Description != "" {
		parts = append(parts, card.Description)
	}
	return strings.Join(parts, " ")
}

// visibleCards returns the cards to display for a list, respecting the
// active filter. Matches keep board order.
func (m BoardModel) visibleCards(colIndex int) []models.Card {
	lists := m.deps.Store.Lists()
	if colIndex < 0 || colIndex >= len(lists) {
		return nil
	}
	cards := m.deps.Store.CardsForList(lists[colIndex].ID)
	if !m.filterActive {
		return cards
	}

	searchStrings := make([]string, len(cards))
	for i, card := range cards {
		searchStrings[i] = cardSearchString(card)
	}
	matches := fuzzy.Find(m.filterQuery, searchStrings)
	indices := make([]int, len(matches))
	for i, match := range matches {
		indices[i] = match.Index
	}
	sort.Ints(indices)

	visible := make([]models.Card, len(indices))
	for i, idx := range indices {
		visible[i] = cards[idx]
	}
	return visible
}

func (m BoardModel) runEdit(edit *operations.Edit, err error) (BoardModel, tea.Cmd) {
	if err != nil {
		m.err = err
		return m, nil
	}
	logs.Logger.WithField("edit", edit.Label).Debug("edit started")
	m.reloadBoardState()
	return m, m.send(edit)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
