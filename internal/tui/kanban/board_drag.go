package kanban

import (
	tea "github.com/charmbracelet/bubbletea"

	"nexus/internal/kanban/dnd"
	"nexus/internal/kanban/operations"
)

// Keyboard gestures. A grabbed card follows h/l into neighbouring lists
// through the engine's hover handling; j/k only move the drop slot, since
// hovering within the same list never reorders before the drop.

func (m BoardModel) startCardDrag() (BoardModel, tea.Cmd) {
	if m.filterActive {
		m.err = errFilterDrag
		return m, nil
	}
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	if err := m.deps.Engine.Start(dnd.Card(card.ID)); err != nil {
		m.err = err
		return m, nil
	}
	m.mode = boardModeDragCard
	m.dropSlot = m.selectedCard
	return m, nil
}

func (m BoardModel) startListDrag() (BoardModel, tea.Cmd) {
	if m.filterActive {
		m.err = errFilterDrag
		return m, nil
	}
	list, ok := m.currentList()
	if !ok {
		return m, nil
	}
	if err := m.deps.Engine.Start(dnd.List(list.ID)); err != nil {
		m.err = err
		return m, nil
	}
	m.mode = boardModeDragList
	m.dropList = m.selectedCol
	return m, nil
}

// dragged returns the id of the card being carried and its current list.
func (m BoardModel) dragged() (cardID, listID string, ok bool) {
	item, active := m.deps.Engine.Active()
	if !active || item.Kind != dnd.KindCard {
		return "", "", false
	}
	listID, ok = m.deps.Store.CardListID(item.ID)
	return item.ID, listID, ok
}

// siblingCount is how many other cards share the dragged card's list.
func (m BoardModel) siblingCount() int {
	_, listID, ok := m.dragged()
	if !ok {
		return 0
	}
	return m.deps.Store.CardCount(listID) - 1
}

func (m BoardModel) updateDragCard(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	cardID, listID, ok := m.dragged()
	if !ok {
		m.deps.Engine.Cancel()
		m.mode = boardModeNormal
		return m.afterGesture(nil)
	}

	switch msg.String() {
	case "esc", "q":
		// Dropping over nothing aborts the gesture.
		_, _ = m.deps.Engine.End(dnd.Hover{})
		m.mode = boardModeNormal
		m.focusCard(cardID)
		return m.afterGesture(nil)

	case "h", "left", "l", "right":
		lists := m.deps.Store.ListIDs()
		idx := m.deps.Store.ListIndex(listID)
		if msg.String() == "h" || msg.String() == "left" {
			idx--
		} else {
			idx++
		}
		if idx < 0 || idx >= len(lists) {
			return m, nil
		}
		if m.deps.Engine.Over(dnd.Hover{OverID: lists[idx]}) {
			m.selectedCol = idx
			m.dropSlot = m.siblingCount()
			m.reloadBoardState()
		}

	case "j", "down":
		if m.dropSlot < m.siblingCount() {
			m.dropSlot++
		}

	case "k", "up":
		if m.dropSlot > 0 {
			m.dropSlot--
		}

	case "enter", " ", "m":
		hover := operations.DropHover(m.deps.Store, cardID, listID, m.dropSlot)
		commit, err := m.deps.Engine.End(hover)
		m.mode = boardModeNormal
		if err != nil {
			m.err = err
		}
		m.focusCard(cardID)
		return m.afterGesture(commit)
	}

	return m, nil
}

func (m BoardModel) updateDragList(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	item, active := m.deps.Engine.Active()
	if !active || item.Kind != dnd.KindList {
		m.mode = boardModeNormal
		return m.afterGesture(nil)
	}
	lists := m.deps.Store.ListIDs()

	switch msg.String() {
	case "esc", "q":
		m.deps.Engine.Cancel()
		m.mode = boardModeNormal
		return m.afterGesture(nil)

	case "h", "left":
		if m.dropList > 0 {
			m.dropList--
			m.adjustHorizontalScrollPosition()
		}

	case "l", "right":
		if m.dropList < len(lists)-1 {
			m.dropList++
			m.adjustHorizontalScrollPosition()
		}

	case "enter", "M":
		if m.dropList >= len(lists) {
			m.dropList = len(lists) - 1
		}
		commit, err := m.deps.Engine.End(dnd.Hover{OverID: lists[m.dropList]})
		m.mode = boardModeNormal
		if err != nil {
			m.err = err
		}
		m.reloadBoardState()
		m.selectColumn(m.deps.Store.ListIndex(item.ID))
		return m.afterGesture(commit)
	}

	return m, nil
}

// afterGesture persists the commit, if any, and runs a reload that was held
// back while the gesture was in progress.
func (m BoardModel) afterGesture(commit *dnd.Commit) (BoardModel, tea.Cmd) {
	m.reloadBoardState()
	cmds := []tea.Cmd{m.persist(commit)}
	if m.reloadPending {
		var cmd tea.Cmd
		m, cmd = m.reload()
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}
