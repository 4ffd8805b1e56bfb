package kanban

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nexus/internal/kanban/fs"
	"nexus/internal/kanban/models"
	"nexus/internal/kanban/operations"
	"nexus/internal/tui/theme"
)

const (
	boardHeaderLines = 3
	statusLines      = 3
	marginLines      = 2
)

func (m BoardModel) View() string {
	if m.mode == boardModeSelector && m.selector != nil {
		return m.selector.View()
	}
	if m.mode == boardModePrompt {
		return m.viewPrompt()
	}

	var s strings.Builder

	// Title
	title := m.deps.Store.Metadata().Name
	if title == "" {
		title = m.boardID
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf("Board: %s", title)))
	if m.loading {
		s.WriteString(pathStyle.Render("  loading..."))
	}
	if pending := m.deps.Engine.Pending(); pending > 0 {
		s.WriteString(pathStyle.Render(fmt.Sprintf("  saving %d move(s)", pending)))
	}
	s.WriteString("\n")

	// Filter bar
	if m.mode == boardModeFilter {
		s.WriteString("  / " + m.filterInput.View())
	} else if m.filterActive {
		s.WriteString("  " + filterIndicatorStyle.Render("Filter: "+m.filterQuery))
	}
	s.WriteString("\n")

	lists := m.deps.Store.Lists()
	if len(lists) == 0 {
		if m.loaded {
			s.WriteString(listItemStyle.Render("This board has no lists. Press N to create one."))
		}
		s.WriteString("\n")
		m.writeStatus(&s)
		return s.String()
	}

	columnHeight := m.columnHeight()

	// Render columns with fixed height and horizontal scrolling
	startCol, endCol := m.calculateVisibleColumns()
	views := []string{}

	if startCol > 0 {
		views = append(views, m.renderScrollIndicator("◀", columnHeight))
	} else {
		views = append(views, m.renderScrollIndicator(" ", columnHeight))
	}
	for i := startCol; i < endCol; i++ {
		views = append(views, m.renderColumn(i, lists[i], columnHeight))
	}
	if endCol < len(lists) {
		views = append(views, m.renderScrollIndicator("▶", columnHeight))
	} else {
		views = append(views, m.renderScrollIndicator(" ", columnHeight))
	}

	columns := lipgloss.JoinHorizontal(lipgloss.Top, views...)
	s.WriteString(lipgloss.Place(m.width, 0, lipgloss.Center, lipgloss.Top, columns))
	s.WriteString("\n")

	m.writeStatus(&s)
	return s.String()
}

func (m BoardModel) writeStatus(s *strings.Builder) {
	// Status message or error
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	} else if m.notice != "" {
		s.WriteString(warningStyle.Render(m.notice))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(successStyle.Render(m.message))
		s.WriteString("\n")
	}

	// Mode-specific help
	switch m.mode {
	case boardModeDragCard:
		s.WriteString(helpStyle.Render("h/l: carry to list • j/k: drop slot • enter: drop • esc: cancel"))
	case boardModeDragList:
		s.WriteString(helpStyle.Render("h/l: choose position • enter: drop • esc: cancel"))
	case boardModeFilter:
		s.WriteString(helpStyle.Render("type to filter • enter: lock filter • esc: cancel"))
	default:
		helpText := "hjkl: navigate • space: grab card • M: grab list • n/N: new card/list • e: title • enter: description • x: done • L: labels • a: members • /: filter • ?: help"
		if m.filterActive {
			helpText = "hjkl: navigate • enter: description • /: edit filter • esc: clear filter • q/b: back"
		}
		s.WriteString(helpStyle.Render(helpText))
	}
}

func (m BoardModel) viewPrompt() string {
	var lines []string
	lines = append(lines, promptTitleStyle.Render(m.promptKind.title()))
	lines = append(lines, "")
	lines = append(lines, m.prompt.View())
	lines = append(lines, "")
	lines = append(lines, helpStyle.Render("enter: save • esc: cancel"))
	boxed := promptBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxed)
}

func (m BoardModel) columnHeight() int {
	h := m.height - boardHeaderLines - statusLines - marginLines
	if h < 10 {
		h = 10
	}
	return h
}

// columnCards returns what a list shows. While a card is carried, its own
// list shows the other cards with the carried card at the drop slot.
func (m BoardModel) columnCards(index int, list models.List) (cards []models.Card, carried int) {
	cards = m.visibleCards(index)
	carried = -1
	if m.mode != boardModeDragCard {
		return cards, carried
	}
	cardID, listID, ok := m.dragged()
	if !ok || listID != list.ID {
		return cards, carried
	}

	var active models.Card
	others := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID == cardID {
			active = c
			continue
		}
		others = append(others, c)
	}
	slot := min(max(m.dropSlot, 0), len(others))
	cards = append(others[:slot:slot], append([]models.Card{active}, others[slot:]...)...)
	return cards, slot
}

func (m BoardModel) columnStyleFor(index int) lipgloss.Style {
	if m.mode == boardModeDragList {
		if item, ok := m.deps.Engine.Active(); ok && m.deps.Store.ListIndex(item.ID) == index {
			return draggedColumnStyle
		}
		if index == m.dropList {
			return dropColumnStyle
		}
		return columnStyle
	}
	if index == m.selectedCol {
		return selectedColumnStyle
	}
	return columnStyle
}

func (m BoardModel) renderColumn(index int, list models.List, fixedHeight int) string {
	var s strings.Builder

	// Column title
	colTitleStyle := columnTitleStyle
	if index == m.selectedCol {
		colTitleStyle = selectedColumnTitleStyle
	}
	name := list.Name
	if operations.IsProvisional(list.ID) {
		name += " …"
	}
	s.WriteString(colTitleStyle.Render(name))
	s.WriteString("\n\n")

	cards, carried := m.columnCards(index, list)
	style := m.columnStyleFor(index)

	// Handle empty column
	if len(cards) == 0 {
		s.WriteString(cardPreviewStyle.Render("(empty)"))
		s.WriteString("\n")
		return style.Height(fixedHeight).Render(s.String())
	}

	scrollOffset := 0
	if index < len(m.columnScrollOffsets) {
		scrollOffset = min(m.columnScrollOffsets[index], len(cards)-1)
	}
	if carried >= 0 && carried < scrollOffset {
		scrollOffset = carried
	}

	// Top scroll indicator (always reserve space)
	if scrollOffset > 0 {
		s.WriteString(scrollIndicatorStyle.Render(fmt.Sprintf("▲ +%d cards above", scrollOffset)))
	}
	s.WriteString("\n\n")

	availableCardSpace := fixedHeight - 8

	var cardBuilder strings.Builder
	cardsRendered := 0
	currentCardHeight := 0

	for i := scrollOffset; i < len(cards); i++ {
		cardView := m.renderCard(index, i, cards[i], i == carried)
		cardHeight := lipgloss.Height(cardView)

		if cardsRendered > 0 && currentCardHeight+cardHeight > availableCardSpace {
			break
		}

		cardBuilder.WriteString(cardView)
		cardBuilder.WriteString("\n")
		cardsRendered++
		currentCardHeight += cardHeight
	}
	s.WriteString(cardBuilder.String())

	if below := len(cards) - scrollOffset - cardsRendered; below > 0 {
		s.WriteString(scrollIndicatorStyle.Render(fmt.Sprintf("▼ +%d cards below", below)))
	}

	return style.Height(fixedHeight).Render(s.String())
}

// truncate cuts s to width runes, ending in "..." when cut.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width || width < 4 {
		return s
	}
	return string(r[:width-3]) + "..."
}

func (m BoardModel) renderCard(colIndex, cardIndex int, card models.Card, carried bool) string {
	maxWidth := columnWidth - (2 * columnPaddingHorizontal) - cardBorderWidth - (2 * cardPaddingHorizontal)

	var lines []string

	// Title, with a check mark for completed cards
	title := card.Title
	ts := cardTitleStyle
	if card.Completed {
		title = "✓ " + title
		ts = theme.Done
	}
	if carried {
		lines = append(lines, dropMarkerStyle.Render("▸ drop here"))
	}
	lines = append(lines, ts.Render(truncate(title, maxWidth)))

	if preview := fs.Preview(card.Description); preview != "" {
		lines = append(lines, cardPreviewStyle.Render(truncate(preview, maxWidth)))
	}

	if len(card.Labels) > 0 {
		chips := make([]string, len(card.Labels))
		for i, l := range card.Labels {
			chips[i] = labelStyle(l.Color).Render("#" + l.Name)
		}
		lines = append(lines, strings.Join(chips, " "))
	}

	var meta []string
	if done, total := card.ChecklistProgress(); total > 0 {
		meta = append(meta, fmt.Sprintf("☑ %d/%d", done, total))
	}
	if len(card.MemberIDs) > 0 {
		board := m.deps.Store.Metadata()
		var names []string
		for _, id := range card.MemberIDs {
			if u := board.GetMember(id); u != nil && u.Username != "" {
				names = append(names, "@"+u.Username)
			}
		}
		if len(names) > 0 {
			meta = append(meta, strings.Join(names, " "))
		}
	}
	if len(meta) > 0 {
		lines = append(lines, cardMemberStyle.Render(truncate(strings.Join(meta, "  "), maxWidth)))
	}

	content := strings.Join(lines, "\n")

	style := cardStyle
	switch {
	case carried:
		style = moveSelectedCardStyle
	case m.mode != boardModeDragCard && colIndex == m.selectedCol && cardIndex == m.selectedCard:
		style = selectedCardStyle
	}

	return style.Render(content)
}

// adjustScrollPosition ensures the selected card is visible by adjusting scroll offset
func (m *BoardModel) adjustScrollPosition() {
	if m.selectedCol >= len(m.columnScrollOffsets) {
		return
	}

	cards := m.visibleCards(m.selectedCol)
	if len(cards) == 0 {
		m.columnScrollOffsets[m.selectedCol] = 0
		return
	}

	availableCardHeight := m.columnHeight() - 8
	scrollOffset := m.columnScrollOffsets[m.selectedCol]

	if m.selectedCard < scrollOffset {
		m.columnScrollOffsets[m.selectedCol] = m.selectedCard
	} else {
		visibleCards := 0
		accumulatedHeight := 0

		for i := scrollOffset; i < len(cards); i++ {
			cardHeight := lipgloss.Height(m.renderCard(m.selectedCol, i, cards[i], false))
			if visibleCards > 0 && accumulatedHeight+cardHeight > availableCardHeight {
				break
			}
			accumulatedHeight += cardHeight
			visibleCards++
		}

		if visibleCards < 1 {
			visibleCards = 1
		}

		if m.selectedCard >= scrollOffset+visibleCards {
			m.columnScrollOffsets[m.selectedCol] = m.selectedCard - visibleCards + 1
		}
	}

	m.columnScrollOffsets[m.selectedCol] = min(max(m.columnScrollOffsets[m.selectedCol], 0), len(cards)-1)
}

// calculateVisibleColumns determines which lists fit in terminal width
func (m *BoardModel) calculateVisibleColumns() (startCol, endCol int) {
	columnTotalWidth := 46
	indicatorWidth := 5
	n := len(m.deps.Store.Lists())

	startCol = m.columnHorizontalOffset
	visibleCount := max((m.width-2*indicatorWidth)/columnTotalWidth, 1)

	endCol = min(startCol+visibleCount, n)
	if endCol <= startCol && n > 0 {
		endCol = startCol + 1
	}
	return startCol, endCol
}

// renderScrollIndicator renders ◀ and ▶ indicators for horizontal scrolling
func (m *BoardModel) renderScrollIndicator(symbol string, height int) string {
	indicator := lipgloss.NewStyle().Foreground(theme.Warning).Bold(true).Render(symbol)
	return lipgloss.NewStyle().
		Width(3).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(indicator)
}

// adjustHorizontalScrollPosition keeps the selected list, or the drop target
// of a dragged list, on screen
func (m *BoardModel) adjustHorizontalScrollPosition() {
	if len(m.deps.Store.Lists()) == 0 {
		return
	}
	focus := m.selectedCol
	if m.mode == boardModeDragList {
		focus = m.dropList
	}

	startCol, endCol := m.calculateVisibleColumns()
	if focus < startCol {
		m.columnHorizontalOffset = focus
		return
	}
	if focus >= endCol {
		m.columnHorizontalOffset = max(focus-(endCol-startCol)+1, 0)
	}
}
