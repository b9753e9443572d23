package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/pkg/browser"
	"github.com/sahilm/fuzzy"

	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/mutate"
	"github.com/boardmd/boardmd/internal/settings"
	"github.com/boardmd/boardmd/internal/vault"
)

// Layout constants
const (
	minLaneWidth = 20
	maxLaneWidth = 35
	pageJumpSize = 10 // Number of cards to jump with Ctrl+D/U
)

// newHelp configures the bubbles help component to show the full key
// reference rather than the one-line short view.
func newHelp() help.Model {
	h := help.New()
	h.ShowAll = true
	return h
}

// BoardModel is the interactive view of one board document. All writes
// go through the vault's serialized update path and trigger a reload,
// so the view never drifts from the file.
type BoardModel struct {
	// Dependencies
	vault *vault.Vault
	path  string
	ctx   context.Context

	// UI components
	keymap      KeyMap
	help        help.Model
	filterInput textinput.Model

	// Board state
	board    *domain.Board
	eff      settings.Settings
	filtered [][]int // Lane index -> visible card indices

	selectedLane int
	laneOffset   int         // Horizontal scroll (first visible lane)
	selectedCard map[int]int // Lane index -> selected position in filtered
	scrollOffset map[int]int // Lane index -> vertical scroll offset

	// View state
	width      int
	height     int
	showHelp   bool
	filterMode bool
	filterText string
	moveMode   bool
	loading    bool
	errorToast string
}

// NewBoardModel creates a board model for one document path.
func NewBoardModel(ctx context.Context, v *vault.Vault, path string) BoardModel {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	return BoardModel{
		vault:        v,
		path:         path,
		ctx:          ctx,
		keymap:       DefaultKeyMap(),
		help:         newHelp(),
		filterInput:  ti,
		selectedCard: make(map[int]int),
		scrollOffset: make(map[int]int),
		loading:      true,
	}
}

// Init loads the document.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), m.loadBoard())
}

// loadBoard reads and parses the document off the UI loop.
func (m BoardModel) loadBoard() tea.Cmd {
	return func() tea.Msg {
		b, eff, err := m.vault.Load(m.ctx, m.path)
		return boardLoadedMsg{board: b, eff: eff, err: err}
	}
}

// Update handles messages.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errorToast = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}
		m.board = msg.board
		m.eff = msg.eff
		(&m).applyFilter()
		return m, nil

	case mutationDoneMsg:
		m.moveMode = false
		if msg.err != nil {
			m.errorToast = fmt.Sprintf("Edit failed: %v", msg.err)
		} else {
			m.errorToast = ""
		}
		// Reload either way so the view reflects the file.
		return m, m.loadBoard()

	case ErrorMsg:
		m.errorToast = msg.Err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			(&m).applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	// Move mode
	if m.moveMode {
		return m.handleMoveMode(msg)
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
	case "h", "left":
		if m.selectedLane > 0 {
			m.selectedLane--
			(&m).adjustLaneScroll()
		}
	case "l", "right":
		if m.selectedLane < m.laneCount()-1 {
			m.selectedLane++
			(&m).adjustLaneScroll()
		}
	case "j", "down":
		(&m).moveCardSelection(1)
	case "k", "up":
		(&m).moveCardSelection(-1)
	case "g":
		(&m).jumpToCard(0)
	case "G":
		(&m).jumpToCard(-1)
	case "ctrl+d":
		(&m).moveCardSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveCardSelection(-pageJumpSize)
	case "x":
		return m, m.toggleChecked()
	case "p":
		return m, m.cyclePriority()
	case "a":
		return m, m.archiveCard()
	case "m":
		if m.getSelectedCard() != nil {
			m.moveMode = true
		}
	case "o":
		m.openLinkedFile()
	case "r":
		m.loading = true
		return m, m.loadBoard()
	}

	return m, nil
}

// handleMoveMode handles key presses in move mode.
func (m BoardModel) handleMoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.moveMode = false
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < m.laneCount() {
			return m, m.moveCardTo(idx)
		}
	}
	return m, nil
}

// --- mutations ---

// mutation runs a text transformation through the vault and reports the
// outcome; the board reloads on mutationDoneMsg.
func (m BoardModel) mutation(fn func(text string) (string, error)) tea.Cmd {
	return func() tea.Msg {
		err := m.vault.Update(m.ctx, m.path, fn)
		return mutationDoneMsg{err: err}
	}
}

func (m BoardModel) toggleChecked() tea.Cmd {
	card := m.getSelectedCard()
	if card == nil || card.CheckChar == "" {
		return nil
	}
	ref := mutate.RefFor(card)
	checked := !card.Checked
	eff := m.eff
	return m.mutation(func(text string) (string, error) {
		return mutate.SetChecked(text, ref, eff, checked)
	})
}

func (m BoardModel) cyclePriority() tea.Cmd {
	card := m.getSelectedCard()
	if card == nil {
		return nil
	}
	ref := mutate.RefFor(card)
	next := nextPriority(card.Metadata.Priority)
	eff := m.eff
	return m.mutation(func(text string) (string, error) {
		return mutate.SetPriority(text, ref, eff, next)
	})
}

func nextPriority(p domain.Priority) domain.Priority {
	switch p {
	case domain.PriorityNone:
		return domain.PriorityHigh
	case domain.PriorityHigh:
		return domain.PriorityMedium
	case domain.PriorityMedium:
		return domain.PriorityLow
	}
	return domain.PriorityNone
}

func (m BoardModel) archiveCard() tea.Cmd {
	card := m.getSelectedCard()
	if card == nil {
		return nil
	}
	ref := mutate.RefFor(card)
	parser := m.vault.Parser
	return m.mutation(func(text string) (string, error) {
		return mutate.ArchiveCard(parser, text, ref)
	})
}

func (m BoardModel) moveCardTo(laneIdx int) tea.Cmd {
	card := m.getSelectedCard()
	if card == nil || m.board == nil || laneIdx >= len(m.board.Lanes) {
		return nil
	}
	ref := mutate.RefFor(card)
	laneID := m.board.Lanes[laneIdx].ID
	parser := m.vault.Parser
	return m.mutation(func(text string) (string, error) {
		return mutate.MoveToLane(parser, text, ref, laneID)
	})
}

// openLinkedFile opens the selected card's linked file or URL.
func (m BoardModel) openLinkedFile() {
	card := m.getSelectedCard()
	if card == nil || card.Metadata.File == nil {
		return
	}
	target := card.Metadata.File.Target
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		_ = browser.OpenURL(target)
		return
	}
	if dh, ok := m.vault.Host.(*vault.DirHost); ok {
		if filepath.Ext(target) == "" {
			target += ".md"
		}
		_ = browser.OpenFile(filepath.Join(dh.Root, filepath.FromSlash(target)))
	}
}

// --- selection and filtering ---

func (m BoardModel) laneCount() int {
	if m.board == nil {
		return 0
	}
	return len(m.board.Lanes)
}

// getSelectedCard returns the card under the cursor, or nil.
func (m BoardModel) getSelectedCard() *domain.Card {
	if m.board == nil || m.selectedLane >= len(m.board.Lanes) {
		return nil
	}
	visible := m.filtered[m.selectedLane]
	pos := m.selectedCard[m.selectedLane]
	if pos < 0 || pos >= len(visible) {
		return nil
	}
	return m.board.Lanes[m.selectedLane].Cards[visible[pos]]
}

// applyFilter recomputes the visible card indices per lane. The filter
// is a fuzzy match over the card's searchable text.
func (m *BoardModel) applyFilter() {
	if m.board == nil {
		m.filtered = nil
		return
	}
	m.filtered = make([][]int, len(m.board.Lanes))
	for li, lane := range m.board.Lanes {
		if m.filterText == "" {
			all := make([]int, len(lane.Cards))
			for i := range lane.Cards {
				all[i] = i
			}
			m.filtered[li] = all
			continue
		}
		hay := make([]string, len(lane.Cards))
		for i, c := range lane.Cards {
			hay[i] = c.DisplayTitle + " " + c.TitleSearch
		}
		var keep []int
		for _, match := range fuzzy.Find(m.filterText, hay) {
			keep = append(keep, match.Index)
		}
		sort.Ints(keep) // Back to document order
		m.filtered[li] = keep
	}

	if m.selectedLane >= len(m.board.Lanes) {
		m.selectedLane = 0
	}
	for li := range m.filtered {
		m.scrollOffset[li] = 0
		if m.selectedCard[li] >= len(m.filtered[li]) {
			if n := len(m.filtered[li]); n > 0 {
				m.selectedCard[li] = n - 1
			} else {
				m.selectedCard[li] = 0
			}
		}
	}
}

// moveCardSelection moves the card cursor up or down by delta.
func (m *BoardModel) moveCardSelection(delta int) {
	if m.laneCount() == 0 {
		return
	}
	visible := m.filtered[m.selectedLane]
	if len(visible) == 0 {
		return
	}
	idx := m.selectedCard[m.selectedLane] + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(visible) {
		idx = len(visible) - 1
	}
	m.selectedCard[m.selectedLane] = idx
	m.adjustCardScroll()
}

// jumpToCard jumps to an absolute position; -1 means the last card.
func (m *BoardModel) jumpToCard(pos int) {
	if m.laneCount() == 0 {
		return
	}
	visible := m.filtered[m.selectedLane]
	if len(visible) == 0 {
		return
	}
	if pos < 0 || pos >= len(visible) {
		pos = len(visible) - 1
	}
	m.selectedCard[m.selectedLane] = pos
	m.adjustCardScroll()
}

// adjustCardScroll keeps the selected card inside the visible window.
func (m *BoardModel) adjustCardScroll() {
	slots := m.cardSlots()
	idx := m.selectedCard[m.selectedLane]
	off := m.scrollOffset[m.selectedLane]
	if idx < off {
		off = idx
	}
	if idx >= off+slots {
		off = idx - slots + 1
	}
	if off < 0 {
		off = 0
	}
	m.scrollOffset[m.selectedLane] = off
}

// adjustLaneScroll keeps the selected lane inside the visible carousel.
func (m *BoardModel) adjustLaneScroll() {
	visible := m.visibleLanes()
	if m.selectedLane < m.laneOffset {
		m.laneOffset = m.selectedLane
	}
	if m.selectedLane >= m.laneOffset+visible {
		m.laneOffset = m.selectedLane - visible + 1
	}
	if m.laneOffset < 0 {
		m.laneOffset = 0
	}
}

func (m BoardModel) visibleLanes() int {
	width := m.width
	if width == 0 {
		width = 80
	}
	n := width / minLaneWidth
	if n < 1 {
		n = 1
	}
	if c := m.laneCount(); n > c && c > 0 {
		n = c
	}
	return n
}

// cardSlots is how many card lines fit in a lane column.
func (m BoardModel) cardSlots() int {
	height := m.height
	if height == 0 {
		height = 24
	}
	// header(1) + second header(1) + lane border(2) + lane header(1)
	slots := height - 5
	if slots < 1 {
		slots = 1
	}
	return slots
}

// --- rendering ---

// View renders the board, filling the terminal exactly.
func (m BoardModel) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, m.renderSecondHeader(width))

	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}
	if m.moveMode {
		moveBar := moveModeStyle.Render("MOVE") + " Press 1-9 to select lane, ESC to cancel"
		sections = append(sections, moveBar)
	}

	boardHeight := height - 2
	if m.filterMode {
		boardHeight--
	}
	if m.moveMode {
		boardHeight--
	}
	if boardHeight < 5 {
		boardHeight = 5
	}

	var mainContent string
	switch {
	case m.showHelp:
		helpLines := strings.Split(m.renderHelp(width), "\n")
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	case m.loading:
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, "Loading...")
	case m.laneCount() == 0:
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center,
			"No lanes in this document.")
	default:
		mainContent = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line: document path left, status right.
// renderHelp renders the full key reference inside a bordered overlay.
func (m BoardModel) renderHelp(width int) string {
	m.help.Width = width - 8 // Room for the overlay padding and border
	return helpOverlayStyle.Render(m.help.View(m.keymap))
}

func (m BoardModel) renderHeader(width int) string {
	title := m.path

	var statusParts []string
	total := 0
	for _, visible := range m.filtered {
		total += len(visible)
	}
	statusParts = append(statusParts, fmt.Sprintf("%d cards", total))
	if m.board != nil && len(m.board.Archive) > 0 {
		statusParts = append(statusParts, fmt.Sprintf("%d archived", len(m.board.Archive)))
	}
	if m.filterText != "" {
		statusParts = append(statusParts, "/"+m.filterText)
	}
	statusParts = append(statusParts, "[?]help")
	status := strings.Join(statusParts, " | ")

	padding := width - len(title) - len(status) - 2
	if padding < 1 {
		padding = 1
	}
	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderSecondHeader renders navigation hints and position info.
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:lane j/k:card x:check p:priority m:move a:archive"

	right := ""
	if m.errorToast != "" {
		right = errorStyle.Render(m.errorToast)
	} else if m.laneCount() > 0 {
		lanePos := fmt.Sprintf("lane %d/%d", m.selectedLane+1, m.laneCount())
		if visible := m.filtered[m.selectedLane]; len(visible) > 0 {
			right = fmt.Sprintf("%s | card %d/%d", lanePos, m.selectedCard[m.selectedLane]+1, len(visible))
		} else {
			right = lanePos
		}
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderBoard renders the lane columns with horizontal carousel
// scrolling when lanes overflow the terminal.
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	numLanes := m.laneCount()
	colContentHeight := totalHeight - 2
	if colContentHeight < 3 {
		colContentHeight = 3
	}

	visibleLanes := m.visibleLanes()
	colWidth := totalWidth / visibleLanes
	if colWidth > maxLaneWidth {
		colWidth = maxLaneWidth
	}
	if colWidth < minLaneWidth {
		colWidth = minLaneWidth
	}
	innerWidth := colWidth - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	startLane := m.laneOffset
	endLane := startLane + visibleLanes
	if endLane > numLanes {
		endLane = numLanes
		startLane = endLane - visibleLanes
		if startLane < 0 {
			startLane = 0
		}
	}

	laneViews := make([]string, 0, visibleLanes+2)
	if startLane > 0 {
		laneViews = append(laneViews, m.scrollIndicator("◀", colContentHeight))
	}
	for i := startLane; i < endLane; i++ {
		laneViews = append(laneViews, m.renderLane(i, colWidth, colContentHeight, innerWidth))
	}
	if endLane < numLanes {
		laneViews = append(laneViews, m.scrollIndicator("▶", colContentHeight))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, laneViews...)
}

func (m BoardModel) scrollIndicator(glyph string, contentHeight int) string {
	return lipgloss.NewStyle().
		Width(2).
		Height(contentHeight + 2).
		Foreground(lipgloss.Color("205")).
		Align(lipgloss.Center, lipgloss.Center).
		Render(glyph)
}

// renderLane renders a single lane column.
func (m BoardModel) renderLane(laneIdx, width, innerHeight, innerWidth int) string {
	lane := m.board.Lanes[laneIdx]
	visible := m.filtered[laneIdx]
	selected := laneIdx == m.selectedLane

	// Header: [N] Title (count) or (count/limit)
	count := fmt.Sprintf("%d", len(visible))
	if lane.MaxItems > 0 {
		count = fmt.Sprintf("%d/%d", len(visible), lane.MaxItems)
	}
	headerText := fmt.Sprintf("[%d] %s (%s)", laneIdx+1, lane.Title, count)
	headerText = string(truncate.StringWithTail(headerText, uint(innerWidth), "…"))

	headerStyle := laneHeaderStyle
	if lane.MaxItems > 0 && len(lane.Cards) > lane.MaxItems {
		headerStyle = overLimitStyle
	}

	scrollOffset := m.scrollOffset[laneIdx]
	selectedIdx := m.selectedCard[laneIdx]

	cardSlots := innerHeight - 1
	if cardSlots < 1 {
		cardSlots = 1
	}
	availableSlots := cardSlots
	needUp := scrollOffset > 0
	if needUp {
		availableSlots--
	}
	endIdx := scrollOffset + availableSlots
	if endIdx < len(visible) {
		availableSlots--
		endIdx = scrollOffset + availableSlots
	}
	if endIdx > len(visible) {
		endIdx = len(visible)
	}

	var lines []string
	lines = append(lines, headerStyle.Render(headerText))
	if needUp {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}
	for i := scrollOffset; i < endIdx; i++ {
		card := lane.Cards[visible[i]]
		cardText := formatCardText(card, innerWidth-2)
		switch {
		case selected && i == selectedIdx:
			lines = append(lines, selectedCardStyle.Render("> "+cardText))
		case card.Checked:
			lines = append(lines, doneCardStyle.Render("  "+cardText))
		default:
			lines = append(lines, cardStyle.Render("  "+cardText))
		}
	}
	if remaining := len(visible) - endIdx; remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(visible) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}
	colStyle := lipgloss.NewStyle().
		Width(width - 2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(strings.Join(lines, "\n"))
}

// formatCardText formats one card line: checkbox marker, title, and a
// right-aligned metadata suffix.
func formatCardText(card *domain.Card, maxWidth int) string {
	title := card.DisplayTitle
	if card.CheckChar != "" {
		title = "[" + card.CheckChar + "] " + title
	}

	suffix := cardSuffix(card)
	if suffix == "" {
		return string(truncate.StringWithTail(title, uint(maxWidth), "…"))
	}

	availableForTitle := maxWidth - len(suffix) - 1
	if availableForTitle < 5 {
		availableForTitle = 5
	}
	title = string(truncate.StringWithTail(title, uint(availableForTitle), "…"))

	padding := maxWidth - lipgloss.Width(title) - len(suffix)
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

// cardSuffix picks the most useful metadata marker: priority first,
// then the due date.
func cardSuffix(card *domain.Card) string {
	if p := card.Metadata.Priority; p != domain.PriorityNone {
		return "!" + string(p)
	}
	if card.Metadata.DateStr != "" {
		return card.Metadata.DateStr
	}
	return ""
}
