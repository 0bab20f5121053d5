package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/storyworld/internal/session"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	backend Backend
	lang    string

	logViewport  viewport.Model
	metaViewport viewport.Model
	events       list.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Story selection state
	showStoryModal bool
	stories        []session.StoryInfo
	selectedStory  int

	snapshot *session.Snapshot
	entries  []logEntry
	status   string
}

type entryKind int

const (
	entryTitle entryKind = iota
	entryAction
	entrySuccess
	entryFail
	entryError
)

type logEntry struct {
	kind entryKind
	text string
}

// offerItem adapts an offered event to the list component.
type offerItem struct {
	offer session.Offer
}

func (i offerItem) Title() string       { return i.offer.Text }
func (i offerItem) Description() string { return string(i.offer.Event) }
func (i offerItem) FilterValue() string { return i.offer.Text }

type storiesLoadedMsg struct {
	stories []session.StoryInfo
	err     error
}

type worldMsg struct {
	snapshot *session.Snapshot
	reset    bool
	err      error
}

type offersMsg struct {
	offers []session.Offer
	err    error
}

type outcomeMsg struct {
	action  string
	outcome *session.Outcome
	err     error
}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(backend Backend, lang string) ConsoleUI {
	events := list.New(nil, list.NewDefaultDelegate(), 50, 10)
	events.Title = "What happens next?"
	events.SetShowHelp(false)
	events.SetShowStatusBar(false)
	events.SetFilteringEnabled(false)

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		backend:        backend,
		lang:           lang,
		logViewport:    logVp,
		metaViewport:   viewport.New(20, 20),
		events:         events,
		showStoryModal: true,
		loading:        true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadStories()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case storiesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.stories = msg.stories
		return m, nil

	case worldMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry(entryError, "Error: "+msg.err.Error())
			return m, nil
		}
		m.showStoryModal = false
		m.snapshot = msg.snapshot
		if msg.reset {
			m.entries = nil
		}
		m.addEntry(entryTitle, msg.snapshot.Description)
		m.layout()
		return m, m.loadOffers()

	case offersMsg:
		if msg.err != nil {
			m.addEntry(entryError, "Error: "+msg.err.Error())
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.offers))
		for _, o := range msg.offers {
			items = append(items, offerItem{offer: o})
		}
		return m, m.events.SetItems(items)

	case outcomeMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry(entryError, "Error: "+msg.err.Error())
			return m, m.loadOffers()
		}
		m.addEntry(entryAction, msg.action)
		if msg.outcome.Triggered {
			m.addEntry(entrySuccess, msg.outcome.Text)
		} else {
			m.addEntry(entryFail, msg.outcome.Text)
		}
		prevFinished := m.snapshot != nil && m.snapshot.Finished
		snap := msg.outcome.Snapshot
		m.snapshot = &snap
		if snap.Finished && !prevFinished {
			m.addEntry(entryTitle, snap.Description)
		}
		m.refreshMeta()
		return m, m.loadOffers()

	case tea.KeyMsg:
		if m.showStoryModal {
			return m.updateStoryModal(msg)
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.resetWorld()
		case tea.KeyCtrlY:
			m.copyWorld()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			item, ok := m.events.SelectedItem().(offerItem)
			if !ok {
				return m, nil
			}
			m.loading = true
			m.status = ""
			return m, m.trigger(item.offer)
		}
		var cmd tea.Cmd
		m.events, cmd = m.events.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateStoryModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if m.selectedStory > 0 {
			m.selectedStory--
		}
	case tea.KeyDown:
		if m.selectedStory < len(m.stories)-1 {
			m.selectedStory++
		}
	case tea.KeyEnter:
		if m.loading || len(m.stories) == 0 {
			return m, nil
		}
		m.loading = true
		return m, m.createWorld(m.stories[m.selectedStory].Name)
	}
	return m, nil
}

func (m *ConsoleUI) layout() {
	if m.width == 0 {
		return
	}
	mainWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - mainWidth - 6
	listHeight := min(12, m.height/3)

	m.logViewport.Width = mainWidth - 3
	m.logViewport.Height = max(3, m.height-listHeight-3)
	m.metaViewport.Width = max(10, metaWidth)
	m.metaViewport.Height = m.height - 2
	m.events.SetSize(mainWidth, listHeight)

	m.writeLog()
	m.refreshMeta()
}

func (m *ConsoleUI) addEntry(kind entryKind, text string) {
	m.entries = append(m.entries, logEntry{kind: kind, text: text})
	m.writeLog()
}

// writeLog rebuilds the story log for the current viewport width
func (m *ConsoleUI) writeLog() {
	width := max(10, m.logViewport.Width-2)
	var content strings.Builder
	for _, e := range m.entries {
		content.WriteString(renderEntry(e, width))
		content.WriteString("\n\n")
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func renderEntry(e logEntry, width int) string {
	switch e.kind {
	case entryTitle:
		rule := separatorStyle.Render(strings.Repeat("─", width))
		return titleStyle.Render(wordwrap.String(e.text, width)) + "\n" + rule
	case entryAction:
		return actionStyle.Render("> " + wordwrap.String(e.text, width-2))
	case entrySuccess:
		return successStyle.Render(wordwrap.String(e.text, width))
	case entryFail:
		return failStyle.Render(wordwrap.String(e.text, width))
	default:
		return errorStyle.Render(wordwrap.String(e.text, width))
	}
}

func (m *ConsoleUI) refreshMeta() {
	m.metaViewport.SetContent(writeMetadata(m.snapshot, m.metaViewport.Width))
}

func writeMetadata(snap *session.Snapshot, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("WORLD") + "\n\n")
	if snap == nil {
		return content.String()
	}

	content.WriteString("World ID:\n")
	content.WriteString(snap.ID.String()[:8] + "...\n\n")
	content.WriteString("Story:\n" + snap.Story + "\n\n")
	content.WriteString("Language:\n" + snap.Lang + "\n\n")
	content.WriteString(fmt.Sprintf("Events:\n%d so far\n\n", snap.EventCount))
	if snap.Finished {
		content.WriteString(successStyle.Render("Finished") + "\n\n")
	}
	content.WriteString(wordwrap.String(snap.Description, width) + "\n\n")

	content.WriteString("Commands:\n")
	content.WriteString("• ↑/↓: Choose\n")
	content.WriteString("• Enter: Play\n")
	content.WriteString("• Ctrl+R: Restart\n")
	content.WriteString("• Ctrl+Y: Copy world\n")
	content.WriteString("• Esc: Quit\n")
	return content.String()
}

// copyWorld puts the pretty-printed world dump on the system clipboard.
func (m *ConsoleUI) copyWorld() {
	if m.snapshot == nil {
		return
	}
	var pretty strings.Builder
	var v any
	if err := json.Unmarshal(m.snapshot.World, &v); err == nil {
		enc := json.NewEncoder(&pretty)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
	} else {
		pretty.Write(m.snapshot.World)
	}
	if err := clipboard.WriteAll(pretty.String()); err != nil {
		m.status = "Copy failed: " + err.Error()
		return
	}
	m.status = "World copied to clipboard."
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showStoryModal {
		return m.renderStoryModal()
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		logPanelStyle.Render(m.logViewport.View()),
		m.events.View(),
		statusStyle.Render(m.status),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, metaPanelStyle.Render(m.metaViewport.View()))
}

func (m ConsoleUI) renderStoryModal() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("Choose a story") + "\n\n")
	switch {
	case m.err != nil:
		content.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.loading && len(m.stories) == 0:
		content.WriteString("Loading stories...")
	default:
		for i, s := range m.stories {
			line := fmt.Sprintf("%d. %s", i+1, s.Title)
			if i == m.selectedStory {
				line = modalSelectedItemStyle.Render(line)
			}
			content.WriteString(line + "\n")
		}
		if len(m.entries) > 0 {
			content.WriteString("\n" + renderEntry(m.entries[len(m.entries)-1], 40))
		}
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content.String()))
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		stories, err := m.backend.Stories(m.lang)
		return storiesLoadedMsg{stories: stories, err: err}
	}
}

func (m ConsoleUI) createWorld(story string) tea.Cmd {
	return func() tea.Msg {
		snap, err := m.backend.Create(story, m.lang)
		return worldMsg{snapshot: snap, err: err}
	}
}

func (m ConsoleUI) resetWorld() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.backend.Reset()
		return worldMsg{snapshot: snap, reset: true, err: err}
	}
}

func (m ConsoleUI) loadOffers() tea.Cmd {
	return func() tea.Msg {
		offers, err := m.backend.Available()
		return offersMsg{offers: offers, err: err}
	}
}

func (m ConsoleUI) trigger(o session.Offer) tea.Cmd {
	return func() tea.Msg {
		out, err := m.backend.Trigger(o.Event)
		return outcomeMsg{action: o.Text, outcome: out, err: err}
	}
}
