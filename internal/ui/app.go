// Package ui provides the Bubble Tea front end for thingscout.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbeke/thingscout/internal/browse"
	"github.com/tbeke/thingscout/internal/thingiverse"
)

// Mode is the current input mode.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeDetail
	ModeSearch
	ModeSettings
)

// Options configure the UI.
type Options struct {
	Service *browse.Service
}

// Model is the root application state for Bubble Tea. It mirrors the
// observable properties of the browse service and refreshes them whenever
// a service event arrives.
type Model struct {
	service *browse.Service

	// UI state
	mode        Mode
	width       int
	height      int
	cursor      int
	fileCursor  int
	collections bool // current listing shows collections, not things
	spin        spinner.Model
	input       textinput.Model
	errText     string

	// Mirrored service state
	message        string
	userName       string
	things         []thingiverse.Thing
	fromCollection bool
	querying       bool
	downloading    bool
	activeThing    thingiverse.Thing
	hasActiveThing bool
	activeFiles    []thingiverse.ThingFile
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	input := textinput.New()
	input.CharLimit = 120
	input.Width = 40

	return Model{
		service:  opts.Service,
		spin:     sp,
		input:    input,
		mode:     ModeBrowse,
		userName: opts.Service.UserName(),
		message:  opts.Service.Message(),
	}
}

// eventMsg wraps a browse service notification.
type eventMsg browse.Event

func waitEventCmd(events <-chan browse.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return eventMsg(e)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spin.Tick,
		waitEventCmd(m.service.Events()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		return m.handleEvent(browse.Event(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleEvent refreshes the mirrored state slice the notification names.
func (m Model) handleEvent(e browse.Event) (tea.Model, tea.Cmd) {
	switch e.Kind {
	case browse.EventMessage:
		m.message = m.service.Message()

	case browse.EventThings:
		m.things = m.service.Things()
		if m.cursor >= len(m.things) {
			m.cursor = 0
		}

	case browse.EventFromCollection:
		m.fromCollection = m.service.IsFromCollection()

	case browse.EventUserName:
		m.userName = m.service.UserName()

	case browse.EventQuerying:
		m.querying = m.service.IsQuerying()

	case browse.EventActiveThing:
		m.activeThing, m.hasActiveThing = m.service.ActiveThing()
		if m.hasActiveThing {
			m.mode = ModeDetail
		} else if m.mode == ModeDetail {
			m.mode = ModeBrowse
		}

	case browse.EventActiveThingFiles:
		m.activeFiles = m.service.ActiveThingFiles()
		if m.fileCursor >= len(m.activeFiles) {
			m.fileCursor = 0
		}

	case browse.EventDownloading:
		m.downloading = m.service.IsDownloading()

	case browse.EventError:
		if e.Err != nil {
			m.errText = e.Err.Error()
		}

	case browse.EventSettingsRequested:
		m.enterSettings()
	}

	return m, waitEventCmd(m.service.Events())
}

func (m *Model) enterSettings() {
	m.mode = ModeSettings
	m.input.SetValue(m.userName)
	m.input.Prompt = "user name: "
	m.input.Focus()
}

func (m *Model) enterSearch() {
	m.mode = ModeSearch
	m.input.SetValue("")
	m.input.Prompt = "search: "
	m.input.Focus()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any keypress clears a pending error banner.
	m.errText = ""

	switch m.mode {
	case ModeSearch, ModeSettings:
		return m.handleInputKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "/":
		m.enterSearch()
		return m, textinput.Blink

	case "s":
		m.enterSettings()
		return m, textinput.Blink

	case "1":
		m.collections = false
		m.service.GetPopular()
	case "2":
		m.collections = false
		m.service.GetFeatured()
	case "3":
		m.collections = false
		m.service.GetNewest()
	case "4":
		m.collections = false
		m.service.GetLiked()
	case "5":
		m.collections = true
		m.service.GetCollections()
	case "6":
		m.collections = false
		m.service.GetMyThings()
	case "7":
		m.collections = false
		m.service.GetMakes()

	case "m":
		m.service.AddPage()

	case "j", "down":
		if m.cursor < len(m.things)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if len(m.things) > 0 {
			m.cursor = len(m.things) - 1
		}

	case "enter":
		if m.cursor >= len(m.things) {
			break
		}
		selected := m.things[m.cursor]
		if m.collections {
			m.collections = false
			m.service.ShowCollectionDetails(selected.ID)
		} else {
			m.fileCursor = 0
			m.service.ShowThingDetails(selected.ID)
		}
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc", "q":
		m.service.HideThingDetails()

	case "j", "down":
		if m.fileCursor < len(m.activeFiles)-1 {
			m.fileCursor++
		}
	case "k", "up":
		if m.fileCursor > 0 {
			m.fileCursor--
		}

	case "d", "enter":
		if m.fileCursor < len(m.activeFiles) && !m.downloading {
			file := m.activeFiles[m.fileCursor]
			m.service.DownloadThingFile(file.ID, file.Name)
		}
	}

	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.mode = ModeBrowse
		m.input.Blur()
		return m, nil

	case "enter":
		value := m.input.Value()
		mode := m.mode
		m.mode = ModeBrowse
		m.input.Blur()
		switch mode {
		case ModeSearch:
			if value != "" {
				m.collections = false
				m.service.Search(value)
			}
		case ModeSettings:
			m.service.SetSetting(browse.SettingUserName, value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
