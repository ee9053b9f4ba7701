package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListsView ViewState = iota
	DetailView
	ConfirmDeleteView
	UpdateView
	ResultView
)

// ListStore is the subset of the lists repository the editor needs.
type ListStore interface {
	Load() (*models.ListFile, error)
	SetEnabled(id string, enabled bool) error
	Remove(id string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	store        ListStore
	updater      tasks.Updater
	width        int
	height       int
	lists        list.Model
	selected     *models.ListConfig
	progressChan chan tasks.ProgressUpdate
	waitDone     chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.RunResult
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates the list editor. updater may be nil, which disables "update now".
func NewModel(ctx context.Context, store ListStore, updater tasks.Updater) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Curated Lists"
	return &Model{
		ctx:     ctx,
		view:    ListsView,
		store:   store,
		updater: updater,
		lists:   l,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the configured lists.
func (m *Model) Init() tea.Cmd {
	return m.loadLists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lists.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListsView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case UpdateView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.lists, cmd = m.lists.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListsLoaded:
		data := msg.data.(listsLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		cmd := m.lists.SetItems(toItems(data.lists))
		return m, cmd

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgUpdateComplete:
		data := msg.data.(updateComplete)
		m.result = data.result
		m.err = data.err
		m.progressChan = nil
		m.view = ResultView
		return m, m.loadLists()
	}
	return m, nil
}

func (m *Model) current() (models.ListConfig, bool) {
	if item, ok := m.lists.SelectedItem().(listItem); ok {
		return item.cfg, true
	}
	return models.ListConfig{}, false
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lists.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.lists, cmd = m.lists.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if cfg, ok := m.current(); ok {
			m.selected = &cfg
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if cfg, ok := m.current(); ok {
			return m, m.setEnabled(cfg.ID, !cfg.Enabled)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if cfg, ok := m.current(); ok {
			m.selected = &cfg
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.run):
		if m.updater == nil {
			m.status = "Updates are not available in this session"
			return m, nil
		}
		m.view = UpdateView
		return m, m.startUpdate()
	}

	var cmd tea.Cmd
	m.lists, cmd = m.lists.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListsView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		id := m.selected.ID
		m.view = ListsView
		m.selected = nil
		return m, m.removeList(id)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = ListsView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = ListsView
		m.result = nil
		m.err = nil
	}
	return m, nil
}

func (m *Model) loadLists() tea.Cmd {
	return func() tea.Msg {
		file, err := m.store.Load()
		if err != nil {
			return listsLoadedMsg(nil, err)
		}
		return listsLoadedMsg(file.Lists, nil)
	}
}

func (m *Model) setEnabled(id string, enabled bool) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.SetEnabled(id, enabled); err != nil {
			return listsLoadedMsg(nil, err)
		}
		file, err := m.store.Load()
		if err != nil {
			return listsLoadedMsg(nil, err)
		}
		return listsLoadedMsg(file.Lists, nil)
	}
}

func (m *Model) removeList(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.Remove(id); err != nil {
			return listsLoadedMsg(nil, err)
		}
		file, err := m.store.Load()
		if err != nil {
			return listsLoadedMsg(nil, err)
		}
		return listsLoadedMsg(file.Lists, nil)
	}
}

func (m *Model) startUpdate() tea.Cmd {
	ch := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = ch
	m.progress = tasks.ProgressUpdate{Message: "Starting update..."}

	done := make(chan Msg, 1)
	go func() {
		result, err := m.updater.Update(m.ctx, ch)
		close(ch)
		done <- updateCompleteMsg(result, err)
	}()

	m.waitDone = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch, done := m.progressChan, m.waitDone
	return func() tea.Msg {
		if ch != nil {
			if update, ok := <-ch; ok {
				return progressUpdateMsg(update)
			}
		}
		return <-done
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.Err(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ListsView:
		return m.renderLists()
	case DetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirm()
	case UpdateView:
		return m.renderUpdate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderLists() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.remove, m.keys.run, m.keys.quit}
	out := fmt.Sprintf("%s\n\n%s", m.lists.View(), m.help.ShortHelpView(helpKeys))
	if m.status != "" {
		out += "\n" + styles.Warn(m.status)
	}
	return out
}

func (m *Model) renderDetail() string {
	cfg := m.selected
	var b strings.Builder
	b.WriteString(styles.Title(cfg.Title()))
	b.WriteString("\n")
	fmt.Fprintf(&b, "ID:          %s\n", cfg.ID)
	fmt.Fprintf(&b, "Base name:   %s\n", cfg.Name)
	fmt.Fprintf(&b, "Kind:        %s\n", cfg.Kind)
	fmt.Fprintf(&b, "Titles:      %d\n", cfg.TargetCount)
	fmt.Fprintf(&b, "Enabled:     %t\n", cfg.Enabled)
	if cfg.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", cfg.Description)
	}
	if cfg.PromptSuffix != "" {
		fmt.Fprintf(&b, "Extra prompt: %s\n", cfg.PromptSuffix)
	}

	sources := make([]string, 0, len(cfg.AttachedData))
	for name := range cfg.AttachedData {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	for _, name := range sources {
		src := cfg.AttachedData[name]
		kind := src.MediaKind
		if kind == "" {
			kind = "all"
		}
		fmt.Fprintf(&b, "  • %s: %d rows, %s, random=%t\n", name, src.ItemCount, kind, src.Random)
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.Title(fmt.Sprintf("Delete '%s'?", m.selected.Title()))
	info := "\nThe list is removed from the local configuration only; the remote list is kept.\n"
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderUpdate() string {
	title := styles.Title("Updating Lists")

	var phase string
	switch m.progress.Phase {
	case tasks.SyncHistory, tasks.SyncWatchlist:
		phase = fmt.Sprintf("Syncing tracker (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ProcessList, tasks.Recommend, tasks.Publish, tasks.Rename:
		phase = fmt.Sprintf("Processing lists (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Preparing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	if m.err != nil {
		return styles.Err(fmt.Sprintf("Update failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.Err("No result available") + "\n\n" + helpView
	}

	var b strings.Builder
	b.WriteString(styles.OK("✓ Update Complete"))
	fmt.Fprintf(&b, "\n\nPublished: %d  Failed: %d  Disabled: %d\n", m.result.Published(), m.result.Failed(), m.result.Disabled)
	for _, out := range m.result.Lists {
		switch out.Status {
		case tasks.StatusPublished:
			line := fmt.Sprintf("  ✓ %s (%d titles)", out.Name, out.Submitted)
			if len(out.Unresolved) > 0 {
				line += styles.Warn(fmt.Sprintf(" %d not found", len(out.Unresolved)))
			}
			b.WriteString(line + "\n")
		default:
			b.WriteString(styles.Warn(fmt.Sprintf("  ✗ %s: %v", out.Name, out.Err)) + "\n")
		}
	}
	b.WriteString("\n" + helpView)
	return b.String()
}
