// Package tui is the terminal front-end: a group-tabbed library browser
// with playback, search, shortcut recording, and toasts.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rbright/soundpp/internal/host"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89b4fa"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#A8DADC"))

	activeTabStyle = tabStyle.
			Bold(true).
			Foreground(lipgloss.Color("#1e1e2e")).
			Background(lipgloss.Color("#89b4fa"))

	recordingStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#cba6f7")).
			Padding(0, 2)

	toastStyles = map[Level]lipgloss.Style{
		LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC")),
		LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3")),
		LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
	}
)

const callTimeout = 10 * time.Second

// Options tunes a session.
type Options struct {
	// RecordItem, when non-zero, starts recording a shortcut for that item
	// and exits once it is saved or abandoned.
	RecordItem int64
}

type (
	libraryMsg struct {
		data host.LibraryData
		err  error
	}

	subscribedMsg struct {
		events <-chan ipc.Event
		err    error
	}

	eventMsg struct {
		ev ipc.Event
		ok bool
	}

	// doneMsg reports a finished command; text, when set, is toasted.
	doneMsg struct {
		command string
		data    any
		text    string
		err     error
		reload  bool
	}

	recordedMsg struct {
		itemID int64
		result host.RecordingEnded
		err    error
	}

	toastExpiredMsg time.Time
)

// Model is the Bubble Tea model.
type Model struct {
	ctx    context.Context
	client Client
	events <-chan ipc.Event
	opts   Options

	keys   keyMap
	help   help.Model
	search textinput.Model
	table  table.Model

	items    []library.Item
	groups   []library.Group
	counts   library.Counts
	visible  []library.Item
	tab      int
	loaded   bool
	loadErr  error
	toasts   Toasts
	volume   int
	muted    bool
	playing  string
	quitting bool

	recording  bool
	recordItem int64

	width int
	// after schedules toast expiry; tests replace it.
	after func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

// NewModel builds a model talking to client.
func NewModel(ctx context.Context, client Client, opts Options) Model {
	search := textinput.New()
	search.Placeholder = "search name or description"
	search.Prompt = "/ "
	search.CharLimit = 120
	search.Cursor.SetMode(cursor.CursorStatic)

	t := table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return Model{
		ctx:    ctx,
		client: client,
		opts:   opts,
		keys:   defaultKeyMap(),
		help:   help.New(),
		search: search,
		table:  t,
		counts: library.Counts{},
		after:  tea.Tick,
	}
}

func columns(width int) []table.Column {
	nameW := max(16, width/4)
	return []table.Column{
		{Title: "ID", Width: 14},
		{Title: "Name", Width: nameW},
		{Title: "Duration", Width: 8},
		{Title: "Shortcut", Width: 18},
		{Title: "Description", Width: max(12, width-nameW-48)},
	}
}

// Init loads the library and subscribes to host events.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadLibrary(), m.subscribe(), m.fetchStatus()}
	if m.opts.RecordItem != 0 {
		cmds = append(cmds, m.startRecording(m.opts.RecordItem))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(5, msg.Height-10))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case libraryMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			cmd := m.toast(fmt.Sprintf("加载音频库失败：%v", msg.err), LevelError)
			return m, cmd
		}
		m.loaded, m.loadErr = true, nil
		m.items, m.groups, m.counts = msg.data.Items, msg.data.Groups, msg.data.Counts
		if m.tab > len(m.groups) {
			m.tab = 0
		}
		m.refilter()
		return m, nil

	case subscribedMsg:
		if msg.err != nil {
			cmd := m.toast(fmt.Sprintf("事件订阅失败：%v", msg.err), LevelError)
			return m, cmd
		}
		m.events = msg.events
		return m, waitEvent(m.events)

	case eventMsg:
		if !msg.ok {
			m.events = nil
			return m, nil
		}
		return m.handleEvent(msg.ev)

	case doneMsg:
		return m.handleDone(msg)

	case recordedMsg:
		return m.handleRecorded(msg)

	case toastExpiredMsg:
		m.toasts.Expire(time.Time(msg))
		return m, nil
	}

	var cmd tea.Cmd
	if m.search.Focused() {
		m.search, cmd = m.search.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.recording {
		ev, ok := keyEventFromMsg(msg)
		if !ok {
			return m, nil
		}
		return m, m.recordCombo(m.recordItem, ev)
	}

	if m.search.Focused() {
		switch msg.String() {
		case "esc":
			m.search.SetValue("")
			m.search.Blur()
			m.refilter()
			return m, nil
		case "enter":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.refilter()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.NextGroup):
		m.tab = (m.tab + 1) % (len(m.groups) + 1)
		m.refilter()
		return m, nil
	case key.Matches(msg, m.keys.PrevGroup):
		m.tab = (m.tab + len(m.groups)) % (len(m.groups) + 1)
		m.refilter()
		return m, nil
	case key.Matches(msg, m.keys.Search):
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Play):
		if it, ok := m.selected(); ok {
			return m, m.run(host.CmdPlay, host.PlayParams{ID: it.ID}, "", false)
		}
		return m, nil
	case key.Matches(msg, m.keys.Stop):
		return m, m.run(host.CmdStop, nil, "", false)
	case key.Matches(msg, m.keys.Mute):
		return m, m.run(host.CmdToggleMute, nil, "", false)
	case key.Matches(msg, m.keys.Record):
		if it, ok := m.selected(); ok {
			return m, m.startRecording(it.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.ClearShort):
		if it, ok := m.selected(); ok {
			empty := ""
			return m, m.run(host.CmdUpdateItem, host.UpdateItemParams{ID: it.ID, Patch: library.ItemPatch{Shortcut: &empty}}, "快捷键已清除", true)
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			return m, m.run(host.CmdDeleteItems, host.DeleteItemsParams{IDs: []int64{it.ID}}, "已删除 "+it.Name, true)
		}
		return m, nil
	case key.Matches(msg, m.keys.Sweep):
		return m, m.run(host.CmdSweep, nil, "", false)
	case key.Matches(msg, m.keys.Open):
		return m, m.run(host.CmdOpenSoundsDir, host.OpenParams{}, "", false)
	case key.Matches(msg, m.keys.Share):
		group := m.currentGroup()
		if group == library.KeyAll {
			cmd := m.toast("请先选择一个分组", LevelError)
			return m, cmd
		}
		return m, m.run(host.CmdShareGroupZip, host.ArchiveParams{GroupKey: group}, "", false)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.recording {
		client, ctx := m.client, m.ctx
		return m, tea.Sequence(func() tea.Msg {
			cctx, cancel := context.WithTimeout(ctx, callTimeout)
			defer cancel()
			_ = call(cctx, client, host.CmdRecordCancel, nil, nil)
			return nil
		}, tea.Quit)
	}
	return m, tea.Quit
}

func (m Model) handleEvent(ev ipc.Event) (tea.Model, tea.Cmd) {
	next := waitEvent(m.events)
	switch ev.Event {
	case host.EventLibraryChanged, host.EventSettingsChanged:
		return m, tea.Batch(next, m.loadLibrary())
	case host.EventPlayAudioFile:
		m.playing = ev.Path
	case host.EventMuteChanged:
		if v, err := strconv.Atoi(ev.Message); err == nil {
			m.volume, m.muted = v, v == 0
		}
	case host.EventNotification:
		cmd := m.toast(ev.Message, LevelInfo)
		return m, tea.Batch(next, cmd)
	case host.EventRecordingEnded:
		// Only a timeout ends a session without a reply to this client.
		if m.recording && ev.ID == "timeout" {
			m.recording = false
			cmd := m.finishRecording(m.recordItem, host.RecordingEnded{Accelerator: ev.Message, Reason: ev.ID})
			return m, tea.Batch(next, cmd)
		}
	case host.EventQuit:
		cmd := m.toast("host 已退出", LevelError)
		return m, tea.Batch(next, cmd)
	}
	return m, next
}

func (m Model) handleDone(msg doneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, errCanceled) {
			return m, nil
		}
		cmd := m.toast(msg.err.Error(), LevelError)
		return m, cmd
	}

	var cmds []tea.Cmd
	switch data := msg.data.(type) {
	case *host.VolumeData:
		m.volume, m.muted = data.Volume, data.Muted
		if msg.command == host.CmdStop && data.Stopped {
			m.playing = ""
		}
	case *host.StatusData:
		m.volume, m.muted, m.playing = data.Volume, data.Muted, data.Playing
	case *host.PlayData:
		m.playing = data.Path
	case *library.SweepResult:
		cmds = append(cmds, m.toast(fmt.Sprintf("已清理 %d 个未引用的音频文件", data.Removed), LevelInfo))
	case *host.PathData:
		cmds = append(cmds, m.toast(data.Path, LevelInfo))
	}
	if msg.text != "" {
		cmds = append(cmds, m.toast(msg.text, LevelSuccess))
	}
	if msg.reload {
		cmds = append(cmds, m.loadLibrary())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleRecorded(msg recordedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.recording = false
		cmd := m.toast(msg.err.Error(), LevelError)
		if m.opts.RecordItem != 0 {
			return m, tea.Sequence(cmd, tea.Quit)
		}
		return m, cmd
	}
	if msg.result.Reason == "" {
		// Session started; wait for keys.
		m.recording = true
		m.recordItem = msg.itemID
		return m, nil
	}
	m.recording = false
	cmd := m.finishRecording(msg.itemID, msg.result)
	return m, cmd
}

// finishRecording saves a committed accelerator onto the item.
func (m *Model) finishRecording(itemID int64, res host.RecordingEnded) tea.Cmd {
	exit := m.opts.RecordItem != 0
	if res.Accelerator == "" {
		cmd := m.toast("已取消录制快捷键", LevelInfo)
		if exit {
			return tea.Sequence(cmd, tea.Quit)
		}
		return cmd
	}

	display := hotkey.ToDisplay(res.Accelerator)
	acc := res.Accelerator
	save := m.run(host.CmdUpdateItem, host.UpdateItemParams{ID: itemID, Patch: library.ItemPatch{Shortcut: &acc}}, "快捷键已设置："+display, true)
	if exit {
		return tea.Sequence(save, tea.Quit)
	}
	return save
}

// currentGroup is the key of the selected tab; tab 0 is every item.
func (m Model) currentGroup() string {
	if m.tab > 0 && m.tab <= len(m.groups) {
		return m.groups[m.tab-1].Key
	}
	return library.KeyAll
}

func (m *Model) refilter() {
	m.visible = library.Filter(m.items, m.groups, m.currentGroup(), m.search.Value())

	rows := make([]table.Row, 0, len(m.visible))
	for _, it := range m.visible {
		rows = append(rows, table.Row{
			strconv.FormatInt(it.ID, 10),
			it.Name,
			it.Duration,
			hotkey.ToDisplayLower(it.Shortcut),
			it.Description,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) selected() (library.Item, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return library.Item{}, false
	}
	return m.visible[c], true
}

func (m *Model) toast(text string, level Level) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	t := m.toasts.Push(text, level, time.Now())
	return m.after(time.Until(t.Expires), func(now time.Time) tea.Msg {
		return toastExpiredMsg(now)
	})
}

func (m Model) loadLibrary() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		var data host.LibraryData
		err := call(cctx, client, host.CmdGetAudioLibrary, nil, &data)
		return libraryMsg{data: data, err: err}
	}
}

func (m Model) fetchStatus() tea.Cmd {
	return m.run(host.CmdStatus, nil, "", false)
}

func (m Model) subscribe() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		events, err := client.Events(ctx)
		return subscribedMsg{events: events, err: err}
	}
}

func waitEvent(events <-chan ipc.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{ev: ev, ok: ok}
	}
}

// run sends command and reports a doneMsg carrying the decoded response.
func (m Model) run(command string, params any, text string, reload bool) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		out := responseFor(command)
		err := call(cctx, client, command, params, out)
		return doneMsg{command: command, data: out, text: text, err: err, reload: reload}
	}
}

func responseFor(command string) any {
	switch command {
	case host.CmdStop, host.CmdToggleMute, host.CmdSetVolume:
		return &host.VolumeData{}
	case host.CmdStatus:
		return &host.StatusData{}
	case host.CmdPlay:
		return &host.PlayData{}
	case host.CmdSweep:
		return &library.SweepResult{}
	case host.CmdOpenSoundsDir, host.CmdExportGroupZip, host.CmdShareGroupZip:
		return &host.PathData{}
	default:
		return nil
	}
}

func (m Model) startRecording(itemID int64) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		err := call(cctx, client, host.CmdRecordStart, nil, nil)
		return recordedMsg{itemID: itemID, err: err}
	}
}

// recordCombo feeds one terminal key combination to the recorder and, as
// terminals report no key release, ends the session right after it.
func (m Model) recordCombo(itemID int64, ev hotkey.KeyEvent) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		var data host.RecordKeyData
		if err := call(cctx, client, host.CmdRecordKey, ev, &data); err != nil {
			return recordedMsg{itemID: itemID, err: err}
		}
		if data.Ended && data.Result != nil {
			return recordedMsg{itemID: itemID, result: *data.Result}
		}
		var res host.RecordingEnded
		if err := call(cctx, client, host.CmdRecordKeyUp, nil, &res); err != nil {
			return recordedMsg{itemID: itemID, err: err}
		}
		return recordedMsg{itemID: itemID, result: res}
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	status := fmt.Sprintf("音量 %d%%", m.volume)
	if m.muted {
		status = "已静音"
	}
	if m.playing != "" {
		status += " • ▶ " + shortPath(m.playing)
	}
	b.WriteString(titleStyle.Render("SoundPP"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(status))
	b.WriteString("\n\n")

	b.WriteString(m.viewTabs())
	b.WriteString("\n")

	if m.search.Focused() || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	switch {
	case m.loadErr != nil && !m.loaded:
		b.WriteString(toastStyles[LevelError].Render(m.loadErr.Error()))
	case len(m.visible) == 0 && m.loaded:
		b.WriteString(dimStyle.Render("  (empty)"))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.recording {
		b.WriteString(recordingStyle.Render("请按下快捷键… (esc 取消)"))
		b.WriteString("\n")
	}

	for _, t := range m.toasts.Items() {
		b.WriteString(toastStyles[t.Level].Render("• " + t.Text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(m.groups)+1)
	label := func(name, key string) string {
		return fmt.Sprintf("%s (%d)", name, m.counts[key])
	}
	render := func(i int, text string) string {
		if i == m.tab {
			return activeTabStyle.Render(text)
		}
		return tabStyle.Render(text)
	}
	tabs = append(tabs, render(0, label("全部", library.KeyAll)))
	for i, g := range m.groups {
		tabs = append(tabs, render(i+1, label(g.Name, g.Key)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func shortPath(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, client Client, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, client, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
