package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/thinkwright/quickcal/internal/calendar"
	"github.com/thinkwright/quickcal/internal/config"
	"github.com/thinkwright/quickcal/internal/diary"
	"github.com/thinkwright/quickcal/internal/render"
	"github.com/thinkwright/quickcal/internal/store"
	"github.com/thinkwright/quickcal/internal/vault"
	"github.com/thinkwright/quickcal/internal/watcher"
	"github.com/thinkwright/quickcal/internal/window"
)

// Deps are the long-lived collaborators the calendar drives.
type Deps struct {
	Vault      *vault.Vault
	Store      *store.Store
	Renderer   render.Renderer
	Config     config.Config
	ConfigPath string
	Log        *logrus.Entry
	Now        func() time.Time
}

type scrollAnim struct {
	id     int
	active bool
	from   int
	to     int
	frame  int
}

type Model struct {
	vault      *vault.Vault
	store      *store.Store
	renderer   render.Renderer
	logger     *logrus.Entry
	log        *logrus.Entry
	now        func() time.Time
	cfg        config.Config
	configPath string

	binder *diary.Binder
	win    *window.Manager
	pipe   *render.Pipe

	width  int
	height int
	ready  bool
	geo    geometry

	offset          int
	anim            scrollAnim
	initialScrolled bool
	opening         bool // a note read or create is in flight
	selected        render.Key

	overlays []overlayKind
	editor   EditModal
	picker   MonthPicker
	settings SettingsModal

	status      string
	statusErr   bool
	statusID    int
	indexing    bool
	indexStatus string
	watchGen    int
}

func NewModel(d Deps) (Model, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	binder, err := diary.NewBinder(d.Vault, d.Config.Settings, d.Log.WithField("component", "diary"))
	if err != nil {
		return Model{}, err
	}
	today := calendar.Truncate(d.Now())
	return Model{
		vault:      d.Vault,
		store:      d.Store,
		renderer:   d.Renderer,
		logger:     d.Log,
		log:        d.Log.WithField("component", "ui"),
		now:        d.Now,
		cfg:        d.Config,
		configPath: d.ConfigPath,
		binder:     binder,
		win:        window.New(window.RowThresholds),
		pipe:       render.NewPipe(0, d.Log),
		selected:   render.Key{Month: calendar.MonthOf(today), Date: today.Format(calendar.DateLayout)},
		editor:     NewEditModal(),
		picker:     NewMonthPicker(),
		settings:   NewSettingsModal(),
		indexing:   true,
	}, nil
}

func (m Model) Init() tea.Cmd {
	req := m.win.Initialize(m.now())
	return tea.Batch(m.load(req), syncCmd(m.vault), m.watchCmd())
}

func (m Model) watchCmd() tea.Cmd {
	t := watcher.Targets{
		ConfigFile: m.configPath,
		VaultRoot:  m.vault.Root(),
		NotesDir:   filepath.Join(m.vault.Root(), filepath.FromSlash(m.binder.Folder())),
	}
	return watchCmd(t, m.logger.WithField("component", "watcher"), m.watchGen)
}

func (m *Model) load(req window.Request) tea.Cmd {
	return loadCmd(m.binder, req, calendar.WeekStart(m.cfg.Settings.StartWeekOnMonday), m.now())
}

func (m *Model) refresh() tea.Cmd {
	return m.load(m.win.Refresh(m.now()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.editor.SetSize(m.width, m.height)
		return m, m.relayout()

	case loadedMsg:
		return m.applyLoaded(msg.result)

	case renderedMsg:
		m.pipe.Commit(msg.results)
		return m, nil

	case scrollTickMsg:
		return m.stepScroll(msg.id)

	case statusExpiredMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case noteReadMsg:
		m.opening = false
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("path", msg.entry.Path).Error("read note")
			return m, m.setError(fmt.Sprintf("open failed: %v", msg.err))
		}
		if m.editor.IsOpen() {
			return m, nil
		}
		cmd := m.editor.Open(msg.date, msg.entry, m.binder.Title(msg.date), msg.text)
		m.push(overlayEditor)
		return m, cmd

	case savedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("path", msg.entry.Path).Error("save note")
			return m, tea.Batch(m.editor.SaveFailed(msg.session, msg.err), m.setError(fmt.Sprintf("save failed: %v", msg.err)))
		}
		if m.editor.SaveSucceeded(msg.session) {
			m.pop(overlayEditor)
		}
		display := diary.DisplayContent(msg.text)
		cells := m.win.UpdateContent(msg.date, display)
		jobs := m.pipe.Remount(cells, display, msg.entry.Path)
		return m, tea.Batch(renderCmd(m.pipe, m.renderer, jobs), m.setStatus("saved "+msg.entry.Path))

	case createdMsg:
		m.opening = false
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("date", msg.date.Format(calendar.DateLayout)).Error("create note")
			return m, m.setError(fmt.Sprintf("create failed: %v", msg.err))
		}
		return m, tea.Batch(m.refresh(), openEditorCmd(m.vault, msg.date, msg.entry))

	case editorClosedMsg:
		var cmds []tea.Cmd
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("external editor")
			cmds = append(cmds, m.setError(fmt.Sprintf("editor: %v", msg.err)))
		}
		cmds = append(cmds, m.refresh())
		return m, tea.Batch(cmds...)

	case syncedMsg:
		m.indexing = false
		if msg.err != nil {
			m.log.WithError(msg.err).Error("index sync")
			m.indexStatus = fmt.Sprintf("INDEX ERR: %v", msg.err)
			return m, nil
		}
		m.indexStatus = fmt.Sprintf("INDEXED %d files", m.fileCount())
		m.log.WithFields(logrus.Fields{
			"scanned": msg.stats.Scanned,
			"changed": msg.stats.Changed,
			"removed": msg.stats.Removed,
		}).Debug("index synced")
		if msg.rebuilt || msg.stats.Changed > 0 || msg.stats.Removed > 0 {
			return m, m.refresh()
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("clipboard")
			return m, m.setError(fmt.Sprintf("copy failed: %v", msg.err))
		}
		return m, m.setStatus("copied " + msg.path)

	case watchedMsg:
		if msg.gen != m.watchGen {
			return m, nil
		}
		var cmds []tea.Cmd
		if msg.Settings {
			cmds = append(cmds, m.reloadConfig())
		}
		if msg.Notes {
			m.indexing = true
			cmds = append(cmds, syncCmd(m.vault))
		}
		cmds = append(cmds, m.watchCmd())
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		top, ok := m.top()
		if msg.Type == tea.KeyCtrlC && top != overlayQuit {
			m.push(overlayQuit)
			return m, nil
		}
		if !ok {
			return m.handleKey(msg)
		}
		switch top {
		case overlayQuit:
			return m.handleConfirmQuit(msg)
		case overlaySettings:
			return m.handleSettingsKey(msg)
		case overlayPicker:
			return m.handlePickerKey(msg)
		case overlayEditor:
			return m.handleEditorKey(msg)
		}
	}

	// Blink and other component messages.
	switch top, _ := m.top(); {
	case top == overlayEditor && m.editor.IsOpen():
		return m, m.editor.Update(msg)
	case top == overlaySettings && m.settings.editing:
		var cmd tea.Cmd
		m.settings.input, cmd = m.settings.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// ─── Overlay stack ────────────────────────────────────────────────────

func (m *Model) push(o overlayKind) {
	m.overlays = append(m.overlays, o)
}

// pop removes the top-most entry of kind o.
func (m *Model) pop(o overlayKind) {
	for i := len(m.overlays) - 1; i >= 0; i-- {
		if m.overlays[i] == o {
			m.overlays = append(m.overlays[:i:i], m.overlays[i+1:]...)
			return
		}
	}
}

func (m Model) top() (overlayKind, bool) {
	if len(m.overlays) == 0 {
		return 0, false
	}
	return m.overlays[len(m.overlays)-1], true
}

// ─── Status ───────────────────────────────────────────────────────────

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusID++
	m.status = text
	m.statusErr = false
	return statusExpireCmd(m.statusID)
}

func (m *Model) setError(text string) tea.Cmd {
	cmd := m.setStatus(text)
	m.statusErr = true
	return cmd
}

func (m Model) fileCount() int {
	if m.store == nil {
		return 0
	}
	return m.store.FileCount()
}

// ─── Window and scrolling ─────────────────────────────────────────────

// relayout recomputes the geometry and remounts every block when the note
// width changed.
func (m *Model) relayout() tea.Cmd {
	m.geo = newGeometry(m.width, m.height, m.cfg.Settings.ShowWeekends)
	var cmds []tea.Cmd
	if w := m.geo.noteWidth(); w != m.pipe.Width() {
		m.pipe.SetWidth(w)
		cmds = append(cmds, m.mountAll())
	}
	cmds = append(cmds, m.consumeInitialScroll())
	m.clampOffset()
	cmds = append(cmds, m.onScroll())
	return tea.Batch(cmds...)
}

func (m *Model) mountAll() tea.Cmd {
	var jobs []render.Job
	for _, md := range m.win.Months() {
		jobs = append(jobs, m.pipe.Mount(md)...)
	}
	return renderCmd(m.pipe, m.renderer, jobs)
}

func (m Model) applyLoaded(r window.Result) (tea.Model, tea.Cmd) {
	if r.Err != nil {
		m.log.WithError(r.Err).WithField("months", len(r.Months)).Warn("load months")
	}
	out := m.win.Apply(r)
	if !out.Applied {
		return m, m.onScroll()
	}
	if out.Replaced {
		m.pipe.Reset()
	}
	if out.Prepended > 0 {
		shift := out.Prepended * m.geo.blockH
		m.offset += shift
		if m.anim.active {
			m.anim.from += shift
			m.anim.to += shift
		}
	}

	var cmds []tea.Cmd
	if m.ready {
		var jobs []render.Job
		for _, md := range out.Added {
			jobs = append(jobs, m.pipe.Mount(md)...)
		}
		cmds = append(cmds, renderCmd(m.pipe, m.renderer, jobs))
	}
	if out.Scroll != nil {
		cmds = append(cmds, m.scrollTo(*out.Scroll))
	}
	cmds = append(cmds, m.consumeInitialScroll())
	m.clampOffset()
	cmds = append(cmds, m.onScroll())
	return m, tea.Batch(cmds...)
}

func (m *Model) consumeInitialScroll() tea.Cmd {
	if !m.ready {
		return nil
	}
	t, ok := m.win.ConsumeInitialScroll()
	if !ok {
		return nil
	}
	m.initialScrolled = true
	return m.scrollTo(t)
}

func (m *Model) clampOffset() {
	if limit := m.geo.maxOffset(len(m.win.Months())); m.offset > limit {
		m.offset = limit
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) scrollBy(delta int) {
	m.anim.active = false
	m.offset += delta
	m.clampOffset()
}

// scrollTo brings block t.Index to the top of the viewport.
func (m *Model) scrollTo(t window.ScrollTarget) tea.Cmd {
	if t.Index < 0 {
		return nil
	}
	to := t.Index * m.geo.blockH
	if limit := m.geo.maxOffset(len(m.win.Months())); to > limit {
		to = limit
	}
	if !t.Smooth || !m.ready || to == m.offset {
		m.anim.active = false
		m.offset = to
		return m.onScroll()
	}
	m.anim = scrollAnim{id: m.anim.id + 1, active: true, from: m.offset, to: to}
	return scrollTickCmd(m.anim.id)
}

func (m Model) stepScroll(id int) (tea.Model, tea.Cmd) {
	if !m.anim.active || id != m.anim.id {
		return m, nil
	}
	m.anim.frame++
	p := float64(m.anim.frame) / scrollFrames
	eased := 1 - math.Pow(1-p, 3)
	m.offset = m.anim.from + int(math.Round(float64(m.anim.to-m.anim.from)*eased))
	m.clampOffset()

	cmds := []tea.Cmd{m.onScroll()}
	if m.anim.frame >= scrollFrames {
		m.anim.active = false
	} else {
		cmds = append(cmds, scrollTickCmd(id))
	}
	return m, tea.Batch(cmds...)
}

// onScroll reports the viewport to the window and loads more months when
// an edge comes close.
func (m *Model) onScroll() tea.Cmd {
	if !m.ready || !m.win.Loaded() {
		return nil
	}
	_, req, extend := m.win.OnScroll(m.geo.metrics(len(m.win.Months()), m.offset))
	if !extend {
		return nil
	}
	return m.load(req)
}

func (m *Model) jumpTo(month calendar.Month) tea.Cmd {
	if m.selected.Month != month {
		m.selected = render.Key{Month: month, Date: month.First(m.now().Location()).Format(calendar.DateLayout)}
	}
	t, req, loaded := m.win.JumpTo(month)
	if loaded {
		return m.scrollTo(t)
	}
	return m.load(req)
}

func (m *Model) goToToday() tea.Cmd {
	today := calendar.Truncate(m.now())
	m.selected = render.Key{Month: calendar.MonthOf(today), Date: today.Format(calendar.DateLayout)}
	t, req, loaded := m.win.GoToToday(today)
	if loaded {
		return m.scrollTo(t)
	}
	return m.load(req)
}

// ─── Selection ────────────────────────────────────────────────────────

func (m Model) selectedDay() (calendar.Day, bool) {
	bi := m.win.Index(m.selected.Month)
	if bi < 0 {
		return calendar.Day{}, false
	}
	md := m.win.Months()[bi]
	i := md.Find(m.selected.Date)
	if i < 0 {
		return calendar.Day{}, false
	}
	return md.Days[i], true
}

// moveSelection moves the selected day by days, skipping hidden weekends.
func (m *Model) moveSelection(days int) tea.Cmd {
	loc := m.now().Location()
	cur, err := time.ParseInLocation(calendar.DateLayout, m.selected.Date, loc)
	if err != nil {
		cur = calendar.Truncate(m.now())
	}
	step := 1
	if days < 0 {
		step = -1
	}
	next := cur.AddDate(0, 0, days)
	for !m.cfg.Settings.ShowWeekends && (next.Weekday() == time.Saturday || next.Weekday() == time.Sunday) {
		next = next.AddDate(0, 0, step)
	}
	month := calendar.MonthOf(next)
	m.selected = render.Key{Month: month, Date: next.Format(calendar.DateLayout)}
	if m.win.Index(month) < 0 {
		if !m.win.Loaded() {
			return nil
		}
		_, req, _ := m.win.JumpTo(month)
		return m.load(req)
	}
	return m.revealSelection()
}

// revealSelection scrolls just enough to show the selected cell.
func (m *Model) revealSelection() tea.Cmd {
	bi := m.win.Index(m.selected.Month)
	if bi < 0 || !m.ready {
		return nil
	}
	days := calendar.VisibleDays(m.win.Months()[bi].Days, m.cfg.Settings.ShowWeekends)
	idx := -1
	for i, d := range days {
		if d.Key() == m.selected.Date {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	top := m.geo.cellRow(bi, idx)
	if idx < m.geo.cols {
		top = bi * m.geo.blockH
	}
	bottom := m.geo.cellRow(bi, idx) + m.geo.cellH
	switch {
	case top < m.offset:
		m.scrollBy(top - m.offset)
	case bottom > m.offset+m.geo.viewH:
		m.scrollBy(bottom - m.geo.viewH - m.offset)
	default:
		return nil
	}
	return m.onScroll()
}

// openDay edits an existing note in the modal or creates a new one.
func (m *Model) openDay(d calendar.Day) tea.Cmd {
	if m.opening || m.editor.IsOpen() {
		return nil
	}
	m.opening = true
	if d.File != nil {
		return readNoteCmd(m.binder, d.Date, d.File)
	}
	return createCmd(m.binder, d.Date)
}

func (m *Model) openExternal() tea.Cmd {
	d, ok := m.selectedDay()
	if !ok {
		return nil
	}
	if d.File == nil {
		if m.opening {
			return nil
		}
		m.opening = true
		return createCmd(m.binder, d.Date)
	}
	return openEditorCmd(m.vault, d.Date, d.File)
}

func (m *Model) copySelected() tea.Cmd {
	d, ok := m.selectedDay()
	if !ok {
		return nil
	}
	if d.File == nil {
		return m.setError("no note for " + d.Key())
	}
	abs, err := m.vault.Abs(d.File.Path)
	if err != nil {
		return m.setError(fmt.Sprintf("copy failed: %v", err))
	}
	return copyCmd(abs)
}

// ─── Settings ─────────────────────────────────────────────────────────

// applySettings saves s and reinitializes the calendar with it.
func (m *Model) applySettings(s config.Settings) tea.Cmd {
	binder, err := diary.NewBinder(m.vault, s, m.logger.WithField("component", "diary"))
	if err != nil {
		m.settings.SetError(err)
		return nil
	}
	next := m.cfg
	next.Settings = s
	var cmds []tea.Cmd
	if err := config.SaveTo(m.configPath, next); err != nil {
		m.log.WithError(err).WithField("path", m.configPath).Error("save config")
		cmds = append(cmds, m.setError(fmt.Sprintf("settings not saved: %v", err)))
	}
	cmds = append(cmds, m.useSettings(next, binder))
	m.watchGen++
	cmds = append(cmds, m.watchCmd())
	return tea.Batch(cmds...)
}

func (m *Model) useSettings(cfg config.Config, binder *diary.Binder) tea.Cmd {
	m.cfg = cfg
	m.binder = binder
	m.anim.active = false
	if m.ready {
		m.geo = newGeometry(m.width, m.height, cfg.Settings.ShowWeekends)
		m.pipe.SetWidth(m.geo.noteWidth())
	}
	m.pipe.Reset()
	return m.load(m.win.Initialize(m.now()))
}

// reloadConfig picks up an edited config file. Unchanged settings are a no-op.
func (m *Model) reloadConfig() tea.Cmd {
	cfg, err := config.LoadFrom(m.configPath)
	if err != nil {
		m.log.WithError(err).WithField("path", m.configPath).Warn("reload config")
		return m.setError(fmt.Sprintf("config: %v", err))
	}
	if cfg.LogLevel != m.cfg.LogLevel {
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			m.logger.Logger.SetLevel(lvl)
		}
		m.cfg.LogLevel = cfg.LogLevel
	}
	if cfg.Settings == m.cfg.Settings {
		return nil
	}
	binder, err := diary.NewBinder(m.vault, cfg.Settings, m.logger.WithField("component", "diary"))
	if err != nil {
		return m.setError(fmt.Sprintf("config: %v", err))
	}
	m.log.WithField("settings", fmt.Sprintf("%+v", cfg.Settings)).Info("settings changed")
	return m.useSettings(cfg, binder)
}

// ─── Keys ─────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.push(overlayQuit)
	case key.Matches(msg, keys.Up):
		return m, m.moveSelection(-7)
	case key.Matches(msg, keys.Down):
		return m, m.moveSelection(7)
	case key.Matches(msg, keys.Left):
		return m, m.moveSelection(-1)
	case key.Matches(msg, keys.Right):
		return m, m.moveSelection(1)
	case key.Matches(msg, keys.PageUp):
		m.scrollBy(-m.geo.viewH)
		return m, m.onScroll()
	case key.Matches(msg, keys.PageDown):
		m.scrollBy(m.geo.viewH)
		return m, m.onScroll()
	case key.Matches(msg, keys.Open):
		if d, ok := m.selectedDay(); ok {
			return m, m.openDay(d)
		}
	case key.Matches(msg, keys.External):
		return m, m.openExternal()
	case key.Matches(msg, keys.Copy):
		return m, m.copySelected()
	case key.Matches(msg, keys.Today):
		return m, m.goToToday()
	case key.Matches(msg, keys.Picker):
		m.picker.Open(m.win.Visible(), m.now())
		m.push(overlayPicker)
	case key.Matches(msg, keys.Settings):
		m.settings.Open(m.cfg.Settings)
		m.push(overlaySettings)
	}
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Close):
		m.editor.Close()
		m.pop(overlayEditor)
		return m, nil
	case key.Matches(msg, keys.Save):
		entry, text, session, ok := m.editor.BeginSave()
		if !ok {
			return m, nil
		}
		return m, saveCmd(m.binder, m.editor.Date(), entry, text, session)
	case key.Matches(msg, keys.PickerOver):
		m.picker.Open(m.win.Visible(), m.now())
		m.push(overlayPicker)
		return m, nil
	}
	return m, m.editor.Update(msg)
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Close):
		m.picker.Close()
		m.pop(overlayPicker)
	case key.Matches(msg, keys.Confirm):
		month, ok := m.picker.Confirm()
		m.pop(overlayPicker)
		if ok {
			return m, m.jumpTo(month)
		}
	case key.Matches(msg, keys.YearPrev):
		m.picker.MoveYear(-1)
	case key.Matches(msg, keys.YearNext):
		m.picker.MoveYear(1)
	case key.Matches(msg, keys.Left):
		m.picker.MoveMonth(-1)
	case key.Matches(msg, keys.Right):
		m.picker.MoveMonth(1)
	case key.Matches(msg, keys.Up):
		m.picker.MoveMonth(-pickerCols)
	case key.Matches(msg, keys.Down):
		m.picker.MoveMonth(pickerCols)
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.settings.editing {
		switch msg.Type {
		case tea.KeyEnter:
			next, ok := m.settings.CommitEdit()
			if !ok {
				return m, nil
			}
			return m, m.applySettings(next)
		case tea.KeyEsc:
			m.settings.CancelEdit()
			return m, nil
		}
		return m, m.settings.UpdateInput(msg)
	}

	switch {
	case key.Matches(msg, keys.Close):
		m.settings.Close()
		m.pop(overlaySettings)
	case key.Matches(msg, keys.Up):
		m.settings.Up()
	case key.Matches(msg, keys.Down):
		m.settings.Down()
	case key.Matches(msg, keys.Reindex):
		return m, m.rebuildIndex()
	case key.Matches(msg, keys.Toggle):
		if m.settings.cursor == settingReindex {
			return m, m.rebuildIndex()
		}
		if m.settings.Toggle() {
			return m, m.applySettings(m.settings.Draft())
		}
		return m, m.settings.BeginEdit()
	}
	return m, nil
}

func (m *Model) rebuildIndex() tea.Cmd {
	if m.indexing || m.store == nil {
		return nil
	}
	m.indexing = true
	return reindexCmd(m.store, m.vault)
}

func (m Model) handleConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "q", "enter", "ctrl+c":
		return m, tea.Quit
	default:
		m.pop(overlayQuit)
	}
	return m, nil
}

// ─── Mouse ────────────────────────────────────────────────────────────

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	if top, ok := m.top(); ok {
		// A click outside the picker cancels it.
		if top == overlayPicker && msg.Button == tea.MouseButtonLeft {
			w, h := m.picker.Size()
			left, y := centeredRect(m.width, m.height, w, h)
			if msg.X < left || msg.X >= left+w || msg.Y < y || msg.Y >= y+h {
				m.picker.Close()
				m.pop(overlayPicker)
			}
		}
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollBy(-3)
		return m, m.onScroll()
	case tea.MouseButtonWheelDown:
		m.scrollBy(3)
		return m, m.onScroll()
	case tea.MouseButtonLeft:
		month, day, ok := hitTest(m.geo, m.win.Months(), m.cfg.Settings.ShowWeekends, m.offset, msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		k := render.Key{Month: month, Date: day.Key()}
		if k == m.selected {
			return m, m.openDay(day)
		}
		m.selected = k
	}
	return m, nil
}

// ─── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if !m.ready {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCalendar())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	view := b.String()
	for _, o := range m.overlays {
		view = overlayCenter(view, m.overlayView(o), m.width, m.height)
	}
	return view
}

func (m Model) overlayView(o overlayKind) string {
	switch o {
	case overlayEditor:
		return m.editor.View()
	case overlayPicker:
		return m.picker.View()
	case overlaySettings:
		return m.settings.View(m.width, m.indexSummary())
	default:
		return m.renderConfirmQuit()
	}
}

func (m Model) blockView() blockView {
	return blockView{
		g:            m.geo,
		weekStart:    calendar.WeekStart(m.cfg.Settings.StartWeekOnMonday),
		showWeekends: m.cfg.Settings.ShowWeekends,
		selected:     m.selected,
		pipe:         m.pipe,
	}
}

func (m Model) renderCalendar() string {
	months := m.win.Months()
	rows := visibleRows(m.blockView(), months, m.offset)
	bar := RenderScrollbar(m.geo.viewH, m.geo.contentHeight(len(months)), m.offset)

	gridW := m.width - 3
	lines := make([]string, m.geo.viewH)
	for i := range lines {
		row := ""
		if i < len(rows) {
			row = rows[i]
		}
		lines[i] = fitWidth(row, gridW) + bar[i]
	}

	title := "QUICKCAL"
	if m.win.Loaded() {
		title = strings.ToUpper(m.win.Visible().Title())
	} else {
		lines[0] = fitWidth(DimStyle.Render(" Loading..."), gridW) + bar[0]
	}
	return RenderPanel(title, strings.Join(lines, "\n"), m.width, m.geo.viewH, len(m.overlays) == 0)
}

func (m Model) renderHeader() string {
	bg := lipgloss.NewStyle().Background(ColorBarBg)

	left := bg.Render(" ") +
		bg.Foreground(ColorAccent).Bold(true).Render("◆") +
		bg.Render(" ") +
		bg.Foreground(ColorCyan).Bold(true).Render("QUICKCAL")

	month := ""
	if m.win.Loaded() {
		month = bg.Foreground(ColorBarText).Render("  " + m.win.Visible().Title())
	}

	clockText := fmt.Sprintf("TODAY %s  ", m.now().Format("Mon Jan 2 2006"))
	clock := bg.Foreground(ColorBarText).Render(clockText)

	spacerLen := max(m.width-visibleLen(left)-visibleLen(month)-len(clockText), 1)
	return left + month + bg.Render(strings.Repeat(" ", spacerLen)) + clock
}

func (m Model) indexSummary() string {
	if m.store == nil {
		return "no index"
	}
	age := m.store.IndexAge()
	if age == 0 {
		return fmt.Sprintf("%d files, never synced", m.fileCount())
	}
	return fmt.Sprintf("%d files, synced %s ago", m.fileCount(), age.Round(time.Second))
}

func (m Model) renderConfirmQuit() string {
	dim := lipgloss.NewStyle().Foreground(ColorDim)
	q := lipgloss.NewStyle().Foreground(ColorWhite).Bold(true).Render("  Exit quickcal?")
	opts := fmt.Sprintf("  %s yes  %s no", SelectedStyle.Render("[y/q]"), dim.Render("[n]"))
	return modalBox("QUIT", []string{"", q, "", opts, ""}, 30, ColorYellow)
}

func (m Model) renderStatusBar() string {
	bg := lipgloss.NewStyle().Background(ColorBarBg)

	leftText := hints(keys.Open, keys.External, keys.Copy, keys.Today, keys.Picker, keys.Settings, keys.Quit)
	if top, ok := m.top(); ok && top == overlayEditor {
		leftText = hints(keys.Save, keys.PickerOver, keys.Close)
	}
	left := bg.Foreground(ColorBarText).Render(leftText)

	var rightParts []string
	rightLen := 0
	add := func(text string, color lipgloss.Color) {
		rightParts = append(rightParts, bg.Foreground(color).Render(text))
		rightLen += visibleLen(text)
	}

	if m.status != "" {
		if m.statusErr {
			add(m.status, ColorRed)
		} else {
			add(m.status, ColorGreen)
		}
	}
	if !m.win.Loaded() || m.win.Extending() {
		add("LOADING...", ColorYellow)
	}
	if m.indexing {
		add("INDEXING...", ColorYellow)
	} else if m.indexStatus != "" {
		add(m.indexStatus, ColorBarText)
	}

	// Stale index nag (>7 days since the last full sync)
	if !m.indexing && m.store != nil {
		if age := m.store.IndexAge(); age > 7*24*time.Hour {
			add(fmt.Sprintf("INDEX: %dd old, [s]→[R] to rebuild", int(age.Hours()/24)), ColorYellowDim)
		}
	}

	if len(rightParts) == 0 {
		spacerLen := max(m.width-visibleLen(leftText), 1)
		return truncateToWidth(left+bg.Render(strings.Repeat(" ", spacerLen)), m.width)
	}

	sep := bg.Foreground(ColorDim).Render(" │ ")
	rightTotal := rightLen + 3*(len(rightParts)-1) + 2
	right := strings.Join(rightParts, sep) + bg.Render("  ")

	spacerLen := max(m.width-visibleLen(leftText)-rightTotal, 1)
	return truncateToWidth(left+bg.Render(strings.Repeat(" ", spacerLen))+right, m.width)
}
