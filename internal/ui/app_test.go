package ui

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/thinkwright/quickcal/internal/calendar"
	"github.com/thinkwright/quickcal/internal/config"
	"github.com/thinkwright/quickcal/internal/store"
	"github.com/thinkwright/quickcal/internal/vault"
	"github.com/thinkwright/quickcal/internal/window"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

type plainRenderer struct{}

func (plainRenderer) Render(text, sourcePath string, width int) (string, error) {
	return text, nil
}

type testEnv struct {
	vault      *vault.Vault
	store      *store.Store
	configPath string
}

func newTestModel(t *testing.T) (Model, testEnv) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	v, err := vault.Open(t.TempDir(), db)
	if err != nil {
		t.Fatal(err)
	}
	l := logrus.New()
	l.SetOutput(io.Discard)

	env := testEnv{vault: v, store: db, configPath: filepath.Join(t.TempDir(), "config.json")}
	m, err := NewModel(Deps{
		Vault:      v,
		Store:      db,
		Renderer:   plainRenderer{},
		Config:     config.DefaultConfig(),
		ConfigPath: env.configPath,
		Log:        logrus.NewEntry(l),
		Now:        func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m, env
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// ready sizes the model and applies the initial window load.
func ready(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	req := m.win.Initialize(testNow)
	res := window.Load(context.Background(), m.binder, req, time.Sunday, testNow)
	m, _ = update(t, m, loadedMsg{result: res})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func overlayStack(m Model) []overlayKind {
	return append([]overlayKind(nil), m.overlays...)
}

func dayOf(t *testing.T, m Model, month calendar.Month, date string) calendar.Day {
	t.Helper()
	bi := m.win.Index(month)
	if bi < 0 {
		t.Fatalf("%s not loaded", month)
	}
	md := m.win.Months()[bi]
	i := md.Find(date)
	if i < 0 {
		t.Fatalf("%s not in %s grid", date, month)
	}
	return md.Days[i]
}

var (
	june = calendar.Month{Year: 2024, Month: time.June}
	july = calendar.Month{Year: 2024, Month: time.July}
)

func TestInitialScroll_ShowsTodaysMonth(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)
	if got := m.win.Index(june); got != window.Radius {
		t.Fatalf("june index = %d", got)
	}
	if m.offset != window.Radius*m.geo.blockH {
		t.Errorf("offset = %d, want %d", m.offset, window.Radius*m.geo.blockH)
	}
	if m.win.Visible() != june {
		t.Errorf("visible = %s", m.win.Visible())
	}
	if !strings.Contains(m.View(), "JUNE 2024") {
		t.Error("panel title missing visible month")
	}
}

func TestInitialScroll_WaitsForSize(t *testing.T) {
	m, _ := newTestModel(t)
	req := m.win.Initialize(testNow)
	m, _ = update(t, m, loadedMsg{result: window.Load(context.Background(), m.binder, req, time.Sunday, testNow)})
	if m.offset != 0 || m.initialScrolled {
		t.Fatalf("scrolled before the first size: offset=%d", m.offset)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if !m.initialScrolled || m.offset != window.Radius*m.geo.blockH {
		t.Errorf("offset after size = %d", m.offset)
	}
}

func TestEscape_ClosesTopMostOverlayOnly(t *testing.T) {
	m, env := newTestModel(t)
	e, err := env.vault.CreateFile("Diary/2024-06-15.md", "# 2024-06-15\n\nhello")
	if err != nil {
		t.Fatal(err)
	}
	m = ready(t, m)
	m, _ = update(t, m, noteReadMsg{date: testNow, entry: e, text: "# 2024-06-15\n\nhello"})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})

	if got := overlayStack(m); len(got) != 2 || got[0] != overlayEditor || got[1] != overlayPicker {
		t.Fatalf("stack = %v", got)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := overlayStack(m); len(got) != 1 || got[0] != overlayEditor {
		t.Fatalf("after first esc stack = %v", got)
	}
	if !m.editor.IsOpen() || m.picker.IsOpen() {
		t.Errorf("editor open=%v picker open=%v", m.editor.IsOpen(), m.picker.IsOpen())
	}
	if m.editor.Text() != "# 2024-06-15\n\nhello" {
		t.Errorf("editor text lost: %q", m.editor.Text())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.overlays) != 0 || m.editor.IsOpen() {
		t.Errorf("after second esc stack = %v", m.overlays)
	}
}

func TestPicker_ConfirmJumps(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)

	m, _ = update(t, m, keyRunes("g"))
	if top, _ := m.top(); top != overlayPicker {
		t.Fatalf("top = %v", top)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.overlays) != 0 {
		t.Fatalf("picker still open: %v", m.overlays)
	}
	if m.win.Visible() != july {
		t.Errorf("visible = %s, want %s", m.win.Visible(), july)
	}
	if !m.anim.active || m.anim.to != m.win.Index(july)*m.geo.blockH || cmd == nil {
		t.Errorf("smooth scroll not started: %+v", m.anim)
	}
}

func TestPicker_ConfirmOutsideWindowResets(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)
	gen := m.win.Generation()

	m, _ = update(t, m, keyRunes("g"))
	m, _ = update(t, m, keyRunes("]"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.win.Generation() != gen+1 {
		t.Fatalf("expected a reset load, gen %d -> %d", gen, m.win.Generation())
	}
	msg := cmd().(loadedMsg)
	if msg.result.Kind != window.KindReset || msg.result.Center != (calendar.Month{Year: 2025, Month: time.June}) {
		t.Fatalf("request = %+v", msg.result.Request)
	}
	m, _ = update(t, m, msg)
	if m.win.Visible() != msg.result.Center || m.offset != window.Radius*m.geo.blockH {
		t.Errorf("visible %s offset %d", m.win.Visible(), m.offset)
	}
}

func TestSave_PropagatesToEveryBlock(t *testing.T) {
	m, env := newTestModel(t)
	e, err := env.vault.CreateFile("Diary/2024-06-30.md", "# 2024-06-30\n\nold")
	if err != nil {
		t.Fatal(err)
	}
	m = ready(t, m)

	day := dayOf(t, m, june, "2024-06-30")
	cmd := m.openDay(day)
	m, _ = update(t, m, cmd())
	if !m.editor.IsOpen() || m.editor.Text() != "# 2024-06-30\n\nold" {
		t.Fatalf("editor not opened with file text: %q", m.editor.Text())
	}

	m.editor.SetText("# 2024-06-30\n\nnew")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.editor.IsSaving() || cmd == nil {
		t.Fatal("save not started")
	}
	m, _ = update(t, m, cmd())

	if m.editor.IsOpen() || len(m.overlays) != 0 {
		t.Errorf("modal still open after save")
	}
	for _, month := range []calendar.Month{june, july} {
		if got := dayOf(t, m, month, "2024-06-30").Content; got != "# 2024-06-30\n\nnew" {
			t.Errorf("%s block content = %q", month, got)
		}
	}
	got, err := env.vault.ReadFile(e)
	if err != nil || got != "# 2024-06-30\n\nnew" {
		t.Errorf("file = %q, %v", got, err)
	}
	if m.statusErr || !strings.Contains(m.status, "saved") {
		t.Errorf("status = %q", m.status)
	}
}

func TestSave_FailureKeepsModalOpen(t *testing.T) {
	m, env := newTestModel(t)
	e, err := env.vault.CreateFile("Diary/2024-06-15.md", "text")
	if err != nil {
		t.Fatal(err)
	}
	m = ready(t, m)
	m, _ = update(t, m, noteReadMsg{date: testNow, entry: e, text: "text"})
	m.editor.SetText("edited")
	_, _, session, ok := m.editor.BeginSave()
	if !ok {
		t.Fatal("BeginSave refused")
	}

	m, _ = update(t, m, savedMsg{date: testNow, entry: e, text: "edited", session: session, err: errors.New("disk full")})
	if !m.editor.IsOpen() || m.editor.IsSaving() {
		t.Errorf("open=%v saving=%v", m.editor.IsOpen(), m.editor.IsSaving())
	}
	if m.editor.Text() != "edited" || !strings.Contains(m.editor.Err(), "disk full") {
		t.Errorf("text=%q err=%q", m.editor.Text(), m.editor.Err())
	}
	if !m.statusErr || !strings.Contains(m.status, "save failed") {
		t.Errorf("status = %q", m.status)
	}
	if got := dayOf(t, m, june, "2024-06-15").Content; got != "text" {
		t.Errorf("content changed on failed save: %q", got)
	}
}

func TestClick_SelectsThenCreates(t *testing.T) {
	m, env := newTestModel(t)
	m = ready(t, m)

	// June 2024 grid starts Sunday 2024-05-26; the 12th is row 2, column 3.
	bi := m.win.Index(june)
	y := contentTopY + m.geo.cellRow(bi, 17) - m.offset
	x := 1 + 3*m.geo.cellW
	click := tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}

	m, cmd := update(t, m, click)
	if m.selected.Date != "2024-06-12" || m.selected.Month != june || cmd != nil {
		t.Fatalf("selected = %+v", m.selected)
	}

	m, cmd = update(t, m, click)
	if cmd == nil {
		t.Fatal("second click did nothing")
	}
	msg, ok := cmd().(createdMsg)
	if !ok || msg.err != nil {
		t.Fatalf("create: %+v", msg)
	}
	if msg.entry.Path != "Diary/2024-06-12.md" {
		t.Errorf("path = %s", msg.entry.Path)
	}
	text, err := env.vault.ReadFile(msg.entry)
	if err != nil || text != "# 2024-06-12\n\n" {
		t.Errorf("new note = %q, %v", text, err)
	}

	gen := m.win.Generation()
	m, _ = update(t, m, msg)
	if m.win.Generation() != gen+1 {
		t.Error("window not reloaded after create")
	}
}

func TestCreate_FailureShowsStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)
	months := len(m.win.Months())
	m, _ = update(t, m, createdMsg{date: testNow, err: errors.New("read-only file system")})
	if !m.statusErr || !strings.HasPrefix(m.status, "create failed") {
		t.Errorf("status = %q", m.status)
	}
	if len(m.win.Months()) != months {
		t.Error("window touched on create failure")
	}
}

func TestMoveSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.selected.Date != "2024-06-16" {
		t.Errorf("right -> %s", m.selected.Date)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected.Date != "2024-07-07" || m.selected.Month != july {
		t.Errorf("down x3 -> %+v", m.selected)
	}

	m.cfg.Settings.ShowWeekends = false
	m.selected.Date = "2024-06-14" // Friday
	m.selected.Month = june
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.selected.Date != "2024-06-17" {
		t.Errorf("right over a hidden weekend -> %s", m.selected.Date)
	}
}

func TestPrepend_KeepsViewportAnchored(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)

	m.offset = 1
	cmd := m.onScroll()
	if cmd == nil || !m.win.Extending() {
		t.Fatal("no extend near the top edge")
	}
	msg := cmd().(loadedMsg)
	if msg.result.Dir != window.Before {
		t.Fatalf("extend direction = %s", msg.result.Dir)
	}
	m, _ = update(t, m, msg)
	if want := 1 + window.ExtendStep*m.geo.blockH; m.offset != want {
		t.Errorf("offset = %d, want %d", m.offset, want)
	}
	if len(m.win.Months()) != 2*window.Radius+1+window.ExtendStep {
		t.Errorf("months = %d", len(m.win.Months()))
	}
}

func TestSettings_ToggleWeekendsSavesAndReinitializes(t *testing.T) {
	m, env := newTestModel(t)
	m = ready(t, m)
	gen := m.win.Generation()

	m, _ = update(t, m, keyRunes("s"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if cmd == nil {
		t.Fatal("toggle returned no command")
	}
	if m.cfg.Settings.ShowWeekends || m.geo.cols != 5 {
		t.Errorf("weekends still shown: cols=%d", m.geo.cols)
	}
	if m.win.Generation() != gen+1 {
		t.Error("window not reinitialized")
	}
	saved, err := config.LoadFrom(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Settings.ShowWeekends {
		t.Error("setting not written to the config file")
	}
	if top, _ := m.top(); top != overlaySettings {
		t.Error("settings closed on toggle")
	}
}

func TestReloadConfig_UnchangedIsNoop(t *testing.T) {
	m, env := newTestModel(t)
	m = ready(t, m)
	if err := config.SaveTo(env.configPath, m.cfg); err != nil {
		t.Fatal(err)
	}
	gen := m.win.Generation()
	if cmd := m.reloadConfig(); cmd != nil {
		t.Error("unchanged config produced a command")
	}
	if m.win.Generation() != gen {
		t.Error("unchanged config reinitialized the window")
	}
}

func TestWatchedMsg_StaleGenerationIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.watchGen = 2
	m, cmd := update(t, m, watchedMsg{gen: 1})
	if cmd != nil {
		t.Error("stale watcher result re-armed a watch")
	}
}

func TestConfirmQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)
	m, _ = update(t, m, keyRunes("q"))
	if top, _ := m.top(); top != overlayQuit {
		t.Fatalf("top = %v", top)
	}
	m, _ = update(t, m, keyRunes("n"))
	if len(m.overlays) != 0 {
		t.Fatalf("quit confirm still open")
	}
	m, _ = update(t, m, keyRunes("q"))
	_, cmd := update(t, m, keyRunes("y"))
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("y did not quit")
	}
}

func TestCopySelected(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { clipboardWrite = orig })

	m, env := newTestModel(t)
	if _, err := env.vault.CreateFile("Diary/2024-06-15.md", "x"); err != nil {
		t.Fatal(err)
	}
	m = ready(t, m)
	m, cmd := update(t, m, keyRunes("y"))
	if cmd == nil {
		t.Fatal("no copy command")
	}
	m, _ = update(t, m, cmd())
	want := filepath.Join(env.vault.Root(), "Diary", "2024-06-15.md")
	if copied != want {
		t.Errorf("copied %q, want %q", copied, want)
	}
	if m.statusErr {
		t.Errorf("status = %q", m.status)
	}
}

func TestSettingsChange_KeepsScrollPosition(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)
	m.offset = m.geo.blockH
	m.onScroll()
	april := calendar.Month{Year: 2024, Month: time.April}
	if m.win.Visible() != april {
		t.Fatalf("visible = %s", m.win.Visible())
	}

	cmd := m.useSettings(m.cfg, m.binder)
	m, _ = update(t, m, cmd())
	if m.offset != m.geo.blockH {
		t.Errorf("offset = %d, want %d", m.offset, m.geo.blockH)
	}
	if m.win.Visible() != april {
		t.Errorf("visible = %s after reinitialize", m.win.Visible())
	}
}

func TestNoteRead_RepeatedOpenPushesEditorOnce(t *testing.T) {
	m, env := newTestModel(t)
	e, err := env.vault.CreateFile("Diary/2024-06-15.md", "first")
	if err != nil {
		t.Fatal(err)
	}
	m = ready(t, m)

	m, _ = update(t, m, noteReadMsg{date: testNow, entry: e, text: "first"})
	m.editor.SetText("typed")
	m, _ = update(t, m, noteReadMsg{date: testNow, entry: e, text: "first"})
	if got := overlayStack(m); len(got) != 1 {
		t.Fatalf("stack = %v", got)
	}
	if m.editor.Text() != "typed" {
		t.Errorf("second read replaced the buffer: %q", m.editor.Text())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.overlays) != 0 || m.editor.IsOpen() {
		t.Errorf("after esc stack = %v open = %v", m.overlays, m.editor.IsOpen())
	}
}

func TestOpenDay_IgnoredWhileInFlight(t *testing.T) {
	m, _ := newTestModel(t)
	m = ready(t, m)
	day := dayOf(t, m, june, "2024-06-12")

	first := m.openDay(day)
	if first == nil {
		t.Fatal("first open did nothing")
	}
	if again := m.openDay(day); again != nil {
		t.Fatal("second open issued another create")
	}
	m, _ = update(t, m, first())
	if m.opening || m.statusErr {
		t.Errorf("opening=%v status=%q", m.opening, m.status)
	}
}
