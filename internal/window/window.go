// Package window keeps the contiguous run of loaded months behind the
// scrolling calendar and decides when to grow it.
package window

import (
	"time"

	"github.com/thinkwright/quickcal/internal/calendar"
	"github.com/thinkwright/quickcal/internal/render"
)

// Months loaded on each side of the center month by Initialize and JumpTo.
const (
	Radius     = 3
	ExtendStep = 2
)

type Direction int

const (
	Before Direction = iota
	After
)

func (d Direction) String() string {
	if d == Before {
		return "before"
	}
	return "after"
}

type Kind int

const (
	KindInit    Kind = iota // initialize around today
	KindReset               // jump to a month outside the window
	KindRefresh             // reload the current span in place
	KindExtend              // grow one edge
)

// Request describes a batch of months to load. Gen and Seq identify it when
// the Result comes back.
type Request struct {
	Kind   Kind
	Dir    Direction
	Center calendar.Month
	Months []calendar.Month
	Gen    uint64
	Seq    uint64
}

// Result is a settled Request.
type Result struct {
	Request
	Data []calendar.MonthData
	Err  error
}

// ScrollTarget asks the view to bring block Index to the top.
type ScrollTarget struct {
	Index  int
	Smooth bool
}

// Outcome tells the view what Apply changed.
type Outcome struct {
	Applied   bool
	Replaced  bool                 // the whole window was swapped
	Added     []calendar.MonthData // blocks that need mounting
	Prepended int                  // blocks inserted above the old first block
	Scroll    *ScrollTarget
}

// Extent is a month block's vertical span in content coordinates.
type Extent struct {
	Top, Bottom int
}

// ScrollMetrics is the scroll container geometry, in whatever unit the view uses.
type ScrollMetrics struct {
	ScrollTop    int
	ClientHeight int
	ScrollHeight int
	Blocks       []Extent // one per loaded month, same order
}

// Thresholds: a block is "visible" when its top is within VisibleBand of the
// container top; an edge is "near" within EdgeDistance.
type Thresholds struct {
	VisibleBand  int
	EdgeDistance int
}

var (
	DefaultThresholds = Thresholds{VisibleBand: 100, EdgeDistance: 300}
	RowThresholds     = Thresholds{VisibleBand: 3, EdgeDistance: 10}
)

type scrollLatch int

const (
	notYetScrolled scrollLatch = iota
	scrollPending
	scrolled
)

type savedText struct {
	text  string
	atSeq uint64 // requests with Seq <= atSeq were issued before the save
}

// Manager owns the window. It is not safe for concurrent use; the UI calls
// it from its update loop only.
type Manager struct {
	th      Thresholds
	months  []calendar.MonthData
	visible calendar.Month

	gen uint64
	seq uint64

	extending bool
	extendSeq uint64

	// set while an Initialize, JumpTo reset or Refresh is unsettled
	replacing  bool
	replaceSeq uint64

	latch         scrollLatch
	initialTarget int

	saved map[string]savedText
}

func New(th Thresholds) *Manager {
	return &Manager{th: th, saved: make(map[string]savedText)}
}

func (m *Manager) Months() []calendar.MonthData { return m.months }
func (m *Manager) Visible() calendar.Month        { return m.visible }
func (m *Manager) Loaded() bool                   { return len(m.months) > 0 }
func (m *Manager) Extending() bool                { return m.extending }
func (m *Manager) Generation() uint64             { return m.gen }

// Index returns the block index of month, or -1.
func (m *Manager) Index(month calendar.Month) int {
	for i, md := range m.months {
		if md.Month == month {
			return i
		}
	}
	return -1
}

func centered(center calendar.Month) []calendar.Month {
	out := make([]calendar.Month, 0, 2*Radius+1)
	for i := -Radius; i <= Radius; i++ {
		out = append(out, center.Add(i))
	}
	return out
}

func (m *Manager) reset(kind Kind, center calendar.Month) Request {
	m.gen++
	m.seq++
	m.replacing, m.replaceSeq = true, m.seq
	return Request{Kind: kind, Center: center, Months: centered(center), Gen: m.gen, Seq: m.seq}
}

// Initialize starts a fresh window centered on today's month.
func (m *Manager) Initialize(today time.Time) Request {
	return m.reset(KindInit, calendar.MonthOf(today))
}

// Refresh reloads the months currently in the window, keeping the visible
// month and block positions. With nothing loaded it is Initialize.
func (m *Manager) Refresh(today time.Time) Request {
	if len(m.months) == 0 {
		return m.Initialize(today)
	}
	months := make([]calendar.Month, len(m.months))
	for i, md := range m.months {
		months[i] = md.Month
	}
	m.gen++
	m.seq++
	m.replacing, m.replaceSeq = true, m.seq
	return Request{Kind: KindRefresh, Center: m.visible, Months: months, Gen: m.gen, Seq: m.seq}
}

// BeginExtend asks for ExtendStep more months on one edge. It returns false
// while another extend is in flight, while a replacement of the window is
// pending, or before anything is loaded.
func (m *Manager) BeginExtend(dir Direction) (Request, bool) {
	if m.extending || m.replacing || len(m.months) == 0 {
		return Request{}, false
	}
	m.extending = true
	m.seq++
	m.extendSeq = m.seq

	months := make([]calendar.Month, 0, ExtendStep)
	if dir == Before {
		first := m.months[0].Month
		for i := ExtendStep; i >= 1; i-- {
			months = append(months, first.Add(-i))
		}
	} else {
		last := m.months[len(m.months)-1].Month
		for i := 1; i <= ExtendStep; i++ {
			months = append(months, last.Add(i))
		}
	}
	return Request{Kind: KindExtend, Dir: dir, Months: months, Gen: m.gen, Seq: m.seq}, true
}

// JumpTo scrolls to month if it is loaded. Otherwise it returns a reset
// request centered on month; applying it scrolls there without animation.
func (m *Manager) JumpTo(month calendar.Month) (ScrollTarget, Request, bool) {
	if i := m.Index(month); i >= 0 {
		m.visible = month
		return ScrollTarget{Index: i, Smooth: true}, Request{}, true
	}
	return ScrollTarget{}, m.reset(KindReset, month), false
}

// GoToToday is JumpTo for today's month.
func (m *Manager) GoToToday(today time.Time) (ScrollTarget, Request, bool) {
	return m.JumpTo(calendar.MonthOf(today))
}

// Apply commits a settled batch. Results from an older generation, failed
// loads and extends that no longer line up with the window are dropped.
func (m *Manager) Apply(r Result) Outcome {
	if r.Kind == KindExtend && r.Seq == m.extendSeq {
		m.extending = false
	}
	if r.Kind != KindExtend && r.Seq == m.replaceSeq {
		m.replacing = false
	}
	if r.Err != nil || r.Gen != m.gen || len(r.Data) != len(r.Months) {
		return Outcome{}
	}
	m.patchSaved(r.Seq, r.Data)

	switch r.Kind {
	case KindExtend:
		return m.applyExtend(r)
	case KindRefresh:
		m.months = r.Data
		return Outcome{Applied: true, Replaced: true, Added: r.Data}
	default:
		m.months = r.Data
		m.visible = r.Center
		out := Outcome{Applied: true, Replaced: true, Added: r.Data}
		idx := m.Index(r.Center)
		if r.Kind == KindInit && m.latch == notYetScrolled {
			m.latch = scrollPending
			m.initialTarget = idx
		}
		if r.Kind == KindReset {
			out.Scroll = &ScrollTarget{Index: idx, Smooth: false}
		}
		return out
	}
}

func (m *Manager) applyExtend(r Result) Outcome {
	if len(m.months) == 0 {
		return Outcome{}
	}
	if r.Dir == Before {
		if r.Data[len(r.Data)-1].Month.Add(1) != m.months[0].Month {
			return Outcome{}
		}
		months := make([]calendar.MonthData, 0, len(r.Data)+len(m.months))
		months = append(months, r.Data...)
		m.months = append(months, m.months...)
		return Outcome{Applied: true, Added: r.Data, Prepended: len(r.Data)}
	}
	if m.months[len(m.months)-1].Month.Add(1) != r.Data[0].Month {
		return Outcome{}
	}
	m.months = append(m.months, r.Data...)
	return Outcome{Applied: true, Added: r.Data}
}

// patchSaved re-applies note text saved after the request was issued.
func (m *Manager) patchSaved(seq uint64, data []calendar.MonthData) {
	if len(m.saved) == 0 {
		return
	}
	for mi := range data {
		for di := range data[mi].Days {
			d := &data[mi].Days[di]
			if s, ok := m.saved[d.Key()]; ok && seq <= s.atSeq && d.File != nil {
				d.Content = s.text
			}
		}
	}
}

// ConsumeInitialScroll returns the block to show first after the very first
// Initialize. It reports true at most once per Manager.
func (m *Manager) ConsumeInitialScroll() (ScrollTarget, bool) {
	if m.latch != scrollPending {
		return ScrollTarget{}, false
	}
	m.latch = scrolled
	return ScrollTarget{Index: m.initialTarget, Smooth: false}, true
}

// UpdateContent writes text into every loaded copy of date and returns the
// cells it touched.
func (m *Manager) UpdateContent(date time.Time, text string) []render.Key {
	key := date.Format(calendar.DateLayout)
	m.saved[key] = savedText{text: text, atSeq: m.seq}

	var touched []render.Key
	for mi := range m.months {
		md := &m.months[mi]
		if i := md.Find(key); i >= 0 {
			md.Days[i].Content = text
			touched = append(touched, render.Key{Month: md.Month, Date: key})
		}
	}
	return touched
}

// OnScroll updates the visible month from the block geometry and reports
// whether an edge is close enough to extend. The returned request is only
// valid when extend is true.
func (m *Manager) OnScroll(sm ScrollMetrics) (visibleChanged bool, req Request, extend bool) {
	for i, b := range sm.Blocks {
		if i >= len(m.months) {
			break
		}
		top := b.Top - sm.ScrollTop
		bottom := b.Bottom - sm.ScrollTop
		if top <= m.th.VisibleBand && bottom > 0 {
			if m.months[i].Month != m.visible {
				m.visible = m.months[i].Month
				visibleChanged = true
			}
			break
		}
	}

	if m.extending || m.replacing {
		return visibleChanged, Request{}, false
	}
	switch {
	case sm.ScrollTop < m.th.EdgeDistance:
		req, extend = m.BeginExtend(Before)
	case sm.ScrollHeight-(sm.ScrollTop+sm.ClientHeight) < m.th.EdgeDistance:
		req, extend = m.BeginExtend(After)
	}
	return visibleChanged, req, extend
}
