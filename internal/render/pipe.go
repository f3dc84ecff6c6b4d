package render

import (
	"github.com/sirupsen/logrus"

	"github.com/thinkwright/quickcal/internal/calendar"
)

// Job renders one day's text into the cell at Key.
type Job struct {
	Key        Key
	Text       string
	SourcePath string
	Width      int
	epoch      uint64
}

// Result is a finished Job.
type Result struct {
	Key   Key
	Text  string
	epoch uint64
}

// Pipe owns the rendered output of every mounted day cell. Mount, Commit
// and Reset run on the UI loop; Run may run anywhere.
type Pipe struct {
	width   int
	epoch   uint64
	mounted map[calendar.Month]bool
	out     map[Key]string
	log     *logrus.Entry
}

func NewPipe(width int, log *logrus.Entry) *Pipe {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipe{
		width:   width,
		mounted: make(map[calendar.Month]bool),
		out:     make(map[Key]string),
		log:     log.WithField("component", "render"),
	}
}

func (p *Pipe) Width() int { return p.width }

// SetWidth changes the cell width. Existing output is dropped; callers
// remount every block afterwards.
func (p *Pipe) SetWidth(w int) {
	if w == p.width {
		return
	}
	p.width = w
	p.Reset()
}

// Mount marks md's block as present and returns jobs for each day that has
// a note with text.
func (p *Pipe) Mount(md calendar.MonthData) []Job {
	p.mounted[md.Month] = true
	var jobs []Job
	for _, d := range md.Days {
		if d.File == nil || d.Content == "" {
			continue
		}
		jobs = append(jobs, Job{
			Key:        Key{Month: md.Month, Date: d.Key()},
			Text:       d.Content,
			SourcePath: d.File.Path,
			Width:      p.width,
			epoch:      p.epoch,
		})
	}
	return jobs
}

// Mounted reports whether month's block has been mounted.
func (p *Pipe) Mounted(month calendar.Month) bool { return p.mounted[month] }

// Remount returns jobs re-rendering text into each of keys.
func (p *Pipe) Remount(keys []Key, text, sourcePath string) []Job {
	jobs := make([]Job, 0, len(keys))
	for _, k := range keys {
		if !p.mounted[k.Month] {
			continue
		}
		jobs = append(jobs, Job{Key: k, Text: text, SourcePath: sourcePath, Width: p.width, epoch: p.epoch})
	}
	return jobs
}

// Run executes jobs. A failed render falls back to the raw text.
func (p *Pipe) Run(r Renderer, jobs []Job) []Result {
	results := make([]Result, 0, len(jobs))
	for _, j := range jobs {
		text, err := r.Render(j.Text, j.SourcePath, j.Width)
		if err != nil {
			p.log.WithError(err).WithField("cell", j.Key.String()).Warn("render failed, showing raw text")
			text = j.Text
		}
		results = append(results, Result{Key: j.Key, Text: text, epoch: j.epoch})
	}
	return results
}

// Commit stores results, replacing whatever a cell showed before. Results
// from before the last Reset, or for blocks no longer mounted, are dropped.
func (p *Pipe) Commit(results []Result) int {
	n := 0
	for _, r := range results {
		if r.epoch != p.epoch || !p.mounted[r.Key.Month] {
			continue
		}
		delete(p.out, r.Key)
		p.out[r.Key] = r.Text
		n++
	}
	return n
}

// Output returns the rendered text for a cell.
func (p *Pipe) Output(k Key) (string, bool) {
	s, ok := p.out[k]
	return s, ok
}

// Reset unmounts everything.
func (p *Pipe) Reset() {
	p.epoch++
	p.mounted = make(map[calendar.Month]bool)
	p.out = make(map[Key]string)
}
