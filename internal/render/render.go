// Package render turns note markdown into terminal output for the day cells.
package render

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer renders note text. sourcePath is the note's vault path; relative
// links resolve against its folder.
type Renderer interface {
	Render(text, sourcePath string, width int) (string, error)
}

type glamourKey struct {
	width int
	base  string
}

// Glamour renders markdown with glamour. Term renderers are cached per
// width and base folder.
type Glamour struct {
	style string

	mu        sync.Mutex
	renderers map[glamourKey]*glamour.TermRenderer
}

func NewGlamour(style string) *Glamour {
	if style == "" {
		// Fixed style avoids slow terminal background detection.
		style = "dark"
	}
	return &Glamour{style: style, renderers: make(map[glamourKey]*glamour.TermRenderer)}
}

func (g *Glamour) renderer(width int, base string) (*glamour.TermRenderer, error) {
	k := glamourKey{width: width, base: base}
	if r, ok := g.renderers[k]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(g.style),
		glamour.WithWordWrap(width),
		glamour.WithBaseURL(base),
	)
	if err != nil {
		return nil, err
	}
	g.renderers[k] = r
	return r, nil
}

func (g *Glamour) Render(text, sourcePath string, width int) (string, error) {
	if width < 1 {
		width = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	base := ""
	if sourcePath != "" {
		base = path.Dir(sourcePath) + "/"
	}
	r, err := g.renderer(width, base)
	if err != nil {
		return "", fmt.Errorf("render: new renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", sourcePath, err)
	}
	return strings.Trim(out, "\n"), nil
}
