package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderers keeps idle glamour renderers per Options value. A TermRenderer
// must not render from two goroutines at once, so each caller checks one out
// and hands it back when done.
type renderers struct {
	mu   sync.Mutex
	idle map[Options][]*glamour.TermRenderer
	max  int
}

var shared = newRenderers(4)

func newRenderers(max int) *renderers {
	return &renderers{idle: make(map[Options][]*glamour.TermRenderer), max: max}
}

// checkout returns an idle renderer for opts or builds a new one
func (r *renderers) checkout(opts Options) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	if list := r.idle[opts]; len(list) > 0 {
		tr := list[len(list)-1]
		r.idle[opts] = list[:len(list)-1]
		r.mu.Unlock()
		return tr, nil
	}
	r.mu.Unlock()

	return newTermRenderer(opts)
}

// checkin parks tr for reuse; renderers beyond max per key are dropped
func (r *renderers) checkin(opts Options, tr *glamour.TermRenderer) {
	if tr == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.idle[opts]) >= r.max {
		return
	}
	r.idle[opts] = append(r.idle[opts], tr)
}

// idleCount reports how many renderers are parked for opts
func (r *renderers) idleCount(opts Options) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.idle[opts])
}

func (r *renderers) reset() {
	r.mu.Lock()
	r.idle = make(map[Options][]*glamour.TermRenderer)
	r.mu.Unlock()
}

// newTermRenderer builds a glamour renderer. WithStylePath accepts both the
// standard style names and a JSON style file.
func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := opts.Style
	if style == "" {
		style = ThemeDark
	}

	ropts := []glamour.TermRendererOption{
		glamour.WithStylePath(style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		ropts = append(ropts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ropts = append(ropts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(ropts...)
}

// ResetRenderers drops every parked renderer
func ResetRenderers() {
	shared.reset()
}
