package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// clearLine returns the cursor to column zero and erases the line.
const clearLine = "\r" + ansi.EraseEntireLine

// Spinner draws a single-line progress animation while a backend is
// thinking. It satisfies llm.Indicator. A Spinner is single use: once
// stopped it cannot be restarted.
type Spinner struct {
	out    io.Writer
	label  string
	frames []string
	tick   time.Duration
	style  lipgloss.Style

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner uses the bubbles Dot animation.
func NewSpinner(out io.Writer, label string, styles *Styles) *Spinner {
	return newSpinner(out, label, spinner.Dot, styles)
}

func newSpinner(out io.Writer, label string, s spinner.Spinner, styles *Styles) *Spinner {
	sp := &Spinner{
		out:    out,
		label:  label,
		frames: s.Frames,
		tick:   s.FPS,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if styles != nil {
		sp.style = styles.Prompt
	}
	return sp
}

// Start begins drawing in a background goroutine.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.run()
}

// Stop halts the animation, erases the line and waits for the drawing
// goroutine to exit. Safe to call more than once and before Start.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stop)
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

func (s *Spinner) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	frame := 0
	for {
		fmt.Fprintf(s.out, "%s%s %s", clearLine, s.style.Render(s.frames[frame%len(s.frames)]), s.label)
		frame++
		select {
		case <-s.stop:
			fmt.Fprint(s.out, clearLine)
			return
		case <-ticker.C:
		}
	}
}
