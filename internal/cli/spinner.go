package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// placeSpinner animates a status line on w while a placement runs and
// shows how many candidates have finished.
type placeSpinner struct {
	w      io.Writer
	label  string
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	frame       int
	done, total int
	width       int
	started     bool
	closed      bool

	stopOnce sync.Once
	exited   chan struct{}
}

func newPlaceSpinner(ctx context.Context, w io.Writer, label string) *placeSpinner {
	ctx, cancel := context.WithCancel(ctx)
	return &placeSpinner{w: w, label: label, ctx: ctx, cancel: cancel, exited: make(chan struct{})}
}

// start draws the first frame and animates until stop or cancellation.
func (s *placeSpinner) start() {
	s.mu.Lock()
	s.started = true
	s.draw()
	s.mu.Unlock()

	go func() {
		defer close(s.exited)
		tick := time.NewTicker(80 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-tick.C:
				s.mu.Lock()
				s.frame++
				s.draw()
				s.mu.Unlock()
			}
		}
	}()
}

// progress matches placer.Options.Progress.
func (s *placeSpinner) progress(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done > s.done {
		s.done = done
	}
	s.total = total
	s.draw()
}

// status is the text next to the spinner glyph.
func (s *placeSpinner) status() string {
	if s.total == 0 {
		return s.label
	}
	return fmt.Sprintf("%s · %d/%d candidates", s.label, s.done, s.total)
}

// draw must be called with mu held.
func (s *placeSpinner) draw() {
	if s.closed {
		return
	}
	line := StyleHighlight.Render(spinnerFrames[s.frame%len(spinnerFrames)]) + " " + StyleDim.Render(s.status())
	pad := max(s.width-lipgloss.Width(line), 0)
	fmt.Fprint(s.w, "\r"+line+strings.Repeat(" ", pad))
	s.width = max(s.width, lipgloss.Width(line))
}

// stop ends the animation and blanks the line. Safe to call repeatedly.
func (s *placeSpinner) stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.exited
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.width)+"\r")
	})
}
