// Package ui holds the terminal pieces around the query: the progress
// spinner, the interactive server picker and output wrapping. Nothing
// in here touches the protocol.
package ui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner renders a progress indicator on stderr on a ~100ms tick while
// the network phase runs. It is a no-op when stderr is not a terminal.
type Spinner struct {
	mu   sync.Mutex
	msg  string
	tty  bool
	done chan struct{}
	gone chan struct{}
	once sync.Once
}

// NewSpinner creates a stopped spinner.
func NewSpinner() *Spinner {
	fd := os.Stderr.Fd()
	return &Spinner{
		tty:  isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		done: make(chan struct{}),
		gone: make(chan struct{}),
	}
}

// SetMessage updates the text shown next to the spinner. Safe to call
// from the goroutine driving the query.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Start begins ticking. The spinner races the work it decorates: each
// loop iteration handles whichever comes first, a tick or Stop.
func (s *Spinner) Start() {
	if !s.tty {
		close(s.gone)
		return
	}
	go s.loop()
}

func (s *Spinner) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-s.done:
			fmt.Fprint(os.Stderr, "\r\033[K")
			close(s.gone)
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.msg
			s.mu.Unlock()
			fmt.Fprintf(os.Stderr, "\r\033[K%s %s", color.CyanString(spinnerFrames[frame]), msg)
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

// Stop clears the indicator and waits for the render loop to finish, so
// no frame lands after the caller starts printing results.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
	<-s.gone
}
