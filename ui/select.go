package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ErrInterrupted is returned when the user aborts an interactive
// prompt. It is distinct from every other error: the caller exits
// without printing a diagnostic.
var ErrInterrupted = errors.New("interrupted")

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	cursorColor = color.New(color.FgCyan)
)

// restoreMu guards the saved terminal state, letting an interrupt
// handler in another goroutine restore the terminal while the prompt is
// still blocked reading stdin.
var (
	restoreMu    sync.Mutex
	restoreState *term.State
	restoreFd    int
)

// RestoreTerminal undoes raw mode if a prompt left it active. Safe to
// call at any time, from any goroutine.
func RestoreTerminal() {
	restoreMu.Lock()
	defer restoreMu.Unlock()
	if restoreState != nil {
		term.Restore(restoreFd, restoreState)
		restoreState = nil
	}
}

func saveTerminal(fd int, st *term.State) {
	restoreMu.Lock()
	restoreFd, restoreState = fd, st
	restoreMu.Unlock()
}

// Select shows an interactive picker on the terminal and returns the
// zero-based index of the chosen item. Arrow keys or j/k move, digits
// jump, enter confirms, ctrl-c aborts with ErrInterrupted. The terminal
// is always restored before returning.
func Select(prompt string, items []string) (int, error) {
	fd := int(os.Stdin.Fd())
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return 0, errors.New("selection requires a terminal, pass --server instead")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return 0, fmt.Errorf("set terminal mode: %w", err)
	}
	saveTerminal(fd, oldState)
	defer RestoreTerminal()

	return pick(os.Stdin, os.Stderr, prompt, items)
}

// pick runs the key-decode loop against an arbitrary byte stream. The
// input is read one byte at a time so escape sequences split across
// reads decode the same as ones delivered whole.
func pick(in io.Reader, out io.Writer, prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, errors.New("nothing to select from")
	}

	selected := 0
	render(out, prompt, items, selected, false)

	keys := bufio.NewReader(in)
	for {
		key, err := readKey(keys)
		if err != nil {
			clearLines(out, len(items)+1)
			return 0, fmt.Errorf("read key: %w", err)
		}

		switch key {
		case 0x03, 0x04: // ctrl-c / ctrl-d
			clearLines(out, len(items)+1)
			return 0, ErrInterrupted
		case '\r', '\n':
			clearLines(out, len(items)+1)
			render(out, prompt, items, selected, true)
			return selected, nil
		case 'k', 'p', keyUp:
			selected = (selected + len(items) - 1) % len(items)
		case 'j', 'n', keyDown:
			selected = (selected + 1) % len(items)
		default:
			if key >= '1' && key <= '9' {
				if i := int(key - '1'); i < len(items) {
					selected = i
				}
			}
		}

		clearLines(out, len(items)+1)
		render(out, prompt, items, selected, false)
	}
}

// Arrow keys decode to values outside the byte range so they share the
// switch with plain keys.
const (
	keyUp = 0x100 + iota
	keyDown
)

// readKey returns the next key, folding CSI arrow sequences into keyUp
// and keyDown. Unrecognized escape sequences come back as the escape
// byte itself, which the caller ignores.
func readKey(r *bufio.Reader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0x1b {
		return int(b), nil
	}
	next, err := r.ReadByte()
	if err != nil || next != '[' {
		return int(b), err
	}
	final, err := r.ReadByte()
	if err != nil {
		return int(b), err
	}
	switch final {
	case 'A':
		return keyUp, nil
	case 'B':
		return keyDown, nil
	}
	return int(b), nil
}

// render draws the prompt and the item list. Raw mode needs explicit
// carriage returns.
func render(out io.Writer, prompt string, items []string, selected int, final bool) {
	if final {
		fmt.Fprintf(out, "%s %s\r\n", promptColor.Sprint(prompt), items[selected])
		return
	}
	fmt.Fprintf(out, "%s\r\n", promptColor.Sprint(prompt))
	for i, item := range items {
		if i == selected {
			fmt.Fprintf(out, "%s %s\r\n", cursorColor.Sprint("❯"), item)
		} else {
			fmt.Fprintf(out, "  %s\r\n", item)
		}
	}
}

// clearLines erases the n lines the previous render produced.
func clearLines(out io.Writer, n int) {
	fmt.Fprintf(out, "\033[%dA\033[J", n)
}
