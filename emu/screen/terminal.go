package screen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

const (
	keyEscape = 0x1B
	keyCtrlC  = 0x03

	// two framebuffer rows are drawn per text line using half blocks
	terminalColumns = Width
	terminalLines   = Height / 2
)

var errNotTerminal = errors.New("input is not a terminal")

// Terminal renders the framebuffer as ANSI text and reads the keypad from
// raw stdin.
type Terminal struct {
	logger *log.Logger
	in     *os.File
	out    io.Writer

	buffer   *Buffer
	oldState *term.State
	keys     chan rune

	heldUntil [16]time.Time
	now       func() time.Time
	next      NextKey
	closed    bool
}

// NewTerminal returns a terminal surface reading from in and drawing to
// out. Start must be called before use.
func NewTerminal(logger *log.Logger, in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		logger: logger,
		in:     in,
		out:    out,
		buffer: NewBuffer(),
		keys:   make(chan rune, 64),
		now:    time.Now,
	}
}

// Start puts the terminal in raw mode and begins reading keys.
func (t *Terminal) Start() error {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return errNotTerminal
	}

	if width, height, err := term.GetSize(fd); err == nil && (width < terminalColumns || height < terminalLines) {
		t.logger.Warn("Terminal is smaller than the display",
			log.Int("columns", width),
			log.Int("lines", height))
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	t.oldState = oldState

	// clear screen, hide cursor
	if _, err := io.WriteString(t.out, "\x1b[2J\x1b[?25l"); err != nil {
		_ = t.Stop()
		return fmt.Errorf("initializing terminal: %w", err)
	}

	go t.readKeys(t.in)
	return nil
}

// Stop shows the cursor again and restores the terminal mode.
func (t *Terminal) Stop() error {
	_, _ = io.WriteString(t.out, "\x1b[?25h\r\n")
	if t.oldState == nil {
		return nil
	}
	err := term.Restore(int(t.in.Fd()), t.oldState)
	t.oldState = nil
	return err
}

// readKeys forwards input characters until r fails.
func (t *Terminal) readKeys(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, c := range keyRunes(buf[:n]) {
			t.keys <- c
		}
		if err != nil {
			return
		}
	}
}

// keyRunes decodes the characters of a single read. Cursor and function
// keys arrive as escape sequences in one read, those are dropped so that
// only a lone escape byte closes the terminal.
func keyRunes(chunk []byte) []rune {
	var runes []rune
	for len(chunk) > 0 {
		if chunk[0] == keyEscape && len(chunk) > 1 {
			break
		}
		c, size := utf8.DecodeRune(chunk)
		runes = append(runes, c)
		chunk = chunk[size:]
	}
	return runes
}

// Update processes the characters read since the last call.
func (t *Terminal) Update() {
	for {
		select {
		case c := <-t.keys:
			t.handleRune(c)
		default:
			return
		}
	}
}

func (t *Terminal) handleRune(c rune) {
	switch c {
	case keyEscape, keyCtrlC:
		t.closed = true
		return
	}

	key, ok := KeyForRune(c)
	if !ok {
		return
	}
	t.heldUntil[key] = t.now().Add(keyRepeatDuration)
	t.next.Fire(key)
}

// Closed reports whether escape or ctrl-c was pressed.
func (t *Terminal) Closed() bool {
	return t.closed
}

// IsPressed reports whether key was typed within the key repeat window.
func (t *Terminal) IsPressed(key uint8) bool {
	return t.now().Before(t.heldUntil[key&0xF])
}

// OnNextKey registers a handler called by Update for the next key press.
func (t *Terminal) OnNextKey(handler func(key uint8)) {
	t.next.Set(handler)
}

// Clear unsets all pixels.
func (t *Terminal) Clear() {
	t.buffer.Clear()
}

// Toggle flips a pixel and reports whether it is now unset.
func (t *Terminal) Toggle(x, y int) bool {
	return t.buffer.Toggle(x, y)
}

// Present redraws the whole framebuffer in place.
func (t *Terminal) Present() error {
	var frame bytes.Buffer
	frame.WriteString("\x1b[H")
	for line := range terminalLines {
		top := line * 2
		for x := range terminalColumns {
			frame.WriteString(halfBlock(t.buffer.Pixel(x, top), t.buffer.Pixel(x, top+1)))
		}
		frame.WriteString("\r\n")
	}

	if _, err := t.out.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func halfBlock(upper, lower bool) string {
	switch {
	case upper && lower:
		return "█"
	case upper:
		return "▀"
	case lower:
		return "▄"
	default:
		return " "
	}
}
