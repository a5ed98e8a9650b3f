package screen

import "time"

// keyRepeatDuration is how long a terminal key counts as held after its
// last byte, terminals do not report key releases.
const keyRepeatDuration = time.Second / 5

// keyLayout maps the left side of a QWERTY keyboard onto the COSMAC VIP
// hex keypad:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var keyLayout = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// KeyForRune returns the keypad key a keyboard character is mapped to.
func KeyForRune(r rune) (uint8, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	key, ok := keyLayout[r]
	return key, ok
}

// Layout returns a copy of the lower case keyboard character to keypad key
// mapping.
func Layout() map[rune]uint8 {
	layout := make(map[rune]uint8, len(keyLayout))
	for r, key := range keyLayout {
		layout[r] = key
	}
	return layout
}

// NextKey holds a one-shot key press handler.
type NextKey struct {
	handler func(key uint8)
}

// Set replaces the pending handler, nil cancels it.
func (n *NextKey) Set(handler func(key uint8)) {
	n.handler = handler
}

// Fire calls and clears the pending handler, if any.
func (n *NextKey) Fire(key uint8) {
	handler := n.handler
	if handler == nil {
		return
	}
	n.handler = nil
	handler(key)
}
