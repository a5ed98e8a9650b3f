package screen

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestBufferToggle(t *testing.T) {
	b := NewBuffer()

	assert.False(t, b.Toggle(3, 4))
	assert.True(t, b.Pixel(3, 4))
	assert.Equal(t, 1, b.Lit())

	assert.True(t, b.Toggle(3, 4))
	assert.False(t, b.Pixel(3, 4))
	assert.Equal(t, 0, b.Lit())
}

func TestBufferWraps(t *testing.T) {
	b := NewBuffer()

	b.Toggle(Width+1, Height+2)
	assert.True(t, b.Pixel(1, 2))

	b.Toggle(-1, -1)
	assert.True(t, b.Pixel(Width-1, Height-1))
	assert.Equal(t, 2, b.Lit())
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	for x := range Width {
		b.Toggle(x, x%Height)
	}
	assert.Equal(t, Width, b.Lit())

	b.Clear()
	assert.Equal(t, 0, b.Lit())
	assert.NoError(t, b.Present())
}

func TestKeyForRune(t *testing.T) {
	tests := []struct {
		r   rune
		key uint8
	}{
		{'1', 0x1}, {'4', 0xC}, {'q', 0x4}, {'R', 0xD},
		{'a', 0x7}, {'f', 0xE}, {'x', 0x0}, {'V', 0xF},
	}
	for _, tt := range tests {
		key, ok := KeyForRune(tt.r)
		assert.True(t, ok)
		assert.Equal(t, tt.key, key)
	}

	_, ok := KeyForRune('p')
	assert.False(t, ok)
}

func TestKeyLayoutCoversKeypad(t *testing.T) {
	var seen [16]bool
	layout := Layout()
	assert.Len(t, layout, 16)
	for _, key := range layout {
		seen[key] = true
	}
	for _, ok := range seen {
		assert.True(t, ok)
	}
}

func TestNextKeyFiresOnce(t *testing.T) {
	var n NextKey
	var got []uint8
	n.Fire(1)

	n.Set(func(key uint8) { got = append(got, key) })
	n.Fire(2)
	n.Fire(3)

	assert.Len(t, got, 1)
	assert.Equal(t, uint8(2), got[0])
}

func TestNextKeyCancelled(t *testing.T) {
	var n NextKey
	fired := false
	n.Set(func(uint8) { fired = true })
	n.Set(nil)
	n.Fire(4)

	assert.False(t, fired)
}
