// Package screen implements the pixel surfaces and keypads the interpreter
// draws on and reads from.
package screen

const (
	Width  = 64
	Height = 32
)

// Buffer is an in-memory 64x32 monochrome framebuffer with XOR drawing.
// Window and Terminal render from it, and it serves as a headless surface.
type Buffer struct {
	cells [Width * Height]bool
}

// NewBuffer returns a buffer with all pixels unset.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Clear unsets all pixels.
func (b *Buffer) Clear() {
	b.cells = [Width * Height]bool{}
}

// Toggle flips the pixel at (x, y) wrapped to the buffer dimensions and
// reports whether the pixel is now unset.
func (b *Buffer) Toggle(x, y int) bool {
	i := index(x, y)
	b.cells[i] = !b.cells[i]
	return !b.cells[i]
}

// Pixel reports whether the pixel at (x, y) wrapped to the buffer
// dimensions is set.
func (b *Buffer) Pixel(x, y int) bool {
	return b.cells[index(x, y)]
}

// Lit returns the number of set pixels.
func (b *Buffer) Lit() int {
	var count int
	for _, cell := range b.cells {
		if cell {
			count++
		}
	}
	return count
}

// Present does nothing, a buffer has no backing display.
func (b *Buffer) Present() error {
	return nil
}

func index(x, y int) int {
	return wrap(y, Height)*Width + wrap(x, Width)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
