// Package window provides an OpenGL window frontend. It is kept apart from
// package screen so that headless users do not link against glfw.
package window

import (
	"fmt"

	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"
)

// Window is an OpenGL window surface with keyboard input. It must be
// created and used from within pixelgl.Run.
type Window struct {
	*pixelgl.Window
	KeyMap map[uint8]pixelgl.Button

	buffer *screen.Buffer
	imd    *imdraw.IMDraw
	scale  float64
	next   screen.NextKey
}

var buttonLayout = map[rune]pixelgl.Button{
	'1': pixelgl.Key1, '2': pixelgl.Key2, '3': pixelgl.Key3, '4': pixelgl.Key4,
	'q': pixelgl.KeyQ, 'w': pixelgl.KeyW, 'e': pixelgl.KeyE, 'r': pixelgl.KeyR,
	'a': pixelgl.KeyA, 's': pixelgl.KeyS, 'd': pixelgl.KeyD, 'f': pixelgl.KeyF,
	'z': pixelgl.KeyZ, 'x': pixelgl.KeyX, 'c': pixelgl.KeyC, 'v': pixelgl.KeyV,
}

// New opens a window showing each CHIP-8 pixel as a scale x scale square.
func New(scale float64) (*Window, error) {
	cfg := pixelgl.WindowConfig{
		Title:  "Chyp8",
		Bounds: pixel.R(0, 0, screen.Width*scale, screen.Height*scale),
		VSync:  true,
	}

	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	return &Window{
		Window: win,
		KeyMap: keyMap(),
		buffer: screen.NewBuffer(),
		imd:    imdraw.New(nil),
		scale:  scale,
	}, nil
}

func keyMap() map[uint8]pixelgl.Button {
	layout := screen.Layout()
	keys := make(map[uint8]pixelgl.Button, len(layout))
	for r, key := range layout {
		keys[key] = buttonLayout[r]
	}
	return keys
}

// Clear unsets all pixels.
func (w *Window) Clear() {
	w.buffer.Clear()
}

// Toggle flips a pixel and reports whether it is now unset.
func (w *Window) Toggle(x, y int) bool {
	return w.buffer.Toggle(x, y)
}

// Present draws the framebuffer into the window back buffer, it becomes
// visible on the next Update.
func (w *Window) Present() error {
	w.imd.Clear()
	w.imd.Color = colornames.White
	for y := range screen.Height {
		for x := range screen.Width {
			if !w.buffer.Pixel(x, y) {
				continue
			}
			// pixel has its origin in the bottom left corner
			minX := float64(x) * w.scale
			minY := float64(screen.Height-1-y) * w.scale
			w.imd.Push(pixel.V(minX, minY), pixel.V(minX+w.scale, minY+w.scale))
			w.imd.Rectangle(0)
		}
	}

	w.Window.Clear(colornames.Black)
	w.imd.Draw(w.Window)
	return nil
}

// IsPressed reports whether the button mapped to key is held down.
func (w *Window) IsPressed(key uint8) bool {
	button, ok := w.KeyMap[key]
	return ok && w.Pressed(button)
}

// OnNextKey registers a handler called by Update for the next key press.
func (w *Window) OnNextKey(handler func(key uint8)) {
	w.next.Set(handler)
}

// Update swaps the window buffers, polls events and fires a pending key
// handler. Escape closes the window.
func (w *Window) Update() {
	w.Window.Update()

	if w.JustPressed(pixelgl.KeyEscape) {
		w.SetClosed(true)
	}
	for key := range uint8(16) {
		if button, ok := w.KeyMap[key]; ok && w.JustPressed(button) {
			w.next.Fire(key)
			return
		}
	}
}
