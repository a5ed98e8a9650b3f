package cpu

import (
	"errors"
	"testing"

	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type testKeypad struct {
	pressed [16]bool
	handler func(key uint8)
}

func (k *testKeypad) IsPressed(key uint8) bool {
	return k.pressed[key&0xF]
}

func (k *testKeypad) OnNextKey(handler func(key uint8)) {
	k.handler = handler
}

// newTestEMU returns an interpreter with the given opcodes loaded at 0x200.
func newTestEMU(t *testing.T, program ...uint16) (*EMU, *screen.Buffer, *testKeypad) {
	t.Helper()

	buf := screen.NewBuffer()
	keys := &testKeypad{}
	emu := NewEMU(log.NewTestLogger(t), buf, keys)
	assert.NoError(t, emu.LoadROM(assemble(program...)))
	return emu, buf, keys
}

func assemble(program ...uint16) []byte {
	rom := make([]byte, 0, len(program)*2)
	for _, opcode := range program {
		rom = append(rom, byte(opcode>>8), byte(opcode))
	}
	return rom
}

func step(t *testing.T, emu *EMU, count int) {
	t.Helper()
	for range count {
		assert.NoError(t, emu.EmulateCycle())
	}
}

func TestNewEMU(t *testing.T) {
	emu := NewEMU(log.NewTestLogger(t), screen.NewBuffer(), &testKeypad{})

	assert.Equal(t, uint16(0x200), emu.PC())
	assert.Equal(t, uint8(0), emu.SP())
	assert.Equal(t, Running, emu.State())
	assert.False(t, emu.Paused())
	for i, b := range FontSet {
		assert.Equal(t, b, emu.Memory(uint16(i)))
	}
}

func TestLoadROM(t *testing.T) {
	t.Run("copies at 0x200", func(t *testing.T) {
		emu := NewEMU(log.NewTestLogger(t), screen.NewBuffer(), &testKeypad{})
		assert.NoError(t, emu.LoadROM([]byte{0x12, 0x34, 0x56}))

		assert.Equal(t, uint8(0x12), emu.Memory(0x200))
		assert.Equal(t, uint8(0x34), emu.Memory(0x201))
		assert.Equal(t, uint8(0x56), emu.Memory(0x202))
	})

	t.Run("largest program fits", func(t *testing.T) {
		emu := NewEMU(log.NewTestLogger(t), screen.NewBuffer(), &testKeypad{})
		rom := make([]byte, 3584)
		rom[len(rom)-1] = 0xAA
		assert.NoError(t, emu.LoadROM(rom))
		assert.Equal(t, uint8(0xAA), emu.Memory(0xFFF))
	})

	t.Run("too large", func(t *testing.T) {
		emu := NewEMU(log.NewTestLogger(t), screen.NewBuffer(), &testKeypad{})
		err := emu.LoadROM(make([]byte, 3585))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrROMTooLarge))
		assert.Equal(t, uint8(0), emu.Memory(0x200))
	})

	t.Run("only once", func(t *testing.T) {
		emu := NewEMU(log.NewTestLogger(t), screen.NewBuffer(), &testKeypad{})
		assert.NoError(t, emu.LoadROM([]byte{0x00, 0xE0}))
		assert.True(t, errors.Is(emu.LoadROM([]byte{0x00, 0xE0}), ErrROMLoaded))
	})
}

func TestFetchWrapsAddressSpace(t *testing.T) {
	emu, _, _ := newTestEMU(t, 0x1FFE)
	emu.memory[0xFFE] = 0x60
	emu.memory[0xFFF] = 0x42

	step(t, emu, 2)

	assert.Equal(t, uint8(0x42), emu.V[0])
	assert.Equal(t, uint16(0x000), emu.PC())
}

func TestTickTimers(t *testing.T) {
	emu, _, _ := newTestEMU(t, 0x6002, 0xF015, 0x6101, 0xF118)
	step(t, emu, 4)
	assert.Equal(t, uint8(2), emu.DelayTimer())
	assert.Equal(t, uint8(1), emu.SoundTimer())
	assert.True(t, emu.SoundActive())

	emu.TickTimers()
	assert.Equal(t, uint8(1), emu.DelayTimer())
	assert.Equal(t, uint8(0), emu.SoundTimer())
	assert.False(t, emu.SoundActive())

	emu.TickTimers()
	emu.TickTimers()
	assert.Equal(t, uint8(0), emu.DelayTimer())
	assert.Equal(t, uint8(0), emu.SoundTimer())
}

func TestTimersUntouchedByCycles(t *testing.T) {
	emu, _, _ := newTestEMU(t, 0x6005, 0xF015, 0x1204)
	step(t, emu, 10)

	assert.Equal(t, uint8(5), emu.DelayTimer())
}

func TestKeyWait(t *testing.T) {
	emu, _, keys := newTestEMU(t, 0xF30A, 0x6001)

	step(t, emu, 1)
	assert.True(t, emu.Paused())
	assert.Equal(t, AwaitingKey, emu.State())
	assert.Equal(t, uint16(0x202), emu.PC())
	assert.NotNil(t, keys.handler)

	// no progress while waiting
	step(t, emu, 3)
	assert.Equal(t, uint16(0x202), emu.PC())
	assert.Equal(t, uint8(0), emu.V[0])

	keys.handler(0x7)
	assert.False(t, emu.Paused())
	assert.Equal(t, uint8(0x7), emu.V[3])

	step(t, emu, 1)
	assert.Equal(t, uint8(1), emu.V[0])
}

func TestDeliverKey(t *testing.T) {
	emu, _, _ := newTestEMU(t, 0xFA0A)

	assert.True(t, errors.Is(emu.DeliverKey(1), ErrNotAwaitingKey))

	step(t, emu, 1)
	assert.True(t, errors.Is(emu.DeliverKey(16), ErrInvalidKey))
	assert.True(t, emu.Paused())

	assert.NoError(t, emu.DeliverKey(0xF))
	assert.Equal(t, uint8(0xF), emu.V[0xA])
	assert.False(t, emu.Paused())
}

func TestDeliverKeyCancelsPendingHandler(t *testing.T) {
	emu, _, keys := newTestEMU(t, 0xFA0A, 0xFB0A)

	step(t, emu, 1)
	assert.NotNil(t, keys.handler)

	assert.NoError(t, emu.DeliverKey(0x3))
	assert.Nil(t, keys.handler)

	// the next wait registers a fresh handler
	step(t, emu, 1)
	assert.NotNil(t, keys.handler)
	keys.handler(0x9)
	assert.Equal(t, uint8(0x3), emu.V[0xA])
	assert.Equal(t, uint8(0x9), emu.V[0xB])
	assert.False(t, emu.Paused())
}

func TestConsumeDraw(t *testing.T) {
	emu, _, _ := newTestEMU(t, 0x6000, 0x00E0)

	step(t, emu, 1)
	assert.False(t, emu.ConsumeDraw())

	step(t, emu, 1)
	assert.True(t, emu.ConsumeDraw())
	assert.False(t, emu.ConsumeDraw())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "awaiting key", AwaitingKey.String())
	assert.Equal(t, "state(9)", State(9).String())
}
