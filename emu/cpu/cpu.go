package cpu

import (
	"fmt"
	"math/rand/v2"

	"github.com/retroenv/retrogolib/log"
)

const (
	memorySize   = 4096
	addressMask  = 0x0FFF
	programStart = 0x200
	stackSize    = 16
	maxRomSize   = memorySize - programStart

	// FlagRegister is VF, overwritten by arithmetic, shift and draw opcodes.
	FlagRegister = 0xF

	// ScreenWidth and ScreenHeight are the logical pixel surface dimensions.
	ScreenWidth  = 64
	ScreenHeight = 32
)

// State is the execution state of the interpreter.
type State uint8

const (
	// Running means EmulateCycle executes instructions.
	Running State = iota
	// AwaitingKey means an Fx0A instruction is waiting for DeliverKey.
	AwaitingKey
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingKey:
		return "awaiting key"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// PixelSurface is the 64x32 binary display the interpreter draws on.
type PixelSurface interface {
	// Clear resets all cells to unset.
	Clear()
	// Toggle flips the cell at the wrapped coordinates and reports whether
	// the cell is now unset.
	Toggle(x, y int) bool
	// Present flushes pending mutations to the actual display.
	Present() error
}

// InputSource reports the state of the 16 key hex keypad.
type InputSource interface {
	IsPressed(key uint8) bool
	// OnNextKey registers a one-shot handler for the next key press.
	OnNextKey(handler func(key uint8))
}

// EMU is a CHIP-8 interpreter. It is not safe for concurrent use.
type EMU struct {
	logger  *log.Logger
	surface PixelSurface
	input   InputSource

	opcode     uint16
	memory     [memorySize]uint8
	V          [16]uint8
	I          uint16 // address register
	pc         uint16
	delayTimer uint8 // counts down at 60Hz
	soundTimer uint8 // same as above
	stack      [stackSize]uint16
	sp         uint8 // number of occupied stack slots

	state     State
	waitReg   uint8 // register receiving the key of a pending Fx0A
	romLoaded bool

	updateScreen bool // surface mutated since the last ConsumeDraw
	strict       bool
	trace        bool
	random       func() uint8
}

// Option configures an EMU.
type Option func(*EMU)

// WithStrictOpcodes makes undefined opcodes fail with ErrUnknownOpcode
// instead of being executed as no-ops.
func WithStrictOpcodes(strict bool) Option {
	return func(emu *EMU) {
		emu.strict = strict
	}
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(trace bool) Option {
	return func(emu *EMU) {
		emu.trace = trace
	}
}

// WithRandom replaces the byte source used by Cxkk.
func WithRandom(random func() uint8) Option {
	return func(emu *EMU) {
		emu.random = random
	}
}

// NewEMU returns an interpreter drawing on surface and reading input,
// with the font table already written to low memory.
func NewEMU(logger *log.Logger, surface PixelSurface, input InputSource, options ...Option) *EMU {
	emu := &EMU{
		logger:  logger,
		surface: surface,
		input:   input,
		pc:      programStart,
		state:   Running,
		random: func() uint8 {
			return uint8(rand.UintN(256))
		},
	}
	for _, option := range options {
		option(emu)
	}

	emu.loadFont()
	return emu
}

func (emu *EMU) loadFont() {
	copy(emu.memory[fontAddress:], FontSet[:])
}

// LoadROM copies a program image into memory at 0x200. Only one image can
// be loaded per interpreter.
func (emu *EMU) LoadROM(rom []byte) error {
	if emu.romLoaded {
		return ErrROMLoaded
	}
	if len(rom) > maxRomSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrROMTooLarge, len(rom), maxRomSize)
	}

	copy(emu.memory[programStart:], rom)
	emu.romLoaded = true

	emu.logger.Debug("ROM loaded",
		log.Int("size", len(rom)),
		log.Hex("start", uint16(programStart)))
	return nil
}

// EmulateCycle fetches, decodes and executes exactly one instruction.
// It does nothing while the interpreter is awaiting a key press.
func (emu *EMU) EmulateCycle() error {
	if emu.state == AwaitingKey {
		return nil
	}

	pc := emu.pc
	emu.opcode = uint16(emu.read(pc))<<8 | uint16(emu.read(pc+1))
	emu.pc = (pc + 2) & addressMask

	if emu.trace {
		emu.logger.Debug("Executing",
			log.Hex("pc", pc),
			log.Hex("opcode", emu.opcode),
			log.String("instruction", Mnemonic(emu.opcode)))
	}

	if err := emu.execute(emu.opcode); err != nil {
		return fmt.Errorf("executing opcode %04X at %03X: %w", emu.opcode, pc, err)
	}
	return nil
}

// TickTimers decrements the delay and sound timers once each, saturating
// at zero. The caller decides the tick rate, conventionally 60Hz.
func (emu *EMU) TickTimers() {
	if emu.delayTimer > 0 {
		emu.delayTimer--
	}
	if emu.soundTimer > 0 {
		emu.soundTimer--
	}
}

// DeliverKey completes a pending Fx0A by storing key in its register and
// resuming execution.
func (emu *EMU) DeliverKey(key uint8) error {
	if key > 0xF {
		return fmt.Errorf("%w: %d", ErrInvalidKey, key)
	}
	if emu.state != AwaitingKey {
		return ErrNotAwaitingKey
	}

	emu.V[emu.waitReg] = key
	emu.state = Running
	// the wait may have been resolved without the input source
	emu.input.OnNextKey(nil)
	return nil
}

// keyPressed is the one-shot handler registered with the input source.
func (emu *EMU) keyPressed(key uint8) {
	if err := emu.DeliverKey(key); err != nil {
		emu.logger.Warn("Ignoring key event", log.Uint8("key", key), log.Err(err))
	}
}

func (emu *EMU) read(addr uint16) uint8 {
	return emu.memory[addr&addressMask]
}

func (emu *EMU) write(addr uint16, value uint8) {
	emu.memory[addr&addressMask] = value
}

// PC returns the program counter.
func (emu *EMU) PC() uint16 { return emu.pc }

// SP returns the number of occupied call stack slots.
func (emu *EMU) SP() uint8 { return emu.sp }

// DelayTimer returns the delay timer.
func (emu *EMU) DelayTimer() uint8 { return emu.delayTimer }

// SoundTimer returns the sound timer.
func (emu *EMU) SoundTimer() uint8 { return emu.soundTimer }

// SoundActive reports whether the sound timer is running.
func (emu *EMU) SoundActive() bool { return emu.soundTimer > 0 }

// Memory returns the byte at the wrapped address.
func (emu *EMU) Memory(addr uint16) uint8 { return emu.read(addr) }

// State returns the execution state.
func (emu *EMU) State() State { return emu.state }

// Paused reports whether execution is blocked on a key press.
func (emu *EMU) Paused() bool { return emu.state == AwaitingKey }

// ConsumeDraw reports whether the surface changed since the last call.
func (emu *EMU) ConsumeDraw() bool {
	drawn := emu.updateScreen
	emu.updateScreen = false
	return drawn
}
