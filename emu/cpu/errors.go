package cpu

import "errors"

var (
	// ErrROMTooLarge is returned when a program does not fit above 0x200.
	ErrROMTooLarge = errors.New("ROM too big")
	// ErrROMLoaded is returned when a second program image is loaded.
	ErrROMLoaded = errors.New("ROM already loaded")

	// ErrStackOverflow is returned by a call with all 16 stack slots in use.
	ErrStackOverflow = errors.New("call stack overflow")
	// ErrStackUnderflow is returned by a return with an empty call stack.
	ErrStackUnderflow = errors.New("call stack underflow")
	// ErrUnknownOpcode is returned for undefined opcodes in strict mode.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrNotAwaitingKey is returned when a key is delivered while no Fx0A
	// instruction is waiting.
	ErrNotAwaitingKey = errors.New("not awaiting a key press")
	// ErrInvalidKey is returned for key values outside of 0x0-0xF.
	ErrInvalidKey = errors.New("invalid key")
)
