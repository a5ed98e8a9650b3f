package cpu

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// execute runs a decoded instruction. PC already points past it.
func (emu *EMU) execute(opcode uint16) error {
	x := uint8((opcode & 0x0F00) >> 8)
	y := uint8((opcode & 0x00F0) >> 4)
	n := uint8(opcode & 0x000F)
	kk := uint8(opcode & 0x00FF)
	nnn := opcode & 0x0FFF

	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			emu.surface.Clear()
			emu.updateScreen = true
		case 0x00EE:
			if emu.sp == 0 {
				return ErrStackUnderflow
			}
			emu.sp--
			emu.pc = emu.stack[emu.sp]
		default:
			// 0nnn machine code routines are not supported
			return emu.opCodeError(opcode)
		}

	case 0x1000:
		emu.pc = nnn

	case 0x2000:
		if emu.sp == stackSize {
			return ErrStackOverflow
		}
		emu.stack[emu.sp] = emu.pc
		emu.sp++
		emu.pc = nnn

	case 0x3000:
		if emu.V[x] == kk {
			emu.skip()
		}

	case 0x4000:
		if emu.V[x] != kk {
			emu.skip()
		}

	case 0x5000:
		if n != 0 {
			return emu.opCodeError(opcode)
		}
		if emu.V[x] == emu.V[y] {
			emu.skip()
		}

	case 0x6000:
		emu.V[x] = kk

	case 0x7000:
		emu.V[x] += kk

	case 0x8000:
		return emu.arithmetic(opcode, x, y, n)

	case 0x9000:
		if n != 0 {
			return emu.opCodeError(opcode)
		}
		if emu.V[x] != emu.V[y] {
			emu.skip()
		}

	case 0xA000:
		emu.I = nnn

	case 0xB000:
		emu.pc = (nnn + uint16(emu.V[0])) & addressMask

	case 0xC000:
		emu.V[x] = emu.random() & kk

	case 0xD000:
		emu.draw(x, y, n)

	case 0xE000:
		switch kk {
		case 0x9E:
			if emu.input.IsPressed(emu.V[x] & 0xF) {
				emu.skip()
			}
		case 0xA1:
			if !emu.input.IsPressed(emu.V[x] & 0xF) {
				emu.skip()
			}
		default:
			return emu.opCodeError(opcode)
		}

	case 0xF000:
		return emu.misc(opcode, x, kk)
	}
	return nil
}

// arithmetic handles the 8xyn register operations. The flag writing
// instructions compute VF from the operands before Vx is stored and write
// VF last, so VF holds the flag even when x is F.
func (emu *EMU) arithmetic(opcode uint16, x, y, n uint8) error {
	vx, vy := emu.V[x], emu.V[y]

	switch n {
	case 0x0:
		emu.V[x] = vy
	case 0x1:
		emu.V[x] = vx | vy
	case 0x2:
		emu.V[x] = vx & vy
	case 0x3:
		emu.V[x] = vx ^ vy

	case 0x4:
		sum := uint16(vx) + uint16(vy)
		emu.V[x] = uint8(sum)
		emu.V[FlagRegister] = boolToFlag(sum > 0xFF)

	case 0x5:
		flag := boolToFlag(vx > vy)
		emu.V[x] = vx - vy
		emu.V[FlagRegister] = flag

	case 0x6:
		emu.V[x] = vx >> 1
		emu.V[FlagRegister] = vx & 0x01

	case 0x7:
		flag := boolToFlag(vy > vx)
		emu.V[x] = vy - vx
		emu.V[FlagRegister] = flag

	case 0xE:
		emu.V[x] = vx << 1
		emu.V[FlagRegister] = (vx >> 7) & 0x01

	default:
		return emu.opCodeError(opcode)
	}
	return nil
}

// misc handles the Fxkk timer, keypad and memory instructions.
func (emu *EMU) misc(opcode uint16, x, kk uint8) error {
	switch kk {
	case 0x07:
		emu.V[x] = emu.delayTimer

	case 0x0A:
		emu.state = AwaitingKey
		emu.waitReg = x
		emu.input.OnNextKey(emu.keyPressed)

	case 0x15:
		emu.delayTimer = emu.V[x]

	case 0x18:
		emu.soundTimer = emu.V[x]

	case 0x1E:
		emu.I = (emu.I + uint16(emu.V[x])) & addressMask

	case 0x29:
		emu.I = (fontAddress + fontGlyphBytes*uint16(emu.V[x])) & addressMask

	case 0x33:
		vx := emu.V[x]
		emu.write(emu.I, vx/100)
		emu.write(emu.I+1, vx/10%10)
		emu.write(emu.I+2, vx%10)

	case 0x55:
		for i := uint16(0); i <= uint16(x); i++ {
			emu.write(emu.I+i, emu.V[i])
		}

	case 0x65:
		for i := uint16(0); i <= uint16(x); i++ {
			emu.V[i] = emu.read(emu.I + i)
		}

	default:
		return emu.opCodeError(opcode)
	}
	return nil
}

// draw XORs an 8 pixel wide sprite of height rows read from I onto the
// surface at (Vx, Vy). VF is set when any lit pixel gets erased.
func (emu *EMU) draw(x, y, height uint8) {
	originX := int(emu.V[x])
	originY := int(emu.V[y])

	var collision bool
	for row := range int(height) {
		sprite := emu.read(emu.I + uint16(row))
		for bit := range 8 {
			if sprite&(0x80>>bit) == 0 {
				continue
			}
			px := (originX + bit) % ScreenWidth
			py := (originY + row) % ScreenHeight
			if emu.surface.Toggle(px, py) {
				collision = true
			}
		}
	}

	emu.V[FlagRegister] = boolToFlag(collision)
	emu.updateScreen = true
}

func (emu *EMU) skip() {
	emu.pc = (emu.pc + 2) & addressMask
}

// opCodeError handles an instruction that decodes to no defined operation.
func (emu *EMU) opCodeError(opcode uint16) error {
	if emu.strict {
		return fmt.Errorf("%w: %04X", ErrUnknownOpcode, opcode)
	}
	emu.logger.Debug("Skipping undefined opcode",
		log.Hex("opcode", opcode),
		log.Hex("pc", (emu.pc-2)&addressMask))
	return nil
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
