package cpu

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Line is a single disassembled program word.
type Line struct {
	Address     uint16
	Opcode      uint16
	Instruction string // empty if the word decodes to no instruction
}

func (l Line) String() string {
	name := l.Instruction
	if name == "" {
		name = "db"
	}
	return fmt.Sprintf("%03X: %04X  %s", l.Address, l.Opcode, name)
}

// Mnemonic returns the instruction name of opcode, or an empty string if
// the opcode is undefined.
func Mnemonic(opcode uint16) string {
	for _, op := range chip8.Opcodes[int(opcode>>12)] {
		if op.Info.Mask&opcode == op.Info.Value && op.Instruction != nil {
			return op.Instruction.Name
		}
	}
	return ""
}

// Disassemble lists a program image as it would be laid out in memory.
// A trailing odd byte is listed as the high byte of a word.
func Disassemble(rom []byte) []Line {
	lines := make([]Line, 0, (len(rom)+1)/2)
	for offset := 0; offset < len(rom); offset += 2 {
		opcode := uint16(rom[offset]) << 8
		if offset+1 < len(rom) {
			opcode |= uint16(rom[offset+1])
		}
		lines = append(lines, Line{
			Address:     uint16(programStart + offset),
			Opcode:      opcode,
			Instruction: Mnemonic(opcode),
		})
	}
	return lines
}
