package vm

import "fmt"

// Decoded is the field set recovered from a Word, independent of which
// opcode family produced it. Not every field is meaningful for every
// opcode; Execute only reads the fields its own opcode populates.
type Decoded struct {
	Opcode  Opcode
	Mode    Mode
	HasMode bool
	R1      uint8
	R2      uint8
	Imm     uint64
	Target  uint64
}

// Decode recovers the opcode and operand fields from an encoded word,
// following the bit layout in the per-mnemonic-family table: opcode in the
// top 8 bits, then an optional 2-bit mode, optional 4-bit register fields,
// and an optional immediate in the remaining low bits. 0xC2/0xC3 are
// resolved as a single (opcode, mode) tagged dispatch rather than a
// duplicated if-chain, since the mode field alone distinguishes MOV/LOADK/
// LOADM/LOADI (0xC2) and STOREM/STOREI (0xC3).
func Decode(w Word) (Decoded, error) {
	l := w.effectiveBits()
	if l < 8 {
		return Decoded{}, fmt.Errorf("%w: %d bits", ErrInstructionTooShort, l)
	}

	opcode := Opcode(bitsField(w.Value, l-1, l-8))

	if isBareOp(opcode) {
		return Decoded{Opcode: opcode}, nil
	}

	if isBranchOrCall(opcode) {
		if l < 9 {
			return Decoded{}, fmt.Errorf("%w: branch needs a target", ErrInstructionTooShort)
		}
		target := lowBits(w.Value, l-8)
		return Decoded{Opcode: opcode, Target: target}, nil
	}

	if opcode == OpLoad || opcode == OpStore {
		if l < 10 {
			return Decoded{}, fmt.Errorf("%w: mode field missing", ErrInstructionTooShort)
		}
		mode := Mode(bitsField(w.Value, l-9, l-10))

		if mode == ModeIndirect {
			if l < 18 {
				return Decoded{}, fmt.Errorf("%w: indirect operands missing", ErrInstructionTooShort)
			}
			r1 := uint8(bitsField(w.Value, l-11, l-14))
			r2 := uint8(bitsField(w.Value, l-15, l-18))
			return Decoded{Opcode: opcode, Mode: mode, HasMode: true, R1: r1, R2: r2}, nil
		}

		if opcode == OpStore {
			// STOREM: opcode + mode + 2 reserved bits + r1 + 32-bit address.
			if l < 16 {
				return Decoded{}, fmt.Errorf("%w: STOREM operands missing", ErrInstructionTooShort)
			}
			r1 := uint8(bitsField(w.Value, l-13, l-16))
			addr := lowBits(w.Value, l-16)
			return Decoded{Opcode: opcode, Mode: mode, HasMode: true, R1: r1, Imm: addr}, nil
		}

		// OpLoad with mode 0 (MOV), 1 (LOADK), or 2 (LOADM) falls through
		// to the general register/immediate layout below.
		return decodeGeneral(opcode, mode, true, w.Value, l)
	}

	if (opcode == OpINC || opcode == OpDEC) && l >= 14 {
		r1 := uint8(lowBits(w.Value, 4))
		return Decoded{Opcode: opcode, R1: r1}, nil
	}

	if isR1OnlyOp(opcode) {
		if l < 14 {
			return Decoded{}, fmt.Errorf("%w: r1 missing", ErrInstructionTooShort)
		}
		r1 := uint8(lowBits(w.Value, 4))
		return Decoded{Opcode: opcode, R1: r1}, nil
	}

	if l < 18 {
		return Decoded{}, fmt.Errorf("%w: need at least 18 bits", ErrInstructionTooShort)
	}
	mode := Mode(bitsField(w.Value, l-9, l-10))
	return decodeGeneral(opcode, mode, true, w.Value, l)
}

func decodeGeneral(opcode Opcode, mode Mode, hasMode bool, value uint64, l uint8) (Decoded, error) {
	if l < 18 {
		return Decoded{}, fmt.Errorf("%w: need at least 18 bits", ErrInstructionTooShort)
	}
	r1 := uint8(bitsField(value, l-11, l-14))
	r2 := uint8(bitsField(value, l-15, l-18))
	imm := lowBits(value, l-18)
	if mode == ModeImm {
		imm = signExtend(imm, l-18)
	}
	return Decoded{Opcode: opcode, Mode: mode, HasMode: hasMode, R1: r1, R2: r2, Imm: imm}, nil
}
