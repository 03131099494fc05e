package x86

import "math"

// fpuState is the 8087-style coprocessor skeleton: an eight-slot register
// stack and a control word. Only the handful of commands the decoder gives
// dedicated tags execute with real semantics; every other decoded FPU
// sub-opcode is a structured no-op that keeps programs running.
type fpuState struct {
	st      [8]float64
	top     uint8
	control uint16
}

// fpuDefaultControl is the masked-exceptions, double-precision,
// round-to-nearest control word FNINIT installs.
const fpuDefaultControl = 0x037F

func (f *fpuState) push(v float64) {
	f.top = (f.top - 1) & 7
	f.st[f.top] = v
}

func (f *fpuState) pop() float64 {
	v := f.st[f.top]
	f.top = (f.top + 1) & 7
	return v
}

// get returns ST(i).
func (f *fpuState) get(i uint8) float64 {
	return f.st[(f.top+i)&7]
}

func (f *fpuState) set(i uint8, v float64) {
	f.st[(f.top+i)&7] = v
}

// ST returns the value of FPU stack register ST(i).
func (c *CPU) ST(i uint8) float64 {
	return c.fpu.get(i & 7)
}

// FPUControlWord returns the current coprocessor control word.
func (c *CPU) FPUControlWord() uint16 {
	if c.fpu.control == 0 {
		return fpuDefaultControl
	}
	return c.fpu.control
}

// fpuOperandValue loads a memory or ST(i) source for an FPU command. Memory
// dword operands are interpreted as single-precision reals, word operands
// as 16-bit integers — the widths the dedicated command tags decode with.
func (c *CPU) fpuOperandValue(inst *Instruction, op Operand) float64 {
	if op.Kind == OperandFPR {
		return c.fpu.get(op.FPR)
	}
	addr := c.EffectiveAddress(op, inst.SegmentOverride)
	if operandPtrWidth(op) == widthWord {
		return float64(int16(c.memory.Read16(addr)))
	}
	return float64(math.Float32frombits(c.memory.Read32(addr)))
}

// operandPtrWidth reports the data width a memory operand kind implies,
// defaulting to dword for the SIB variants (the command carries the width
// there).
func operandPtrWidth(op Operand) uint8 {
	switch op.Kind {
	case OperandPtr8, OperandPtr8Amode, OperandPtr8AmodeS8, OperandPtr8AmodeS16, OperandPtr8AmodeS32:
		return widthByte
	case OperandPtr16, OperandPtr16Amode, OperandPtr16AmodeS8, OperandPtr16AmodeS16, OperandPtr16AmodeS32:
		return widthWord
	default:
		return widthDword
	}
}

func (c *CPU) execFPU(inst *Instruction) error {
	switch inst.Command {
	case Fld:
		if inst.Dst.Kind == OperandFPR {
			c.fpu.push(c.fpu.get(inst.Dst.FPR))
			return nil
		}
		c.fpu.push(c.fpuOperandValue(inst, inst.Dst))

	case Fst, Fstp:
		v := c.fpu.get(0)
		if inst.Dst.Kind == OperandFPR {
			c.fpu.set(inst.Dst.FPR, v)
		} else {
			addr := c.EffectiveAddress(inst.Dst, inst.SegmentOverride)
			if operandPtrWidth(inst.Dst) == widthWord {
				c.memory.Write16(addr, uint16(int16(v)))
			} else {
				c.memory.Write32(addr, math.Float32bits(float32(v)))
			}
		}
		if inst.Command == Fstp {
			c.fpu.pop()
		}

	case Fadd:
		if inst.Src.Kind == OperandFPR {
			dst := inst.Dst.FPR
			c.fpu.set(dst, c.fpu.get(dst)+c.fpuOperandValue(inst, inst.Src))
			return nil
		}
		c.fpu.set(0, c.fpu.get(0)+c.fpuOperandValue(inst, inst.Dst))

	case Fmul:
		if inst.Src.Kind == OperandFPR {
			dst := inst.Dst.FPR
			c.fpu.set(dst, c.fpu.get(dst)*c.fpuOperandValue(inst, inst.Src))
			return nil
		}
		c.fpu.set(0, c.fpu.get(0)*c.fpuOperandValue(inst, inst.Dst))

	case Fldcw:
		addr := c.EffectiveAddress(inst.Dst, inst.SegmentOverride)
		c.fpu.control = c.memory.Read16(addr)

	case Fnstcw:
		addr := c.EffectiveAddress(inst.Dst, inst.SegmentOverride)
		c.memory.Write16(addr, c.FPUControlWord())

	case Fistp:
		v := c.fpu.pop()
		addr := c.EffectiveAddress(inst.Dst, inst.SegmentOverride)
		rounded := int64(math.Round(v))
		if operandPtrWidth(inst.Dst) == widthWord {
			c.memory.Write16(addr, uint16(int16(rounded)))
		} else {
			c.memory.Write32(addr, uint32(int32(rounded)))
		}

	case FpuOther:
		// Decoded but deliberately inert: the skeleton keeps programs that
		// touch untracked coprocessor state running without modeling it.
	}
	return nil
}
