package x86

// FPU sub-opcode decoding for the eight escape opcodes 0xD8-0xDF. Every
// sub-opcode the 8087/80387 assigns decodes to a structured command — the
// handful with defined executor behaviour get their own tag, the rest decode
// to FpuOther. Encodings the architecture leaves unassigned produce Invalid
// with the FPUSubOpUnknown reason.

// fprOperand builds an ST(i) register operand from a ModR/M r/m field.
func fprOperand(rm uint8) Operand {
	return Operand{Kind: OperandFPR, FPR: rm}
}

func (cur *decodeCursor) dispatchFPU(opcode uint8, inst *Instruction) {
	m := decodeModRM(cur.fetch8())

	if m.Mod != 3 {
		cur.fpuMemoryForm(opcode, m, inst)
		return
	}
	cur.fpuRegisterForm(opcode, m, inst)
}

// fpuMemoryForm decodes the memory-operand FPU encodings. The operand width
// depends on the escape opcode: m32 real/int for D8/D9/DA/DB, m64 for DC/DD,
// m16 int for DE/DF (with the m64/m80 exceptions inside DB/DF).
func (cur *decodeCursor) fpuMemoryForm(opcode uint8, m ModRM, inst *Instruction) {
	var cmd Command

	switch opcode {
	case 0xD8: // m32 real arithmetic
		cmd = [8]Command{Fadd, Fmul, FpuOther, FpuOther, FpuOther, FpuOther, FpuOther, FpuOther}[m.Reg]
	case 0xD9:
		switch m.Reg {
		case 0:
			cmd = Fld
		case 2:
			cmd = Fst
		case 3:
			cmd = Fstp
		case 4, 6: // FLDENV / FNSTENV
			cmd = FpuOther
		case 5:
			cmd = Fldcw
		case 7:
			cmd = Fnstcw
		default: // reg=1 unassigned
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
	case 0xDA: // m32 int arithmetic, all assigned
		cmd = FpuOther
	case 0xDB:
		switch m.Reg {
		case 0: // FILD m32
			cmd = Fld
		case 2: // FIST m32
			cmd = Fst
		case 3: // FISTP m32
			cmd = Fistp
		case 5, 7: // FLD/FSTP m80
			cmd = FpuOther
		default: // 1, 4, 6 unassigned
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
	case 0xDC: // m64 real arithmetic
		cmd = [8]Command{Fadd, Fmul, FpuOther, FpuOther, FpuOther, FpuOther, FpuOther, FpuOther}[m.Reg]
	case 0xDD:
		switch m.Reg {
		case 0:
			cmd = Fld
		case 2:
			cmd = Fst
		case 3:
			cmd = Fstp
		case 4, 6, 7: // FRSTOR / FNSAVE / FNSTSW m16
			cmd = FpuOther
		default: // 1, 5 unassigned
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
	case 0xDE: // m16 int arithmetic, all assigned
		cmd = FpuOther
	default: // 0xDF
		switch m.Reg {
		case 0: // FILD m16
			cmd = Fld
		case 2: // FIST m16
			cmd = Fst
		case 3, 7: // FISTP m16 / m64
			cmd = Fistp
		case 4, 5, 6: // FBLD / FILD m64 / FBSTP
			cmd = FpuOther
		default: // reg=1 unassigned
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
	}

	width := uint8(widthDword)
	switch opcode {
	case 0xDC, 0xDD:
		width = widthDword // m64: address of an 8-byte operand, low dword kind
	case 0xDE, 0xDF:
		width = widthWord
	}
	if opcode == 0xD9 && (m.Reg == 5 || m.Reg == 7) {
		width = widthWord // control word is 16 bits
	}

	inst.Command = cmd
	inst.Dst = cur.rmOperand(m, width, inst.AddressSize32)
}

// fpuRegisterForm decodes the mod=3 register-stack encodings.
func (cur *decodeCursor) fpuRegisterForm(opcode uint8, m ModRM, inst *Instruction) {
	st := fprOperand(m.RM)

	switch opcode {
	case 0xD8: // arithmetic ST, ST(i); all eight assigned
		inst.Command = [8]Command{Fadd, Fmul, FpuOther, FpuOther, FpuOther, FpuOther, FpuOther, FpuOther}[m.Reg]
		inst.Dst = fprOperand(0)
		inst.Src = st
	case 0xD9:
		switch m.Reg {
		case 0: // FLD ST(i)
			inst.Command = Fld
			inst.Dst = st
		case 1: // FXCH
			inst.Command = FpuOther
			inst.Dst = st
		case 2: // FNOP (rm=0 only)
			if m.RM != 0 {
				cur.fail(inst, ReasonFPUSubOpUnknown)
				return
			}
			inst.Command = FpuOther
		case 4: // FCHS/FABS/FTST/FXAM
			if m.RM != 0 && m.RM != 1 && m.RM != 4 && m.RM != 5 {
				cur.fail(inst, ReasonFPUSubOpUnknown)
				return
			}
			inst.Command = FpuOther
		case 5: // FLD1..FLDZ; rm=7 unassigned
			if m.RM == 7 {
				cur.fail(inst, ReasonFPUSubOpUnknown)
				return
			}
			inst.Command = FpuOther
		case 6, 7: // F2XM1..FCOS
			inst.Command = FpuOther
		default:
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
	case 0xDA: // only FUCOMPP (reg=5, rm=1) assigned
		if m.Reg != 5 || m.RM != 1 {
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
		inst.Command = FpuOther
	case 0xDB: // FNENI/FNDISI/FNCLEX/FNINIT/FSETPM (reg=4, rm<=4)
		if m.Reg != 4 || m.RM > 4 {
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
		inst.Command = FpuOther
	case 0xDC: // arithmetic ST(i), ST; reg=2,3 unassigned
		if m.Reg == 2 || m.Reg == 3 {
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
		inst.Command = [8]Command{Fadd, Fmul, Invalid, Invalid, FpuOther, FpuOther, FpuOther, FpuOther}[m.Reg]
		inst.Dst = st
		inst.Src = fprOperand(0)
	case 0xDD:
		switch m.Reg {
		case 0, 4, 5: // FFREE / FUCOM / FUCOMP
			inst.Command = FpuOther
			inst.Dst = st
		case 2:
			inst.Command = Fst
			inst.Dst = st
		case 3:
			inst.Command = Fstp
			inst.Dst = st
		default:
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
	case 0xDE: // pop-variants of the D8 arithmetic; reg=2 unassigned, reg=3 only FCOMPP
		switch m.Reg {
		case 2:
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		case 3:
			if m.RM != 1 {
				cur.fail(inst, ReasonFPUSubOpUnknown)
				return
			}
			inst.Command = FpuOther
		default:
			inst.Command = FpuOther
			inst.Dst = st
		}
	default: // 0xDF: only FNSTSW AX (reg=4, rm=0) assigned
		if m.Reg != 4 || m.RM != 0 {
			cur.fail(inst, ReasonFPUSubOpUnknown)
			return
		}
		inst.Command = FpuOther
	}
}
