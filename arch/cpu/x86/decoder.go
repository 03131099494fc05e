package x86

// Decoder translates raw machine code in a Memory into Instruction records.
// It is a prefix-accumulating, opcode-dispatched byte-stream parser: prefix
// bytes set slots on the instruction under construction, the first
// non-prefix byte selects a handler from the one-byte map (or, after the
// 0x0F escape, the two-byte map), and the handler consumes ModR/M, SIB,
// displacement and immediate bytes as its encoding requires.
//
// Decoding never panics on input. Malformed encodings produce an
// Instruction with the Invalid command, a reason tag and the offending
// bytes; the instruction length is always at least one.
type Decoder struct {
	mem *Memory
}

// NewDecoder creates a decoder reading from the given memory.
func NewDecoder(mem *Memory) *Decoder {
	return &Decoder{mem: mem}
}

// maxInstructionBytes is the architectural limit on a single instruction's
// total length, bounding the prefix-accumulation loop.
const maxInstructionBytes = 15

// Operand width in bytes.
const (
	widthByte  = 1
	widthWord  = 2
	widthDword = 4
)

// DecodeAt decodes one instruction starting at cs:ip. The cursor state used
// during decoding is scratch; the returned Instruction carries the byte
// length so the caller can advance IP.
func (d *Decoder) DecodeAt(cs, ip uint16) Instruction {
	cur := decodeCursor{mem: d.mem, cs: cs, start: ip, off: ip}
	return cur.decode()
}

// Decode decodes the instruction at the CPU's current CS:IP.
func (c *CPU) Decode() Instruction {
	return NewDecoder(c.memory).DecodeAt(c.CS, c.IP())
}

// decodeCursor is the per-call scratch state: the code segment and the
// advancing offset within it. Offsets wrap within the 64 KiB segment, which
// uint16 arithmetic gives for free.
type decodeCursor struct {
	mem   *Memory
	cs    uint16
	start uint16
	off   uint16
}

func (cur *decodeCursor) fetch8() uint8 {
	v := cur.mem.ReadSegmented(cur.cs, cur.off)
	cur.off++
	return v
}

func (cur *decodeCursor) fetch16() uint16 {
	low := uint16(cur.fetch8())
	high := uint16(cur.fetch8())
	return high<<8 | low
}

func (cur *decodeCursor) fetch32() uint32 {
	low := uint32(cur.fetch16())
	high := uint32(cur.fetch16())
	return high<<16 | low
}

// fail marks the instruction invalid, clearing any half-built operands and
// capturing the raw bytes consumed so far for diagnostics.
func (cur *decodeCursor) fail(inst *Instruction, reason InvalidReason) {
	inst.Command = Invalid
	inst.InvalidReason = reason
	inst.Dst, inst.Src, inst.Src2 = Operand{}, Operand{}, Operand{}
	inst.RawBytes = cur.mem.ReadSegmentedRange(cur.cs, cur.start, cur.off-cur.start)
}

func (cur *decodeCursor) decode() Instruction {
	var inst Instruction
	var rawRepeat uint8

prefixes:
	for {
		if cur.off-cur.start >= maxInstructionBytes {
			cur.fail(&inst, ReasonOpUnknown)
			break prefixes
		}
		switch b := cur.fetch8(); b {
		case 0x26:
			inst.SegmentOverride = SegOverrideES
		case 0x2E:
			inst.SegmentOverride = SegOverrideCS
		case 0x36:
			inst.SegmentOverride = SegOverrideSS
		case 0x3E:
			inst.SegmentOverride = SegOverrideDS
		case 0x64:
			inst.SegmentOverride = SegOverrideFS
		case 0x65:
			inst.SegmentOverride = SegOverrideGS
		case 0x66:
			inst.OperandSize32 = true
		case 0x67:
			inst.AddressSize32 = true
		case 0xF0:
			inst.Lock = true
		case 0xF2:
			rawRepeat = 0xF2
		case 0xF3:
			rawRepeat = 0xF3
		default:
			cur.dispatch(b, &inst)
			break prefixes
		}
	}

	// Repeat-prefix validation: the prefix only combines with the string-op
	// set. F3 on CMPS/SCAS repeats while equal, on the rest it repeats
	// unconditionally; F2 repeats while not equal.
	if rawRepeat != 0 && inst.Command != Invalid {
		switch {
		case !inst.Command.IsStringOp():
			cur.fail(&inst, ReasonBadRepeatTarget)
		case rawRepeat == 0xF2:
			inst.Repeat = RepeatRepne
		case inst.Command == Cmps || inst.Command == Scas:
			inst.Repeat = RepeatRepe
		default:
			inst.Repeat = RepeatRep
		}
	}

	inst.Length = uint8(cur.off - cur.start)
	return inst
}

// wordWidth returns the active non-byte operand width: 2 by default, 4 when
// the 0x66 prefix flipped the operand size.
func wordWidth(inst *Instruction) uint8 {
	if inst.OperandSize32 {
		return widthDword
	}
	return widthWord
}

// ptrKind selects the direct-offset memory operand variant for a width.
func ptrKind(width uint8) OperandKind {
	switch width {
	case widthByte:
		return OperandPtr8
	case widthWord:
		return OperandPtr16
	default:
		return OperandPtr32
	}
}

// amodeKind selects the addressing-mode memory operand variant for a data
// width and a displacement width (0, 1, 2 or 4 bytes).
func amodeKind(width, dispWidth uint8) OperandKind {
	var row [4]OperandKind
	switch width {
	case widthByte:
		row = [4]OperandKind{OperandPtr8Amode, OperandPtr8AmodeS8, OperandPtr8AmodeS16, OperandPtr8AmodeS32}
	case widthWord:
		row = [4]OperandKind{OperandPtr16Amode, OperandPtr16AmodeS8, OperandPtr16AmodeS16, OperandPtr16AmodeS32}
	default:
		row = [4]OperandKind{OperandPtr32Amode, OperandPtr32AmodeS8, OperandPtr32AmodeS16, OperandPtr32AmodeS32}
	}
	switch dispWidth {
	case 0:
		return row[0]
	case 1:
		return row[1]
	case 2:
		return row[2]
	default:
		return row[3]
	}
}

// regOperandW builds a general-purpose register operand of the given width
// from a 3-bit ModR/M field value.
func regOperandW(reg, width uint8) Operand {
	switch width {
	case widthByte:
		return Reg8Operand(reg8(reg))
	case widthWord:
		return Reg16Operand(reg16(reg))
	default:
		return Reg32Operand(reg32(reg))
	}
}

// accumulatorOperand builds the AL/AX/EAX operand of the given width.
func accumulatorOperand(width uint8) Operand {
	return regOperandW(0, width)
}

// rmOperand builds the operand selected by the ModR/M mod and r/m fields,
// fetching SIB and displacement bytes as the encoding requires. mod=3 is a
// direct register of the given width.
func (cur *decodeCursor) rmOperand(m ModRM, width uint8, addr32 bool) Operand {
	if m.Mod == 3 {
		return regOperandW(m.RM, width)
	}
	if addr32 {
		return cur.rmOperand32(m, width)
	}
	return cur.rmOperand16(m, width)
}

func (cur *decodeCursor) rmOperand16(m ModRM, width uint8) Operand {
	if m.Mod == 0 && m.RM == 6 {
		return Operand{Kind: ptrKind(width), Seg: segDS, PtrImm: uint32(cur.fetch16())}
	}

	expr, ss := amode16(m.RM)
	seg := segDS
	if ss {
		seg = segSS
	}

	switch m.Mod {
	case 0:
		return Operand{Kind: amodeKind(width, 0), Seg: seg, Amode: expr}
	case 1:
		disp := int32(int8(cur.fetch8()))
		return Operand{Kind: amodeKind(width, 1), Seg: seg, Amode: expr, Disp: disp}
	default: // 2
		disp := int32(int16(cur.fetch16()))
		return Operand{Kind: amodeKind(width, 2), Seg: seg, Amode: expr, Disp: disp}
	}
}

// sibDispKind selects the SIB memory operand variant for a displacement
// width. The SIB variants carry their data width through the command tag,
// not the operand kind.
func sibDispKind(dispWidth uint8) OperandKind {
	switch dispWidth {
	case 0:
		return OperandPtr16SIB
	case 1:
		return OperandPtr16SIBS8
	default:
		return OperandPtr16SIBS32
	}
}

func (cur *decodeCursor) rmOperand32(m ModRM, width uint8) Operand {
	if m.RM == 4 {
		return cur.sibOperand(m)
	}

	// Displacement-only: no base register contributes.
	if m.Mod == 0 && m.RM == 5 {
		return Operand{Kind: ptrKind(width), Seg: segDS, PtrImm: cur.fetch32()}
	}

	base := reg32FromRM(m.RM)
	op := Operand{Base: base, NoIndex: true, Scale: 1, Seg: segDS}
	if base == reg32EBP || base == reg32ESP {
		op.Seg = segSS
	}

	switch m.Mod {
	case 0:
		op.Kind = sibDispKind(0)
	case 1:
		op.Kind = sibDispKind(1)
		op.Disp = int32(int8(cur.fetch8()))
	default: // 2
		op.Kind = sibDispKind(4)
		op.Disp = int32(cur.fetch32())
	}
	return op
}

func (cur *decodeCursor) sibOperand(m ModRM) Operand {
	sib := decodeSIB(cur.fetch8())

	op := Operand{Scale: 1 << sib.Scale, Seg: segDS}
	if sib.Index == 4 {
		// index=4 is not encodable as an index register; it means no index.
		op.NoIndex = true
	} else {
		op.Index = reg32FromRM(sib.Index)
	}

	if sib.Base == 5 && m.Mod == 0 {
		// base=5 with mod=0: displacement-only, disp32 follows.
		op.NoBase = true
		op.Kind = sibDispKind(4)
		op.Disp = int32(cur.fetch32())
		return op
	}

	op.Base = reg32FromRM(sib.Base)
	if op.Base == reg32EBP || op.Base == reg32ESP {
		op.Seg = segSS
	}

	switch m.Mod {
	case 0:
		op.Kind = sibDispKind(0)
	case 1:
		op.Kind = sibDispKind(1)
		op.Disp = int32(int8(cur.fetch8()))
	default: // 2
		op.Kind = sibDispKind(4)
		op.Disp = int32(cur.fetch32())
	}
	return op
}

// fetchImmOperand fetches an immediate of the given width.
func (cur *decodeCursor) fetchImmOperand(width uint8) Operand {
	switch width {
	case widthByte:
		return Imm8Operand(cur.fetch8())
	case widthWord:
		return Imm16Operand(cur.fetch16())
	default:
		return Imm32Operand(cur.fetch32())
	}
}

// aluFamilies lists the eight classic ALU operations in opcode-row order
// (0x00 ADD, 0x08 OR, ... 0x38 CMP), one command per width.
var aluFamilies = [8][3]Command{
	{Add8, Add16, Add32},
	{Or8, Or16, Or32},
	{Adc8, Adc16, Adc32},
	{Sbb8, Sbb16, Sbb32},
	{And8, And16, And32},
	{Sub8, Sub16, Sub32},
	{Xor8, Xor16, Xor32},
	{Cmp8, Cmp16, Cmp32},
}

// familyCommand selects the width variant of an ALU family row.
func familyCommand(row [3]Command, width uint8) Command {
	switch width {
	case widthByte:
		return row[0]
	case widthWord:
		return row[1]
	default:
		return row[2]
	}
}

// modRMBoth decodes the common two-operand ModR/M form. regIsDst selects
// the direction: true for "reg, r/m", false for "r/m, reg".
func (cur *decodeCursor) modRMBoth(inst *Instruction, cmd Command, width uint8, regIsDst bool) {
	m := decodeModRM(cur.fetch8())
	rm := cur.rmOperand(m, width, inst.AddressSize32)
	reg := regOperandW(m.Reg, width)

	inst.Command = cmd
	if regIsDst {
		inst.Dst, inst.Src = reg, rm
	} else {
		inst.Dst, inst.Src = rm, reg
	}
}

// aluRow decodes one of the six leading encodings of an ALU family row:
// r/m,reg and reg,r/m at byte and word width, plus the accumulator-immediate
// short forms.
func (cur *decodeCursor) aluRow(inst *Instruction, row [3]Command, low uint8) {
	wv := wordWidth(inst)
	switch low {
	case 0:
		cur.modRMBoth(inst, row[0], widthByte, false)
	case 1:
		cur.modRMBoth(inst, familyCommand(row, wv), wv, false)
	case 2:
		cur.modRMBoth(inst, row[0], widthByte, true)
	case 3:
		cur.modRMBoth(inst, familyCommand(row, wv), wv, true)
	case 4:
		inst.Command = row[0]
		inst.Dst = accumulatorOperand(widthByte)
		inst.Src = cur.fetchImmOperand(widthByte)
	default: // 5
		inst.Command = familyCommand(row, wv)
		inst.Dst = accumulatorOperand(wv)
		inst.Src = cur.fetchImmOperand(wv)
	}
}

// dispatch decodes the instruction body for the first non-prefix byte.
func (cur *decodeCursor) dispatch(opcode uint8, inst *Instruction) {
	// The eight ALU rows: 0x00-0x3F with the low three bits selecting the
	// form, except the 0x06/0x07-style slots and segment prefixes already
	// consumed by the prefix loop.
	if opcode < 0x40 && opcode&7 < 6 {
		cur.aluRow(inst, aluFamilies[opcode>>3], opcode&7)
		return
	}

	wv := wordWidth(inst)

	switch {
	case opcode >= 0x40 && opcode <= 0x47: // INC r16
		inst.Command = familyCommand([3]Command{Inc8, Inc16, Inc32}, wv)
		inst.Dst = regOperandW(opcode&7, wv)
		return
	case opcode >= 0x48 && opcode <= 0x4F: // DEC r16
		inst.Command = familyCommand([3]Command{Dec8, Dec16, Dec32}, wv)
		inst.Dst = regOperandW(opcode&7, wv)
		return
	case opcode >= 0x50 && opcode <= 0x57: // PUSH r16
		inst.Command = pushCommand(wv)
		inst.Dst = regOperandW(opcode&7, wv)
		return
	case opcode >= 0x58 && opcode <= 0x5F: // POP r16
		inst.Command = popCommand(wv)
		inst.Dst = regOperandW(opcode&7, wv)
		return
	case opcode >= 0x70 && opcode <= 0x7F: // Jcc rel8
		inst.Command = Jo + Command(opcode&0xF)
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
		return
	case opcode >= 0x91 && opcode <= 0x97: // XCHG AX, r16
		if wv == widthDword {
			inst.Command = Xchg32
		} else {
			inst.Command = Xchg16
		}
		inst.Dst = accumulatorOperand(wv)
		inst.Src = regOperandW(opcode&7, wv)
		return
	case opcode >= 0xB0 && opcode <= 0xB7: // MOV r8, imm8
		inst.Command = Mov8
		inst.Dst = regOperandW(opcode&7, widthByte)
		inst.Src = cur.fetchImmOperand(widthByte)
		return
	case opcode >= 0xB8 && opcode <= 0xBF: // MOV r16, imm16
		inst.Command = movCommand(wv)
		inst.Dst = regOperandW(opcode&7, wv)
		inst.Src = cur.fetchImmOperand(wv)
		return
	}

	switch opcode {
	case 0x06, 0x0E, 0x16, 0x1E: // PUSH ES/CS/SS/DS
		inst.Command = PushSReg
		inst.Dst = SRegOperand(sregFromPushPop(opcode))
	case 0x07, 0x17, 0x1F: // POP ES/SS/DS
		inst.Command = PopSReg
		inst.Dst = SRegOperand(sregFromPushPop(opcode))
	case 0x0F:
		cur.dispatchTwoByte(inst)
	case 0x27:
		inst.Command = Daa
	case 0x2F:
		inst.Command = Das
	case 0x37:
		inst.Command = Aaa
	case 0x3F:
		inst.Command = Aas

	case 0x60:
		inst.Command = Pusha
	case 0x61:
		inst.Command = Popa
	case 0x62: // BOUND r16, m16&16
		m := decodeModRM(cur.fetch8())
		if m.Mod == 3 {
			cur.fail(inst, ReasonOpUnknown)
			return
		}
		inst.Command = Bound
		inst.Dst = regOperandW(m.Reg, wv)
		inst.Src = cur.rmOperand(m, wv, inst.AddressSize32)
	case 0x68: // PUSH imm16
		inst.Command = pushCommand(wv)
		inst.Dst = cur.fetchImmOperand(wv)
	case 0x69: // IMUL r16, r/m16, imm16
		cur.modRMBoth(inst, imulThreeOpCommand(wv), wv, true)
		inst.Src2 = cur.fetchImmOperand(wv)
	case 0x6A: // PUSH imm8 (sign-extended)
		inst.Command = pushCommand(wv)
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
	case 0x6B: // IMUL r16, r/m16, imm8
		cur.modRMBoth(inst, imulThreeOpCommand(wv), wv, true)
		inst.Src2 = ImmS8Operand(int8(cur.fetch8()))
	case 0x6C:
		inst.Command, inst.Width = Ins, widthByte
	case 0x6D:
		inst.Command, inst.Width = Ins, wv
	case 0x6E:
		inst.Command, inst.Width = Outs, widthByte
	case 0x6F:
		inst.Command, inst.Width = Outs, wv

	case 0x80, 0x82: // group 1: ALU r/m8, imm8 (0x82 is the historical alias)
		m := decodeModRM(cur.fetch8())
		inst.Command = aluFamilies[m.Reg][0]
		inst.Dst = cur.rmOperand(m, widthByte, inst.AddressSize32)
		inst.Src = cur.fetchImmOperand(widthByte)
	case 0x81: // group 1: ALU r/m16, imm16
		m := decodeModRM(cur.fetch8())
		inst.Command = familyCommand(aluFamilies[m.Reg], wv)
		inst.Dst = cur.rmOperand(m, wv, inst.AddressSize32)
		inst.Src = cur.fetchImmOperand(wv)
	case 0x83: // group 1: ALU r/m16, sign-extended imm8
		m := decodeModRM(cur.fetch8())
		inst.Command = familyCommand(aluFamilies[m.Reg], wv)
		inst.Dst = cur.rmOperand(m, wv, inst.AddressSize32)
		inst.Src = ImmS8Operand(int8(cur.fetch8()))
	case 0x84:
		cur.modRMBoth(inst, Test8, widthByte, false)
	case 0x85:
		cur.modRMBoth(inst, familyCommand([3]Command{Test8, Test16, Test32}, wv), wv, false)
	case 0x86:
		cur.modRMBoth(inst, Xchg8, widthByte, false)
	case 0x87:
		cur.modRMBoth(inst, familyCommand([3]Command{Xchg8, Xchg16, Xchg32}, wv), wv, false)
	case 0x88:
		cur.modRMBoth(inst, Mov8, widthByte, false)
	case 0x89:
		cur.modRMBoth(inst, movCommand(wv), wv, false)
	case 0x8A:
		cur.modRMBoth(inst, Mov8, widthByte, true)
	case 0x8B:
		cur.modRMBoth(inst, movCommand(wv), wv, true)
	case 0x8C: // MOV r/m16, Sreg
		m := decodeModRM(cur.fetch8())
		if m.Reg > 5 {
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Command = MovSReg
		inst.Dst = cur.rmOperand(m, widthWord, inst.AddressSize32)
		inst.Src = SRegOperand(segmentReg(m.Reg))
	case 0x8D: // LEA r16, m
		m := decodeModRM(cur.fetch8())
		if m.Mod == 3 {
			cur.fail(inst, ReasonOpUnknown)
			return
		}
		if wv == widthDword {
			inst.Command = Lea32
		} else {
			inst.Command = Lea16
		}
		inst.Dst = regOperandW(m.Reg, wv)
		inst.Src = cur.rmOperand(m, wv, inst.AddressSize32)
	case 0x8E: // MOV Sreg, r/m16
		m := decodeModRM(cur.fetch8())
		if m.Reg > 5 {
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Command = MovSReg
		inst.Dst = SRegOperand(segmentReg(m.Reg))
		inst.Src = cur.rmOperand(m, widthWord, inst.AddressSize32)
	case 0x8F: // group 1A: POP r/m16
		m := decodeModRM(cur.fetch8())
		if m.Reg != 0 {
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Command = popCommand(wv)
		inst.Dst = cur.rmOperand(m, wv, inst.AddressSize32)

	case 0x90:
		inst.Command = Nop
	case 0x98:
		if wv == widthDword {
			inst.Command = Cwde
		} else {
			inst.Command = Cbw
		}
	case 0x99:
		inst.Command = Cwd
	case 0x9A: // CALL ptr16:16
		inst.Command = CallFar
		off := cur.fetch16()
		seg := cur.fetch16()
		inst.Dst = Operand{Kind: OperandPtr16Imm, PtrImm: uint32(off), PtrSeg: seg}
	case 0x9B:
		inst.Command = Wait
	case 0x9C:
		inst.Command = Pushf
	case 0x9D:
		inst.Command = Popf
	case 0x9E:
		inst.Command = Sahf
	case 0x9F:
		inst.Command = Lahf

	case 0xA0: // MOV AL, moffs8
		inst.Command = Mov8
		inst.Dst = accumulatorOperand(widthByte)
		inst.Src = cur.moffsOperand(widthByte, inst.AddressSize32)
	case 0xA1:
		inst.Command = movCommand(wv)
		inst.Dst = accumulatorOperand(wv)
		inst.Src = cur.moffsOperand(wv, inst.AddressSize32)
	case 0xA2:
		inst.Command = Mov8
		inst.Dst = cur.moffsOperand(widthByte, inst.AddressSize32)
		inst.Src = accumulatorOperand(widthByte)
	case 0xA3:
		inst.Command = movCommand(wv)
		inst.Dst = cur.moffsOperand(wv, inst.AddressSize32)
		inst.Src = accumulatorOperand(wv)
	case 0xA4:
		inst.Command, inst.Width = Movs, widthByte
	case 0xA5:
		inst.Command, inst.Width = Movs, wv
	case 0xA6:
		inst.Command, inst.Width = Cmps, widthByte
	case 0xA7:
		inst.Command, inst.Width = Cmps, wv
	case 0xA8:
		inst.Command = Test8
		inst.Dst = accumulatorOperand(widthByte)
		inst.Src = cur.fetchImmOperand(widthByte)
	case 0xA9:
		inst.Command = familyCommand([3]Command{Test8, Test16, Test32}, wv)
		inst.Dst = accumulatorOperand(wv)
		inst.Src = cur.fetchImmOperand(wv)
	case 0xAA:
		inst.Command, inst.Width = Stos, widthByte
	case 0xAB:
		inst.Command, inst.Width = Stos, wv
	case 0xAC:
		inst.Command, inst.Width = Lods, widthByte
	case 0xAD:
		inst.Command, inst.Width = Lods, wv
	case 0xAE:
		inst.Command, inst.Width = Scas, widthByte
	case 0xAF:
		inst.Command, inst.Width = Scas, wv

	case 0xC0: // group 2: shift/rotate r/m8, imm8
		cur.shiftGroup(inst, widthByte, shiftCountImm8)
	case 0xC1:
		cur.shiftGroup(inst, wv, shiftCountImm8)
	case 0xC2:
		inst.Command = RetNear
		inst.Dst = cur.fetchImmOperand(widthWord)
	case 0xC3:
		inst.Command = RetNear
	case 0xC4:
		cur.farPointerLoad(inst, Les, wv)
	case 0xC5:
		cur.farPointerLoad(inst, Lds, wv)
	case 0xC6: // group 11: MOV r/m8, imm8
		m := decodeModRM(cur.fetch8())
		if m.Reg != 0 {
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Command = Mov8
		inst.Dst = cur.rmOperand(m, widthByte, inst.AddressSize32)
		inst.Src = cur.fetchImmOperand(widthByte)
	case 0xC7:
		m := decodeModRM(cur.fetch8())
		if m.Reg != 0 {
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Command = movCommand(wv)
		inst.Dst = cur.rmOperand(m, wv, inst.AddressSize32)
		inst.Src = cur.fetchImmOperand(wv)
	case 0xC8: // ENTER imm16, imm8
		inst.Command = Enter
		inst.Dst = cur.fetchImmOperand(widthWord)
		inst.Src = cur.fetchImmOperand(widthByte)
	case 0xC9:
		inst.Command = Leave
	case 0xCA:
		inst.Command = RetFar
		inst.Dst = cur.fetchImmOperand(widthWord)
	case 0xCB:
		inst.Command = RetFar
	case 0xCC:
		inst.Command = Int3
	case 0xCD:
		inst.Command = IntImm
		inst.Dst = cur.fetchImmOperand(widthByte)
	case 0xCE:
		inst.Command = Into
	case 0xCF:
		inst.Command = Iret

	case 0xD0:
		cur.shiftGroup(inst, widthByte, shiftCountOne)
	case 0xD1:
		cur.shiftGroup(inst, wv, shiftCountOne)
	case 0xD2:
		cur.shiftGroup(inst, widthByte, shiftCountCL)
	case 0xD3:
		cur.shiftGroup(inst, wv, shiftCountCL)
	case 0xD4:
		inst.Command = Aam
		inst.Dst = cur.fetchImmOperand(widthByte)
	case 0xD5:
		inst.Command = Aad
		inst.Dst = cur.fetchImmOperand(widthByte)
	case 0xD7:
		inst.Command = Xlat
	case 0xD8, 0xD9, 0xDA, 0xDB, 0xDC, 0xDD, 0xDE, 0xDF:
		cur.dispatchFPU(opcode, inst)

	case 0xE0:
		inst.Command = Loopne
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
	case 0xE1:
		inst.Command = Loope
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
	case 0xE2:
		inst.Command = Loop
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
	case 0xE3:
		inst.Command = Jcxz
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
	case 0xE4:
		inst.Command = InByte
		inst.Dst = accumulatorOperand(widthByte)
		inst.Src = cur.fetchImmOperand(widthByte)
	case 0xE5:
		inst.Command = InWord
		inst.Dst = accumulatorOperand(wv)
		inst.Src = cur.fetchImmOperand(widthByte)
	case 0xE6:
		inst.Command = OutByte
		inst.Dst = cur.fetchImmOperand(widthByte)
		inst.Src = accumulatorOperand(widthByte)
	case 0xE7:
		inst.Command = OutWord
		inst.Dst = cur.fetchImmOperand(widthByte)
		inst.Src = accumulatorOperand(wv)
	case 0xE8:
		inst.Command = CallNear
		inst.Dst = cur.fetchImmOperand(widthWord)
	case 0xE9:
		inst.Command = JmpNear
		inst.Dst = cur.fetchImmOperand(widthWord)
	case 0xEA:
		inst.Command = JmpFar
		off := cur.fetch16()
		seg := cur.fetch16()
		inst.Dst = Operand{Kind: OperandPtr16Imm, PtrImm: uint32(off), PtrSeg: seg}
	case 0xEB:
		inst.Command = JmpShort
		inst.Dst = ImmS8Operand(int8(cur.fetch8()))
	case 0xEC:
		inst.Command = InByte
		inst.Dst = accumulatorOperand(widthByte)
		inst.Src = Reg16Operand(reg16DX)
	case 0xED:
		inst.Command = InWord
		inst.Dst = accumulatorOperand(wv)
		inst.Src = Reg16Operand(reg16DX)
	case 0xEE:
		inst.Command = OutByte
		inst.Dst = Reg16Operand(reg16DX)
		inst.Src = accumulatorOperand(widthByte)
	case 0xEF:
		inst.Command = OutWord
		inst.Dst = Reg16Operand(reg16DX)
		inst.Src = accumulatorOperand(wv)

	case 0xF4:
		inst.Command = Hlt
	case 0xF5:
		inst.Command = Cmc
	case 0xF6:
		cur.group3(inst, widthByte)
	case 0xF7:
		cur.group3(inst, wv)
	case 0xF8:
		inst.Command = Clc
	case 0xF9:
		inst.Command = Stc
	case 0xFA:
		inst.Command = Cli
	case 0xFB:
		inst.Command = Sti
	case 0xFC:
		inst.Command = Cld
	case 0xFD:
		inst.Command = Std
	case 0xFE: // group 4: INC/DEC r/m8
		m := decodeModRM(cur.fetch8())
		switch m.Reg {
		case 0:
			inst.Command = Inc8
		case 1:
			inst.Command = Dec8
		default:
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Dst = cur.rmOperand(m, widthByte, inst.AddressSize32)
	case 0xFF:
		cur.group5(inst, wv)

	default:
		cur.fail(inst, ReasonOpUnknown)
	}
}

// moffsOperand fetches the direct-offset operand of the MOV accumulator
// forms; the offset width follows the address size.
func (cur *decodeCursor) moffsOperand(width uint8, addr32 bool) Operand {
	if addr32 {
		return Operand{Kind: ptrKind(width), Seg: segDS, PtrImm: cur.fetch32()}
	}
	return Operand{Kind: ptrKind(width), Seg: segDS, PtrImm: uint32(cur.fetch16())}
}

// pushCommand and friends pick the width variant for the active operand size.
func pushCommand(width uint8) Command {
	if width == widthDword {
		return Push32
	}
	return Push16
}

func popCommand(width uint8) Command {
	if width == widthDword {
		return Pop32
	}
	return Pop16
}

func movCommand(width uint8) Command {
	switch width {
	case widthByte:
		return Mov8
	case widthWord:
		return Mov16
	default:
		return Mov32
	}
}

func imulThreeOpCommand(width uint8) Command {
	if width == widthDword {
		return ImulThreeOp32
	}
	return ImulThreeOp16
}

// sregFromPushPop maps the one-byte PUSH/POP segment opcodes to their
// segment register: the register sits in bits [4:3].
func sregFromPushPop(opcode uint8) segmentReg {
	switch opcode >> 3 & 3 {
	case 0:
		return segES
	case 1:
		return segCS
	case 2:
		return segSS
	default:
		return segDS
	}
}

// Shift-count sources for the three group-2 encodings.
type shiftCountSource uint8

const (
	shiftCountOne shiftCountSource = iota
	shiftCountCL
	shiftCountImm8
)

// shiftGroupCommands lists the group-2 sub-operations by ModR/M reg field.
// reg=6 is not assigned.
var shiftGroupCommands = [8][3]Command{
	{Rol8, Rol16, Rol32},
	{Ror8, Ror16, Ror32},
	{Rcl8, Rcl16, Rcl32},
	{Rcr8, Rcr16, Rcr32},
	{Shl8, Shl16, Shl32},
	{Shr8, Shr16, Shr32},
	{},
	{Sar8, Sar16, Sar32},
}

func (cur *decodeCursor) shiftGroup(inst *Instruction, width uint8, countSrc shiftCountSource) {
	m := decodeModRM(cur.fetch8())
	if m.Reg == 6 {
		cur.fail(inst, ReasonReservedRegField)
		return
	}
	inst.Command = familyCommand(shiftGroupCommands[m.Reg], width)
	inst.Dst = cur.rmOperand(m, width, inst.AddressSize32)
	switch countSrc {
	case shiftCountOne:
		inst.Src = Imm8Operand(1)
	case shiftCountCL:
		inst.Src = Reg8Operand(reg8CL)
	default:
		inst.Src = cur.fetchImmOperand(widthByte)
	}
}

// group3 decodes the 0xF6/0xF7 extension group: TEST imm, NOT, NEG, MUL,
// IMUL, DIV, IDIV. reg=1 is not assigned.
func (cur *decodeCursor) group3(inst *Instruction, width uint8) {
	m := decodeModRM(cur.fetch8())
	rm := cur.rmOperand(m, width, inst.AddressSize32)

	rows := [8][3]Command{
		{Test8, Test16, Test32},
		{},
		{Not8, Not16, Not32},
		{Neg8, Neg16, Neg32},
		{Mul8, Mul16, Mul32},
		{Imul8, Imul16, Imul32},
		{Div8, Div16, Div32},
		{Idiv8, Idiv16, Idiv32},
	}
	if m.Reg == 1 {
		cur.fail(inst, ReasonReservedRegField)
		return
	}
	inst.Command = familyCommand(rows[m.Reg], width)
	inst.Dst = rm
	if m.Reg == 0 {
		inst.Src = cur.fetchImmOperand(width)
	}
}

// group5 decodes the 0xFF extension group: INC, DEC, CALL, CALL far, JMP,
// JMP far, PUSH. reg=7 is not assigned; the far forms require a memory
// operand.
func (cur *decodeCursor) group5(inst *Instruction, width uint8) {
	m := decodeModRM(cur.fetch8())

	switch m.Reg {
	case 0:
		inst.Command = familyCommand([3]Command{Inc8, Inc16, Inc32}, width)
	case 1:
		inst.Command = familyCommand([3]Command{Dec8, Dec16, Dec32}, width)
	case 2:
		inst.Command = CallNear
	case 3:
		inst.Command = CallFar
	case 4:
		inst.Command = JmpNear
	case 5:
		inst.Command = JmpFar
	case 6:
		inst.Command = pushCommand(width)
	default:
		cur.fail(inst, ReasonReservedRegField)
		return
	}

	if (m.Reg == 3 || m.Reg == 5) && m.Mod == 3 {
		cur.fail(inst, ReasonOpUnknown)
		return
	}
	inst.Dst = cur.rmOperand(m, width, inst.AddressSize32)
}

// farPointerLoad decodes LES/LDS (and the two-byte LSS/LFS/LGS): a register
// destination loaded from an m16:16 memory operand.
func (cur *decodeCursor) farPointerLoad(inst *Instruction, cmd Command, width uint8) {
	m := decodeModRM(cur.fetch8())
	if m.Mod == 3 {
		cur.fail(inst, ReasonOpUnknown)
		return
	}
	inst.Command = cmd
	inst.Dst = regOperandW(m.Reg, width)
	inst.Src = cur.rmOperand(m, width, inst.AddressSize32)
}

// dispatchTwoByte decodes the 0x0F-escape opcode map.
func (cur *decodeCursor) dispatchTwoByte(inst *Instruction) {
	opcode := cur.fetch8()
	wv := wordWidth(inst)

	switch {
	case opcode >= 0x80 && opcode <= 0x8F: // Jcc rel16
		inst.Command = Jo + Command(opcode&0xF)
		if inst.OperandSize32 {
			inst.Dst = cur.fetchImmOperand(widthDword)
		} else {
			inst.Dst = cur.fetchImmOperand(widthWord)
		}
		return
	case opcode >= 0x90 && opcode <= 0x9F: // SETcc r/m8
		m := decodeModRM(cur.fetch8())
		inst.Command = Seto + Command(opcode&0xF)
		inst.Dst = cur.rmOperand(m, widthByte, inst.AddressSize32)
		return
	}

	switch opcode {
	case 0xA0:
		inst.Command = PushSReg
		inst.Dst = SRegOperand(segFS)
	case 0xA1:
		inst.Command = PopSReg
		inst.Dst = SRegOperand(segFS)
	case 0xA8:
		inst.Command = PushSReg
		inst.Dst = SRegOperand(segGS)
	case 0xA9:
		inst.Command = PopSReg
		inst.Dst = SRegOperand(segGS)

	case 0xA3:
		cur.modRMBoth(inst, Bt, wv, false)
	case 0xAB:
		cur.modRMBoth(inst, Bts, wv, false)
	case 0xB3:
		cur.modRMBoth(inst, Btr, wv, false)
	case 0xBB:
		cur.modRMBoth(inst, Btc, wv, false)
	case 0xBC:
		cur.modRMBoth(inst, Bsf, wv, true)
	case 0xBD:
		cur.modRMBoth(inst, Bsr, wv, true)

	case 0xA4: // SHLD r/m16, r16, imm8
		cur.modRMBoth(inst, Shld, wv, false)
		inst.Src2 = cur.fetchImmOperand(widthByte)
	case 0xA5: // SHLD r/m16, r16, CL
		cur.modRMBoth(inst, Shld, wv, false)
		inst.Src2 = Reg8Operand(reg8CL)
	case 0xAC:
		cur.modRMBoth(inst, Shrd, wv, false)
		inst.Src2 = cur.fetchImmOperand(widthByte)
	case 0xAD:
		cur.modRMBoth(inst, Shrd, wv, false)
		inst.Src2 = Reg8Operand(reg8CL)

	case 0xAF: // IMUL r16, r/m16
		if wv == widthDword {
			cur.modRMBoth(inst, ImulTwoOp32, wv, true)
		} else {
			cur.modRMBoth(inst, ImulTwoOp16, wv, true)
		}

	case 0xB2:
		cur.farPointerLoad(inst, Lss, wv)
	case 0xB4:
		cur.farPointerLoad(inst, Lfs, wv)
	case 0xB5:
		cur.farPointerLoad(inst, Lgs, wv)

	case 0xB6: // MOVZX r16/r32, r/m8
		m := decodeModRM(cur.fetch8())
		if wv == widthDword {
			inst.Command = Movzx8to32
		} else {
			inst.Command = Movzx8to16
		}
		inst.Dst = regOperandW(m.Reg, wv)
		inst.Src = cur.rmOperand(m, widthByte, inst.AddressSize32)
	case 0xB7: // MOVZX r32, r/m16
		m := decodeModRM(cur.fetch8())
		inst.Command = Movzx16to32
		inst.Dst = regOperandW(m.Reg, widthDword)
		inst.Src = cur.rmOperand(m, widthWord, inst.AddressSize32)
	case 0xBE:
		m := decodeModRM(cur.fetch8())
		if wv == widthDword {
			inst.Command = Movsx8to32
		} else {
			inst.Command = Movsx8to16
		}
		inst.Dst = regOperandW(m.Reg, wv)
		inst.Src = cur.rmOperand(m, widthByte, inst.AddressSize32)
	case 0xBF:
		m := decodeModRM(cur.fetch8())
		inst.Command = Movsx16to32
		inst.Dst = regOperandW(m.Reg, widthDword)
		inst.Src = cur.rmOperand(m, widthWord, inst.AddressSize32)

	case 0xBA: // group 8: BT/BTS/BTR/BTC r/m16, imm8
		m := decodeModRM(cur.fetch8())
		switch m.Reg {
		case 4:
			inst.Command = Bt
		case 5:
			inst.Command = Bts
		case 6:
			inst.Command = Btr
		case 7:
			inst.Command = Btc
		default:
			cur.fail(inst, ReasonReservedRegField)
			return
		}
		inst.Dst = cur.rmOperand(m, wv, inst.AddressSize32)
		inst.Src = cur.fetchImmOperand(widthByte)

	default:
		cur.fail(inst, ReasonOpUnknown)
	}
}
