package x86

import "fmt"

// Encode maps an Instruction back to a canonical byte sequence that the
// Decoder maps to an equivalent instruction. It covers the subset the
// round-trip property tests require: the ALU family, shifts, TEST,
// multiply/divide, MOV at three widths, INC/DEC, LEA, PUSH/POP, XCHG,
// string operations, near branches, INT and the flag-control group.
//
// Where the architecture offers several encodings the shortest canonical
// one wins: accumulator-immediate short forms first, then register-direct
// short forms, then the general ModR/M forms. Two-directional ModR/M pairs
// are emitted as "r/m, reg" when the destination is the r/m side and
// "reg, r/m" when a register destination reads from memory.
//
// Unsupported commands or operand combinations return ErrUnhandledOp,
// ErrUnhandledParameter or ErrUnexpectedDstType.
func Encode(inst Instruction) ([]byte, error) {
	e := encoder{}
	e.prefixes(inst)
	if err := e.body(inst); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) emit(bytes ...byte) {
	e.buf = append(e.buf, bytes...)
}

func (e *encoder) emit16(v uint16) {
	e.emit(byte(v), byte(v>>8))
}

func (e *encoder) emit32(v uint32) {
	e.emit16(uint16(v))
	e.emit16(uint16(v >> 16))
}

var segOverridePrefix = map[SegmentOverride]byte{
	SegOverrideES: 0x26,
	SegOverrideCS: 0x2E,
	SegOverrideSS: 0x36,
	SegOverrideDS: 0x3E,
	SegOverrideFS: 0x64,
	SegOverrideGS: 0x65,
}

func (e *encoder) prefixes(inst Instruction) {
	if inst.Lock {
		e.emit(0xF0)
	}
	switch inst.Repeat {
	case RepeatRep, RepeatRepe:
		e.emit(0xF3)
	case RepeatRepne:
		e.emit(0xF2)
	}
	if p, ok := segOverridePrefix[inst.SegmentOverride]; ok {
		e.emit(p)
	}
	if inst.OperandSize32 {
		e.emit(0x66)
	}
	if inst.AddressSize32 {
		e.emit(0x67)
	}
}

// rmByte encodes an operand as the mod/r/m side of a ModR/M byte plus its
// displacement bytes. The 32-bit SIB forms are outside the encoder's
// supported subset.
func (e *encoder) rmByte(op Operand, reg uint8) error {
	switch op.Kind {
	case OperandReg8:
		e.emit(ModRM{Mod: 3, Reg: reg, RM: uint8(op.Reg8)}.ToByte())
	case OperandReg16:
		e.emit(ModRM{Mod: 3, Reg: reg, RM: uint8(op.Reg16)}.ToByte())
	case OperandReg32:
		e.emit(ModRM{Mod: 3, Reg: reg, RM: uint8(op.Reg32)}.ToByte())

	case OperandPtr8, OperandPtr16, OperandPtr32:
		if op.PtrImm > 0xFFFF {
			return fmt.Errorf("%w: direct offset beyond 16 bits", ErrUnhandledParameter)
		}
		e.emit(ModRM{Mod: 0, Reg: reg, RM: 6}.ToByte())
		e.emit16(uint16(op.PtrImm))

	case OperandPtr8Amode, OperandPtr16Amode, OperandPtr32Amode:
		// [bp] has no mod=0 encoding; it canonicalises to mod=1 disp8=0.
		if op.Amode == AmodeBP {
			e.emit(ModRM{Mod: 1, Reg: reg, RM: uint8(op.Amode)}.ToByte(), 0)
			return nil
		}
		e.emit(ModRM{Mod: 0, Reg: reg, RM: uint8(op.Amode)}.ToByte())

	case OperandPtr8AmodeS8, OperandPtr16AmodeS8, OperandPtr32AmodeS8:
		e.emit(ModRM{Mod: 1, Reg: reg, RM: uint8(op.Amode)}.ToByte(), byte(int8(op.Disp)))

	case OperandPtr8AmodeS16, OperandPtr16AmodeS16, OperandPtr32AmodeS16:
		e.emit(ModRM{Mod: 2, Reg: reg, RM: uint8(op.Amode)}.ToByte())
		e.emit16(uint16(int16(op.Disp)))

	default:
		return fmt.Errorf("%w: operand kind %d has no ModR/M encoding here", ErrUnhandledParameter, op.Kind)
	}
	return nil
}

// isAccumulator reports whether the operand is AL, AX or EAX.
func isAccumulator(op Operand) bool {
	switch op.Kind {
	case OperandReg8:
		return op.Reg8 == reg8AL
	case OperandReg16:
		return op.Reg16 == reg16AX
	case OperandReg32:
		return op.Reg32 == reg32EAX
	default:
		return false
	}
}

// isRM reports whether the operand can stand on the r/m side of a ModR/M
// byte in the encoder's supported subset.
func isRM(op Operand) bool {
	switch op.Kind {
	case OperandReg8, OperandReg16, OperandReg32,
		OperandPtr8, OperandPtr16, OperandPtr32,
		OperandPtr8Amode, OperandPtr16Amode, OperandPtr32Amode,
		OperandPtr8AmodeS8, OperandPtr16AmodeS8, OperandPtr32AmodeS8,
		OperandPtr8AmodeS16, OperandPtr16AmodeS16, OperandPtr32AmodeS16:
		return true
	default:
		return false
	}
}

// regField extracts the 3-bit register number of a register operand.
func regField(op Operand) uint8 {
	switch op.Kind {
	case OperandReg8:
		return uint8(op.Reg8)
	case OperandReg16:
		return uint8(op.Reg16)
	default:
		return uint8(op.Reg32)
	}
}

// emitImm writes an immediate operand at the given width.
func (e *encoder) emitImm(op Operand, width uint8) {
	switch width {
	case widthByte:
		e.emit(byte(op.ImmU32))
	case widthWord:
		e.emit16(uint16(op.ImmU32))
	default:
		e.emit32(op.ImmU32)
	}
}

// aluEncoding locates a command in the ALU family table.
func aluEncoding(cmd Command) (family, width uint8, ok bool) {
	for f, row := range aluFamilies {
		for w, c := range row {
			if c == cmd {
				return uint8(f), [3]uint8{widthByte, widthWord, widthDword}[w], true
			}
		}
	}
	return 0, 0, false
}

// shiftEncoding locates a command in the shift/rotate group table.
func shiftEncoding(cmd Command) (reg, width uint8, ok bool) {
	for r, row := range shiftGroupCommands {
		for w, c := range row {
			if c == cmd {
				return uint8(r), [3]uint8{widthByte, widthWord, widthDword}[w], true
			}
		}
	}
	return 0, 0, false
}

// group3Encoding locates a command in the 0xF6/0xF7 extension group.
var group3Rows = [8][3]Command{
	{Test8, Test16, Test32},
	{},
	{Not8, Not16, Not32},
	{Neg8, Neg16, Neg32},
	{Mul8, Mul16, Mul32},
	{Imul8, Imul16, Imul32},
	{Div8, Div16, Div32},
	{Idiv8, Idiv16, Idiv32},
}

func group3Encoding(cmd Command) (reg, width uint8, ok bool) {
	for r, row := range group3Rows {
		for w, c := range row {
			if c == cmd {
				return uint8(r), [3]uint8{widthByte, widthWord, widthDword}[w], true
			}
		}
	}
	return 0, 0, false
}

// noOperandEncodings maps the fixed-encoding commands to their bytes.
var noOperandEncodings = map[Command][]byte{
	Nop:   {0x90},
	Pushf: {0x9C},
	Popf:  {0x9D},
	Pusha: {0x60},
	Popa:  {0x61},
	Sahf:  {0x9E},
	Lahf:  {0x9F},
	Cbw:   {0x98},
	Cwde:  {0x66, 0x98},
	Cwd:   {0x99},
	Iret:  {0xCF},
	Int3:  {0xCC},
	Into:  {0xCE},
	Leave: {0xC9},
	Xlat:  {0xD7},
	Wait:  {0x9B},
	Hlt:   {0xF4},
	Cmc:   {0xF5},
	Clc:   {0xF8},
	Stc:   {0xF9},
	Cli:   {0xFA},
	Sti:   {0xFB},
	Cld:   {0xFC},
	Std:   {0xFD},
	Daa:   {0x27},
	Das:   {0x2F},
	Aaa:   {0x37},
	Aas:   {0x3F},
}

// stringOpBase maps a string command to its word-width opcode; the byte
// form is one less.
var stringOpBase = map[Command]byte{
	Movs: 0xA5,
	Cmps: 0xA7,
	Stos: 0xAB,
	Lods: 0xAD,
	Scas: 0xAF,
	Ins:  0x6D,
	Outs: 0x6F,
}

func (e *encoder) body(inst Instruction) error {
	cmd := inst.Command

	if bytes, ok := noOperandEncodings[cmd]; ok {
		e.buf = append(e.buf, bytes...)
		return nil
	}
	if base, ok := stringOpBase[cmd]; ok {
		if inst.Width == widthByte {
			e.emit(base - 1)
		} else {
			e.emit(base)
		}
		return nil
	}
	if family, width, ok := aluEncoding(cmd); ok {
		return e.aluBody(inst, family, width)
	}
	if reg, width, ok := shiftEncoding(cmd); ok {
		return e.shiftBody(inst, reg, width)
	}
	if cmd.IsConditionalJump() {
		return e.jccBody(inst)
	}

	switch cmd {
	case Mov8, Mov16, Mov32:
		return e.movBody(inst, variantWidth(cmd, Mov8))
	case MovSReg:
		return e.movSRegBody(inst)
	case Test8, Test16, Test32:
		return e.testBody(inst, variantWidth(cmd, Test8))
	case Not8, Not16, Not32, Neg8, Neg16, Neg32,
		Mul8, Mul16, Mul32, Imul8, Imul16, Imul32,
		Div8, Div16, Div32, Idiv8, Idiv16, Idiv32:
		reg, width, _ := group3Encoding(cmd)
		if width == widthByte {
			e.emit(0xF6)
		} else {
			e.emit(0xF7)
		}
		return e.rmByte(inst.Dst, reg)
	case Inc8, Inc16, Inc32:
		return e.incDecBody(inst, variantWidth(cmd, Inc8), 0x40, 0)
	case Dec8, Dec16, Dec32:
		return e.incDecBody(inst, variantWidth(cmd, Dec8), 0x48, 1)
	case Lea16, Lea32:
		if !inst.Dst.IsRegister() {
			return fmt.Errorf("%w: lea needs a register destination", ErrUnexpectedDstType)
		}
		if !inst.Src.IsMemory() {
			return fmt.Errorf("%w: lea needs a memory source", ErrUnhandledParameter)
		}
		e.emit(0x8D)
		return e.rmByte(inst.Src, regField(inst.Dst))
	case Xchg8, Xchg16, Xchg32:
		return e.xchgBody(inst, variantWidth(cmd, Xchg8))
	case Push16, Push32:
		return e.pushBody(inst)
	case Pop16, Pop32:
		return e.popBody(inst)
	case PushSReg:
		return e.pushPopSRegBody(inst, true)
	case PopSReg:
		return e.pushPopSRegBody(inst, false)
	case IntImm:
		e.emit(0xCD, byte(inst.Dst.ImmU32))
		return nil
	case Aam:
		e.emit(0xD4, byte(inst.Dst.ImmU32))
		return nil
	case Aad:
		e.emit(0xD5, byte(inst.Dst.ImmU32))
		return nil
	case RetNear:
		if inst.Dst.Kind == OperandImm16 {
			e.emit(0xC2)
			e.emit16(uint16(inst.Dst.ImmU32))
			return nil
		}
		e.emit(0xC3)
		return nil
	case RetFar:
		if inst.Dst.Kind == OperandImm16 {
			e.emit(0xCA)
			e.emit16(uint16(inst.Dst.ImmU32))
			return nil
		}
		e.emit(0xCB)
		return nil
	case JmpShort:
		e.emit(0xEB, byte(inst.Dst.ImmS8))
		return nil
	case JmpNear:
		if inst.Dst.Kind != OperandImm16 {
			return fmt.Errorf("%w: only the rel16 jmp form encodes", ErrUnhandledParameter)
		}
		e.emit(0xE9)
		e.emit16(uint16(inst.Dst.ImmU32))
		return nil
	case CallNear:
		if inst.Dst.Kind != OperandImm16 {
			return fmt.Errorf("%w: only the rel16 call form encodes", ErrUnhandledParameter)
		}
		e.emit(0xE8)
		e.emit16(uint16(inst.Dst.ImmU32))
		return nil
	case JmpFar, CallFar:
		if inst.Dst.Kind != OperandPtr16Imm {
			return fmt.Errorf("%w: only the ptr16:16 far form encodes", ErrUnhandledParameter)
		}
		if cmd == JmpFar {
			e.emit(0xEA)
		} else {
			e.emit(0x9A)
		}
		e.emit16(uint16(inst.Dst.PtrImm))
		e.emit16(inst.Dst.PtrSeg)
		return nil
	case Loop, Loope, Loopne, Jcxz:
		op := map[Command]byte{Loopne: 0xE0, Loope: 0xE1, Loop: 0xE2, Jcxz: 0xE3}[cmd]
		e.emit(op, byte(inst.Dst.ImmS8))
		return nil
	case InByte, InWord, OutByte, OutWord:
		return e.ioBody(inst)
	case Enter:
		e.emit(0xC8)
		e.emit16(uint16(inst.Dst.ImmU32))
		e.emit(byte(inst.Src.ImmU32))
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnhandledOp, cmd)
	}
}

func (e *encoder) aluBody(inst Instruction, family, width uint8) error {
	base := family * 8
	dst, src := inst.Dst, inst.Src

	switch {
	case src.IsImmediate() && isAccumulator(dst) && src.Kind != OperandImmS8:
		if width == widthByte {
			e.emit(base + 4)
		} else {
			e.emit(base + 5)
		}
		e.emitImm(src, width)
		return nil

	case src.Kind == OperandImmS8 && width != widthByte:
		e.emit(0x83)
		if err := e.rmByte(dst, family); err != nil {
			return err
		}
		e.emit(byte(src.ImmS8))
		return nil

	case src.IsImmediate():
		if width == widthByte {
			e.emit(0x80)
		} else {
			e.emit(0x81)
		}
		if err := e.rmByte(dst, family); err != nil {
			return err
		}
		e.emitImm(src, width)
		return nil

	case src.IsRegister() && isRM(dst):
		if width == widthByte {
			e.emit(base)
		} else {
			e.emit(base + 1)
		}
		return e.rmByte(dst, regField(src))

	case dst.IsRegister() && isRM(src):
		if width == widthByte {
			e.emit(base + 2)
		} else {
			e.emit(base + 3)
		}
		return e.rmByte(src, regField(dst))

	default:
		return fmt.Errorf("%w: alu operands %d, %d", ErrUnhandledParameter, dst.Kind, src.Kind)
	}
}

func (e *encoder) shiftBody(inst Instruction, reg, width uint8) error {
	src := inst.Src
	switch {
	case src.Kind == OperandImm8 && src.ImmU32 == 1:
		if width == widthByte {
			e.emit(0xD0)
		} else {
			e.emit(0xD1)
		}
		return e.rmByte(inst.Dst, reg)
	case src.Kind == OperandReg8 && src.Reg8 == reg8CL:
		if width == widthByte {
			e.emit(0xD2)
		} else {
			e.emit(0xD3)
		}
		return e.rmByte(inst.Dst, reg)
	case src.Kind == OperandImm8:
		if width == widthByte {
			e.emit(0xC0)
		} else {
			e.emit(0xC1)
		}
		if err := e.rmByte(inst.Dst, reg); err != nil {
			return err
		}
		e.emit(byte(src.ImmU32))
		return nil
	default:
		return fmt.Errorf("%w: shift count operand %d", ErrUnhandledParameter, src.Kind)
	}
}

func (e *encoder) jccBody(inst Instruction) error {
	cc := byte(conditionOf(inst.Command))
	switch inst.Dst.Kind {
	case OperandImmS8:
		e.emit(0x70+cc, byte(inst.Dst.ImmS8))
		return nil
	case OperandImm16:
		e.emit(0x0F, 0x80+cc)
		e.emit16(uint16(inst.Dst.ImmU32))
		return nil
	default:
		return fmt.Errorf("%w: jcc displacement operand %d", ErrUnhandledParameter, inst.Dst.Kind)
	}
}

func (e *encoder) movBody(inst Instruction, width uint8) error {
	dst, src := inst.Dst, inst.Src

	switch {
	case dst.IsImmediate():
		return fmt.Errorf("%w: immediate mov destination", ErrUnexpectedDstType)

	case dst.IsRegister() && src.IsImmediate():
		if width == widthByte {
			e.emit(0xB0 + regField(dst))
		} else {
			e.emit(0xB8 + regField(dst))
		}
		e.emitImm(src, width)
		return nil

	case isAccumulator(dst) && isMoffs(src):
		if width == widthByte {
			e.emit(0xA0)
		} else {
			e.emit(0xA1)
		}
		e.emit16(uint16(src.PtrImm))
		return nil

	case isMoffs(dst) && isAccumulator(src):
		if width == widthByte {
			e.emit(0xA2)
		} else {
			e.emit(0xA3)
		}
		e.emit16(uint16(dst.PtrImm))
		return nil

	case src.IsImmediate():
		if width == widthByte {
			e.emit(0xC6)
		} else {
			e.emit(0xC7)
		}
		if err := e.rmByte(dst, 0); err != nil {
			return err
		}
		e.emitImm(src, width)
		return nil

	case src.IsRegister() && isRM(dst):
		if width == widthByte {
			e.emit(0x88)
		} else {
			e.emit(0x89)
		}
		return e.rmByte(dst, regField(src))

	case dst.IsRegister() && isRM(src):
		if width == widthByte {
			e.emit(0x8A)
		} else {
			e.emit(0x8B)
		}
		return e.rmByte(src, regField(dst))

	default:
		return fmt.Errorf("%w: mov operands %d, %d", ErrUnhandledParameter, dst.Kind, src.Kind)
	}
}

// isMoffs reports whether the operand is a direct-offset memory reference
// encodable in the accumulator short forms.
func isMoffs(op Operand) bool {
	switch op.Kind {
	case OperandPtr8, OperandPtr16, OperandPtr32:
		return op.PtrImm <= 0xFFFF
	default:
		return false
	}
}

func (e *encoder) movSRegBody(inst Instruction) error {
	switch {
	case inst.Dst.Kind == OperandSReg && isRM(inst.Src):
		e.emit(0x8E)
		return e.rmByte(inst.Src, uint8(inst.Dst.SReg))
	case inst.Src.Kind == OperandSReg && isRM(inst.Dst):
		e.emit(0x8C)
		return e.rmByte(inst.Dst, uint8(inst.Src.SReg))
	default:
		return fmt.Errorf("%w: segment mov operands", ErrUnhandledParameter)
	}
}

func (e *encoder) testBody(inst Instruction, width uint8) error {
	dst, src := inst.Dst, inst.Src
	switch {
	case src.IsImmediate() && isAccumulator(dst):
		if width == widthByte {
			e.emit(0xA8)
		} else {
			e.emit(0xA9)
		}
		e.emitImm(src, width)
		return nil
	case src.IsImmediate():
		if width == widthByte {
			e.emit(0xF6)
		} else {
			e.emit(0xF7)
		}
		if err := e.rmByte(dst, 0); err != nil {
			return err
		}
		e.emitImm(src, width)
		return nil
	case src.IsRegister() && isRM(dst):
		if width == widthByte {
			e.emit(0x84)
		} else {
			e.emit(0x85)
		}
		return e.rmByte(dst, regField(src))
	default:
		return fmt.Errorf("%w: test operands", ErrUnhandledParameter)
	}
}

func (e *encoder) incDecBody(inst Instruction, width uint8, shortBase byte, ext uint8) error {
	dst := inst.Dst
	if dst.IsImmediate() {
		return fmt.Errorf("%w: immediate inc/dec destination", ErrUnexpectedDstType)
	}
	if width != widthByte && dst.IsRegister() {
		e.emit(shortBase + regField(dst))
		return nil
	}
	if width == widthByte {
		e.emit(0xFE)
	} else {
		e.emit(0xFF)
	}
	return e.rmByte(dst, ext)
}

func (e *encoder) xchgBody(inst Instruction, width uint8) error {
	dst, src := inst.Dst, inst.Src
	if width != widthByte && isAccumulator(dst) && src.IsRegister() {
		e.emit(0x90 + regField(src))
		return nil
	}
	if !isRM(dst) || !src.IsRegister() {
		return fmt.Errorf("%w: xchg operands", ErrUnhandledParameter)
	}
	if width == widthByte {
		e.emit(0x86)
	} else {
		e.emit(0x87)
	}
	return e.rmByte(dst, regField(src))
}

func (e *encoder) pushBody(inst Instruction) error {
	dst := inst.Dst
	switch {
	case dst.Kind == OperandReg16 || dst.Kind == OperandReg32:
		e.emit(0x50 + regField(dst))
		return nil
	case dst.Kind == OperandImmS8:
		e.emit(0x6A, byte(dst.ImmS8))
		return nil
	case dst.IsImmediate():
		e.emit(0x68)
		e.emit16(uint16(dst.ImmU32))
		return nil
	case dst.IsMemory():
		e.emit(0xFF)
		return e.rmByte(dst, 6)
	default:
		return fmt.Errorf("%w: push operand %d", ErrUnhandledParameter, dst.Kind)
	}
}

func (e *encoder) popBody(inst Instruction) error {
	dst := inst.Dst
	switch {
	case dst.Kind == OperandReg16 || dst.Kind == OperandReg32:
		e.emit(0x58 + regField(dst))
		return nil
	case dst.IsMemory():
		e.emit(0x8F)
		return e.rmByte(dst, 0)
	default:
		return fmt.Errorf("%w: pop operand %d", ErrUnhandledParameter, dst.Kind)
	}
}

func (e *encoder) pushPopSRegBody(inst Instruction, push bool) error {
	if inst.Dst.Kind != OperandSReg {
		return fmt.Errorf("%w: segment push/pop needs a segment register", ErrUnexpectedDstType)
	}
	switch inst.Dst.SReg {
	case segES, segCS, segSS, segDS:
		op := byte(0x06) | byte(inst.Dst.SReg)<<3
		if !push {
			if inst.Dst.SReg == segCS {
				return fmt.Errorf("%w: pop cs", ErrUnhandledParameter)
			}
			op++
		}
		e.emit(op)
	case segFS:
		if push {
			e.emit(0x0F, 0xA0)
		} else {
			e.emit(0x0F, 0xA1)
		}
	default: // segGS
		if push {
			e.emit(0x0F, 0xA8)
		} else {
			e.emit(0x0F, 0xA9)
		}
	}
	return nil
}

func (e *encoder) ioBody(inst Instruction) error {
	switch inst.Command {
	case InByte, InWord:
		base := byte(0xE4)
		if inst.Command == InWord {
			base = 0xE5
		}
		if inst.Src.Kind == OperandImm8 {
			e.emit(base, byte(inst.Src.ImmU32))
			return nil
		}
		if inst.Src.Kind == OperandReg16 && inst.Src.Reg16 == reg16DX {
			e.emit(base + 8)
			return nil
		}
	default:
		base := byte(0xE6)
		if inst.Command == OutWord {
			base = 0xE7
		}
		if inst.Dst.Kind == OperandImm8 {
			e.emit(base, byte(inst.Dst.ImmU32))
			return nil
		}
		if inst.Dst.Kind == OperandReg16 && inst.Dst.Reg16 == reg16DX {
			e.emit(base + 8)
			return nil
		}
	}
	return fmt.Errorf("%w: io port operand", ErrUnhandledParameter)
}
