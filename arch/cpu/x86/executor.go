package x86

import (
	"fmt"
)

// Step executes one instruction at CS:IP: deliver any pending hardware
// interrupt, decode, commit the IP advance, then dispatch on the command.
// The IP is written before dispatch so that CALL and JMP observe the
// address of the following instruction, matching architectural semantics.
//
// A decode failure or an unhandled command latches the CPU's fatal error
// and returns it; architectural exceptions (divide fault, BOUND overflow)
// are delivered through the interrupt path instead and are not fatal.
func (c *CPU) Step() error {
	if c.fatalError != nil {
		return c.fatalError
	}

	if c.triggerInt && c.interruptsEnabled {
		c.triggerInt = false
		c.halted = false
		c.interruptThroughIVT(c.intVector)
	}
	if c.halted {
		return nil
	}

	startIP := c.IP()
	inst := c.Decode()

	var ts TraceStep
	ts.IP = startIP
	ts.CS = c.CS
	ts.Opcode = c.memory.ReadSegmented(c.CS, startIP)
	ts.Size = inst.Length
	c.snapshotPre(&ts)

	c.SetIP(startIP + uint16(inst.Length))

	if inst.IsInvalid() {
		ts.InvalidReason = inst.InvalidReason.String()
		c.lastStep = ts
		c.fatalError = fmt.Errorf("%w: %s at %04X:%04X",
			ErrInvalidInstruction, inst.InvalidReason, c.CS, startIP)
		return c.fatalError
	}

	ts.Instruction = inst.String()
	err := c.execute(&inst)
	if err != nil {
		c.lastStep = ts
		c.fatalError = err
		return err
	}

	c.cycles += uint64(timingFor(inst.Command))
	c.snapshotPost(&ts)
	ts.Cycles = c.cycles
	ts.Timing = timingFor(inst.Command)
	c.lastStep = ts
	if c.opts.traceFunc != nil {
		c.opts.traceFunc(ts)
	}
	return nil
}

// Execute runs one already-decoded instruction against the CPU state. Step
// is the usual entry point; Execute exists for callers that decode
// separately (instruction-builder tests, the round-trip checker).
func (c *CPU) Execute(inst Instruction) error {
	if inst.IsInvalid() {
		c.fatalError = fmt.Errorf("%w: %s", ErrInvalidInstruction, inst.InvalidReason)
		return c.fatalError
	}
	return c.execute(&inst)
}

// variantWidth maps a width-variant command tag to its operand width in
// bytes. The three variants of every family are declared consecutively in
// 8/16/32 order, so the offset from the family's first tag is the variant.
func variantWidth(cmd, base Command) uint8 {
	switch cmd - base {
	case 0:
		return widthByte
	case 1:
		return widthWord
	default:
		return widthDword
	}
}

func (c *CPU) execute(inst *Instruction) error {
	cmd := inst.Command

	if cmd.IsConditionalJump() {
		return c.execJcc(inst)
	}
	if cmd.IsSetcc() {
		return c.execSetcc(inst)
	}
	if cmd.IsStringOp() {
		return c.execString(inst)
	}

	switch cmd {
	case Nop, Wait:
		return nil

	case Mov8, Mov16, Mov32:
		return c.execMov(inst, variantWidth(cmd, Mov8))
	case MovSReg:
		return c.execMovSReg(inst)
	case Lea16:
		c.SetReg16(inst.Dst.Reg16, uint16(c.EffectiveOffset(inst.Src)))
		return nil
	case Lea32:
		c.SetReg32(inst.Dst.Reg32, c.EffectiveOffset(inst.Src))
		return nil
	case Xchg8, Xchg16, Xchg32:
		return c.execXchg(inst, variantWidth(cmd, Xchg8))
	case Xlat:
		seg := inst.EffectiveSegment(segDS)
		addr := c.CalculateAddress(c.GetSegment(seg), c.BX()+uint16(c.AL()))
		c.SetAL(c.memory.Read8(addr))
		return nil

	case Movzx8to16, Movzx8to32, Movzx16to32:
		return c.execExtend(inst, false)
	case Movsx8to16, Movsx8to32, Movsx16to32:
		return c.execExtend(inst, true)
	case Cbw:
		c.SetAX(uint16(int16(int8(c.AL()))))
		return nil
	case Cwde:
		c.SetEAX(uint32(int32(int16(c.AX()))))
		return nil
	case Cwd:
		if inst.OperandSize32 {
			if c.EAX()&0x80000000 != 0 {
				c.SetEDX(0xFFFFFFFF)
			} else {
				c.SetEDX(0)
			}
			return nil
		}
		if c.AX()&0x8000 != 0 {
			c.SetDX(0xFFFF)
		} else {
			c.SetDX(0)
		}
		return nil

	case Add8, Add16, Add32:
		return c.execAdd(inst, variantWidth(cmd, Add8), false)
	case Adc8, Adc16, Adc32:
		return c.execAdd(inst, variantWidth(cmd, Adc8), true)
	case Sub8, Sub16, Sub32:
		return c.execSub(inst, variantWidth(cmd, Sub8), false, true)
	case Sbb8, Sbb16, Sbb32:
		return c.execSub(inst, variantWidth(cmd, Sbb8), true, true)
	case Cmp8, Cmp16, Cmp32:
		return c.execSub(inst, variantWidth(cmd, Cmp8), false, false)
	case Inc8, Inc16, Inc32:
		return c.execIncDec(inst, variantWidth(cmd, Inc8), 1)
	case Dec8, Dec16, Dec32:
		return c.execIncDec(inst, variantWidth(cmd, Dec8), -1)
	case Neg8, Neg16, Neg32:
		return c.execNeg(inst, variantWidth(cmd, Neg8))

	case And8, And16, And32:
		return c.execLogic(inst, variantWidth(cmd, And8), logicAnd, true)
	case Or8, Or16, Or32:
		return c.execLogic(inst, variantWidth(cmd, Or8), logicOr, true)
	case Xor8, Xor16, Xor32:
		return c.execLogic(inst, variantWidth(cmd, Xor8), logicXor, true)
	case Test8, Test16, Test32:
		return c.execLogic(inst, variantWidth(cmd, Test8), logicAnd, false)
	case Not8, Not16, Not32:
		return c.execNot(inst, variantWidth(cmd, Not8))

	case Shl8, Shl16, Shl32:
		return c.execShift(inst, variantWidth(cmd, Shl8), shiftShl)
	case Shr8, Shr16, Shr32:
		return c.execShift(inst, variantWidth(cmd, Shr8), shiftShr)
	case Sar8, Sar16, Sar32:
		return c.execShift(inst, variantWidth(cmd, Sar8), shiftSar)
	case Rol8, Rol16, Rol32:
		return c.execShift(inst, variantWidth(cmd, Rol8), shiftRol)
	case Ror8, Ror16, Ror32:
		return c.execShift(inst, variantWidth(cmd, Ror8), shiftRor)
	case Rcl8, Rcl16, Rcl32:
		return c.execShift(inst, variantWidth(cmd, Rcl8), shiftRcl)
	case Rcr8, Rcr16, Rcr32:
		return c.execShift(inst, variantWidth(cmd, Rcr8), shiftRcr)

	case Mul8, Mul16, Mul32:
		return c.execMul(inst, variantWidth(cmd, Mul8))
	case Imul8, Imul16, Imul32:
		return c.execImul(inst, variantWidth(cmd, Imul8))
	case ImulTwoOp16, ImulTwoOp32:
		return c.execImulMultiOp(inst, imulWidthOf(cmd), inst.Dst, inst.Src)
	case ImulThreeOp16, ImulThreeOp32:
		return c.execImulMultiOp(inst, imulWidthOf(cmd), inst.Src, inst.Src2)
	case Div8, Div16, Div32:
		return c.execDiv(inst, variantWidth(cmd, Div8))
	case Idiv8, Idiv16, Idiv32:
		return c.execIdiv(inst, variantWidth(cmd, Idiv8))

	case Daa:
		return c.execDaa()
	case Das:
		return c.execDas()
	case Aaa:
		return c.execAaa()
	case Aas:
		return c.execAas()
	case Aam:
		return c.execAam(inst)
	case Aad:
		return c.execAad(inst)

	case Bt, Bts, Btr, Btc:
		return c.execBitTest(inst)
	case Bsf, Bsr:
		return c.execBitScan(inst)
	case Shld, Shrd:
		return c.execDoubleShift(inst)

	case JmpShort, JmpNear:
		return c.execJmpNear(inst)
	case JmpFar:
		return c.execJmpFar(inst)
	case CallNear:
		return c.execCallNear(inst)
	case CallFar:
		return c.execCallFar(inst)
	case RetNear:
		return c.execRet(inst, false)
	case RetFar:
		return c.execRet(inst, true)
	case Iret:
		return c.execIret()
	case IntImm:
		c.raiseInterrupt(uint8(c.readOperand(inst, inst.Dst, widthByte)))
		return nil
	case Int3:
		return ErrBreakpoint
	case Into:
		if c.Flags.GetOverflow() {
			c.raiseInterrupt(4)
		}
		return nil
	case Bound:
		return c.execBound(inst)
	case Loop, Loope, Loopne:
		return c.execLoop(inst)
	case Jcxz:
		return c.execJcxz(inst)

	case Push16:
		return c.execPush(inst, widthWord)
	case Push32:
		return c.execPush(inst, widthDword)
	case Pop16:
		return c.execPop(inst, widthWord)
	case Pop32:
		return c.execPop(inst, widthDword)
	case PushSReg:
		c.push16(c.GetSegment(inst.Dst.SReg))
		return nil
	case PopSReg:
		c.SetSegment(inst.Dst.SReg, c.pop16())
		return nil
	case Pushf:
		c.push16(uint16(c.Flags))
		return nil
	case Popf:
		c.setFlagsWord(c.pop16())
		return nil
	case Pusha:
		return c.execPusha()
	case Popa:
		return c.execPopa()
	case Lahf:
		c.SetAH(uint8(c.Flags))
		return nil
	case Sahf:
		c.setFlagsWord(uint16(c.Flags)&0xFF00 | uint16(c.AH()))
		return nil
	case Enter:
		return c.execEnter(inst)
	case Leave:
		c.SetSP(c.BP())
		c.SetBP(c.pop16())
		return nil

	case Clc:
		c.SetCarry(false)
		return nil
	case Stc:
		c.SetCarry(true)
		return nil
	case Cmc:
		c.SetCarry(!c.Flags.GetCarry())
		return nil
	case Cld:
		c.SetDirection(false)
		return nil
	case Std:
		c.SetDirection(true)
		return nil
	case Cli:
		c.DisableInterrupts()
		return nil
	case Sti:
		c.EnableInterrupts()
		return nil

	case InByte, InWord:
		return c.execIn(inst)
	case OutByte, OutWord:
		return c.execOut(inst)

	case Hlt:
		c.halted = true
		return nil

	case Les:
		return c.execFarLoad(inst, segES)
	case Lds:
		return c.execFarLoad(inst, segDS)
	case Lfs:
		return c.execFarLoad(inst, segFS)
	case Lgs:
		return c.execFarLoad(inst, segGS)
	case Lss:
		return c.execFarLoad(inst, segSS)

	case Fadd, Fmul, Fld, Fst, Fstp, Fldcw, Fnstcw, Fistp, FpuOther:
		return c.execFPU(inst)

	default:
		return fmt.Errorf("%w: %s", ErrInvalidInstruction, cmd)
	}
}

// imulWidthOf maps the multi-operand IMUL tags to their width.
func imulWidthOf(cmd Command) uint8 {
	if cmd == ImulTwoOp32 || cmd == ImulThreeOp32 {
		return widthDword
	}
	return widthWord
}

// widthMask returns the value mask for an operand width.
func widthMask(width uint8) uint32 {
	switch width {
	case widthByte:
		return 0xFF
	case widthWord:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// readOperand reads an operand's value zero-extended to 32 bits. Immediates
// declared sign-extended (ImmS8) widen to the given width first.
func (c *CPU) readOperand(inst *Instruction, op Operand, width uint8) uint32 {
	switch op.Kind {
	case OperandReg8:
		return uint32(c.GetReg8(op.Reg8))
	case OperandReg16:
		return uint32(c.GetReg16(op.Reg16))
	case OperandReg32:
		return c.GetReg32(op.Reg32)
	case OperandSReg:
		return uint32(c.GetSegment(op.SReg))
	case OperandImm8, OperandImm16, OperandImm32:
		return op.ImmU32 & widthMask(width)
	case OperandImmS8:
		return uint32(int32(op.ImmS8)) & widthMask(width)
	default:
		addr := c.EffectiveAddress(op, inst.SegmentOverride)
		return c.memRead(addr, width)
	}
}

// writeOperand routes a result to a register, segment register or memory.
func (c *CPU) writeOperand(inst *Instruction, op Operand, width uint8, v uint32) {
	switch op.Kind {
	case OperandReg8:
		c.SetReg8(op.Reg8, uint8(v))
	case OperandReg16:
		c.SetReg16(op.Reg16, uint16(v))
	case OperandReg32:
		c.SetReg32(op.Reg32, v)
	case OperandSReg:
		c.SetSegment(op.SReg, uint16(v))
	default:
		addr := c.EffectiveAddress(op, inst.SegmentOverride)
		c.memWrite(addr, width, v)
	}
}

func (c *CPU) memRead(addr uint32, width uint8) uint32 {
	switch width {
	case widthByte:
		return uint32(c.memory.Read8(addr))
	case widthWord:
		return uint32(c.memory.Read16(addr))
	default:
		return c.memory.Read32(addr)
	}
}

func (c *CPU) memWrite(addr uint32, width uint8, v uint32) {
	switch width {
	case widthByte:
		c.memory.Write8(addr, uint8(v))
	case widthWord:
		c.memory.Write16(addr, uint16(v))
	default:
		c.memory.Write32(addr, v)
	}
}

// setSZP applies the sign/zero/parity flags for a result at the given width.
func (c *CPU) setSZP(width uint8, result uint32) {
	switch width {
	case widthByte:
		c.SetSZP8(uint8(result))
	case widthWord:
		c.SetSZP16(uint16(result))
	default:
		c.SetSZP32(result)
	}
}

// branchDisp extracts the signed displacement from a branch operand.
func branchDisp(op Operand) int32 {
	switch op.Kind {
	case OperandImmS8:
		return int32(op.ImmS8)
	case OperandImm16:
		return int32(int16(op.ImmU32))
	default:
		return int32(op.ImmU32)
	}
}

// raiseInterrupt delivers a software interrupt or architectural exception:
// the host bus gets the first chance to claim the vector, unclaimed vectors
// dispatch through the interrupt vector table in low memory.
func (c *CPU) raiseInterrupt(vector uint8) {
	if c.opts.bus.Interrupt(vector, c, c.memory) {
		return
	}
	c.interruptThroughIVT(vector)
}

// interruptThroughIVT performs the architectural interrupt sequence: push
// flags, clear IF and TF, push the return far address, then jump through
// the 4-byte vector at linear address vector*4.
func (c *CPU) interruptThroughIVT(vector uint8) {
	c.push16(uint16(c.Flags))
	c.Flags = c.Flags.SetInterrupt(false).SetTrap(false)
	c.interruptsEnabled = false
	c.push16(c.CS)
	c.push16(c.IP())

	base := uint32(vector) * 4
	c.SetIP(c.memory.Read16(base))
	c.CS = c.memory.Read16(base + 2)
}

// setFlagsWord installs a full 16-bit flags word, keeping the always-set
// reserved bit and syncing the interrupt gate with IF.
func (c *CPU) setFlagsWord(v uint16) {
	c.Flags = Flags(v) | DefaultFlags
	c.interruptsEnabled = c.Flags.GetInterrupt()
}
