package x86

import (
	"fmt"

	"github.com/oldiron/x86core/log"
)

// Data movement, stack, control flow and port I/O execution.

func (c *CPU) execMov(inst *Instruction, width uint8) error {
	v := c.readOperand(inst, inst.Src, width)
	c.writeOperand(inst, inst.Dst, width, v)
	return nil
}

// execMovSReg moves between a segment register and a word r/m operand; the
// direction follows which side carries the segment register.
func (c *CPU) execMovSReg(inst *Instruction) error {
	v := c.readOperand(inst, inst.Src, widthWord)
	c.writeOperand(inst, inst.Dst, widthWord, v)
	return nil
}

func (c *CPU) execXchg(inst *Instruction, width uint8) error {
	a := c.readOperand(inst, inst.Dst, width)
	b := c.readOperand(inst, inst.Src, width)
	c.writeOperand(inst, inst.Dst, width, b)
	c.writeOperand(inst, inst.Src, width, a)
	return nil
}

// execExtend covers MOVZX and MOVSX: the source width is implied by the
// command tag, the destination width by the destination register operand.
func (c *CPU) execExtend(inst *Instruction, signed bool) error {
	srcWidth := uint8(widthByte)
	if inst.Command == Movzx16to32 || inst.Command == Movsx16to32 {
		srcWidth = widthWord
	}
	dstWidth := uint8(widthWord)
	if inst.Dst.Kind == OperandReg32 {
		dstWidth = widthDword
	}

	v := c.readOperand(inst, inst.Src, srcWidth)
	if signed {
		v = uint32(signExtendTo32(v, srcWidth)) & widthMask(dstWidth)
	}
	c.writeOperand(inst, inst.Dst, dstWidth, v)
	return nil
}

func (c *CPU) execPush(inst *Instruction, width uint8) error {
	v := c.readOperand(inst, inst.Dst, width)
	if width == widthDword {
		c.push32(v)
	} else {
		c.push16(uint16(v))
	}
	return nil
}

func (c *CPU) execPop(inst *Instruction, width uint8) error {
	var v uint32
	if width == widthDword {
		v = c.pop32()
	} else {
		v = uint32(c.pop16())
	}
	c.writeOperand(inst, inst.Dst, width, v)
	return nil
}

// execPusha pushes all eight general registers; the stored SP is the value
// before the first push.
func (c *CPU) execPusha() error {
	sp := c.SP()
	c.push16(c.AX())
	c.push16(c.CX())
	c.push16(c.DX())
	c.push16(c.BX())
	c.push16(sp)
	c.push16(c.BP())
	c.push16(c.SI())
	c.push16(c.DI())
	return nil
}

// execPopa restores the registers pushed by PUSHA; the stored SP is
// discarded.
func (c *CPU) execPopa() error {
	c.SetDI(c.pop16())
	c.SetSI(c.pop16())
	c.SetBP(c.pop16())
	c.pop16()
	c.SetBX(c.pop16())
	c.SetDX(c.pop16())
	c.SetCX(c.pop16())
	c.SetAX(c.pop16())
	return nil
}

// execEnter builds a stack frame: push BP, copy the enclosing frame
// pointers for nested levels, then reserve the local area. The nesting
// depth is masked to five bits.
func (c *CPU) execEnter(inst *Instruction) error {
	size := uint16(c.readOperand(inst, inst.Dst, widthWord))
	level := uint8(c.readOperand(inst, inst.Src, widthByte)) & 0x1F

	c.push16(c.BP())
	frame := c.SP()
	if level > 0 {
		for i := uint8(1); i < level; i++ {
			c.SetBP(c.BP() - 2)
			c.push16(c.memory.Read16(c.CalculateAddress(c.SS, c.BP())))
		}
		c.push16(frame)
	}
	c.SetBP(frame)
	c.SetSP(c.SP() - size)
	return nil
}

func (c *CPU) execJcc(inst *Instruction) error {
	if c.EvaluateCondition(conditionOf(inst.Command)) {
		c.SetIP(uint16(int32(c.IP()) + branchDisp(inst.Dst)))
	}
	return nil
}

func (c *CPU) execSetcc(inst *Instruction) error {
	var v uint32
	if c.EvaluateCondition(conditionOf(inst.Command)) {
		v = 1
	}
	c.writeOperand(inst, inst.Dst, widthByte, v)
	return nil
}

// execJmpNear handles both the relative forms (immediate displacement) and
// the indirect r/m form from the 0xFF group (absolute offset).
func (c *CPU) execJmpNear(inst *Instruction) error {
	if inst.Dst.IsImmediate() {
		c.SetIP(uint16(int32(c.IP()) + branchDisp(inst.Dst)))
		return nil
	}
	c.SetIP(uint16(c.readOperand(inst, inst.Dst, widthWord)))
	return nil
}

// farTarget resolves a far-control-flow operand: either a ptr16:16 literal
// or an m16:16 memory operand.
func (c *CPU) farTarget(inst *Instruction) (seg, off uint16, err error) {
	op := inst.Dst
	if op.Kind == OperandPtr16Imm {
		return op.PtrSeg, uint16(op.PtrImm), nil
	}
	if !op.IsMemory() {
		return 0, 0, fmt.Errorf("%w: far transfer needs a memory operand", ErrInvalidOperand)
	}
	addr := c.EffectiveAddress(op, inst.SegmentOverride)
	return c.memory.Read16(addr + 2), c.memory.Read16(addr), nil
}

func (c *CPU) execJmpFar(inst *Instruction) error {
	seg, off, err := c.farTarget(inst)
	if err != nil {
		return err
	}
	c.CS = seg
	c.SetIP(off)
	return nil
}

func (c *CPU) execCallNear(inst *Instruction) error {
	c.push16(c.IP())
	return c.execJmpNear(inst)
}

func (c *CPU) execCallFar(inst *Instruction) error {
	seg, off, err := c.farTarget(inst)
	if err != nil {
		return err
	}
	c.push16(c.CS)
	c.push16(c.IP())
	c.CS = seg
	c.SetIP(off)
	return nil
}

// execRet pops the return address; the optional immediate releases that
// many bytes of caller arguments after the pop.
func (c *CPU) execRet(inst *Instruction, far bool) error {
	c.SetIP(c.pop16())
	if far {
		c.CS = c.pop16()
	}
	if inst.Dst.Kind == OperandImm16 {
		c.SetSP(c.SP() + uint16(inst.Dst.ImmU32))
	}
	return nil
}

func (c *CPU) execIret() error {
	c.SetIP(c.pop16())
	c.CS = c.pop16()
	c.setFlagsWord(c.pop16())
	return nil
}

// execBound range-checks a signed index against the two bounds at the
// memory operand; out of range raises vector 5.
func (c *CPU) execBound(inst *Instruction) error {
	idx := int16(c.readOperand(inst, inst.Dst, widthWord))
	addr := c.EffectiveAddress(inst.Src, inst.SegmentOverride)
	lower := int16(c.memory.Read16(addr))
	upper := int16(c.memory.Read16(addr + 2))
	if idx < lower || idx > upper {
		c.raiseInterrupt(5)
	}
	return nil
}

// loopCounter abstracts CX vs ECX for the LOOP family and JCXZ.
func (c *CPU) loopCounter(inst *Instruction) uint32 {
	if inst.AddressSize32 {
		return c.ECX()
	}
	return uint32(c.CX())
}

func (c *CPU) setLoopCounter(inst *Instruction, v uint32) {
	if inst.AddressSize32 {
		c.SetECX(v)
	} else {
		c.SetCX(uint16(v))
	}
}

func (c *CPU) execLoop(inst *Instruction) error {
	count := c.loopCounter(inst) - 1
	c.setLoopCounter(inst, count)

	taken := count != 0
	switch inst.Command {
	case Loope:
		taken = taken && c.Flags.GetZero()
	case Loopne:
		taken = taken && !c.Flags.GetZero()
	}
	if taken {
		c.SetIP(uint16(int32(c.IP()) + branchDisp(inst.Dst)))
	}
	return nil
}

func (c *CPU) execJcxz(inst *Instruction) error {
	if c.loopCounter(inst) == 0 {
		c.SetIP(uint16(int32(c.IP()) + branchDisp(inst.Dst)))
	}
	return nil
}

// execFarLoad covers LES/LDS/LSS/LFS/LGS: load the offset half into the
// destination register and the segment half into the named segment
// register.
func (c *CPU) execFarLoad(inst *Instruction, seg segmentReg) error {
	addr := c.EffectiveAddress(inst.Src, inst.SegmentOverride)
	if inst.Dst.Kind == OperandReg32 {
		c.SetReg32(inst.Dst.Reg32, c.memory.Read32(addr))
		c.SetSegment(seg, c.memory.Read16(addr+4))
		return nil
	}
	c.SetReg16(inst.Dst.Reg16, c.memory.Read16(addr))
	c.SetSegment(seg, c.memory.Read16(addr+2))
	return nil
}

// execIn reads an I/O port into the accumulator. Unclaimed ports return the
// host's zero default.
func (c *CPU) execIn(inst *Instruction) error {
	port := uint16(c.readOperand(inst, inst.Src, widthWord))
	if inst.Command == InByte {
		c.SetAL(c.opts.bus.InByte(port))
		return nil
	}
	v := uint32(c.opts.bus.InWord(port))
	if inst.OperandSize32 {
		c.SetEAX(v)
	} else {
		c.SetAX(uint16(v))
	}
	return nil
}

// execOut writes the accumulator to an I/O port; an unclaimed port is
// write-ignore, logged at debug level.
func (c *CPU) execOut(inst *Instruction) error {
	port := uint16(c.readOperand(inst, inst.Dst, widthWord))

	var handled bool
	if inst.Command == OutByte {
		handled = c.opts.bus.OutByte(port, c.AL())
	} else {
		handled = c.opts.bus.OutWord(port, c.AX())
	}
	if !handled && c.opts.logger != nil {
		c.opts.logger.Debug("unhandled port write",
			log.String("port", fmt.Sprintf("0x%04X", port)))
	}
	return nil
}
