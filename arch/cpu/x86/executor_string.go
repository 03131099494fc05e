package x86

// String operation execution. Each operation steps SI and/or DI by the
// operand width in the direction DF selects; the source side honours a
// segment override, the ES:DI destination side never does. A repeat prefix
// re-runs the body while CX is non-zero, without re-decoding; REPE and
// REPNE additionally gate on ZF after each compare iteration.

// execString runs the string-op body once, or under a repeat prefix until
// the counter or the ZF condition stops it.
func (c *CPU) execString(inst *Instruction) error {
	if inst.Repeat == RepeatNone {
		return c.stringIteration(inst)
	}

	compare := inst.Command == Cmps || inst.Command == Scas
	for c.loopCounter(inst) != 0 {
		if err := c.stringIteration(inst); err != nil {
			return err
		}
		c.setLoopCounter(inst, c.loopCounter(inst)-1)
		if !compare {
			continue
		}
		if inst.Repeat == RepeatRepe && !c.Flags.GetZero() {
			break
		}
		if inst.Repeat == RepeatRepne && c.Flags.GetZero() {
			break
		}
	}
	return nil
}

// stringDelta is the per-iteration index step: the operand width, negated
// when the direction flag is set.
func (c *CPU) stringDelta(width uint8) int32 {
	if c.Flags.GetDirection() {
		return -int32(width)
	}
	return int32(width)
}

func (c *CPU) stringSrcAddr(inst *Instruction) uint32 {
	seg := c.GetSegment(inst.EffectiveSegment(segDS))
	if inst.AddressSize32 {
		return (uint32(seg)<<4 + c.ESI()) & AddressMask
	}
	return c.CalculateAddress(seg, c.SI())
}

func (c *CPU) stringDstAddr(inst *Instruction) uint32 {
	if inst.AddressSize32 {
		return (uint32(c.ES)<<4 + c.EDI()) & AddressMask
	}
	return c.CalculateAddress(c.ES, c.DI())
}

func (c *CPU) advanceSI(inst *Instruction, delta int32) {
	if inst.AddressSize32 {
		c.SetESI(uint32(int32(c.ESI()) + delta))
		return
	}
	c.SetSI(uint16(int32(c.SI()) + delta))
}

func (c *CPU) advanceDI(inst *Instruction, delta int32) {
	if inst.AddressSize32 {
		c.SetEDI(uint32(int32(c.EDI()) + delta))
		return
	}
	c.SetDI(uint16(int32(c.DI()) + delta))
}

// accumulator reads AL/AX/EAX at the string width.
func (c *CPU) accumulator(width uint8) uint32 {
	switch width {
	case widthByte:
		return uint32(c.AL())
	case widthWord:
		return uint32(c.AX())
	default:
		return c.EAX()
	}
}

func (c *CPU) setAccumulator(width uint8, v uint32) {
	switch width {
	case widthByte:
		c.SetAL(uint8(v))
	case widthWord:
		c.SetAX(uint16(v))
	default:
		c.SetEAX(v)
	}
}

// compareFlags applies the full CMP flag set for a - b at the string width.
func (c *CPU) compareFlags(width uint8, a, b uint32) {
	r, cf, of, af := subWidth(width, a, b, false)
	c.SetCarry(cf)
	c.SetOverflow(of)
	c.SetAuxCarry(af)
	c.setSZP(width, r)
}

func (c *CPU) stringIteration(inst *Instruction) error {
	width := inst.Width
	delta := c.stringDelta(width)

	switch inst.Command {
	case Movs:
		v := c.memRead(c.stringSrcAddr(inst), width)
		c.memWrite(c.stringDstAddr(inst), width, v)
		c.advanceSI(inst, delta)
		c.advanceDI(inst, delta)

	case Stos:
		c.memWrite(c.stringDstAddr(inst), width, c.accumulator(width))
		c.advanceDI(inst, delta)

	case Lods:
		c.setAccumulator(width, c.memRead(c.stringSrcAddr(inst), width))
		c.advanceSI(inst, delta)

	case Cmps:
		a := c.memRead(c.stringSrcAddr(inst), width)
		b := c.memRead(c.stringDstAddr(inst), width)
		c.compareFlags(width, a, b)
		c.advanceSI(inst, delta)
		c.advanceDI(inst, delta)

	case Scas:
		b := c.memRead(c.stringDstAddr(inst), width)
		c.compareFlags(width, c.accumulator(width), b)
		c.advanceDI(inst, delta)

	case Ins:
		port := c.DX()
		var v uint32
		if width == widthByte {
			v = uint32(c.opts.bus.InByte(port))
		} else {
			v = uint32(c.opts.bus.InWord(port))
		}
		c.memWrite(c.stringDstAddr(inst), width, v)
		c.advanceDI(inst, delta)

	default: // Outs
		v := c.memRead(c.stringSrcAddr(inst), width)
		port := c.DX()
		if width == widthByte {
			c.opts.bus.OutByte(port, uint8(v))
		} else {
			c.opts.bus.OutWord(port, uint16(v))
		}
		c.advanceSI(inst, delta)
	}
	return nil
}
