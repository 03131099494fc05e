package x86

// ModRM is the ModR/M byte used throughout the one- and two-byte opcode
// maps: bits [7:6] select the addressing mode, [5:3] select a register or
// opcode-group sub-operation, [2:0] select the r/m operand.
type ModRM struct {
	Mod uint8
	Reg uint8
	RM  uint8
}

// decodeModRM splits a raw ModR/M byte into its three fields.
func decodeModRM(b uint8) ModRM {
	return ModRM{Mod: b >> 6, Reg: (b >> 3) & 7, RM: b & 7}
}

// ToByte reassembles the raw ModR/M byte, used by the encoder.
func (m ModRM) ToByte() uint8 {
	return (m.Mod << 6) | ((m.Reg & 7) << 3) | (m.RM & 7)
}

// SIB is the scale-index-base byte that follows a ModR/M byte when 32-bit
// addressing selects r/m=4 (and mod != 3).
type SIB struct {
	Scale uint8 // 2-bit field: 1<<Scale gives the actual multiplier
	Index uint8 // index=4 means "no index"
	Base  uint8 // base=5 with mod=0 means "displacement-only, no base"
}

// decodeSIB splits a raw SIB byte into its three fields.
func decodeSIB(b uint8) SIB {
	return SIB{Scale: b >> 6, Index: (b >> 3) & 7, Base: b & 7}
}

// amode16 maps a ModR/M r/m field (mod != 3, address-size 16) to one of the
// eight fixed addressing-mode expressions and reports whether SS is this
// combination's default segment (true only for the two BP-based forms and
// plain [BP]).
func amode16(rm uint8) (expr AmodeExpr, defaultSS bool) {
	switch rm {
	case 0:
		return AmodeBXSI, false
	case 1:
		return AmodeBXDI, false
	case 2:
		return AmodeBPSI, true
	case 3:
		return AmodeBPDI, true
	case 4:
		return AmodeSI, false
	case 5:
		return AmodeDI, false
	case 6:
		return AmodeBP, true
	default: // 7
		return AmodeBX, false
	}
}

// amodeValue16 evaluates one of the eight 16-bit addressing-mode
// expressions against current register contents.
func (c *CPU) amodeValue16(a AmodeExpr) uint16 {
	switch a {
	case AmodeBXSI:
		return c.BX() + c.SI()
	case AmodeBXDI:
		return c.BX() + c.DI()
	case AmodeBPSI:
		return c.BP() + c.SI()
	case AmodeBPDI:
		return c.BP() + c.DI()
	case AmodeSI:
		return c.SI()
	case AmodeDI:
		return c.DI()
	case AmodeBP:
		return c.BP()
	default: // AmodeBX
		return c.BX()
	}
}

// reg32FromRM maps a ModR/M or SIB 3-bit field to one of the eight 32-bit
// general-purpose registers used as a SIB base or index.
func reg32FromRM(rm uint8) reg32 {
	return reg32(rm & 7)
}

// EffectiveOffset resolves any Ptr* operand to its offset within the
// segment, without applying the segment base. LEA consumes exactly this.
func (c *CPU) EffectiveOffset(op Operand) uint32 {
	switch op.Kind {
	case OperandPtr8, OperandPtr16, OperandPtr32:
		return op.PtrImm

	case OperandPtr8Amode, OperandPtr16Amode, OperandPtr32Amode:
		return uint32(c.amodeValue16(op.Amode))

	case OperandPtr8AmodeS8, OperandPtr16AmodeS8, OperandPtr32AmodeS8,
		OperandPtr8AmodeS16, OperandPtr16AmodeS16, OperandPtr32AmodeS16,
		OperandPtr8AmodeS32, OperandPtr16AmodeS32, OperandPtr32AmodeS32:
		return uint32(c.amodeValue16(op.Amode) + uint16(op.Disp))

	case OperandPtr16SIB, OperandPtr16SIBS8, OperandPtr16SIBS32:
		var base, index uint32
		if !op.NoBase {
			base = c.GetReg32(op.Base)
		}
		if !op.NoIndex {
			index = c.GetReg32(op.Index) * uint32(op.Scale)
		}
		return base + index + uint32(op.Disp)

	default:
		return 0
	}
}

// EffectiveAddress resolves any Ptr* operand to its linear address, applying
// the instruction's segment override (or the operand's natural default
// segment when none is active).
func (c *CPU) EffectiveAddress(op Operand, override SegmentOverride) uint32 {
	seg := op.Seg
	if override != SegOverrideNone {
		seg = (Instruction{SegmentOverride: override}).EffectiveSegment(seg)
	}
	offset := c.EffectiveOffset(op)
	return (uint32(c.GetSegment(seg))<<4 + offset) & AddressMask
}
