package x86

// OperandKind tags which variant of the Operand union is populated. Go has
// no native sum type, so the union is modeled as one struct carrying every
// field any variant might need, discriminated by Kind — the same shape the
// package uses for Command and AmodeExpr.
type OperandKind uint8

const (
	OperandNone OperandKind = iota

	OperandReg8
	OperandReg16
	OperandReg32
	OperandSReg
	OperandFPR

	OperandImm8
	OperandImm16
	OperandImm32
	OperandImmS8 // sign-extended 8-bit immediate used in imm8-to-wide-width forms

	OperandPtr16Imm // far pointer literal: seg:off, both immediate

	OperandPtr8    // [seg:imm] byte
	OperandPtr16   // [seg:imm] word
	OperandPtr32   // [seg:imm] dword

	OperandPtr8Amode  // [seg:<amode>] byte
	OperandPtr16Amode // [seg:<amode>] word
	OperandPtr32Amode // [seg:<amode>] dword

	OperandPtr8AmodeS8   // [seg:<amode>+disp8] byte
	OperandPtr8AmodeS16  // [seg:<amode>+disp16] byte
	OperandPtr8AmodeS32  // [seg:<amode>+disp32] byte
	OperandPtr16AmodeS8  // [seg:<amode>+disp8] word
	OperandPtr16AmodeS16 // [seg:<amode>+disp16] word
	OperandPtr16AmodeS32 // [seg:<amode>+disp32] word
	OperandPtr32AmodeS8  // [seg:<amode>+disp8] dword
	OperandPtr32AmodeS16 // [seg:<amode>+disp16] dword
	OperandPtr32AmodeS32 // [seg:<amode>+disp32] dword

	OperandPtr16SIB    // [seg:base+index*scale] word, no displacement
	OperandPtr16SIBS8  // + sign-extended disp8
	OperandPtr16SIBS32 // + disp32
)

// AmodeExpr identifies one of the eight fixed 16-bit addressing-mode
// register combinations the architecture provides.
type AmodeExpr uint8

const (
	AmodeBXSI AmodeExpr = iota
	AmodeBXDI
	AmodeBPSI
	AmodeBPDI
	AmodeSI
	AmodeDI
	AmodeBP
	AmodeBX
)

// Operand is the tagged union described by spec section 3: a register
// identifier, an immediate, a far pointer, or one of the fifteen
// memory-operand shapes keyed by segment, addressing expression and
// displacement width, plus the SIB variants for 32-bit addressing.
type Operand struct {
	Kind OperandKind

	Reg8  reg8
	Reg16 reg16
	Reg32 reg32
	SReg  segmentReg
	FPR   uint8 // ST0..ST7

	ImmU32 uint32 // backing store for Imm8/16/32
	ImmS8  int8

	Seg segmentReg // segment used for this operand's memory access, when applicable

	PtrImm uint32 // the constant offset for Ptr{8,16,32} and the offset half of Ptr16Imm
	PtrSeg uint16 // the segment half of Ptr16Imm (far pointer literal)

	Amode AmodeExpr
	Disp  int32 // sign-extended displacement, width implied by Kind

	// SIB fields, valid only for the Ptr16SIB* variants.
	Scale uint8 // 1, 2, 4 or 8
	Index reg32
	Base  reg32
	NoBase  bool // base=5, mod=0: displacement-only, no base register contributes
	NoIndex bool // index=4: illegal-as-index encoding used to mean "no index"
}

// Reg8Operand builds an 8-bit register operand.
func Reg8Operand(r reg8) Operand { return Operand{Kind: OperandReg8, Reg8: r} }

// Reg16Operand builds a 16-bit register operand.
func Reg16Operand(r reg16) Operand { return Operand{Kind: OperandReg16, Reg16: r} }

// Reg32Operand builds a 32-bit register operand.
func Reg32Operand(r reg32) Operand { return Operand{Kind: OperandReg32, Reg32: r} }

// SRegOperand builds a segment-register operand.
func SRegOperand(s segmentReg) Operand { return Operand{Kind: OperandSReg, SReg: s} }

// Imm8Operand builds an unsigned 8-bit immediate operand.
func Imm8Operand(v uint8) Operand { return Operand{Kind: OperandImm8, ImmU32: uint32(v)} }

// Imm16Operand builds an unsigned 16-bit immediate operand.
func Imm16Operand(v uint16) Operand { return Operand{Kind: OperandImm16, ImmU32: uint32(v)} }

// Imm32Operand builds an unsigned 32-bit immediate operand.
func Imm32Operand(v uint32) Operand { return Operand{Kind: OperandImm32, ImmU32: v} }

// ImmS8Operand builds a sign-extended 8-bit immediate operand.
func ImmS8Operand(v int8) Operand { return Operand{Kind: OperandImmS8, ImmS8: v} }

// IsMemory reports whether the operand refers to a memory location. The
// far-pointer literal is not a memory reference; it is an immediate
// seg:off pair.
func (o Operand) IsMemory() bool {
	return o.Kind > OperandPtr16Imm
}

// IsRegister reports whether the operand refers to a general-purpose,
// segment or FPU stack register.
func (o Operand) IsRegister() bool {
	switch o.Kind {
	case OperandReg8, OperandReg16, OperandReg32, OperandSReg, OperandFPR:
		return true
	default:
		return false
	}
}

// IsImmediate reports whether the operand is an immediate constant.
func (o Operand) IsImmediate() bool {
	switch o.Kind {
	case OperandImm8, OperandImm16, OperandImm32, OperandImmS8:
		return true
	default:
		return false
	}
}
