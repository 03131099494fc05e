package x86

// Command identifies the operation an Instruction performs. This is a
// deliberately flat, closed set — the architecture defines roughly 300
// distinct operation/width combinations; this package implements the subset
// that the executor and encoder give real semantics to, while the decoder
// still recognises and correctly sizes every opcode byte it encounters.
type Command uint16

const (
	// Invalid marks a decode failure. InvalidReason on the owning
	// Instruction records why.
	Invalid Command = iota

	Nop

	// Data movement.
	Mov8
	Mov16
	Mov32
	MovSReg
	Lea16
	Lea32
	Xchg8
	Xchg16
	Xchg32
	Push16
	Push32
	PushSReg
	Pop16
	Pop32
	PopSReg
	Pushf
	Popf
	Pusha
	Popa
	Lahf
	Sahf
	Xlat

	// Sign/zero extension.
	Cbw
	Cwd
	Cwde
	Movzx8to16
	Movzx8to32
	Movzx16to32
	Movsx8to16
	Movsx8to32
	Movsx16to32

	// Arithmetic, three widths each.
	Add8
	Add16
	Add32
	Adc8
	Adc16
	Adc32
	Sub8
	Sub16
	Sub32
	Sbb8
	Sbb16
	Sbb32
	Cmp8
	Cmp16
	Cmp32
	Inc8
	Inc16
	Inc32
	Dec8
	Dec16
	Dec32
	Neg8
	Neg16
	Neg32

	// Logical.
	And8
	And16
	And32
	Or8
	Or16
	Or32
	Xor8
	Xor16
	Xor32
	Test8
	Test16
	Test32
	Not8
	Not16
	Not32

	// Shift/rotate, three widths each.
	Shl8
	Shl16
	Shl32
	Shr8
	Shr16
	Shr32
	Sar8
	Sar16
	Sar32
	Rol8
	Rol16
	Rol32
	Ror8
	Ror16
	Ror32
	Rcl8
	Rcl16
	Rcl32
	Rcr8
	Rcr16
	Rcr32

	// Multiply/divide.
	Mul8
	Mul16
	Mul32
	Imul8
	Imul16
	Imul32
	ImulTwoOp16
	ImulTwoOp32
	ImulThreeOp16
	ImulThreeOp32
	Div8
	Div16
	Div32
	Idiv8
	Idiv16
	Idiv32

	// String operations (width encoded separately in Instruction.Width).
	Movs
	Stos
	Lods
	Cmps
	Scas
	Ins
	Outs

	// Control flow.
	JmpNear
	JmpFar
	JmpShort
	CallNear
	CallFar
	RetNear
	RetFar
	Iret
	Int3
	IntImm
	Into
	Loop
	Loope
	Loopne
	Jcxz

	// Conditional jumps, one tag per condition code.
	Jo
	Jno
	Jb
	Jae
	Je
	Jne
	Jbe
	Ja
	Js
	Jns
	Jp
	Jnp
	Jl
	Jge
	Jle
	Jg

	// SETcc, one tag per condition code.
	Seto
	Setno
	Setb
	Setae
	Sete
	Setne
	Setbe
	Seta
	Sets
	Setns
	Setp
	Setnp
	Setl
	Setge
	Setle
	Setg

	// Flag control.
	Clc
	Stc
	Cmc
	Cld
	Std
	Cli
	Sti

	// Stack frame.
	Enter
	Leave

	// I/O.
	InByte
	InWord
	OutByte
	OutWord

	// Bit operations (two-byte opcode map).
	Bt
	Bts
	Btr
	Btc
	Bsf
	Bsr
	Shld
	Shrd

	// Halt/wait/misc.
	Hlt
	Wait
	Bound
	Daa
	Das
	Aaa
	Aas
	Aam
	Aad

	// Far pointer loads.
	Les
	Lds
	Lfs
	Lgs
	Lss

	// FPU skeleton: decoded, mostly no-op executed.
	Fadd
	Fmul
	Fld
	Fst
	Fstp
	Fldcw
	Fnstcw
	Fistp
	FpuOther
)

// IsStringOp reports whether cmd belongs to the repeatable string-op set
// named in the decoder's repeat-prefix validation rule.
func (c Command) IsStringOp() bool {
	switch c {
	case Movs, Stos, Lods, Cmps, Scas, Ins, Outs:
		return true
	default:
		return false
	}
}

// IsConditionalJump reports whether cmd is one of the sixteen Jcc tags.
func (c Command) IsConditionalJump() bool {
	return c >= Jo && c <= Jg
}

// IsSetcc reports whether cmd is one of the sixteen SETcc tags.
func (c Command) IsSetcc() bool {
	return c >= Seto && c <= Setg
}
