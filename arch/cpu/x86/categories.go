package x86

import "github.com/oldiron/x86core/set"

// Instruction-category sets consumed by static-analysis tooling (the
// inspect command) and by tests. Membership is by command tag, so width
// variants are listed explicitly.

// BranchingCommands contains all commands that can change control flow.
var BranchingCommands = set.NewFromSlice([]Command{
	JmpNear, JmpFar, JmpShort,
	CallNear, CallFar,
	RetNear, RetFar, Iret,
	IntImm, Int3, Into,
	Loop, Loope, Loopne, Jcxz,
	Jo, Jno, Jb, Jae, Je, Jne, Jbe, Ja,
	Js, Jns, Jp, Jnp, Jl, Jge, Jle, Jg,
})

// UnconditionalFlowCommands contains commands after which the following
// opcode never executes, marking basic-block boundaries for disassemblers.
var UnconditionalFlowCommands = set.NewFromSlice([]Command{
	JmpNear, JmpFar, JmpShort,
	RetNear, RetFar, Iret,
	Hlt,
})

// StringCommands contains the repeatable string operations.
var StringCommands = set.NewFromSlice([]Command{
	Movs, Stos, Lods, Cmps, Scas, Ins, Outs,
})

// StackCommands contains commands that implicitly move SP.
var StackCommands = set.NewFromSlice([]Command{
	Push16, Push32, PushSReg, Pushf, Pusha,
	Pop16, Pop32, PopSReg, Popf, Popa,
	CallNear, CallFar, RetNear, RetFar,
	IntImm, Int3, Into, Iret,
	Enter, Leave,
})

// PortIOCommands contains commands that touch the host bus's I/O ports.
var PortIOCommands = set.NewFromSlice([]Command{
	InByte, InWord, OutByte, OutWord, Ins, Outs,
})

// FlagWriterCommands contains commands whose only architectural effect is
// on the flags word.
var FlagWriterCommands = set.NewFromSlice([]Command{
	Clc, Stc, Cmc, Cld, Std, Cli, Sti, Sahf,
	Cmp8, Cmp16, Cmp32, Test8, Test16, Test32,
})

// FPUCommands contains the coprocessor escape commands.
var FPUCommands = set.NewFromSlice([]Command{
	Fadd, Fmul, Fld, Fst, Fstp, Fldcw, Fnstcw, Fistp, FpuOther,
})

// ReadsMemory reports whether the instruction reads from memory through an
// operand or an implicit string/stack access.
func (i Instruction) ReadsMemory() bool {
	switch i.Command {
	case Movs, Cmps, Lods, Scas, Outs, Xlat:
		return true
	case Pop16, Pop32, PopSReg, Popf, Popa, RetNear, RetFar, Iret, Leave:
		return true
	case Les, Lds, Lfs, Lgs, Lss, Bound:
		return true
	case Stos, Ins, Lea16, Lea32:
		return false
	case Mov8, Mov16, Mov32, MovSReg:
		return i.Src.IsMemory()
	}
	return i.Dst.IsMemory() || i.Src.IsMemory()
}

// WritesMemory reports whether the instruction writes to memory through an
// operand or an implicit string/stack access.
func (i Instruction) WritesMemory() bool {
	switch i.Command {
	case Movs, Stos, Ins:
		return true
	case Push16, Push32, PushSReg, Pushf, Pusha, CallNear, CallFar, Enter, IntImm, Int3, Into:
		return true
	case Cmp8, Cmp16, Cmp32, Test8, Test16, Test32, Bt, Bsf, Bsr,
		Cmps, Scas, Lods, Outs, Lea16, Lea32, Bound,
		JmpNear, JmpShort, JmpFar:
		return false
	}
	return i.Dst.IsMemory()
}

// IsBranching reports whether the instruction can change control flow.
func (i Instruction) IsBranching() bool {
	return BranchingCommands.Contains(i.Command)
}

// IsUnconditionalFlow reports whether the following opcode never executes.
func (i Instruction) IsUnconditionalFlow() bool {
	return UnconditionalFlowCommands.Contains(i.Command)
}
