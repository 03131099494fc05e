package x86

// commandNames maps every command tag to its assembler mnemonic. Width
// variants of the same operation share one mnemonic; the operand text
// carries the width.
var commandNames = map[Command]string{
	Invalid: "(invalid)",
	Nop:     "nop",

	Mov8: "mov", Mov16: "mov", Mov32: "mov", MovSReg: "mov",
	Lea16: "lea", Lea32: "lea",
	Xchg8: "xchg", Xchg16: "xchg", Xchg32: "xchg",
	Push16: "push", Push32: "push", PushSReg: "push",
	Pop16: "pop", Pop32: "pop", PopSReg: "pop",
	Pushf: "pushf", Popf: "popf",
	Pusha: "pusha", Popa: "popa",
	Lahf: "lahf", Sahf: "sahf",
	Xlat: "xlatb",

	Cbw: "cbw", Cwd: "cwd", Cwde: "cwde",
	Movzx8to16: "movzx", Movzx8to32: "movzx", Movzx16to32: "movzx",
	Movsx8to16: "movsx", Movsx8to32: "movsx", Movsx16to32: "movsx",

	Add8: "add", Add16: "add", Add32: "add",
	Adc8: "adc", Adc16: "adc", Adc32: "adc",
	Sub8: "sub", Sub16: "sub", Sub32: "sub",
	Sbb8: "sbb", Sbb16: "sbb", Sbb32: "sbb",
	Cmp8: "cmp", Cmp16: "cmp", Cmp32: "cmp",
	Inc8: "inc", Inc16: "inc", Inc32: "inc",
	Dec8: "dec", Dec16: "dec", Dec32: "dec",
	Neg8: "neg", Neg16: "neg", Neg32: "neg",

	And8: "and", And16: "and", And32: "and",
	Or8: "or", Or16: "or", Or32: "or",
	Xor8: "xor", Xor16: "xor", Xor32: "xor",
	Test8: "test", Test16: "test", Test32: "test",
	Not8: "not", Not16: "not", Not32: "not",

	Shl8: "shl", Shl16: "shl", Shl32: "shl",
	Shr8: "shr", Shr16: "shr", Shr32: "shr",
	Sar8: "sar", Sar16: "sar", Sar32: "sar",
	Rol8: "rol", Rol16: "rol", Rol32: "rol",
	Ror8: "ror", Ror16: "ror", Ror32: "ror",
	Rcl8: "rcl", Rcl16: "rcl", Rcl32: "rcl",
	Rcr8: "rcr", Rcr16: "rcr", Rcr32: "rcr",

	Mul8: "mul", Mul16: "mul", Mul32: "mul",
	Imul8: "imul", Imul16: "imul", Imul32: "imul",
	ImulTwoOp16: "imul", ImulTwoOp32: "imul",
	ImulThreeOp16: "imul", ImulThreeOp32: "imul",
	Div8: "div", Div16: "div", Div32: "div",
	Idiv8: "idiv", Idiv16: "idiv", Idiv32: "idiv",

	Movs: "movs", Stos: "stos", Lods: "lods",
	Cmps: "cmps", Scas: "scas", Ins: "ins", Outs: "outs",

	JmpNear: "jmp", JmpFar: "jmp", JmpShort: "jmp",
	CallNear: "call", CallFar: "call",
	RetNear: "ret", RetFar: "retf", Iret: "iret",
	Int3: "int3", IntImm: "int", Into: "into",
	Loop: "loop", Loope: "loope", Loopne: "loopne", Jcxz: "jcxz",

	Jo: "jo", Jno: "jno", Jb: "jb", Jae: "jae",
	Je: "je", Jne: "jne", Jbe: "jbe", Ja: "ja",
	Js: "js", Jns: "jns", Jp: "jp", Jnp: "jnp",
	Jl: "jl", Jge: "jge", Jle: "jle", Jg: "jg",

	Seto: "seto", Setno: "setno", Setb: "setb", Setae: "setae",
	Sete: "sete", Setne: "setne", Setbe: "setbe", Seta: "seta",
	Sets: "sets", Setns: "setns", Setp: "setp", Setnp: "setnp",
	Setl: "setl", Setge: "setge", Setle: "setle", Setg: "setg",

	Clc: "clc", Stc: "stc", Cmc: "cmc",
	Cld: "cld", Std: "std", Cli: "cli", Sti: "sti",

	Enter: "enter", Leave: "leave",

	InByte: "in", InWord: "in", OutByte: "out", OutWord: "out",

	Bt: "bt", Bts: "bts", Btr: "btr", Btc: "btc",
	Bsf: "bsf", Bsr: "bsr", Shld: "shld", Shrd: "shrd",

	Hlt: "hlt", Wait: "wait", Bound: "bound",
	Daa: "daa", Das: "das", Aaa: "aaa", Aas: "aas",
	Aam: "aam", Aad: "aad",

	Les: "les", Lds: "lds", Lfs: "lfs", Lgs: "lgs", Lss: "lss",

	Fadd: "fadd", Fmul: "fmul", Fld: "fld", Fst: "fst", Fstp: "fstp",
	Fldcw: "fldcw", Fnstcw: "fnstcw", Fistp: "fistp", FpuOther: "fpu",
}

// String returns the assembler mnemonic for the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "(unknown)"
}
