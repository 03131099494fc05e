package x86

// Cycle approximation. The core is cycle-approximated, not cycle-exact:
// each command class gets a representative 8086 cycle count so that timers
// and run-loop throttles behave plausibly, without modeling memory-access
// penalties or effective-address overhead.
var commandTiming = map[Command]uint8{
	Nop: 3, Wait: 4, Hlt: 2,

	Push16: 11, Push32: 11, PushSReg: 10, Pushf: 10, Pusha: 36,
	Pop16: 8, Pop32: 8, PopSReg: 8, Popf: 8, Popa: 51,

	Mul8: 70, Mul16: 118, Mul32: 118,
	Imul8: 80, Imul16: 128, Imul32: 128,
	ImulTwoOp16: 22, ImulTwoOp32: 22, ImulThreeOp16: 22, ImulThreeOp32: 22,
	Div8: 80, Div16: 144, Div32: 144,
	Idiv8: 101, Idiv16: 165, Idiv32: 165,

	Movs: 18, Stos: 11, Lods: 12, Cmps: 22, Scas: 15, Ins: 14, Outs: 14,

	JmpNear: 15, JmpShort: 15, JmpFar: 15,
	CallNear: 19, CallFar: 28,
	RetNear: 16, RetFar: 26, Iret: 32,
	IntImm: 51, Int3: 52, Into: 53,
	Loop: 17, Loope: 18, Loopne: 19, Jcxz: 18,
	Enter: 25, Leave: 8,

	InByte: 10, InWord: 10, OutByte: 10, OutWord: 10,

	Aam: 83, Aad: 60, Daa: 4, Das: 4, Aaa: 4, Aas: 4,

	Les: 16, Lds: 16, Lfs: 16, Lgs: 16, Lss: 16,
	Xlat: 11, Bound: 33,
}

// timingFor returns the approximate cycle cost of a command. Commands not
// in the table (the register ALU bulk) cost three cycles.
func timingFor(cmd Command) uint8 {
	if t, ok := commandTiming[cmd]; ok {
		return t
	}
	return 3
}
