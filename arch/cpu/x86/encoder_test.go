package x86

import (
	"testing"

	"github.com/oldiron/x86core/assert"
	"github.com/oldiron/x86core/log"
)

// roundTrip encodes the instruction, decodes the bytes back, and verifies
// the decoded instruction matches command and operands. The decoder fills
// in Length; everything else must survive unchanged.
func roundTrip(t *testing.T, inst Instruction) []byte {
	t.Helper()

	encoded, err := Encode(inst)
	assert.NoError(t, err, "encoding %s", inst)

	memory := createTestMemory(t, log.NewTestLogger(t))
	assert.NoError(t, memory.LoadData(0, encoded))
	decoded := NewDecoder(memory).DecodeAt(0, 0)

	assert.Equal(t, inst.Command, decoded.Command, "command of % x", encoded)
	assert.Equal(t, inst.Dst, decoded.Dst, "dst of % x", encoded)
	assert.Equal(t, inst.Src, decoded.Src, "src of % x", encoded)
	assert.Equal(t, inst.Src2, decoded.Src2, "src2 of % x", encoded)
	assert.Equal(t, inst.Repeat, decoded.Repeat, "repeat of % x", encoded)
	assert.Equal(t, inst.SegmentOverride, decoded.SegmentOverride, "override of % x", encoded)
	assert.Equal(t, uint8(len(encoded)), decoded.Length)
	return encoded
}

func TestEncode_TestImmediate(t *testing.T) {
	inst := Instruction{
		Command: Test16,
		Dst:     Reg16Operand(reg16BX),
		Src:     Imm16Operand(0x8F4F),
	}
	encoded := roundTrip(t, inst)
	assert.Equal(t, []byte{0xF7, 0xC3, 0x4F, 0x8F}, encoded)
}

func TestEncode_AluForms(t *testing.T) {
	memOp := Operand{Kind: OperandPtr16Amode, Seg: segDS, Amode: AmodeBXSI}

	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{
			"add al imm8 short form",
			Instruction{Command: Add8, Dst: Reg8Operand(reg8AL), Src: Imm8Operand(2)},
			[]byte{0x04, 0x02},
		},
		{
			"add ax imm16 short form",
			Instruction{Command: Add16, Dst: Reg16Operand(reg16AX), Src: Imm16Operand(0x1234)},
			[]byte{0x05, 0x34, 0x12},
		},
		{
			"sub bx imm8 sign-extended",
			Instruction{Command: Sub16, Dst: Reg16Operand(reg16BX), Src: ImmS8Operand(-1)},
			[]byte{0x83, 0xEB, 0xFF},
		},
		{
			"or reg reg uses rm-reg direction",
			Instruction{Command: Or16, Dst: Reg16Operand(reg16BX), Src: Reg16Operand(reg16CX)},
			[]byte{0x09, 0xCB},
		},
		{
			"cmp mem reg",
			Instruction{Command: Cmp16, Dst: memOp, Src: Reg16Operand(reg16DX)},
			[]byte{0x39, 0x10},
		},
		{
			"adc reg mem uses reg-rm direction",
			Instruction{Command: Adc16, Dst: Reg16Operand(reg16DX), Src: memOp},
			[]byte{0x13, 0x10},
		},
		{
			"xor mem imm8",
			Instruction{
				Command: Xor8,
				Dst:     Operand{Kind: OperandPtr8Amode, Seg: segDS, Amode: AmodeSI},
				Src:     Imm8Operand(0xFF),
			},
			[]byte{0x80, 0x34, 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_MovForms(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{
			"mov r8 imm8",
			Instruction{Command: Mov8, Dst: Reg8Operand(reg8AH), Src: Imm8Operand(0xFE)},
			[]byte{0xB4, 0xFE},
		},
		{
			"mov r16 imm16",
			Instruction{Command: Mov16, Dst: Reg16Operand(reg16SI), Src: Imm16Operand(0x0100)},
			[]byte{0xBE, 0x00, 0x01},
		},
		{
			"mov al moffs",
			Instruction{
				Command: Mov8,
				Dst:     Reg8Operand(reg8AL),
				Src:     Operand{Kind: OperandPtr8, Seg: segDS, PtrImm: 0x200},
			},
			[]byte{0xA0, 0x00, 0x02},
		},
		{
			"mov moffs ax",
			Instruction{
				Command: Mov16,
				Dst:     Operand{Kind: OperandPtr16, Seg: segDS, PtrImm: 0x200},
				Src:     Reg16Operand(reg16AX),
			},
			[]byte{0xA3, 0x00, 0x02},
		},
		{
			"mov mem imm16",
			Instruction{
				Command: Mov16,
				Dst:     Operand{Kind: OperandPtr16Amode, Seg: segDS, Amode: AmodeBX},
				Src:     Imm16Operand(0x1234),
			},
			[]byte{0xC7, 0x07, 0x34, 0x12},
		},
		{
			"mov reg reg",
			Instruction{Command: Mov16, Dst: Reg16Operand(reg16BX), Src: Reg16Operand(reg16AX)},
			[]byte{0x89, 0xC3},
		},
		{
			"mov sreg from reg",
			Instruction{Command: MovSReg, Dst: SRegOperand(segDS), Src: Reg16Operand(reg16AX)},
			[]byte{0x8E, 0xD8},
		},
		{
			"mov reg from sreg",
			Instruction{Command: MovSReg, Dst: Reg16Operand(reg16AX), Src: SRegOperand(segES)},
			[]byte{0x8C, 0xC0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_ShiftForms(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{
			"shl bx 1",
			Instruction{Command: Shl16, Dst: Reg16Operand(reg16BX), Src: Imm8Operand(1)},
			[]byte{0xD1, 0xE3},
		},
		{
			"sar al cl",
			Instruction{Command: Sar8, Dst: Reg8Operand(reg8AL), Src: Reg8Operand(reg8CL)},
			[]byte{0xD2, 0xF8},
		},
		{
			"ror dx imm",
			Instruction{Command: Ror16, Dst: Reg16Operand(reg16DX), Src: Imm8Operand(3)},
			[]byte{0xC1, 0xCA, 0x03},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_IncDecPushPop(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{"inc r16 short", Instruction{Command: Inc16, Dst: Reg16Operand(reg16CX)}, []byte{0x41}},
		{"dec r16 short", Instruction{Command: Dec16, Dst: Reg16Operand(reg16DI)}, []byte{0x4F}},
		{"inc r8", Instruction{Command: Inc8, Dst: Reg8Operand(reg8BL)}, []byte{0xFE, 0xC3}},
		{"push r16", Instruction{Command: Push16, Dst: Reg16Operand(reg16BX)}, []byte{0x53}},
		{"pop r16", Instruction{Command: Pop16, Dst: Reg16Operand(reg16BP)}, []byte{0x5D}},
		{"push imm16", Instruction{Command: Push16, Dst: Imm16Operand(0x1234)}, []byte{0x68, 0x34, 0x12}},
		{"push imm8", Instruction{Command: Push16, Dst: ImmS8Operand(-2)}, []byte{0x6A, 0xFE}},
		{"push ds", Instruction{Command: PushSReg, Dst: SRegOperand(segDS)}, []byte{0x1E}},
		{"pop es", Instruction{Command: PopSReg, Dst: SRegOperand(segES)}, []byte{0x07}},
		{"push fs", Instruction{Command: PushSReg, Dst: SRegOperand(segFS)}, []byte{0x0F, 0xA0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_Group3AndLea(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{"not ax", Instruction{Command: Not16, Dst: Reg16Operand(reg16AX)}, []byte{0xF7, 0xD0}},
		{"neg bl", Instruction{Command: Neg8, Dst: Reg8Operand(reg8BL)}, []byte{0xF6, 0xDB}},
		{"mul bx", Instruction{Command: Mul16, Dst: Reg16Operand(reg16BX)}, []byte{0xF7, 0xE3}},
		{"idiv bx", Instruction{Command: Idiv16, Dst: Reg16Operand(reg16BX)}, []byte{0xF7, 0xFB}},
		{
			"lea ax [bx+si+0x10]",
			Instruction{
				Command: Lea16,
				Dst:     Reg16Operand(reg16AX),
				Src:     Operand{Kind: OperandPtr16AmodeS8, Seg: segDS, Amode: AmodeBXSI, Disp: 0x10},
			},
			[]byte{0x8D, 0x40, 0x10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_ControlAndMisc(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{"nop", Instruction{Command: Nop}, []byte{0x90}},
		{"clc", Instruction{Command: Clc}, []byte{0xF8}},
		{"stc", Instruction{Command: Stc}, []byte{0xF9}},
		{"sti", Instruction{Command: Sti}, []byte{0xFB}},
		{"cld", Instruction{Command: Cld}, []byte{0xFC}},
		{"hlt", Instruction{Command: Hlt}, []byte{0xF4}},
		{"cwd", Instruction{Command: Cwd}, []byte{0x99}},
		{"int3", Instruction{Command: Int3}, []byte{0xCC}},
		{"int imm", Instruction{Command: IntImm, Dst: Imm8Operand(0x21)}, []byte{0xCD, 0x21}},
		{"ret", Instruction{Command: RetNear}, []byte{0xC3}},
		{"ret imm16", Instruction{Command: RetNear, Dst: Imm16Operand(4)}, []byte{0xC2, 0x04, 0x00}},
		{"retf", Instruction{Command: RetFar}, []byte{0xCB}},
		{"iret", Instruction{Command: Iret}, []byte{0xCF}},
		{"jmp short", Instruction{Command: JmpShort, Dst: ImmS8Operand(-2)}, []byte{0xEB, 0xFE}},
		{"jmp near", Instruction{Command: JmpNear, Dst: Imm16Operand(0x100)}, []byte{0xE9, 0x00, 0x01}},
		{"call near", Instruction{Command: CallNear, Dst: Imm16Operand(0x10)}, []byte{0xE8, 0x10, 0x00}},
		{"je short", Instruction{Command: Je, Dst: ImmS8Operand(5)}, []byte{0x74, 0x05}},
		{"jne near", Instruction{Command: Jne, Dst: Imm16Operand(0x200)}, []byte{0x0F, 0x85, 0x00, 0x02}},
		{"loop", Instruction{Command: Loop, Dst: ImmS8Operand(-3)}, []byte{0xE2, 0xFD}},
		{"in al imm", Instruction{Command: InByte, Dst: Reg8Operand(reg8AL), Src: Imm8Operand(0x60)}, []byte{0xE4, 0x60}},
		{"out dx ax", Instruction{Command: OutWord, Dst: Reg16Operand(reg16DX), Src: Reg16Operand(reg16AX)}, []byte{0xEF}},
		{"xchg ax cx short", Instruction{Command: Xchg16, Dst: Reg16Operand(reg16AX), Src: Reg16Operand(reg16CX)}, []byte{0x91}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_StringOps(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want []byte
	}{
		{"movsb", Instruction{Command: Movs, Width: 1}, []byte{0xA4}},
		{"rep movsb", Instruction{Command: Movs, Width: 1, Repeat: RepeatRep}, []byte{0xF3, 0xA4}},
		{"repe cmpsw", Instruction{Command: Cmps, Width: 2, Repeat: RepeatRepe}, []byte{0xF3, 0xA7}},
		{"repne scasb", Instruction{Command: Scas, Width: 1, Repeat: RepeatRepne}, []byte{0xF2, 0xAE}},
		{"stosw", Instruction{Command: Stos, Width: 2}, []byte{0xAB}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := roundTrip(t, tt.inst)
			assert.Equal(t, tt.want, encoded)
		})
	}
}

func TestEncode_SegmentOverride(t *testing.T) {
	inst := Instruction{
		Command:         Mov8,
		Dst:             Reg8Operand(reg8AL),
		Src:             Operand{Kind: OperandPtr8Amode, Seg: segDS, Amode: AmodeBX},
		SegmentOverride: SegOverrideES,
	}
	encoded := roundTrip(t, inst)
	assert.Equal(t, []byte{0x26, 0x8A, 0x07}, encoded)
}

func TestEncode_BpCanonicalisesToDisp8(t *testing.T) {
	// [bp] has no mod=0 encoding; the encoder emits mod=1 with a zero
	// displacement, which decodes to the equivalent disp8 operand.
	inst := Instruction{
		Command: Mov8,
		Dst:     Operand{Kind: OperandPtr8Amode, Seg: segSS, Amode: AmodeBP},
		Src:     Reg8Operand(reg8AL),
	}
	encoded, err := Encode(inst)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x88, 0x46, 0x00}, encoded)

	memory := createTestMemory(t, log.NewTestLogger(t))
	assert.NoError(t, memory.LoadData(0, encoded))
	decoded := NewDecoder(memory).DecodeAt(0, 0)
	assert.Equal(t, OperandPtr8AmodeS8, decoded.Dst.Kind)
	assert.Equal(t, AmodeBP, decoded.Dst.Amode)
	assert.Equal(t, int32(0), decoded.Dst.Disp)
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want error
	}{
		{
			"unsupported command",
			Instruction{Command: Fld, Dst: fprOperand(0)},
			ErrUnhandledOp,
		},
		{
			"sib operand unsupported",
			Instruction{
				Command: Add16,
				Dst:     Operand{Kind: OperandPtr16SIB, Base: reg32EBX, NoIndex: true, Scale: 1},
				Src:     Reg16Operand(reg16AX),
			},
			ErrUnhandledParameter,
		},
		{
			"immediate mov destination",
			Instruction{Command: Mov16, Dst: Imm16Operand(1), Src: Reg16Operand(reg16AX)},
			ErrUnexpectedDstType,
		},
		{
			"immediate inc destination",
			Instruction{Command: Inc16, Dst: Imm16Operand(1)},
			ErrUnexpectedDstType,
		},
		{
			"pop cs",
			Instruction{Command: PopSReg, Dst: SRegOperand(segCS)},
			ErrUnhandledParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.inst)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncode_ExecutedRoundTrip(t *testing.T) {
	// An encoded program must execute identically to its hand-assembled
	// form: build mov ax, 0x8888; mov ds, ax; push ds; pop es from records.
	program := []Instruction{
		{Command: Mov16, Dst: Reg16Operand(reg16AX), Src: Imm16Operand(0x8888)},
		{Command: MovSReg, Dst: SRegOperand(segDS), Src: Reg16Operand(reg16AX)},
		{Command: PushSReg, Dst: SRegOperand(segDS)},
		{Command: PopSReg, Dst: SRegOperand(segES)},
	}

	var bytes []byte
	for _, inst := range program {
		encoded, err := Encode(inst)
		assert.NoError(t, err)
		bytes = append(bytes, encoded...)
	}

	cpu := createTestCPU(t, bytes)
	run(t, cpu, len(program))

	assert.Equal(t, uint16(0x8888), cpu.AX())
	assert.Equal(t, uint16(0x8888), cpu.DS)
	assert.Equal(t, uint16(0x8888), cpu.ES)
	assert.Equal(t, uint16(0xFFFE), cpu.SP())
}
