package x86

import (
	"fmt"
	"strings"
)

// Textual rendering of instructions and operands in lowercase Intel syntax.
// This backs trace lines and the command-line decode tooling; it is a
// faithful but plain printer, not a full-featured disassembler.

var reg8Names = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}
var reg16Names = [8]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}
var reg32Names = [8]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}
var sregNames = [6]string{"es", "cs", "ss", "ds", "fs", "gs"}

var amodeNames = [8]string{
	"bx+si", "bx+di", "bp+si", "bp+di", "si", "di", "bp", "bx",
}

// String returns the amode expression text, e.g. "bx+si".
func (a AmodeExpr) String() string {
	if a < 8 {
		return amodeNames[a]
	}
	return "?"
}

// sizePrefix names the pointer width of a memory operand kind for the
// operand text.
func sizePrefix(width uint8) string {
	switch width {
	case widthByte:
		return "byte"
	case widthWord:
		return "word"
	default:
		return "dword"
	}
}

func formatDisp(d int32) string {
	if d < 0 {
		return fmt.Sprintf("-0x%x", -d)
	}
	return fmt.Sprintf("+0x%x", d)
}

// format renders the operand. The instruction's segment override, when
// present, is printed on its memory operands.
func (o Operand) format(override SegmentOverride) string {
	segText := ""
	if o.IsMemory() && override != SegOverrideNone {
		seg := (Instruction{SegmentOverride: override}).EffectiveSegment(o.Seg)
		segText = sregNames[seg] + ":"
	}

	switch o.Kind {
	case OperandReg8:
		return reg8Names[o.Reg8]
	case OperandReg16:
		return reg16Names[o.Reg16]
	case OperandReg32:
		return reg32Names[o.Reg32]
	case OperandSReg:
		return sregNames[o.SReg]
	case OperandFPR:
		if o.FPR == 0 {
			return "st0"
		}
		return fmt.Sprintf("st%d", o.FPR)

	case OperandImm8:
		return fmt.Sprintf("0x%x", uint8(o.ImmU32))
	case OperandImm16:
		return fmt.Sprintf("0x%x", uint16(o.ImmU32))
	case OperandImm32:
		return fmt.Sprintf("0x%x", o.ImmU32)
	case OperandImmS8:
		if o.ImmS8 < 0 {
			return fmt.Sprintf("-0x%x", -int32(o.ImmS8))
		}
		return fmt.Sprintf("0x%x", o.ImmS8)

	case OperandPtr16Imm:
		return fmt.Sprintf("0x%04x:0x%04x", o.PtrSeg, uint16(o.PtrImm))

	case OperandPtr8, OperandPtr16, OperandPtr32:
		return fmt.Sprintf("%s [%s0x%x]", sizePrefix(operandPtrWidth(o)), segText, o.PtrImm)

	case OperandPtr8Amode, OperandPtr16Amode, OperandPtr32Amode:
		return fmt.Sprintf("%s [%s%s]", sizePrefix(operandPtrWidth(o)), segText, o.Amode)

	case OperandPtr8AmodeS8, OperandPtr16AmodeS8, OperandPtr32AmodeS8,
		OperandPtr8AmodeS16, OperandPtr16AmodeS16, OperandPtr32AmodeS16,
		OperandPtr8AmodeS32, OperandPtr16AmodeS32, OperandPtr32AmodeS32:
		return fmt.Sprintf("%s [%s%s%s]", sizePrefix(operandPtrWidth(o)), segText, o.Amode, formatDisp(o.Disp))

	case OperandPtr16SIB, OperandPtr16SIBS8, OperandPtr16SIBS32:
		var parts []string
		if !o.NoBase {
			parts = append(parts, reg32Names[o.Base])
		}
		if !o.NoIndex {
			parts = append(parts, fmt.Sprintf("%s*%d", reg32Names[o.Index], o.Scale))
		}
		expr := strings.Join(parts, "+")
		if o.Disp != 0 || expr == "" {
			if expr == "" {
				expr = fmt.Sprintf("0x%x", uint32(o.Disp))
			} else {
				expr += formatDisp(o.Disp)
			}
		}
		return fmt.Sprintf("[%s%s]", segText, expr)

	default:
		return ""
	}
}

// String renders the instruction in lowercase Intel syntax, e.g.
// "rep movsb" or "mov ax, 0x8888".
func (i Instruction) String() string {
	if i.IsInvalid() {
		return fmt.Sprintf("(invalid: %s % x)", i.InvalidReason, i.RawBytes)
	}

	var b strings.Builder
	if i.Lock {
		b.WriteString("lock ")
	}
	switch i.Repeat {
	case RepeatRep:
		b.WriteString("rep ")
	case RepeatRepe:
		b.WriteString("repe ")
	case RepeatRepne:
		b.WriteString("repne ")
	}

	b.WriteString(i.Command.String())
	if i.Command.IsStringOp() {
		switch i.Width {
		case widthByte:
			b.WriteString("b")
		case widthWord:
			b.WriteString("w")
		default:
			b.WriteString("d")
		}
		return b.String()
	}

	operands := make([]string, 0, 3)
	for _, op := range []Operand{i.Dst, i.Src, i.Src2} {
		if op.Kind == OperandNone {
			break
		}
		operands = append(operands, op.format(i.SegmentOverride))
	}
	if len(operands) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(operands, ", "))
	}
	return b.String()
}
