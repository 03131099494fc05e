package x86

// ConditionCode identifies one of the sixteen branch conditions used by the
// Jcc and SETcc instruction families. The numeric values match the low four
// bits of the opcodes that encode them (0x70+cc, 0x0F 0x80+cc, 0x0F 0x90+cc).
type ConditionCode uint8

const (
	CondO  ConditionCode = iota // overflow
	CondNO                      // not overflow
	CondB                       // below (carry)
	CondAE                      // above or equal (not carry)
	CondE                       // equal (zero)
	CondNE                      // not equal (not zero)
	CondBE                      // below or equal
	CondA                       // above
	CondS                       // sign
	CondNS                      // not sign
	CondP                       // parity
	CondNP                      // not parity
	CondL                       // less (signed)
	CondGE                      // greater or equal (signed)
	CondLE                      // less or equal (signed)
	CondG                       // greater (signed)
)

var conditionNames = [16]string{
	"o", "no", "b", "ae", "e", "ne", "be", "a",
	"s", "ns", "p", "np", "l", "ge", "le", "g",
}

// String returns the condition's mnemonic suffix, e.g. "ne" for CondNE.
func (cc ConditionCode) String() string {
	if cc < 16 {
		return conditionNames[cc]
	}
	return "?"
}

// EvaluateCondition reports whether the condition holds for the CPU's
// current flags, per the standard x86 condition table.
func (c *CPU) EvaluateCondition(cc ConditionCode) bool {
	f := c.Flags
	switch cc {
	case CondO:
		return f.GetOverflow()
	case CondNO:
		return !f.GetOverflow()
	case CondB:
		return f.GetCarry()
	case CondAE:
		return !f.GetCarry()
	case CondE:
		return f.GetZero()
	case CondNE:
		return !f.GetZero()
	case CondBE:
		return f.GetCarry() || f.GetZero()
	case CondA:
		return !f.GetCarry() && !f.GetZero()
	case CondS:
		return f.GetSign()
	case CondNS:
		return !f.GetSign()
	case CondP:
		return f.GetParity()
	case CondNP:
		return !f.GetParity()
	case CondL:
		return f.GetSign() != f.GetOverflow()
	case CondGE:
		return f.GetSign() == f.GetOverflow()
	case CondLE:
		return f.GetZero() || f.GetSign() != f.GetOverflow()
	default: // CondG
		return !f.GetZero() && f.GetSign() == f.GetOverflow()
	}
}

// BranchTaken reports whether a conditional branch would be taken under the
// current flags. conditional is false for anything that is not a Jcc, so
// debuggers can annotate only the instructions the answer applies to.
func (c *CPU) BranchTaken(inst Instruction) (taken, conditional bool) {
	if !inst.Command.IsConditionalJump() {
		return false, false
	}
	return c.EvaluateCondition(conditionOf(inst.Command)), true
}

// conditionOf maps a conditional-jump or SETcc command tag back to its
// condition code. The sixteen tags in each family are declared in opcode
// order, so the offset from the family's first tag is the condition.
func conditionOf(cmd Command) ConditionCode {
	switch {
	case cmd.IsConditionalJump():
		return ConditionCode(cmd - Jo)
	case cmd.IsSetcc():
		return ConditionCode(cmd - Seto)
	default:
		return CondO
	}
}
