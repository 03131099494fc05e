package x86

// SegmentOverride names which segment register prefix, if any, overrides the
// operand's default segment for this instruction.
type SegmentOverride uint8

const (
	SegOverrideNone SegmentOverride = iota
	SegOverrideES
	SegOverrideCS
	SegOverrideSS
	SegOverrideDS
	SegOverrideFS
	SegOverrideGS
)

// RepeatMode names the active string-op repeat prefix, if any.
type RepeatMode uint8

const (
	RepeatNone RepeatMode = iota
	RepeatRep             // F3 on MOVS/STOS/LODS/INS/OUTS: unconditional repeat
	RepeatRepe            // F3 on CMPS/SCAS: repeat while ZF=1
	RepeatRepne           // F2: repeat while ZF=0
)

// InvalidReason tags why a decode produced an Invalid command.
type InvalidReason uint8

const (
	ReasonNone InvalidReason = iota
	ReasonOpUnknown
	ReasonReservedRegField
	ReasonFPUSubOpUnknown
	ReasonBadRepeatTarget
	ReasonTruncated
)

// String returns a short machine-readable tag for the reason, matching the
// vocabulary used in decode-error test assertions.
func (r InvalidReason) String() string {
	switch r {
	case ReasonOpUnknown:
		return "OpUnknown"
	case ReasonReservedRegField:
		return "ReservedRegField"
	case ReasonFPUSubOpUnknown:
		return "FPUSubOpUnknown"
	case ReasonBadRepeatTarget:
		return "BadRepeatTarget"
	case ReasonTruncated:
		return "Truncated"
	default:
		return "None"
	}
}

// Instruction is the immutable record produced by the Decoder and consumed
// by the Executor: a command tag, up to three operands, the instruction's
// total length in bytes, and its five prefix slots. Once decoded, nothing
// mutates an Instruction in place — the executor reads it, the encoder
// produces an equivalent one from scratch.
type Instruction struct {
	Command Command

	Dst  Operand
	Src  Operand
	Src2 Operand

	Length uint8

	SegmentOverride SegmentOverride
	Repeat          RepeatMode
	Lock            bool
	OperandSize32   bool // false = 16-bit default, true = 0x66 flipped it to 32-bit
	AddressSize32   bool // false = 16-bit default, true = 0x67 flipped it to 32-bit

	// Width is the operand width in bytes (1, 2 or 4) that a width-generic
	// command (the string ops) operates at, independent of OperandSize32.
	Width uint8

	// InvalidReason is set when Command == Invalid.
	InvalidReason InvalidReason

	// RawBytes holds the offending bytes when Command == Invalid, for
	// diagnostics.
	RawBytes []byte
}

// IsInvalid reports whether decoding failed for this instruction.
func (i Instruction) IsInvalid() bool {
	return i.Command == Invalid
}

// EffectiveSegment returns the segment register to use for a memory operand
// given this instruction's override and the operand's own default.
func (i Instruction) EffectiveSegment(defaultSeg segmentReg) segmentReg {
	switch i.SegmentOverride {
	case SegOverrideES:
		return segES
	case SegOverrideCS:
		return segCS
	case SegOverrideSS:
		return segSS
	case SegOverrideDS:
		return segDS
	case SegOverrideFS:
		return segFS
	case SegOverrideGS:
		return segGS
	default:
		return defaultSeg
	}
}

// OperandWidth returns the operand width in bytes implied by OperandSize32
// for non-string-op commands (8-bit commands override this per their own
// Command tag, handled by the executor/encoder directly).
func (i Instruction) OperandWidth() uint8 {
	if i.OperandSize32 {
		return 4
	}
	return 2
}
