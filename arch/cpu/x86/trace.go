package x86

import "fmt"

// TraceStep records everything about one executed instruction: its decoded
// form, register and flag state before and after, and any memory access it
// made. A monitor or single-step debugger consumes these; Step() does not
// keep a history of them itself.
type TraceStep struct {
	IP          uint16 // instruction pointer before execution
	CS          uint16 // code segment before execution
	Opcode      uint8  // first opcode byte
	Instruction string // textual form, e.g. "mov ax, 0x8888"

	// InvalidReason is non-empty when decoding failed; Instruction then holds
	// a placeholder and no execution took place.
	InvalidReason string

	PreAX, PreBX, PreCX, PreDX uint16
	PreSI, PreDI, PreBP, PreSP uint16
	PreCS, PreDS, PreES, PreSS uint16
	PreFlags                   Flags

	PostAX, PostBX, PostCX, PostDX uint16
	PostSI, PostDI, PostBP, PostSP uint16
	PostCS, PostDS, PostES, PostSS uint16
	PostFlags                      Flags

	Cycles uint64 // total cycles before this instruction
	Timing uint8  // cycles consumed by this instruction
	Size   uint8  // instruction size in bytes

	MemoryRead    bool
	MemoryWrite   bool
	MemoryAddress uint32
	MemoryValue   uint16
}

// String returns a single-line trace line.
func (ts TraceStep) String() string {
	if ts.InvalidReason != "" {
		return fmt.Sprintf("%04X:%04X %02X INVALID(%s)", ts.CS, ts.IP, ts.Opcode, ts.InvalidReason)
	}
	return fmt.Sprintf("%04X:%04X %02X %-12s AX=%04X BX=%04X CX=%04X DX=%04X SI=%04X DI=%04X BP=%04X SP=%04X FL=%04X CY=%08X",
		ts.CS, ts.IP, ts.Opcode, ts.Instruction,
		ts.PostAX, ts.PostBX, ts.PostCX, ts.PostDX,
		ts.PostSI, ts.PostDI, ts.PostBP, ts.PostSP,
		uint16(ts.PostFlags), ts.Cycles)
}

// DetailedString returns a multi-line representation showing before/after
// register, flag and memory-access state.
func (ts TraceStep) DetailedString() string {
	if ts.InvalidReason != "" {
		return fmt.Sprintf("%04X:%04X %02X INVALID: %s\n", ts.CS, ts.IP, ts.Opcode, ts.InvalidReason)
	}

	var result string
	result += fmt.Sprintf("%04X:%04X %02X %-12s (size=%d, cycles=%d)\n",
		ts.CS, ts.IP, ts.Opcode, ts.Instruction, ts.Size, ts.Timing)

	result += "Registers:\n"
	for _, r := range []struct {
		name     string
		pre, post uint16
	}{
		{"AX", ts.PreAX, ts.PostAX}, {"BX", ts.PreBX, ts.PostBX},
		{"CX", ts.PreCX, ts.PostCX}, {"DX", ts.PreDX, ts.PostDX},
		{"SI", ts.PreSI, ts.PostSI}, {"DI", ts.PreDI, ts.PostDI},
		{"BP", ts.PreBP, ts.PostBP}, {"SP", ts.PreSP, ts.PostSP},
	} {
		if r.pre != r.post {
			result += fmt.Sprintf("  %s: %04X -> %04X\n", r.name, r.pre, r.post)
		}
	}

	if ts.PreCS != ts.PostCS || ts.PreDS != ts.PostDS || ts.PreES != ts.PostES || ts.PreSS != ts.PostSS {
		result += "Segments:\n"
		for _, r := range []struct {
			name     string
			pre, post uint16
		}{
			{"CS", ts.PreCS, ts.PostCS}, {"DS", ts.PreDS, ts.PostDS},
			{"ES", ts.PreES, ts.PostES}, {"SS", ts.PreSS, ts.PostSS},
		} {
			if r.pre != r.post {
				result += fmt.Sprintf("  %s: %04X -> %04X\n", r.name, r.pre, r.post)
			}
		}
	}

	if ts.PreFlags != ts.PostFlags {
		result += fmt.Sprintf("Flags: %04X -> %04X\n", uint16(ts.PreFlags), uint16(ts.PostFlags))
		result += ts.formatFlagChanges()
	}

	if ts.MemoryRead || ts.MemoryWrite {
		switch {
		case ts.MemoryRead && ts.MemoryWrite:
			result += fmt.Sprintf("Memory: R/W %06X = %04X\n", ts.MemoryAddress, ts.MemoryValue)
		case ts.MemoryRead:
			result += fmt.Sprintf("Memory: R %06X = %04X\n", ts.MemoryAddress, ts.MemoryValue)
		default:
			result += fmt.Sprintf("Memory: W %06X = %04X\n", ts.MemoryAddress, ts.MemoryValue)
		}
	}

	return result
}

// formatFlagChanges returns a string showing which flags changed.
func (ts TraceStep) formatFlagChanges() string {
	if ts.PreFlags == ts.PostFlags {
		return ""
	}

	var changes []string
	add := func(name string, pre, post bool) {
		if pre == post {
			return
		}
		if post {
			changes = append(changes, "+"+name)
		} else {
			changes = append(changes, "-"+name)
		}
	}

	add("CF", ts.PreFlags.GetCarry(), ts.PostFlags.GetCarry())
	add("ZF", ts.PreFlags.GetZero(), ts.PostFlags.GetZero())
	add("SF", ts.PreFlags.GetSign(), ts.PostFlags.GetSign())
	add("OF", ts.PreFlags.GetOverflow(), ts.PostFlags.GetOverflow())
	add("PF", ts.PreFlags.GetParity(), ts.PostFlags.GetParity())
	add("AF", ts.PreFlags.GetAuxCarry(), ts.PostFlags.GetAuxCarry())
	add("IF", ts.PreFlags.GetInterrupt(), ts.PostFlags.GetInterrupt())
	add("DF", ts.PreFlags.GetDirection(), ts.PostFlags.GetDirection())
	add("TF", ts.PreFlags.GetTrap(), ts.PostFlags.GetTrap())

	result := "  Changed: "
	for i, change := range changes {
		if i > 0 {
			result += ", "
		}
		result += change
	}
	result += "\n"
	return result
}

// GetMemoryAccess returns memory access information as a compact string.
func (ts TraceStep) GetMemoryAccess() string {
	if !ts.MemoryRead && !ts.MemoryWrite {
		return ""
	}
	var accessType string
	switch {
	case ts.MemoryRead && ts.MemoryWrite:
		accessType = "RW"
	case ts.MemoryRead:
		accessType = "R"
	default:
		accessType = "W"
	}
	return fmt.Sprintf("%s:%06X=%04X", accessType, ts.MemoryAddress, ts.MemoryValue)
}

// snapshotPre fills the Pre* fields of a TraceStep from current CPU state.
func (c *CPU) snapshotPre(ts *TraceStep) {
	ts.PreAX, ts.PreBX, ts.PreCX, ts.PreDX = c.AX(), c.BX(), c.CX(), c.DX()
	ts.PreSI, ts.PreDI, ts.PreBP, ts.PreSP = c.SI(), c.DI(), c.BP(), c.SP()
	ts.PreCS, ts.PreDS, ts.PreES, ts.PreSS = c.CS, c.DS, c.ES, c.SS
	ts.PreFlags = c.Flags
}

// snapshotPost fills the Post* fields of a TraceStep from current CPU state.
func (c *CPU) snapshotPost(ts *TraceStep) {
	ts.PostAX, ts.PostBX, ts.PostCX, ts.PostDX = c.AX(), c.BX(), c.CX(), c.DX()
	ts.PostSI, ts.PostDI, ts.PostBP, ts.PostSP = c.SI(), c.DI(), c.BP(), c.SP()
	ts.PostCS, ts.PostDS, ts.PostES, ts.PostSS = c.CS, c.DS, c.ES, c.SS
	ts.PostFlags = c.Flags
}
