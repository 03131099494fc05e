package x86

import "github.com/oldiron/x86core/arch"

// CPU represents the architectural state of a real-mode x86 processor:
// general-purpose and segment registers, flags, interrupt latches and the
// memory it executes against. A CPU has no goroutine-safe guard of its own —
// Step and every mutating method assume a single caller drives the fetch,
// decode and execute loop synchronously. Callers that need concurrent access
// must serialize it themselves.
type CPU struct {
	// General-purpose registers. Each family has exactly one storage cell
	// sized for its 32-bit (80386) extension; 16- and 8-bit views are masked
	// accessors in registers.go over these cells, never separate fields.
	eax, ebx, ecx, edx uint32
	esi, edi, ebp, esp uint32
	eip                uint32

	// Segment registers.
	CS, DS, ES, SS, FS, GS uint16

	// Flags is the 16-bit processor flags word.
	Flags Flags

	interruptsEnabled bool
	triggerInt        bool
	intVector         uint8

	halted     bool
	fatalError error
	cycles     uint64

	fpu fpuState

	lastStep TraceStep

	opts   Options
	memory *Memory
}

// New creates a new x86 CPU bound to the given memory.
func New(memory *Memory, options ...Option) (*CPU, error) {
	if memory == nil {
		return nil, ErrNilMemory
	}

	opts := NewOptions(options...)

	c := &CPU{
		CS: opts.initialCS,
		DS: opts.initialDS,
		ES: opts.initialES,
		SS: opts.initialSS,

		Flags: DefaultFlags,

		interruptsEnabled: opts.interruptEnabled,

		opts:   opts,
		memory: memory,
	}
	c.SetSP(opts.initialSP)
	c.SetIP(opts.initialIP)
	c.Flags = c.Flags.SetInterrupt(opts.interruptEnabled)

	return c, nil
}

// Memory returns the CPU's attached memory.
func (c *CPU) Memory() *Memory {
	return c.memory
}

// Architecture identifies this CPU implementation.
func (c *CPU) Architecture() arch.Architecture {
	return arch.X86
}

// System returns the target system the CPU was configured for.
func (c *CPU) System() arch.System {
	return c.opts.system
}

// Cycles returns the number of cycles accounted for so far.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Halted reports whether the CPU has executed HLT and not yet been woken by
// an interrupt.
func (c *CPU) Halted() bool {
	return c.halted
}

// Halt stops instruction execution until Resume or an enabled interrupt
// arrives.
func (c *CPU) Halt() {
	c.halted = true
}

// Resume clears the halted state.
func (c *CPU) Resume() {
	c.halted = false
}

// FatalError returns the latched error that stopped execution, or nil if
// none occurred. Per the architectural fault model, a fatal error (such as
// a decode failure with no recovery) latches here rather than panicking.
func (c *CPU) FatalError() error {
	return c.fatalError
}

// EnableInterrupts sets IF and the CPU's internal interrupt gate together.
func (c *CPU) EnableInterrupts() {
	c.interruptsEnabled = true
	c.Flags = c.Flags.SetInterrupt(true)
}

// DisableInterrupts clears IF and the CPU's internal interrupt gate.
func (c *CPU) DisableInterrupts() {
	c.interruptsEnabled = false
	c.Flags = c.Flags.SetInterrupt(false)
}

// TriggerInterrupt latches a pending hardware interrupt for delivery at the
// next instruction boundary. It is a no-op if interrupts are disabled.
func (c *CPU) TriggerInterrupt(vector uint8) {
	if !c.interruptsEnabled {
		return
	}
	c.triggerInt = true
	c.intVector = vector
}

// Flag convenience wrappers. These mutate c.Flags in place so call sites read
// naturally as cpu.SetCarry(true) instead of cpu.Flags = cpu.Flags.SetCarry(true).

// SetCarry sets or clears CF.
func (c *CPU) SetCarry(v bool) { c.Flags = c.Flags.SetCarry(v) }

// SetParity sets or clears PF.
func (c *CPU) SetParity(v bool) { c.Flags = c.Flags.SetParity(v) }

// SetAuxCarry sets or clears AF.
func (c *CPU) SetAuxCarry(v bool) { c.Flags = c.Flags.SetAuxCarry(v) }

// SetZero sets or clears ZF.
func (c *CPU) SetZero(v bool) { c.Flags = c.Flags.SetZero(v) }

// SetSign sets or clears SF.
func (c *CPU) SetSign(v bool) { c.Flags = c.Flags.SetSign(v) }

// SetTrap sets or clears TF.
func (c *CPU) SetTrap(v bool) { c.Flags = c.Flags.SetTrap(v) }

// SetInterrupt sets or clears IF, keeping the CPU's internal interrupt
// gate in sync.
func (c *CPU) SetInterrupt(v bool) {
	c.Flags = c.Flags.SetInterrupt(v)
	c.interruptsEnabled = v
}

// SetNested sets or clears NT.
func (c *CPU) SetNested(v bool) { c.Flags = c.Flags.SetNested(v) }

// SetDirection sets or clears DF.
func (c *CPU) SetDirection(v bool) { c.Flags = c.Flags.SetDirection(v) }

// SetOverflow sets or clears OF.
func (c *CPU) SetOverflow(v bool) { c.Flags = c.Flags.SetOverflow(v) }

// SetSZP8 derives SF/ZF/PF from an 8-bit result and applies them in place.
func (c *CPU) SetSZP8(result uint8) { c.Flags = c.Flags.SetSZP8(result) }

// SetSZP16 derives SF/ZF/PF from a 16-bit result and applies them in place.
func (c *CPU) SetSZP16(result uint16) { c.Flags = c.Flags.SetSZP16(result) }

// SetSZP32 derives SF/ZF/PF from a 32-bit result and applies them in place.
func (c *CPU) SetSZP32(result uint32) { c.Flags = c.Flags.SetSZP32(result) }

// CalculateAddress calculates the 20-bit-masked linear address from a
// segment:offset pair: segment*16 + offset.
func (c *CPU) CalculateAddress(segment, offset uint16) uint32 {
	return (uint32(segment)<<4 + uint32(offset)) & AddressMask
}

// push8 decrements SP by one and writes a byte to the new top of stack.
func (c *CPU) push8(v uint8) {
	c.SetSP(c.SP() - 1)
	c.memory.Write8(c.CalculateAddress(c.SS, c.SP()), v)
}

// pop8 reads a byte from the top of stack and increments SP by one.
func (c *CPU) pop8() uint8 {
	v := c.memory.Read8(c.CalculateAddress(c.SS, c.SP()))
	c.SetSP(c.SP() + 1)
	return v
}

// push16 decrements SP by two and writes a word to the new top of stack.
func (c *CPU) push16(v uint16) {
	c.SetSP(c.SP() - 2)
	c.memory.Write16(c.CalculateAddress(c.SS, c.SP()), v)
}

// pop16 reads a word from the top of stack and increments SP by two.
func (c *CPU) pop16() uint16 {
	v := c.memory.Read16(c.CalculateAddress(c.SS, c.SP()))
	c.SetSP(c.SP() + 2)
	return v
}

// push32 decrements SP by four and writes a double word to the new top of
// stack.
func (c *CPU) push32(v uint32) {
	c.SetSP(c.SP() - 4)
	c.memory.Write32(c.CalculateAddress(c.SS, c.SP()), v)
}

// pop32 reads a double word from the top of stack and increments SP by four.
func (c *CPU) pop32() uint32 {
	v := c.memory.Read32(c.CalculateAddress(c.SS, c.SP()))
	c.SetSP(c.SP() + 4)
	return v
}

// CPUState is a plain-value snapshot of architectural state, safe to retain
// or compare after the CPU itself has moved on.
type CPUState struct {
	AX, BX, CX, DX uint16
	SI, DI, BP, SP uint16
	IP             uint16
	CS, DS, ES, SS uint16
	FS, GS         uint16
	Flags          Flags
	Cycles         uint64
	Halted         bool
}

// State returns a snapshot of the CPU's architectural registers.
func (c *CPU) State() CPUState {
	return CPUState{
		AX: c.AX(), BX: c.BX(), CX: c.CX(), DX: c.DX(),
		SI: c.SI(), DI: c.DI(), BP: c.BP(), SP: c.SP(),
		IP: c.IP(),
		CS: c.CS, DS: c.DS, ES: c.ES, SS: c.SS,
		FS: c.FS, GS: c.GS,
		Flags:  c.Flags,
		Cycles: c.cycles,
		Halted: c.halted,
	}
}

// LastStep returns the trace record for the most recently executed
// instruction, useful for single-step debuggers and monitors.
func (c *CPU) LastStep() TraceStep {
	return c.lastStep
}
