package x86

// Bus is the narrow synchronous interface the core calls into for anything
// it does not own itself: I/O ports and interrupt dispatch. A host provides
// the concrete implementation (PIC/PIT/video/keyboard emulation all live on
// the far side of this interface, out of scope for this package).
type Bus interface {
	// InByte reads an 8-bit I/O port. Unclaimed ports return a zero default.
	InByte(port uint16) uint8
	// InWord reads a 16-bit I/O port.
	InWord(port uint16) uint16
	// OutByte writes an 8-bit I/O port. The return value reports whether the
	// host claimed and handled the port.
	OutByte(port uint16, value uint8) bool
	// OutWord writes a 16-bit I/O port.
	OutWord(port uint16, value uint16) bool
	// Interrupt dispatches a software interrupt to the host. The return
	// value reports whether the host handled it; an unhandled vector falls
	// through to the CPU's own default IVT-based dispatch.
	Interrupt(vector uint8, cpu *CPU, memory *Memory) bool
}

// NopBus is a Bus that claims nothing: every port read returns zero, every
// write and interrupt is reported unhandled. Useful for tests and for
// running programs that perform no I/O.
type NopBus struct{}

// InByte always returns 0.
func (NopBus) InByte(uint16) uint8 { return 0 }

// InWord always returns 0.
func (NopBus) InWord(uint16) uint16 { return 0 }

// OutByte never claims the port.
func (NopBus) OutByte(uint16, uint8) bool { return false }

// OutWord never claims the port.
func (NopBus) OutWord(uint16, uint16) bool { return false }

// Interrupt never claims the vector.
func (NopBus) Interrupt(uint8, *CPU, *Memory) bool { return false }
