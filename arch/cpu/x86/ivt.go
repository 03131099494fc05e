package x86

// Default interrupt vector table bootstrap. A program that executes INT n
// against a machine with no host bus attached would otherwise jump through
// whatever garbage sits in low memory; pointing every vector at a shared
// IRET stub makes unconfigured interrupts return control predictably.

// Location of the shared IRET stub the default vectors point at, in the
// ROM segment.
const (
	defaultIVTStubSegment = 0xF000
	defaultIVTStubOffset  = 0xFF53
)

// LoadDefaultIVT fills the interrupt vector table in the low 1 KiB of
// memory with pointers to a single IRET stub, and writes the stub itself.
// A host bus that claims vectors takes precedence at delivery time; this
// only covers the fall-through path.
func (c *CPU) LoadDefaultIVT() {
	stub := c.CalculateAddress(defaultIVTStubSegment, defaultIVTStubOffset)
	c.memory.Write8(stub, 0xCF) // IRET

	for vector := uint32(0); vector < 256; vector++ {
		c.memory.Write16(vector*4, defaultIVTStubOffset)
		c.memory.Write16(vector*4+2, defaultIVTStubSegment)
	}
}
