package x86

import (
	"testing"

	"github.com/oldiron/x86core/arch"
	"github.com/oldiron/x86core/assert"
	"github.com/oldiron/x86core/log"
)

// createTestMemory creates a 1MB test memory instance.
func createTestMemory(t *testing.T, logger *log.Logger) *Memory {
	t.Helper()
	memory, err := NewMemory(1024*1024, logger)
	assert.NoError(t, err)
	return memory
}

// createTestCPU builds a CPU with DOS defaults and loads the given program
// at CS:IP.
func createTestCPU(t *testing.T, program []byte, options ...Option) *CPU {
	t.Helper()
	logger := log.NewTestLogger(t)
	memory := createTestMemory(t, logger)

	opts := append([]Option{WithDOSDefaults(), WithLogger(logger)}, options...)
	cpu, err := New(memory, opts...)
	assert.NoError(t, err)

	err = memory.LoadSegmentedData(cpu.CS, cpu.IP(), program)
	assert.NoError(t, err)
	return cpu
}

// run steps the CPU for at most the given number of instructions, stopping
// early on a fatal error or halt.
func run(t *testing.T, cpu *CPU, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		if cpu.Halted() || cpu.FatalError() != nil {
			return
		}
		if err := cpu.Step(); err != nil {
			return
		}
	}
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(t)

	tests := []struct {
		name        string
		memory      *Memory
		options     []Option
		expectError bool
	}{
		{name: "valid memory", memory: createTestMemory(t, logger)},
		{name: "nil memory", memory: nil, expectError: true},
		{name: "with DOS defaults", memory: createTestMemory(t, logger), options: []Option{WithDOSDefaults()}},
		{name: "with BIOS defaults", memory: createTestMemory(t, logger), options: []Option{WithBIOSDefaults()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu, err := New(tt.memory, tt.options...)

			if tt.expectError {
				assert.ErrorIs(t, err, ErrNilMemory)
				assert.Nil(t, cpu)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, cpu)
				assert.Equal(t, uint64(0), cpu.Cycles())
				assert.False(t, cpu.Halted())
			}
		})
	}
}

func TestCPU_State(t *testing.T) {
	cpu := createTestCPU(t, nil)

	cpu.SetAX(0x1234)
	cpu.SetBX(0x5678)
	cpu.SetCarry(true)
	cpu.SetZero(true)

	state := cpu.State()

	assert.Equal(t, uint16(0x1234), state.AX)
	assert.Equal(t, uint16(0x5678), state.BX)
	assert.True(t, state.Flags.GetCarry())
	assert.True(t, state.Flags.GetZero())
	assert.Equal(t, uint64(0), state.Cycles)
	assert.False(t, state.Halted)
}

func TestCPU_RegisterAliasing(t *testing.T) {
	cpu := createTestCPU(t, nil)

	cpu.SetAX(0x1234)
	assert.Equal(t, uint8(0x34), cpu.AL())
	assert.Equal(t, uint8(0x12), cpu.AH())

	cpu.SetAL(0x56)
	assert.Equal(t, uint16(0x1256), cpu.AX())

	cpu.SetAH(0x78)
	assert.Equal(t, uint16(0x7856), cpu.AX())

	// The 16-bit view aliases the low half of the 32-bit register.
	cpu.SetEAX(0xDEAD7856)
	assert.Equal(t, uint16(0x7856), cpu.AX())
	cpu.SetAX(0x1111)
	assert.Equal(t, uint32(0xDEAD1111), cpu.EAX())

	cpu.SetBX(0xABCD)
	assert.Equal(t, uint8(0xCD), cpu.BL())
	assert.Equal(t, uint8(0xAB), cpu.BH())

	cpu.SetCX(0xEF01)
	assert.Equal(t, uint8(0x01), cpu.CL())
	assert.Equal(t, uint8(0xEF), cpu.CH())

	cpu.SetDX(0x2345)
	assert.Equal(t, uint8(0x45), cpu.DL())
	assert.Equal(t, uint8(0x23), cpu.DH())
}

func TestCPU_CalculateAddress(t *testing.T) {
	cpu := createTestCPU(t, nil)

	tests := []struct {
		segment, offset uint16
		expected        uint32
	}{
		{0x0000, 0x0000, 0x00000},
		{0x1000, 0x0000, 0x10000},
		{0x0000, 0x1000, 0x01000},
		{0x1234, 0x5678, 0x179B8},
		{0xFFFF, 0xFFFF, 0x0FFEF}, // wraps at the 20-bit boundary
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, cpu.CalculateAddress(tt.segment, tt.offset))
	}
}

func TestCPU_StackOperations(t *testing.T) {
	cpu := createTestCPU(t, nil)

	sp := cpu.SP()
	cpu.push16(0x1234)
	assert.Equal(t, sp-2, cpu.SP())
	assert.Equal(t, uint16(0x1234), cpu.pop16())
	assert.Equal(t, sp, cpu.SP())

	cpu.push8(0xAB)
	assert.Equal(t, sp-1, cpu.SP())
	assert.Equal(t, uint8(0xAB), cpu.pop8())

	cpu.push32(0xCAFEBABE)
	assert.Equal(t, sp-4, cpu.SP())
	assert.Equal(t, uint32(0xCAFEBABE), cpu.pop32())
	assert.Equal(t, sp, cpu.SP())
}

func TestCPU_HaltResume(t *testing.T) {
	cpu := createTestCPU(t, nil)

	assert.False(t, cpu.Halted())
	cpu.Halt()
	assert.True(t, cpu.Halted())

	// Step on a halted CPU is a no-op.
	ip := cpu.IP()
	assert.NoError(t, cpu.Step())
	assert.Equal(t, ip, cpu.IP())

	cpu.Resume()
	assert.False(t, cpu.Halted())
}

func TestCPU_ArchitectureAndSystem(t *testing.T) {
	cpu := createTestCPU(t, nil)
	assert.Equal(t, arch.X86, cpu.Architecture())
	assert.Equal(t, arch.DOS, cpu.System())

	logger := log.NewTestLogger(t)
	cpu, err := New(createTestMemory(t, logger), WithBIOSDefaults())
	assert.NoError(t, err)
	assert.Equal(t, arch.Generic, cpu.System())
}

func TestCPU_DOSDefaults(t *testing.T) {
	cpu := createTestCPU(t, nil)

	assert.Equal(t, uint16(0x1000), cpu.CS)
	assert.Equal(t, uint16(0x1000), cpu.DS)
	assert.Equal(t, uint16(0x2000), cpu.SS)
	assert.Equal(t, uint16(0xFFFE), cpu.SP())
	assert.Equal(t, uint16(0x0100), cpu.IP())
	assert.True(t, cpu.interruptsEnabled)
}

func TestCPU_BIOSDefaults(t *testing.T) {
	logger := log.NewTestLogger(t)
	memory := createTestMemory(t, logger)
	cpu, err := New(memory, WithBIOSDefaults())
	assert.NoError(t, err)

	assert.Equal(t, uint16(0xF000), cpu.CS)
	assert.Equal(t, uint16(0xFFF0), cpu.IP())
	assert.Equal(t, uint16(0x0400), cpu.SP())
	assert.False(t, cpu.interruptsEnabled)
}

func TestCPU_InterruptDelivery(t *testing.T) {
	cpu := createTestCPU(t, []byte{0x90}) // nop
	cpu.LoadDefaultIVT()

	// Point vector 8 at a recognizable handler address.
	cpu.Memory().Write16(8*4, 0x0042)
	cpu.Memory().Write16(8*4+2, 0x0040)

	cpu.TriggerInterrupt(8)
	assert.NoError(t, cpu.Step())

	assert.Equal(t, uint16(0x0040), cpu.CS)
	assert.False(t, cpu.Flags.GetInterrupt())
}

func TestCPU_TriggerInterruptDisabled(t *testing.T) {
	cpu := createTestCPU(t, []byte{0x90}, WithInterrupts(false))
	cpu.DisableInterrupts()

	cpu.TriggerInterrupt(8)
	assert.False(t, cpu.triggerInt)
}

func TestCPU_FatalErrorLatch(t *testing.T) {
	cpu := createTestCPU(t, []byte{0x63}) // undefined opcode

	err := cpu.Step()
	assert.ErrorIs(t, err, ErrInvalidInstruction)
	assert.ErrorIs(t, cpu.FatalError(), ErrInvalidInstruction)

	// Once latched, Step keeps returning the same error.
	assert.ErrorIs(t, cpu.Step(), ErrInvalidInstruction)
}

func TestCPU_LoadDefaultIVT(t *testing.T) {
	cpu := createTestCPU(t, []byte{0xCD, 0x42}) // int 0x42
	cpu.LoadDefaultIVT()

	assert.NoError(t, cpu.Step())

	// Control is at the IRET stub with the return frame on the stack.
	assert.Equal(t, uint16(defaultIVTStubSegment), cpu.CS)
	assert.Equal(t, uint16(defaultIVTStubOffset), cpu.IP())

	assert.NoError(t, cpu.Step()) // iret
	assert.Equal(t, uint16(0x1000), cpu.CS)
	assert.Equal(t, uint16(0x0102), cpu.IP())
}
