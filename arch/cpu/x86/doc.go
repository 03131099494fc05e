// Package x86 provides Intel x86 (8086/8088 through 80386) real-mode CPU
// emulation for DOS-era development and retrocomputing tools.
//
// The package is organized as a pipeline:
//
//	bytes --[Decoder]--> Instruction --[Executor]--> registers, flags, memory
//	                          ^                |
//	                          `---[Encoder]<----'
//
// Decode turns a byte stream at a given CS:IP into an immutable Instruction
// record. Execute mutates CPU state according to one decoded Instruction.
// Encode is the partial inverse: given an Instruction it produces a canonical
// byte sequence a correct Decoder maps back to an equivalent Instruction.
//
// Features:
//   - Segmented real-mode addressing (16-bit and 32-bit effective addresses)
//   - ModR/M and SIB decoding, including the opcode-extension groups
//   - Interrupt handling (hardware and software) via a host-supplied vector table
//   - Flag register management with per-width flag computation
//   - Deterministic, panic-free decoding of untrusted byte streams
//
// Out of scope: protected mode, paging, task gates, cycle-exact timing,
// SSE/MMX, 64-bit operation, frame rendering, and disassembly pretty-printing.
//
// Example usage:
//
//	memory, err := x86.NewMemory(1024*1024, log.NewNop()) // 1MB
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cpu, err := x86.New(memory, x86.WithDOSDefaults())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for !cpu.Halted() {
//	    if err := cpu.Step(); err != nil {
//	        break
//	    }
//	}
package x86
