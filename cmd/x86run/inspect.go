package main

import (
	"fmt"
	"strings"

	"github.com/oldiron/x86core/arch/cpu/x86"
	"github.com/oldiron/x86core/cli"
	"github.com/oldiron/x86core/log"
)

// inspectOptions configures the flags context conditional branches are
// evaluated against. The default is the power-on flags word.
type inspectOptions struct {
	Flags uint `flag:"flags" usage:"flags word to evaluate conditional branches against (default: power-on value)" default:"2"`
}

func inspectMain(args []string) int {
	opts := &inspectOptions{}
	h := &hexArgs{}
	fs := cli.NewFlagSet("x86run inspect")
	fs.AddSection("Inspect options", opts)
	fs.AddPositional(h)

	program, err := parseHexArgs(fs, h, args)
	if err != nil {
		return fail(err)
	}

	// Conditional-branch annotation needs a CPU to hold the flags word the
	// predicates evaluate against; everything else here is static.
	memory, err := x86.NewMemory(x86.MinMemorySize, log.NewNop())
	if err != nil {
		return fail(err)
	}
	cpu, err := x86.New(memory)
	if err != nil {
		return fail(err)
	}
	cpu.Flags = x86.Flags(opts.Flags)

	err = decodeAll(program, func(offset uint16, raw []byte, inst x86.Instruction) {
		fmt.Printf("%04X  %-18s %-28s %s\n",
			offset, fmt.Sprintf("% x", raw), inst, annotations(cpu, inst))
	})
	if err != nil {
		return fail(err)
	}
	return 0
}

func annotations(cpu *x86.CPU, inst x86.Instruction) string {
	if inst.IsInvalid() {
		return "invalid"
	}

	var tags []string
	if inst.IsBranching() {
		tags = append(tags, "branch")
	}
	if taken, conditional := cpu.BranchTaken(inst); conditional {
		if taken {
			tags = append(tags, "taken")
		} else {
			tags = append(tags, "not-taken")
		}
	}
	if inst.IsUnconditionalFlow() {
		tags = append(tags, "block-end")
	}
	if inst.ReadsMemory() {
		tags = append(tags, "mem-read")
	}
	if inst.WritesMemory() {
		tags = append(tags, "mem-write")
	}
	if x86.PortIOCommands.Contains(inst.Command) {
		tags = append(tags, "io")
	}
	if x86.StackCommands.Contains(inst.Command) {
		tags = append(tags, "stack")
	}
	if x86.FPUCommands.Contains(inst.Command) {
		tags = append(tags, "fpu")
	}
	if inst.Repeat != x86.RepeatNone {
		tags = append(tags, "rep")
	}
	return strings.Join(tags, ",")
}
