package main

import (
	"errors"
	"fmt"

	"github.com/oldiron/x86core/arch/cpu/x86"
)

func runMain(args []string) int {
	fs, mf, prog := newMachineFlagSet("run")
	if _, err := fs.Parse(args); err != nil {
		return fail(err)
	}

	cfg, err := mf.resolve(fs)
	if err != nil {
		return fail(err)
	}
	program, err := readProgram(prog.Program, mf.Hex)
	if err != nil {
		return fail(err)
	}

	cpu, err := buildMachine(cfg, mf.logger(), program, fs.Changed("cs"), fs.Changed("ip"))
	if err != nil {
		return fail(err)
	}

	steps := uint64(0)
	for !cpu.Halted() && steps < cfg.MaxStep {
		if err := cpu.Step(); err != nil {
			break
		}
		steps++
	}

	fmt.Printf("%s/%s: executed %d instructions, %d cycles\n",
		cpu.Architecture(), cpu.System(), steps, cpu.Cycles())
	printState(cpu)

	if fatal := cpu.FatalError(); fatal != nil && !errors.Is(fatal, x86.ErrBreakpoint) {
		return fail(fatal)
	}
	return 0
}
