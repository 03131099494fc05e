package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/oldiron/x86core/arch/cpu/x86"
)

func monitorMain(args []string) int {
	fs, mf, prog := newMachineFlagSet("monitor")
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
	if err := runMonitor(cpu, cfg); err != nil {
		return fail(err)
	}
	return 0
}

// runMonitor owns the terminal for the duration of the session: raw mode
// in, single-keystroke commands, cooked mode restored on exit.
//
// Keys: s/space step, c continue, n show the next instruction (with branch
// direction for Jcc), r registers, d memory dump, q/ctrl-c quit.
func runMonitor(cpu *x86.CPU, cfg machineConfig) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw terminal mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	// Raw mode needs explicit carriage returns.
	println := func(format string, args ...any) {
		fmt.Printf(format+"\r\n", args...)
	}

	println("x86 monitor: s=step c=continue n=next r=registers d=dump q=quit")
	printStateRaw(cpu, println)

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}

		switch buf[0] {
		case 's', ' ':
			stepOnce(cpu, println)
		case 'c':
			steps := uint64(0)
			for !cpu.Halted() && cpu.FatalError() == nil && steps < cfg.MaxStep {
				if err := cpu.Step(); err != nil {
					break
				}
				steps++
			}
			println("ran %d instructions", steps)
			printStateRaw(cpu, println)
		case 'n':
			inst := cpu.Decode()
			note := ""
			if taken, conditional := cpu.BranchTaken(inst); conditional {
				if taken {
					note = "  ; would be taken"
				} else {
					note = "  ; would not be taken"
				}
			}
			println("next: %s%s", inst, note)
		case 'r':
			printStateRaw(cpu, println)
		case 'd':
			s := cpu.State()
			for _, line := range cpu.Memory().Dump(uint32(s.DS)<<4, uint32(s.DS)<<4+0x40) {
				println("%s", line)
			}
		case 'q', 3: // ctrl-c
			return nil
		}
	}
}

func stepOnce(cpu *x86.CPU, println func(string, ...any)) {
	if cpu.Halted() {
		println("cpu halted")
		return
	}
	if err := cpu.Step(); err != nil {
		println("fatal: %v", err)
		return
	}
	ts := cpu.LastStep()
	println("%s", ts.String())
}

func printStateRaw(cpu *x86.CPU, println func(string, ...any)) {
	s := cpu.State()
	println("AX=%04X BX=%04X CX=%04X DX=%04X SI=%04X DI=%04X BP=%04X SP=%04X",
		s.AX, s.BX, s.CX, s.DX, s.SI, s.DI, s.BP, s.SP)
	println("CS=%04X DS=%04X ES=%04X SS=%04X IP=%04X FL=%04X [%s]",
		s.CS, s.DS, s.ES, s.SS, s.IP, uint16(s.Flags), flagString(s.Flags))
}
