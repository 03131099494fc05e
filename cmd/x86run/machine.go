package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/oldiron/x86core/arch/cpu/x86"
	"github.com/oldiron/x86core/cli"
	"github.com/oldiron/x86core/config"
	"github.com/oldiron/x86core/log"
)

// machineConfig is the INI-loadable machine description; command-line flags
// override whatever the file sets.
type machineConfig struct {
	Memory  uint32 `config:"machine.memory"`
	CS      uint16 `config:"machine.cs"`
	IP      uint16 `config:"machine.ip"`
	System  string `config:"machine.system"`
	Trace   bool   `config:"machine.trace"`
	MaxStep uint64 `config:"machine.max_steps"`
}

func defaultMachineConfig() machineConfig {
	return machineConfig{
		Memory:  1024 * 1024,
		System:  "dos",
		MaxStep: 10_000_000,
	}
}

// machineFlags is the shared machine flag section, parsed from struct tags.
type machineFlags struct {
	ConfigFile string `flag:"c,config" usage:"machine configuration file (INI)"`
	Memory     uint   `flag:"memory" usage:"memory size in bytes" default:"1048576"`
	CS         uint   `flag:"cs" usage:"initial code segment (overrides system default)"`
	IP         uint   `flag:"ip" usage:"initial instruction pointer (overrides system default)"`
	System     string `flag:"system" usage:"system defaults: dos or bios" default:"dos"`
	Trace      bool   `flag:"t,trace" usage:"print a trace line per executed instruction"`
	MaxSteps   uint64 `flag:"max-steps" usage:"stop after this many instructions" default:"10000000"`
	Verbose    bool   `flag:"v,verbose" usage:"enable debug logging"`
	Hex        bool   `flag:"hex" usage:"treat the program argument as hex bytes instead of a file path"`
}

// programArg is the positional program argument shared by run and monitor.
type programArg struct {
	Program string `arg:"positional" usage:"flat binary file, or hex bytes with -hex" required:"true"`
}

// newMachineFlagSet builds the flag set for a machine-driving subcommand.
func newMachineFlagSet(name string) (*cli.FlagSet, *machineFlags, *programArg) {
	mf := &machineFlags{}
	prog := &programArg{}

	fs := cli.NewFlagSet("x86run " + name)
	fs.AddSection("Machine options", mf)
	fs.AddPositional(prog)
	return fs, mf, prog
}

// resolve merges the configuration file, its defaults and the explicitly set
// flags into the final machine configuration. Explicit flags win over the
// file, the file wins over built-in defaults.
func (mf *machineFlags) resolve(fs *cli.FlagSet) (machineConfig, error) {
	cfg := defaultMachineConfig()
	if mf.ConfigFile != "" {
		if err := config.Load(mf.ConfigFile, &cfg); err != nil {
			return cfg, fmt.Errorf("loading machine config: %w", err)
		}
	}

	if fs.Changed("memory") {
		cfg.Memory = uint32(mf.Memory)
	}
	if fs.Changed("cs") {
		cfg.CS = uint16(mf.CS)
	}
	if fs.Changed("ip") {
		cfg.IP = uint16(mf.IP)
	}
	if fs.Changed("system") {
		cfg.System = mf.System
	}
	if fs.Changed("trace") {
		cfg.Trace = mf.Trace
	}
	if fs.Changed("max-steps") {
		cfg.MaxStep = mf.MaxSteps
	}
	return cfg, nil
}

func (mf *machineFlags) logger() *log.Logger {
	logger := log.New()
	if mf.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// buildMachine creates the memory and CPU for a resolved configuration and
// loads the program at CS:IP. csSet/ipSet report whether the CS/IP flags
// were given explicitly, so a zero value can still override the system
// default.
func buildMachine(cfg machineConfig, logger *log.Logger, program []byte, csSet, ipSet bool) (*x86.CPU, error) {
	memory, err := x86.NewMemory(cfg.Memory, logger)
	if err != nil {
		return nil, err
	}

	options := []x86.Option{x86.WithLogger(logger)}
	switch strings.ToLower(cfg.System) {
	case "", "dos":
		options = append(options, x86.WithDOSDefaults())
	case "bios":
		options = append(options, x86.WithBIOSDefaults())
	default:
		return nil, fmt.Errorf("unknown system %q (want dos or bios)", cfg.System)
	}
	if csSet || cfg.CS != 0 {
		options = append(options, x86.WithInitialCS(cfg.CS))
	}
	if ipSet || cfg.IP != 0 {
		options = append(options, x86.WithInitialIP(cfg.IP))
	}
	if cfg.Trace {
		options = append(options, x86.WithTraceCallback(func(ts x86.TraceStep) {
			fmt.Println(ts.String())
		}))
	}

	cpu, err := x86.New(memory, options...)
	if err != nil {
		return nil, err
	}
	cpu.LoadDefaultIVT()

	if len(program) > 0 {
		if err := memory.LoadSegmentedData(cpu.CS, cpu.State().IP, program); err != nil {
			return nil, err
		}
	}
	return cpu, nil
}

// readProgram loads program bytes from a file argument, or parses them as
// hex when the -hex flag is set.
func readProgram(arg string, asHex bool) ([]byte, error) {
	if asHex {
		return parseHexBytes(arg)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	return data, nil
}

// parseHexBytes decodes a hex string, tolerating spaces between bytes.
func parseHexBytes(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("parsing hex program: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty program")
	}
	return data, nil
}

// fail prints an error the way every subcommand reports one, and returns
// the non-zero exit code for the handler to pass along.
func fail(err error) int {
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}

// printState writes a register dump in the monitor's format.
func printState(cpu *x86.CPU) {
	s := cpu.State()
	fmt.Printf("AX=%04X BX=%04X CX=%04X DX=%04X SI=%04X DI=%04X BP=%04X SP=%04X\n",
		s.AX, s.BX, s.CX, s.DX, s.SI, s.DI, s.BP, s.SP)
	fmt.Printf("CS=%04X DS=%04X ES=%04X SS=%04X IP=%04X FL=%04X [%s]\n",
		s.CS, s.DS, s.ES, s.SS, s.IP, uint16(s.Flags), flagString(s.Flags))
}

func flagString(f x86.Flags) string {
	var b strings.Builder
	for _, fl := range []struct {
		name string
		set  bool
	}{
		{"O", f.GetOverflow()}, {"D", f.GetDirection()}, {"I", f.GetInterrupt()},
		{"T", f.GetTrap()}, {"S", f.GetSign()}, {"Z", f.GetZero()},
		{"A", f.GetAuxCarry()}, {"P", f.GetParity()}, {"C", f.GetCarry()},
	} {
		if fl.set {
			b.WriteString(fl.name)
		} else {
			b.WriteString("-")
		}
	}
	return b.String()
}
