package main

import (
	"fmt"
	"strings"

	"github.com/oldiron/x86core/arch/cpu/x86"
	"github.com/oldiron/x86core/cli"
	"github.com/oldiron/x86core/log"
)

// hexArgs is the positional hex-byte input shared by the code-stream
// subcommands; the variadic field lets bytes be given space-separated.
type hexArgs struct {
	Bytes []string `arg:"positional" usage:"hex machine-code bytes" required:"true"`
}

// parseHexArgs parses a subcommand's argument list into program bytes.
func parseHexArgs(fs *cli.FlagSet, h *hexArgs, args []string) ([]byte, error) {
	if _, err := fs.Parse(args); err != nil {
		return nil, err
	}
	return parseHexBytes(strings.Join(h.Bytes, " "))
}

// decodeAll decodes every instruction of a byte sequence loaded at
// 0000:0000, invoking fn for each until the bytes are exhausted.
func decodeAll(program []byte, fn func(offset uint16, raw []byte, inst x86.Instruction)) error {
	memory, err := x86.NewMemory(x86.MinMemorySize, log.NewNop())
	if err != nil {
		return err
	}
	if err := memory.LoadData(0, program); err != nil {
		return err
	}

	decoder := x86.NewDecoder(memory)
	offset := uint16(0)
	for int(offset) < len(program) {
		inst := decoder.DecodeAt(0, offset)
		end := int(offset) + int(inst.Length)
		if end > len(program) {
			end = len(program)
		}
		fn(offset, program[offset:end], inst)
		offset += uint16(inst.Length)
	}
	return nil
}

func decodeMain(args []string) int {
	h := &hexArgs{}
	fs := cli.NewFlagSet("x86run decode")
	fs.AddPositional(h)

	program, err := parseHexArgs(fs, h, args)
	if err != nil {
		return fail(err)
	}

	err = decodeAll(program, func(offset uint16, raw []byte, inst x86.Instruction) {
		fmt.Printf("%04X  %-18s %s\n", offset, fmt.Sprintf("% x", raw), inst)
	})
	if err != nil {
		return fail(err)
	}
	return 0
}
