package main

import (
	"fmt"

	"github.com/oldiron/x86core/arch/cpu/x86"
	"github.com/oldiron/x86core/cli"
)

func encodeMain(args []string) int {
	h := &hexArgs{}
	fs := cli.NewFlagSet("x86run encode")
	fs.AddPositional(h)

	program, err := parseHexArgs(fs, h, args)
	if err != nil {
		return fail(err)
	}

	err = decodeAll(program, func(offset uint16, raw []byte, inst x86.Instruction) {
		if inst.IsInvalid() {
			fmt.Printf("%04X  % x  (not decodable: %s)\n", offset, raw, inst.InvalidReason)
			return
		}
		canonical, err := x86.Encode(inst)
		if err != nil {
			fmt.Printf("%04X  % x  %s  (not encodable: %v)\n", offset, raw, inst, err)
			return
		}
		fmt.Printf("%04X  % x  %s  -> % x\n", offset, raw, inst, canonical)
	})
	if err != nil {
		return fail(err)
	}
	return 0
}
