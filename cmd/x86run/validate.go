package main

import (
	"fmt"

	"github.com/oldiron/x86core/arch/cpu/x86"
	"github.com/oldiron/x86core/cli"
	"github.com/oldiron/x86core/log"
)

func validateMain(args []string) int {
	h := &hexArgs{}
	fs := cli.NewFlagSet("x86run validate")
	fs.AddPositional(h)

	program, err := parseHexArgs(fs, h, args)
	if err != nil {
		return fail(err)
	}

	var checked, unsupported, mismatched int
	err = decodeAll(program, func(offset uint16, raw []byte, inst x86.Instruction) {
		if inst.IsInvalid() {
			fmt.Printf("%04X  % x  not decodable: %s\n", offset, raw, inst.InvalidReason)
			mismatched++
			return
		}

		canonical, encodeErr := x86.Encode(inst)
		if encodeErr != nil {
			unsupported++
			return
		}
		checked++

		redecoded, decodeErr := decodeOne(canonical)
		if decodeErr != nil || !equivalent(inst, redecoded) {
			mismatched++
			fmt.Printf("%04X  % x  round-trip mismatch: %s vs %s\n",
				offset, raw, inst, redecoded)
		}
	})
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%d instructions round-tripped, %d outside the encoder subset, %d mismatched\n",
		checked, unsupported, mismatched)
	if mismatched > 0 {
		return fail(fmt.Errorf("%d round-trip mismatches", mismatched))
	}
	return 0
}

// decodeOne decodes the first instruction of a byte sequence.
func decodeOne(bytes []byte) (x86.Instruction, error) {
	memory, err := x86.NewMemory(x86.MinMemorySize, log.NewNop())
	if err != nil {
		return x86.Instruction{}, err
	}
	if err := memory.LoadData(0, bytes); err != nil {
		return x86.Instruction{}, err
	}
	return x86.NewDecoder(memory).DecodeAt(0, 0), nil
}

// equivalent reports whether two decoded instructions agree on everything
// except byte length, which legitimately differs between an original
// encoding and its canonical form.
func equivalent(a, b x86.Instruction) bool {
	return a.Command == b.Command &&
		a.Dst == b.Dst && a.Src == b.Src && a.Src2 == b.Src2 &&
		a.SegmentOverride == b.SegmentOverride &&
		a.Repeat == b.Repeat &&
		a.Width == b.Width
}
