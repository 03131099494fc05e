package main

import (
	"os"

	"github.com/oldiron/x86core/buildinfo"
	"github.com/oldiron/x86core/cli"
)

// Build-time variables, set via ldflags on release builds.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	cmd := cli.NewCommand("x86run", "real-mode x86 emulator core driver")
	cmd.SetVersion(buildinfo.Version(version, commit, date))

	cmd.AddSubcommand("run", "load a flat binary at CS:IP and run it to halt or a fatal error", runMain)
	cmd.AddSubcommand("decode", "decode hex machine code into an instruction listing", decodeMain)
	cmd.AddSubcommand("encode", "decode hex machine code and print its canonical re-encoding", encodeMain)
	cmd.AddSubcommand("validate", "round-trip-check a hex program through decode, encode and decode", validateMain)
	cmd.AddSubcommand("inspect", "annotate decoded instructions with their static and branch properties", inspectMain)
	cmd.AddSubcommand("monitor", "single-step a program in an interactive monitor", monitorMain)

	os.Exit(cmd.Execute(os.Args[1:]))
}
