// Command csrpack converts COO text inputs into CSRX snapshots and inspects them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/qrv0/csrmv/internal/runerr"
)

// errVerifyFailed exits with status 3.
var errVerifyFailed = errors.New("checksum verify: FAILED")

func main() {
	log.SetFlags(0)
	log.SetPrefix("csrpack: ")
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "pack":
		err = cmdPack(args, os.Stdout)
	case "verify":
		err = cmdVerify(args, os.Stdout)
	case "inspect":
		err = cmdInspect(args, os.Stdout)
	case "pull":
		err = cmdPull(args, os.Stdout)
	default:
		usage()
		os.Exit(1)
	}
	switch {
	case err == nil:
	case errors.Is(err, errVerifyFailed):
		log.Print(err)
		os.Exit(3)
	default:
		if errors.Is(err, runerr.ErrUsage) {
			usage()
		}
		log.Print(err)
		os.Exit(runerr.ExitCode(err))
	}
}

func usage() {
	fmt.Println("csrpack - CSRX snapshot tool")
	fmt.Println("usage: csrpack <command> [args]")
	fmt.Println("  pack    --in <file.txt> --out <file.csrx> [--comp zstd|lz4|none] [--chunk N]")
	fmt.Println("  verify  --in <file.csrx>              verify checksums")
	fmt.Println("  inspect <file.csrx>                   print META and section sizes")
	fmt.Println("  pull    <url> [--dir D]               download a test input")
}

// newFlagSet returns a subcommand flag set that reports errors only through
// the returned error, so main prints usage once.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
