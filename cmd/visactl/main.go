// Command visactl evaluates requirement catalogs and coherence checks
// offline, without a running server.
//
//	visactl requirements --passport-type ORDINARY --purpose TOURISM
//	visactl validate --file application.yaml --now 2026-03-01
//	visactl steps --context context.yaml
package main

import (
	"fmt"
	"io"
	"os"
)

const usage = `usage: visactl <command> [flags]

commands:
  requirements   list documents, fee and processing time for a context
  validate       run coherence checks over a documents file
  steps          list the interview steps visible for a context
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "visactl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "requirements":
		return runRequirements(args[1:], stdout)
	case "validate":
		return runValidate(args[1:], stdout)
	case "steps":
		return runSteps(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}
