// Command mrpcalc is the non-interactive entry point for the MRP
// requirement calculator: it loads configuration, wires the REST DAL,
// runs Compute, and maps the result onto the exit codes of spec §6.4.
package main

import (
	"os"

	"github.com/vsinha/mrp/cmd/mrpcalc/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
