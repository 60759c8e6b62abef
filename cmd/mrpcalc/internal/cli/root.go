// Package cli assembles the mrpcalc cobra command tree: compute (the
// core entry point) and list-assemblies (a thin convenience consumer
// of the DAL's category listing, spec's SUPPLEMENTED FEATURES). The
// command/flag/init layout is grounded on
// 5mehulhelp5-magento.GO/cmd/product_import.go and
// 5mehulhelp5-magento.GO/cmd/registry.go.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
)

var rootCmd = &cobra.Command{
	Use:           "mrpcalc",
	Short:         "Compute purchase and build requirements from an inventory BOM graph",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(listAssembliesCmd)
}

// Execute runs the command tree and maps any returned error onto the
// process exit codes of spec §6.4.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domainerrors.ExitCode(err)
	}
	return 0
}
