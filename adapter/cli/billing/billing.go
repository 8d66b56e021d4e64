package billing

import (
	"github.com/spf13/cobra"
)

// Cmd is the billing command group
var Cmd = &cobra.Command{
	Use:   "billing",
	Short: "Run billing operations",
	Long:  `Trigger billing runs, retry failed payments, and sweep expired grace periods.`,
}

func init() {
	Cmd.AddCommand(runCmd)
	Cmd.AddCommand(retryCmd)
	Cmd.AddCommand(sweepCmd)
	Cmd.AddCommand(chargeCmd)
}
