package billing

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Cancel subscriptions with expired grace periods",
	Long: `Cancel every SUSPENDED subscription whose grace period has expired
without a successful payment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingProcessor == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		ctx := cmd.Context()
		result, err := app.BillingProcessor.ProcessExpiredGracePeriods(ctx)
		if err != nil {
			return fmt.Errorf("grace period sweep failed: %w", err)
		}

		fmt.Printf("Grace period sweep: %s\n", result.Message)
		return nil
	},
}
