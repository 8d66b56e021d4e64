package billing

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry suspended subscriptions still in grace",
	Long: `Retry the charge for every SUSPENDED subscription whose grace period
has not expired yet. A successful charge reactivates the subscription.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingProcessor == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		ctx := cmd.Context()
		result, err := app.BillingProcessor.ProcessFailedBillingRetries(ctx)
		if err != nil {
			return fmt.Errorf("billing retry run failed: %w", err)
		}

		fmt.Printf("Billing retry run: %s\n", result.Message)
		return nil
	},
}
