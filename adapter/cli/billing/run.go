package billing

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Charge all subscriptions that are due",
	Long: `Charge every ACTIVE subscription whose next billing date has been
reached. Declined charges move the subscription into SUSPENDED with a
grace period.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingProcessor == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		ctx := cmd.Context()
		result, err := app.BillingProcessor.ProcessScheduledBilling(ctx)
		if err != nil {
			return fmt.Errorf("billing run failed: %w", err)
		}

		fmt.Printf("Billing run: %s\n", result.Message)
		return nil
	},
}
