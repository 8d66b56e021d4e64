package billing

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chargeRetry bool

var chargeCmd = &cobra.Command{
	Use:   "charge <subscription-id>",
	Short: "Charge a single subscription now",
	Long: `Charge one subscription immediately. Without --retry the subscription
must be ACTIVE with its billing date reached; with --retry it must be
SUSPENDED in its grace period.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingProcessor == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription id: %w", err)
		}

		ctx := cmd.Context()
		outcome, err := app.BillingProcessor.ProcessSingleSubscriptionBilling(ctx, id, chargeRetry)
		if err != nil {
			return fmt.Errorf("charge failed: %w", err)
		}

		if outcome.Charged {
			fmt.Printf("Charged subscription %s (transaction %s)\n", id, outcome.TransactionID)
		} else {
			fmt.Printf("Charge declined for subscription %s: %s (%s)\n",
				id, outcome.DeclineMessage, outcome.DeclineCode)
		}
		return nil
	},
}

func init() {
	chargeCmd.Flags().BoolVar(&chargeRetry, "retry", false, "treat as a past-due retry of a suspended subscription")
}
