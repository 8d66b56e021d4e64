package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel [subscription-id]",
	Short: "Cancel a subscription",
	Long:  `Cancel a subscription. Cancellation is terminal and also tears down recurring billing at the provider.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CancelSubscriptionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription ID: %w", err)
		}

		ctx := cmd.Context()
		if err := app.CancelSubscriptionHandler.Handle(ctx, commands.CancelSubscriptionCommand{
			SubscriptionID: id,
			Reason:         cancelReason,
		}); err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}

		fmt.Printf("Subscription cancelled: %s\n", id)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVarP(&cancelReason, "reason", "r", "", "cancellation reason")
}
