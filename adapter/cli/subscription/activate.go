package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate [subscription-id]",
	Short: "Activate a subscription",
	Long:  `Activate a PENDING_ACTIVATION or TRIAL subscription, starting its billing cycle.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ActivateSubscriptionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription ID: %w", err)
		}

		ctx := cmd.Context()
		if err := app.ActivateSubscriptionHandler.Handle(ctx, commands.ActivateSubscriptionCommand{SubscriptionID: id}); err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}

		fmt.Printf("Subscription activated: %s\n", id)
		return nil
	},
}
