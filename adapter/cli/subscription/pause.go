package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause [subscription-id]",
	Short: "Pause an active subscription",
	Long:  `Pause an ACTIVE subscription. Billing stops until the subscription is resumed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.PauseSubscriptionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription ID: %w", err)
		}

		ctx := cmd.Context()
		if err := app.PauseSubscriptionHandler.Handle(ctx, commands.PauseSubscriptionCommand{SubscriptionID: id}); err != nil {
			return fmt.Errorf("failed to pause subscription: %w", err)
		}

		fmt.Printf("Subscription paused: %s\n", id)
		return nil
	},
}
