package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [subscription-id]",
	Short: "Resume a paused subscription",
	Long:  `Resume a PAUSED subscription. The next billing date is recalculated from today.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ResumeSubscriptionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription ID: %w", err)
		}

		ctx := cmd.Context()
		if err := app.ResumeSubscriptionHandler.Handle(ctx, commands.ResumeSubscriptionCommand{SubscriptionID: id}); err != nil {
			return fmt.Errorf("failed to resume subscription: %w", err)
		}

		fmt.Printf("Subscription resumed: %s\n", id)
		return nil
	},
}
