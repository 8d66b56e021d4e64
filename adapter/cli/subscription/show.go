package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [subscription-id]",
	Short: "Show subscription details",
	Long: `Display detailed information about a specific subscription.

Examples:
  cadence subscription show 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"get", "view"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetSubscriptionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription ID: %w", err)
		}

		ctx := cmd.Context()
		sub, err := app.GetSubscriptionHandler.Handle(ctx, queries.GetSubscriptionQuery{SubscriptionID: id})
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}

		fmt.Printf("Subscription: %s\n", sub.ID)
		fmt.Printf("  Customer:     %s\n", sub.CustomerID)
		fmt.Printf("  Plan:         %s\n", sub.PlanID)
		fmt.Printf("  Status:       %s\n", sub.Status)
		fmt.Printf("  Cycle:        %s\n", sub.BillingCycle)
		fmt.Printf("  Price:        %.2f %s/month (%.2f %s per cycle)\n", sub.MonthlyPrice, sub.Currency, sub.CycleAmount, sub.Currency)

		if sub.TrialPeriodDays > 0 {
			fmt.Printf("  Trial:        %d days\n", sub.TrialPeriodDays)
		}

		if sub.NextBillingDate != nil {
			fmt.Printf("  Next billing: %s\n", sub.NextBillingDate.Format("2006-01-02"))
		}

		if sub.FailedPaymentAttempts > 0 {
			fmt.Printf("  Failed payments: %d\n", sub.FailedPaymentAttempts)
		}

		if sub.GracePeriodEnd != nil {
			fmt.Printf("  Grace period ends: %s\n", sub.GracePeriodEnd.Format("2006-01-02 15:04"))
		}

		if sub.CancelledAt != nil {
			fmt.Printf("  Cancelled:    %s\n", sub.CancelledAt.Format("2006-01-02 15:04"))
			if sub.CancellationReason != "" {
				fmt.Printf("  Reason:       %s\n", sub.CancellationReason)
			}
		}

		fmt.Printf("  Created:      %s\n", sub.CreatedAt.Format("2006-01-02 15:04"))

		return nil
	},
}
