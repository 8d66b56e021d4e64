package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/queries"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [customer-id]",
	Short: "List a customer's subscriptions",
	Long: `List all subscriptions of a customer, newest first.

Examples:
  cadence subscription list cust-42`,
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCustomerSubscriptionsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		ctx := cmd.Context()
		subs, err := app.ListCustomerSubscriptionsHandler.Handle(ctx, queries.ListCustomerSubscriptionsQuery{CustomerID: args[0]})
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}

		if len(subs) == 0 {
			fmt.Println("No subscriptions found.")
			return nil
		}

		fmt.Printf("Subscriptions for %s:\n", args[0])
		for _, sub := range subs {
			next := "-"
			if sub.NextBillingDate != nil {
				next = sub.NextBillingDate.Format("2006-01-02")
			}
			fmt.Printf("  %s  %-10s  %-18s  %.2f %s  next: %s\n",
				sub.ID, sub.PlanID, sub.Status, sub.CycleAmount, sub.Currency, next)
		}

		return nil
	},
}
