package order

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/orders/application/queries"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [customer-id]",
	Short: "List a customer's orders",
	Long: `List all orders of a customer, newest first.

Examples:
  cadence order list cust-42`,
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCustomerOrdersHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		ctx := cmd.Context()
		orders, err := app.ListCustomerOrdersHandler.Handle(ctx, queries.ListCustomerOrdersQuery{CustomerID: args[0]})
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}

		if len(orders) == 0 {
			fmt.Println("No orders found.")
			return nil
		}

		fmt.Printf("Orders for %s:\n", args[0])
		for _, o := range orders {
			fmt.Printf("  %s  %-10s  %-22s  %d items  %.2f %s\n",
				o.ID, o.Status, o.OrderType, len(o.Items), o.TotalAmount, o.Currency)
		}

		return nil
	},
}
