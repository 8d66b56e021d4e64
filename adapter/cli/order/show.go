package order

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/orders/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [order-id]",
	Short: "Show order details",
	Long: `Display detailed information about a specific order.

Examples:
  cadence order show 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"get", "view"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetOrderHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid order ID: %w", err)
		}

		ctx := cmd.Context()
		o, err := app.GetOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		fmt.Printf("Order: %s\n", o.ID)
		fmt.Printf("  Customer: %s\n", o.CustomerID)
		fmt.Printf("  Status:   %s\n", o.Status)
		fmt.Printf("  Type:     %s\n", o.OrderType)
		if o.SubscriptionID != nil {
			fmt.Printf("  Subscription: %s\n", o.SubscriptionID)
		}
		fmt.Printf("  Total:    %.2f %s\n", o.TotalAmount, o.Currency)
		fmt.Printf("  Created:  %s\n", o.CreatedAt.Format("2006-01-02 15:04"))

		if len(o.Items) > 0 {
			fmt.Println("  Items:")
			for _, item := range o.Items {
				fmt.Printf("    %-12s %-24s x%d  %.2f (%.2f)\n",
					item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.Subtotal)
			}
		}

		return nil
	},
}
