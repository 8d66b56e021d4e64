package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/orders/application/commands"
	"github.com/spf13/cobra"
)

var (
	currency string
	items    []string
)

var createCmd = &cobra.Command{
	Use:   "create [customer-id]",
	Short: "Create a new order",
	Long: `Create a one-time order with line items.

Each --item is formatted as product-id:name:quantity:unit-price.

Examples:
  cadence order create cust-42 --item sku-1:"Coffee beans":2:34.90
  cadence order create cust-42 --item sku-1:Beans:2:34.90 --item sku-9:Grinder:1:299.00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateOrderHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		if len(items) == 0 {
			return fmt.Errorf("at least one --item is required")
		}

		createCmd := commands.CreateOrderCommand{
			CustomerID: args[0],
			Currency:   currency,
		}
		for _, raw := range items {
			item, err := parseItem(raw)
			if err != nil {
				return err
			}
			createCmd.Items = append(createCmd.Items, item)
		}

		ctx := cmd.Context()
		result, err := app.CreateOrderHandler.Handle(ctx, createCmd)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		fmt.Printf("Order created: %s\n", result.OrderID)
		fmt.Printf("  items: %d\n", len(createCmd.Items))
		fmt.Printf("  total: %.2f %s\n", result.TotalAmount, currency)

		return nil
	},
}

func parseItem(raw string) (commands.OrderItemInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return commands.OrderItemInput{}, fmt.Errorf("invalid item %q (use product-id:name:quantity:unit-price)", raw)
	}
	quantity, err := strconv.Atoi(parts[2])
	if err != nil {
		return commands.OrderItemInput{}, fmt.Errorf("invalid quantity in item %q: %w", raw, err)
	}
	price, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return commands.OrderItemInput{}, fmt.Errorf("invalid unit price in item %q: %w", raw, err)
	}
	return commands.OrderItemInput{
		ProductID:   parts[0],
		ProductName: parts[1],
		Quantity:    quantity,
		UnitPrice:   price,
	}, nil
}

func init() {
	createCmd.Flags().StringVar(&currency, "currency", "BRL", "order currency")
	createCmd.Flags().StringArrayVarP(&items, "item", "i", nil, "line item (product-id:name:quantity:unit-price)")
}
