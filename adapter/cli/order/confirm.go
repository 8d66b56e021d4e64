package order

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/orders/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm [order-id]",
	Short: "Confirm a pending order",
	Long:  `Confirm a PENDING order. Confirmed orders have their items frozen.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ConfirmOrderHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid order ID: %w", err)
		}

		ctx := cmd.Context()
		if err := app.ConfirmOrderHandler.Handle(ctx, commands.ConfirmOrderCommand{OrderID: id}); err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}

		fmt.Printf("Order confirmed: %s\n", id)
		return nil
	},
}
