package order

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/orders/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel [order-id]",
	Short: "Cancel an order",
	Long:  `Cancel an order that has not been delivered yet.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CancelOrderHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid order ID: %w", err)
		}

		ctx := cmd.Context()
		if err := app.CancelOrderHandler.Handle(ctx, commands.CancelOrderCommand{
			OrderID: id,
			Reason:  cancelReason,
		}); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		fmt.Printf("Order cancelled: %s\n", id)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVarP(&cancelReason, "reason", "r", "", "cancellation reason")
}
