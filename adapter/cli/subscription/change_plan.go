package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	newPlanID   string
	newPrice    float64
	newCurrency string
)

var changePlanCmd = &cobra.Command{
	Use:   "change-plan [subscription-id]",
	Short: "Change the plan of an active subscription",
	Long: `Change the plan and price of an ACTIVE subscription.

The new price takes effect on the next billing date.

Examples:
  cadence subscription change-plan 4f3a... --plan ENTERPRISE --price 99.90`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ChangePlanHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription ID: %w", err)
		}

		changeCmd := commands.ChangePlanCommand{
			SubscriptionID:  id,
			NewPlanID:       newPlanID,
			NewMonthlyPrice: newPrice,
			Currency:        newCurrency,
		}

		ctx := cmd.Context()
		if err := app.ChangePlanHandler.Handle(ctx, changeCmd); err != nil {
			return fmt.Errorf("failed to change plan: %w", err)
		}

		fmt.Printf("Subscription %s moved to plan %s\n", id, newPlanID)
		return nil
	},
}

func init() {
	changePlanCmd.Flags().StringVarP(&newPlanID, "plan", "p", "", "new plan identifier")
	changePlanCmd.Flags().Float64Var(&newPrice, "price", 0, "new monthly price")
	changePlanCmd.Flags().StringVar(&newCurrency, "currency", "BRL", "price currency")
	_ = changePlanCmd.MarkFlagRequired("plan")
	_ = changePlanCmd.MarkFlagRequired("price")
}
