package subscription

import (
	"fmt"

	"github.com/cadencebilling/cadence/adapter/cli"
	"github.com/cadencebilling/cadence/internal/subscriptions/application/commands"
	"github.com/spf13/cobra"
)

var (
	customerEmail   string
	planID          string
	billingCycle    string
	monthlyPrice    float64
	currency        string
	trialDays       int
	paymentMethodID string
)

var createCmd = &cobra.Command{
	Use:   "create [customer-id]",
	Short: "Create a new subscription",
	Long: `Create a new subscription for a customer.

The subscription starts in PENDING_ACTIVATION, or in TRIAL when a
trial period is given.

Examples:
  cadence subscription create cust-42 --plan PRO --price 29.90
  cadence subscription create cust-42 --plan PRO --price 29.90 --cycle yearly --trial 14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateSubscriptionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		createCmd := commands.CreateSubscriptionCommand{
			CustomerID:      args[0],
			CustomerEmail:   customerEmail,
			PlanID:          planID,
			BillingCycle:    billingCycle,
			MonthlyPrice:    monthlyPrice,
			Currency:        currency,
			TrialPeriodDays: trialDays,
			PaymentMethodID: paymentMethodID,
		}

		ctx := cmd.Context()
		result, err := app.CreateSubscriptionHandler.Handle(ctx, createCmd)
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		fmt.Printf("Subscription created: %s\n", result.SubscriptionID)
		fmt.Printf("  plan: %s\n", planID)
		fmt.Printf("  status: %s\n", result.Status)
		if result.NextBillingDate != "" {
			fmt.Printf("  next billing date: %s\n", result.NextBillingDate)
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&customerEmail, "email", "", "customer email")
	createCmd.Flags().StringVarP(&planID, "plan", "p", "", "plan identifier")
	createCmd.Flags().StringVar(&billingCycle, "cycle", "monthly", "billing cycle (monthly, quarterly, yearly)")
	createCmd.Flags().Float64Var(&monthlyPrice, "price", 0, "monthly price")
	createCmd.Flags().StringVar(&currency, "currency", "BRL", "price currency")
	createCmd.Flags().IntVar(&trialDays, "trial", 0, "trial period in days")
	createCmd.Flags().StringVar(&paymentMethodID, "payment-method", "", "payment method identifier")
	_ = createCmd.MarkFlagRequired("plan")
	_ = createCmd.MarkFlagRequired("price")
}
