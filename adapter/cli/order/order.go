package order

import (
	"github.com/spf13/cobra"
)

// Cmd is the order command group
var Cmd = &cobra.Command{
	Use:   "order",
	Short: "Manage orders",
	Long:  `Create, confirm, cancel, and inspect orders.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(confirmCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}
