package subscription

import (
	"github.com/spf13/cobra"
)

// Cmd is the subscription command group
var Cmd = &cobra.Command{
	Use:   "subscription",
	Short: "Manage subscriptions",
	Long:  `Create, activate, pause, resume, and cancel subscriptions.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(activateCmd)
	Cmd.AddCommand(pauseCmd)
	Cmd.AddCommand(resumeCmd)
	Cmd.AddCommand(changePlanCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}
