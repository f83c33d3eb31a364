package cli

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "alertctl",
		Short:         "Operate the alert push pipeline",
		Long:          "alertctl renders alert text offline and looks up the devices an alert would reach.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newFormatCmd())
	cmd.AddCommand(newDevicesCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
