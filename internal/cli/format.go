package cli

import (
	"fmt"
	"os"
	"strconv"

	"notification-delivery/internal/notification/dto"
	"notification-delivery/internal/notification/message"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Render alert text without sending anything",
	}
	cmd.AddCommand(newFormatTimeCmd())
	cmd.AddCommand(newFormatPurchaseCmd())
	cmd.AddCommand(newFormatBalanceCmd())
	return cmd
}

func newFormatTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "time <epoch-ms>",
		Short: "Convert epoch milliseconds to Central Time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			epochMs, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid epoch milliseconds %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), message.ConvertEpochToCentralTime(epochMs))
			return nil
		},
	}
}

func newFormatPurchaseCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Render the purchase alert for a request payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading request: %w", err)
			}

			req, err := dto.ParseThirdPartyNotificationRequest(data)
			if err != nil {
				return err
			}

			body, err := message.ConstructPurchaseNotificationMessage(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a third-party request JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newFormatBalanceCmd() *cobra.Command {
	var threshold string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Render the balance-threshold alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(threshold)
			if err != nil {
				return fmt.Errorf("invalid threshold %q: %w", threshold, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), message.ConstructBalanceExceedMessage(amount))
			return nil
		},
	}

	cmd.Flags().StringVar(&threshold, "threshold", "", "balance threshold, e.g. 2500 or 99.5")
	_ = cmd.MarkFlagRequired("threshold")
	return cmd
}
