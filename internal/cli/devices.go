package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"notification-delivery/internal/device/repository"
	"notification-delivery/internal/device/usecase"
	"notification-delivery/pkg/config"
	"notification-delivery/pkg/database"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type deviceRow struct {
	ID       uint   `json:"id"`
	Platform string `json:"platform"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

func newDevicesCmd() *cobra.Command {
	var (
		driver     string
		dsn        string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "devices <customer-uuid>",
		Short: "List a customer's active push devices on every platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerUUID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid customer UUID %q", args[0])
			}

			cfg := config.Load()
			if driver != "" {
				cfg.DBDriver = driver
			}
			if dsn != "" {
				cfg.DatabaseURL = dsn
			}

			db, err := database.NewConnection(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.QueryTimeout)
			defer cancel()

			lookup := usecase.NewDeviceLookup(repository.NewDeviceRepository(db))
			devices := lookup.GetUserDevices(ctx, customerUUID.String())

			rows := make([]deviceRow, 0, len(devices))
			for _, d := range devices {
				rows = append(rows, deviceRow{
					ID:       d.PrimaryKey(),
					Platform: string(d.Platform()),
					Name:     d.Label(),
					Active:   d.IsActive(),
				})
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDevices(customerUUID.String(), rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "database driver (postgres, mysql, sqlite); defaults to DB_DRIVER")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string; defaults to DATABASE_URL")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
