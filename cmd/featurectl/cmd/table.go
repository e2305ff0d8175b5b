package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacentio/dine/cmd/featurectl/cmd/util"
	"github.com/jacentio/dine/sink/dynamosink"
)

var (
	tableCmd = &cobra.Command{
		Use:   "table",
		Short: "Manage the DynamoDB table backing the store",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
	}
	tableCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Creates the table with a change stream enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := util.GetSinkConfig()
			wait, _ := cmd.Flags().GetDuration("wait")

			client, err := dynamosink.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := dynamosink.CreateTable(cmd.Context(), client, cfg, wait); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created table %s\n", cfg.Table)
			return nil
		},
	}
	tableDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Deletes the table and every record in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := util.GetSinkConfig()
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to delete table " + cfg.Table + " without --yes")
			}

			client, err := dynamosink.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := dynamosink.DeleteTable(cmd.Context(), client, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted table %s\n", cfg.Table)
			return nil
		},
	}
)

func init() {
	util.SetupTableFlags(tableCmd)
	tableCmd.AddCommand(tableCreateCmd)
	tableCmd.AddCommand(tableDeleteCmd)

	tableCreateCmd.Flags().Duration("wait", 2*time.Minute, util.WrapString("how long to wait for the table to become active, 0 returns immediately"))
	tableDeleteCmd.Flags().Bool("yes", false, util.WrapString("confirm deletion"))
}
