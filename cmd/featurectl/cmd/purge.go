package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/dine/cmd/featurectl/cmd/util"
	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/internal/keyhash"
	"github.com/jacentio/dine/sink"
	"github.com/jacentio/dine/sink/dynamosink"
)

var purgeCmd = &cobra.Command{
	Use:   "purge [id...]",
	Short: "Deletes whole records by type name and entity id",
	Long: `Deletes whole records by type name and entity id.

All deletes are sent as one batch. Records that do not exist are ignored.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return util.BindCommandFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, _ := cmd.Flags().GetString("type")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if dryRun {
			for _, id := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "would purge %s[%s]\t%s\n", typeName, id, entityKeyHex(id, typeName, entity.DefaultVersion))
			}
			return nil
		}

		s, err := dynamosink.Open(cmd.Context(), util.GetSinkConfig())
		if err != nil {
			return err
		}
		n, err := purge(cmd, s, typeName, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d %s records\n", n, typeName)
		return nil
	},
}

func init() {
	util.SetupTableFlags(purgeCmd)
	purgeCmd.Flags().String("type", "", util.WrapString("registered type name of the records"))
	purgeCmd.Flags().Bool("dry-run", false, util.WrapString("print the keys that would be deleted without deleting them"))
	_ = purgeCmd.MarkFlagRequired("type")
}

func purge(cmd *cobra.Command, s sink.Sink, typeName string, ids []string) (int, error) {
	p := sink.Begin(s)
	for _, id := range ids {
		p.Delete(string(keyhash.Entity(id, typeName, entity.DefaultVersion)))
	}
	if _, err := p.Exec(cmd.Context()); err != nil {
		return 0, fmt.Errorf("purge %s: %w", typeName, err)
	}
	return p.Len(), nil
}
