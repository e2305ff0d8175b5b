package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/dine/cmd/featurectl/cmd/util"
	"github.com/jacentio/dine/entity"
	"github.com/jacentio/dine/internal/keyhash"
	"github.com/jacentio/dine/sink/dynamosink"
)

var (
	hashCmd = &cobra.Command{
		Use:   "hash",
		Short: "Compute the hashed keys records and fields are stored under",
	}
	hashEntityCmd = &cobra.Command{
		Use:   "entity [id...]",
		Short: "Prints the store key of each entity id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, _ := cmd.Flags().GetString("type")
			version, _ := cmd.Flags().GetString("version")
			for _, id := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, entityKeyHex(id, typeName, version))
			}
			return nil
		},
	}
	hashFieldCmd = &cobra.Command{
		Use:   "field [name...]",
		Short: "Prints the field key and the DynamoDB attribute name of each field",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				key, attr := fieldKeyHex(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, key, attr)
			}
			return nil
		},
	}
)

func init() {
	hashCmd.AddCommand(hashEntityCmd)
	hashCmd.AddCommand(hashFieldCmd)

	hashEntityCmd.Flags().String("type", "", util.WrapString("registered type name of the records"))
	hashEntityCmd.Flags().String("version", entity.DefaultVersion, util.WrapString("entity version component of the key"))
	_ = hashEntityCmd.MarkFlagRequired("type")
}

func entityKeyHex(id, typeName, version string) string {
	return hex.EncodeToString(keyhash.Entity(id, typeName, version))
}

func fieldKeyHex(name string) (key, attr string) {
	field := keyhash.Field(name)
	return hex.EncodeToString(field), dynamosink.FieldAttr(string(field))
}
