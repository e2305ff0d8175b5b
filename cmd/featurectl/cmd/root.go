package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/dine/cmd/featurectl/cmd/util"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "featurectl",
		Short: "operate a dine online feature store",
		Long: fmt.Sprintf(`featurectl (v%s)

Operator tooling for the dine online feature store: compute the hashed
keys records are stored under, purge records and provision the
DynamoDB table.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of featurectl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "featurectl v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(hashCmd)
	RootCmd.AddCommand(purgeCmd)
	RootCmd.AddCommand(tableCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
