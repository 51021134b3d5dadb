// Command mxtctl is the operator CLI: schema migrations, user bootstrap,
// development tokens and offline verification of interaction chains.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ItsLhuis/mxt-sub001/internal/platform/config"
)

var cfg config.Server

var rootCmd = &cobra.Command{
	Use:           "mxtctl",
	Short:         "Operate an mxt deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.FromEnv()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd(), userCmd(), tokenCmd(), verifyCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mxtctl: %v\n", err)
		os.Exit(1)
	}
}
