package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Daskott/dispatch/server"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the dispatch tables and demo accounts",
	Long:  `initdb migrates the configured database and inserts the demo accounts. It is safe to run more than once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverConfig, err := server.ParseConfig(serverConfig())
		if err != nil {
			return err
		}

		store, degraded := storage.Open(serverConfig.Database, serverConfig.Sqlite)
		defer store.Close()

		if degraded {
			fmt.Println(warningLabel, "no database reachable, nothing was written")
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := store.Migrate(ctx); err != nil {
			return err
		}

		fmt.Printf("%v store initialised\n", store.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)

	initDBCmd.Flags().StringVar(&serverConfigFile, "sconfig", "", "Config for server")
}
