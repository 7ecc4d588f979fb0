package cmd

import (
	"fmt"
	"log"
	"strings"

	devconfig "github.com/Daskott/dispatch/dev/config"
	"github.com/Daskott/dispatch/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start a dispatch server",
	Long: `The dispatch server exposes login, emergency request and user endpoints.
Without a reachable database it serves a seeded in-memory demo store.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(), isDevEnv)
	},
}

var serverConfigFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverConfigFile, "sconfig", "", "Config for server")
}

// serverConfig loads the server config from --sconfig, or the bundled
// development config in dev mode. Env vars override both.
func serverConfig() *viper.Viper {
	config := newServerViper()

	var err error
	switch {
	case serverConfigFile != "":
		config.SetConfigFile(serverConfigFile)
		err = config.ReadInConfig()
	case isDevEnv:
		config.SetConfigType("yaml")
		err = config.ReadConfig(strings.NewReader(devconfig.SERVER_YML))
	default:
		fmt.Println(warningLabel, "no --sconfig given, using defaults and environment variables")
	}

	if err != nil {
		log.Panic(fmt.Sprintf("error reading server config file: %v", err))
	}

	return config
}

func newServerViper() *viper.Viper {
	config := viper.New()

	config.SetDefault("dispatch.cron.timeZone", "UTC")
	config.SetDefault("dispatch.listener.port", 3000)
	config.SetDefault("dispatch.backlog.maxPendingMinutes", 15)
	config.SetDefault("database.driver", "postgres")
	config.SetDefault("sqlite.dir", "data")

	config.BindEnv("database.url", "DATABASE_URL", "POSTGRES_URL")
	config.BindEnv("database.driver", "DATABASE_DRIVER")
	config.BindEnv("sqlite.passPhrase", "SQLITE_PASS_PHRASE")
	config.BindEnv("dispatch.listener.port", "PORT")
	config.BindEnv("google.applicationCredentials", "GOOGLE_APPLICATION_CREDENTIALS")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv() // read in environment variables that match

	return config
}
