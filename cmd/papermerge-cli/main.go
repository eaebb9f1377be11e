package main

import (
	"fmt"
	"os"

	"papermerge/config"
	"papermerge/database"
	"papermerge/logger"
	"papermerge/repositories"
	"papermerge/services"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	svc     *services.Container
)

// initServices connects to the database and builds the service container
// for commands that need it.
func initServices(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := database.InitPostgres(&cfg.Database); err != nil {
		return err
	}
	if err := database.InitRedis(&cfg.Redis); err != nil {
		return err
	}
	repos := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	svc = services.NewContainer(repos, database.RedisClient, cfg)
	return nil
}

func main() {
	root := &cobra.Command{
		Use:           "papermerge-cli",
		Short:         "Administrative commands for the papermerge core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to the config file")

	root.AddCommand(newUsersCmd())
	root.AddCommand(newRolesCmd())
	root.AddCommand(newTokensCmd())
	root.AddCommand(newSearchIndexCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
