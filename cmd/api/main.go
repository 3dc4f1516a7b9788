package main

import (
	"fmt"
	"os"

	"github.com/abduss/linkbucket/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "time/tzdata"
)

var rootCmd = &cobra.Command{
	Use:   "linkbucket",
	Short: "LinkBucket bookmark API",
	Long: `LinkBucket groups saved links into buckets that can be shared,
copied between users and exported.

Configuration is read from the environment; a .env file in the working
directory is loaded first when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		if _, err := logger.Init(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)

	err := rootCmd.Execute()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}
