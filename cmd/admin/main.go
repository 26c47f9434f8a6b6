package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/recruiter-chat/internal/config"
	"github.com/suPer8Hu/recruiter-chat/internal/db"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"gorm.io/gorm"
)

var (
	cfg config.Config
	dsn string
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Manage recruiter tokens and the knowledge base",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if dsn != "" {
			cfg.DBDSN = dsn
		}
		logger.SetLevel(cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database DSN (defaults to DB_DSN)")
	rootCmd.AddCommand(migrateCmd, tokenCmd, kbCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := open()
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

func open() (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
