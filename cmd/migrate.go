package cmd

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Sync the theme, set and (for USERS_DRIVER=sql) user tables, and ensure the unique userName index in the document store.`,
	Example: `brickshelf migrate --config config.yml
`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStores(log.WithContext(cmd.Context()), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(log)

	log.Info().Str("catalog", cfg.DBDriver).Str("users", cfg.UsersDriver).Msg("schema is up to date")
	return nil
}
