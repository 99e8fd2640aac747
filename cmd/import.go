package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"brickshelf/internal/models"
	"brickshelf/internal/services"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk load themes and sets from a JSON file",
	Long: `Load a JSON document of the form {"themes": [...], "sets": [...]} into the catalog
in a single transaction. Nothing is written if any set is rejected.`,
	Example: `brickshelf import catalog.json --config config.yml
`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readCatalogFile(args[0])
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := log.WithContext(cmd.Context())

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(log)

	if err := services.NewCatalogService(st.catalog, nil).Import(ctx, data); err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	return nil
}

// readCatalogFile decodes an import document. Themes repeated by ID keep
// their first occurrence; themes without an ID are all kept.
func readCatalogFile(path string) (models.CatalogImport, error) {
	var data models.CatalogImport

	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	numbered, unnumbered := lo.FilterReject(data.Themes, func(t models.Theme, _ int) bool { return t.ID > 0 })
	data.Themes = append(lo.UniqBy(numbered, func(t models.Theme) int { return t.ID }), unnumbered...)
	for i := range data.Sets {
		data.Sets[i].Theme = nil
	}
	return data, nil
}
