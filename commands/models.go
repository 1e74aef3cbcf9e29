package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aivideo/services"
)

var modelsAll bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := services.LoadCatalog(cfg.ModelsFile)
		if err != nil {
			return err
		}

		list := catalog.Available()
		if modelsAll {
			list = catalog.All()
		}

		switch formatOutput {
		case "json":
			return printJSON(list)
		case "yaml":
			data, err := yaml.Marshal(list)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
		default:
			for _, m := range list {
				status := ""
				if !m.IsAvailable {
					status = " (unavailable)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-45s %s, up to %ds%s\n", m.ID, m.Name, m.MaxDuration, status)
			}
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsAll, "all", false, "include unavailable models")
	rootCmd.AddCommand(modelsCmd)
}
