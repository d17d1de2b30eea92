package main

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/inimerge/pkg/config"
	"github.com/arthur-debert/inimerge/pkg/filter"
)

var (
	filterRulesPath string
	filterOutPath   string

	filterCmd = &cobra.Command{
		Use:   "filter INPUT",
		Short: "Filter a single INI file, removing or redacting entries",
		Long: `Filter applies the rule file to one INI file. Entries matched by delete
rules are removed; entries matched by replace rules keep their key and
separator but get the configured replacement value. With no rules the
output equals the input. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := loadFilterActions(filterRulesPath)
			if err != nil {
				return err
			}

			input, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer input.Close()

			lines, err := filter.Filter(input, actions)
			if err != nil {
				return err
			}
			return writeLines(filterOutPath, lines)
		},
	}
)

func init() {
	filterCmd.Flags().StringVarP(&filterRulesPath, "rules", "r", "", "Rule file (TOML or YAML)")
	filterCmd.Flags().StringVarP(&filterOutPath, "output", "o", "", "Write output to file instead of stdout")
}

func loadFilterActions(path string) (*filter.Actions, error) {
	if path == "" {
		return filter.NewActionsBuilder().Build()
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return file.FilterActions()
}
