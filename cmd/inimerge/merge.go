package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/inimerge/pkg/config"
	"github.com/arthur-debert/inimerge/pkg/merge"
)

var (
	mergeRulesPath string
	mergeOutPath   string

	mergeCmd = &cobra.Command{
		Use:   "merge TARGET SOURCE",
		Short: "Merge a source INI file into a target, preserving target formatting",
		Long: `Merge reads the target (the live file) and the source (the canonical
template) and writes the reconciliation. Source values win unless the
rule file says otherwise; the target's formatting is preserved wherever
the rules allow. Use "-" for either input to read from stdin (at most
one).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mutations, err := loadMutations(mergeRulesPath)
			if err != nil {
				return err
			}

			target, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer target.Close()
			source, err := openInput(args[1])
			if err != nil {
				return err
			}
			defer source.Close()

			lines, err := merge.Merge(target, source, mutations)
			if err != nil {
				return err
			}
			return writeLines(mergeOutPath, lines)
		},
	}
)

func init() {
	mergeCmd.Flags().StringVarP(&mergeRulesPath, "rules", "r", "", "Rule file (TOML or YAML)")
	mergeCmd.Flags().StringVarP(&mergeOutPath, "output", "o", "", "Write output to file instead of stdout")
}

func loadMutations(path string) (*merge.Mutations, error) {
	if path == "" {
		return merge.NewMutationsBuilder().Build()
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return file.Mutations()
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func writeLines(path string, lines []string) error {
	out := strings.Join(lines, "\n") + "\n"
	if path == "" {
		_, err := fmt.Print(out)
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}
