package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/inimerge/internal/version"
	"github.com/arthur-debert/inimerge/pkg/logging"
)

var (
	verbosity int

	rootCmd = &cobra.Command{
		Use:   "inimerge",
		Short: "Merge and filter INI files while preserving their formatting",
		Long: `inimerge reconciles a live, possibly hand-edited INI file (the target)
against a canonical template (the source), keeping the target's exact
formatting wherever the configured rules allow. It can also filter a
single file, removing or redacting entries.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(keyringCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inimerge %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	},
}
