package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "goreview",
		Short:         "GoReview Campaign Comments",
		Long:          "Review red team campaigns by commenting, tagging and grouping the commands that were run, and keep host metadata alongside.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().Bool("no-color", false, "Disables colored command output")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("campaign", "default", "campaign to work on")
	cmd.PersistentFlags().String("user", "", "operator name written as comment author")
	cmd.PersistentFlags().String("db", "goreview.db", "path of the sqlite metadata store")

	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.no_color", cmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("campaign", cmd.PersistentFlags().Lookup("campaign"))
	viper.BindPFlag("auth.user", cmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("metadata.sqlite.path", cmd.PersistentFlags().Lookup("db"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}
