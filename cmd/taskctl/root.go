package main

import (
	"github.com/spf13/cobra"

	"taskctl/internal/shared/config"
)

// rootFlags carries the persistent flags every subcommand reads through
// loadConfig.
type rootFlags struct {
	configFile string
}

// NewRootCommand builds the taskctl root command and its subcommands.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Orchestration substrate for staged, multi-agent task execution",
		Long: `taskctl runs the context-question -> scope -> IFR -> requirements ->
network-plan pipeline behind a chat interface, dispatching messages to
category specialists and executing subtasks against a sandboxed
workspace.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to taskctl.yaml (default: ./taskctl.yaml)")

	root.AddCommand(newServeCommand(flags))
	root.AddCommand(newMigrateProjectsCommand(flags))
	root.AddCommand(newInspectTaskCommand(flags))

	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	return config.Load(config.WithConfigFile(flags.configFile))
}
