package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cube2222/rtsql/config"
	"github.com/cube2222/rtsql/logs"
)

// NewRootCommand assembles the rtsql command tree.
func NewRootCommand() *cobra.Command {
	var configPath string
	var logToFile bool

	rootCmd := &cobra.Command{
		Use:   "rtsql",
		Short: "Inspect the rtsql type system.",
		Long: `Inspect the rtsql type system: type promotions, the wire schemas
of declared streams, typed projections and built-in functions.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !logToFile {
				return nil
			}
			dir, err := logDirectory(configPath)
			if err != nil {
				return err
			}
			return logs.InitializeFileLogger(dir)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logs.CloseLogger()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML configuration file.")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", true, "Write logs to logs.txt in the log directory.")

	rootCmd.AddCommand(
		newPromotesCommand(),
		newSchemaCommand(&configPath),
		newProjectCommand(&configPath),
		newFunctionsCommand(),
	)

	return rootCmd
}

func logDirectory(configPath string) (string, error) {
	if configPath == "" {
		return config.DefaultLogDirectory()
	}
	cfg, err := config.Read(configPath)
	if err != nil {
		return "", err
	}
	return cfg.LogDirectory()
}

func Execute(ctx context.Context) {
	cobra.CheckErr(NewRootCommand().ExecuteContext(ctx))
}
