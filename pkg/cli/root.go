package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pair-scheduler/pkg/config"
	"pair-scheduler/pkg/logger"
)

const appVersion = "0.3.0"

// app carries what every subcommand needs once flags are parsed
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "pair-scheduler",
		Short:         "Schedule pair programming sessions through a spreadsheet-backed relay",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			log, err := logger.NewLogger(&cfg.Log)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a config file (default ./config/config.yaml or ./config.yaml)")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newRosterCommand(a))
	cmd.AddCommand(newSubmitCommand(a))

	return cmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		return fmt.Errorf("pair-scheduler: %w", err)
	}
	return nil
}
