package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fxops/tradeshell/core/config"
	"github.com/fxops/tradeshell/core/logger"
	"github.com/fxops/tradeshell/core/proc"
	"github.com/fxops/tradeshell/core/shell"
)

// runCmd starts the interactive restricted shell.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(afero.NewOsFs(), cfgPath)
		if err != nil {
			return err
		}

		var audit *logger.Logger
		if cfg.AuditLog != "" {
			fd, err := os.OpenFile(cfg.AuditLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return fmt.Errorf("open audit log: %w", err)
			}
			defer fd.Close()
			audit = logger.NewJSONLines(fd)
		}

		// Probed exactly once; the shell carries the result for its
		// whole lifetime.
		elevate := proc.ProbeElevation(cfg.Tools.Elevate)

		return shell.New(cfg, elevate, audit).Run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
