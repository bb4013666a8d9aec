package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/kickstart/internal/config"
	"github.com/ericfisherdev/kickstart/internal/precheck"
)

var errPrecheckFailed = errors.New("prerequisite checks failed")

func newPrecheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "precheck",
		Short:         "Verify runtime directories, the env file and the listen address",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			report := precheck.Run(cfg)
			color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
			if err := report.Write(cmd.OutOrStdout(), color); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !report.OK() {
				return errPrecheckFailed
			}
			return nil
		},
	}
}
