package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagForce bool

var resolveCmd = &cobra.Command{
	Use:   "resolve URL",
	Short: "Print which handler a URL would be fetched with",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func init() {
	resolveCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Probe unmatched URLs as if the bot was mentioned")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	dispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}

	handler, err := dispatcher.Dispatch(cmd.Context(), args[0], flagForce)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if handler == nil {
		fmt.Fprintln(out, "unhandled")
		return nil
	}
	fmt.Fprintf(out, "%s (%s)\n", handler.Name(), handler.Action())
	return nil
}
