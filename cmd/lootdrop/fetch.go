package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwygoda/lootdrop/internal/domain"
	"github.com/cwygoda/lootdrop/internal/loot"
	"github.com/cwygoda/lootdrop/internal/worker"
)

var flagKeep string

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Download a URL locally and print the batches that would be sent",
	Args:  cobra.ExactArgs(1),
	RunE:  fetchRun,
}

func init() {
	fetchCmd.Flags().StringVarP(&flagKeep, "keep", "k", "", "Download into this directory and keep it")
}

func fetchRun(cmd *cobra.Command, args []string) error {
	url := args[0]

	dispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	handler, err := dispatcher.Dispatch(cmd.Context(), url, true)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", url, err)
	}

	dir := flagKeep
	if dir == "" {
		if dir, err = os.MkdirTemp(cfg.TempDir, "lootdrop-fetch-*"); err != nil {
			return fmt.Errorf("creating scratch dir: %w", err)
		}
		defer os.RemoveAll(dir)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	w := worker.New(dispatcher, loot.NewCollector(logger), nil, workerOptions(cfg, ""), logger)
	batches, err := w.Loot(cmd.Context(), handler, url, dir)
	if err != nil {
		return err
	}

	printBatches(cmd.OutOrStdout(), handler.Name(), batches)
	return nil
}

func printBatches(out io.Writer, handler string, batches []domain.Batch) {
	fmt.Fprintf(out, "fetched with %s, %d batch(es)\n", handler, len(batches))
	for i, b := range batches {
		fmt.Fprintf(out, "batch %d:\n", i+1)
		for _, group := range [][]domain.LootItem{b.Video, b.Image, b.Audio} {
			for _, item := range group {
				fmt.Fprintf(out, "  %-5s %8s  %s\n", item.Kind, humanize.Bytes(uint64(item.Size)), filepath.Base(item.Path))
			}
		}
		if b.Text != "" {
			fmt.Fprintf(out, "  text  %d chars\n", len([]rune(b.Text)))
		}
	}
}
