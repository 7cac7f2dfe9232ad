package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/shellmind/internal/config"
	"github.com/iishyfishyy/shellmind/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.History.Driver == "" || cfg.History.Driver == config.HistoryMemory {
				ui.ShowWarning("History is kept in memory only. Set history.driver to sqlite or redis to persist it.")
				return nil
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if len(entries) == 0 {
				ui.ShowInfo("No commands recorded yet.")
				return nil
			}

			gray := color.New(color.FgHiBlack)
			for _, e := range entries {
				gray.Printf("%s  ", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
				fmt.Println(e.Command)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}
