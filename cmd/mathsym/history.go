package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Work with saved recognitions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recognitions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !cfg.History.Enabled {
			return fmt.Errorf("history is disabled (history.enabled)")
		}
		store, err := openHistory(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		structured, err := printStructured(w, records)
		if err != nil || structured {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Text, r.LaTeX, r.Confidence)
		}
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	rootCmd.AddCommand(historyCmd)
}
