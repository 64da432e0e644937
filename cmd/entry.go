package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Inspect the gate entry log",
	Long:  `List and prune plates logged by the entry camera.`,
}

var entryLimit int

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged entries, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := provider.ListParkingEntries(context.Background(), entryLimit)
		if err != nil {
			slog.Error("Failed to list entries", "error", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPLATE\tENTRY TIME\tEXIT TIME\tIMAGE")
		for _, entry := range entries {
			exit := ""
			if entry.ExitTime != nil {
				exit = entry.ExitTime.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", entry.ID, entry.LicensePlate, entry.EntryTime.Format(time.RFC3339), exit, entry.ImagePath)
		}
		w.Flush()
	},
}

var entryPruneDays int

var entryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete entries older than the given number of days",
	Run: func(cmd *cobra.Command, args []string) {
		if entryPruneDays <= 0 {
			slog.Error("--days must be positive", "days", entryPruneDays)
			os.Exit(1)
		}

		cutoff := time.Now().AddDate(0, 0, -entryPruneDays)
		removed, err := provider.PruneParkingEntries(context.Background(), cutoff)
		if err != nil {
			slog.Error("Failed to prune entries", "error", err)
			os.Exit(1)
		}
		fmt.Printf("%d entries older than %s removed.\n", removed, cutoff.Format(time.DateOnly))
	},
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryPruneCmd)

	entryListCmd.Flags().IntVar(&entryLimit, "limit", 50, "Maximum number of entries to show")
	entryPruneCmd.Flags().IntVar(&entryPruneDays, "days", 90, "Keep entries newer than this many days")
}
