package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"parkwise/internal/storage"

	"github.com/spf13/cobra"
)

var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Manage parking slots",
	Long:  `List, create and seed the parking slots that can be booked.`,
}

func printSlots(slots []storage.Slot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLEVEL\tTYPE\tSTATUS")
	for _, slot := range slots {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", slot.ID, slot.SlotName, slot.Level, slot.Type, slot.Status)
	}
	w.Flush()
}

var slotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all parking slots",
	Run: func(cmd *cobra.Command, args []string) {
		slots, err := provider.ListSlots(context.Background())
		if err != nil {
			slog.Error("Failed to list slots", "error", err)
			os.Exit(1)
		}

		if len(slots) == 0 {
			fmt.Println("No slots found.")
			return
		}
		printSlots(slots)
	},
}

var (
	slotLevel string
	slotType  string
)

var slotCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new parking slot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slot := storage.Slot{
			SlotName: args[0],
			Level:    slotLevel,
			Type:     slotType,
			Status:   storage.SlotStatusAvailable,
		}

		if err := provider.CreateSlot(context.Background(), &slot); err != nil {
			slog.Error("Failed to create slot", "name", slot.SlotName, "error", err)
			os.Exit(1)
		}

		fmt.Printf("Slot '%s' created with ID %d.\n", slot.SlotName, slot.ID)
	},
}

var slotSeedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Create or update slots from a YAML file",
	Long:  `Create or update slots listed in a YAML file. Defaults to slots_seed_file from the configuration.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := cfg.SlotsSeedFile
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			slog.Error("No slots file given and slots_seed_file is not set")
			os.Exit(1)
		}

		slots, err := storage.SeedSlotsFile(context.Background(), provider, path)
		if err != nil {
			slog.Error("Failed to seed slots", "file", path, "error", err)
			os.Exit(1)
		}

		fmt.Printf("Seeded %d slots from %s.\n", len(slots), path)
		printSlots(slots)
	},
}

func init() {
	rootCmd.AddCommand(slotCmd)
	slotCmd.AddCommand(slotListCmd)
	slotCmd.AddCommand(slotCreateCmd)
	slotCmd.AddCommand(slotSeedCmd)

	slotCreateCmd.Flags().StringVar(&slotLevel, "level", "", "Level or floor of the slot")
	slotCreateCmd.Flags().StringVar(&slotType, "type", "standard", "Slot type, e.g. standard, ev, disabled")
}
