package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"parkwise/internal/booking"
	"parkwise/internal/storage"

	"github.com/spf13/cobra"
)

var bookingCmd = &cobra.Command{
	Use:   "booking",
	Short: "Manage bookings",
	Long:  `List, cancel and delete bookings, and repair slot status drift.`,
}

// newManager returns a booking manager that does not send email.
func newManager() *booking.Manager {
	return booking.NewManager(provider, booking.NopNotifier{})
}

func parseBookingID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		slog.Error("Invalid booking ID", "id", arg)
		os.Exit(1)
	}
	return id
}

var bookingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all bookings",
	Run: func(cmd *cobra.Command, args []string) {
		bookings, err := provider.ListBookings(context.Background())
		if err != nil {
			slog.Error("Failed to list bookings", "error", err)
			os.Exit(1)
		}

		if len(bookings) == 0 {
			fmt.Println("No bookings found.")
			return
		}

		// Print table
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLOT\tPLATE\tEMAIL\tDATE\tTIME\tSTATUS\tCREATED AT")
		for _, b := range bookings {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s-%s\t%s\t%s\n",
				b.ID,
				b.SlotID,
				b.LicensePlate,
				b.Email,
				b.BookingDate,
				b.StartTime,
				b.EndTime,
				b.Status,
				b.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
	},
}

var bookingCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a booking and free its slot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseBookingID(args[0])
		if _, err := newManager().ToggleBookingStatus(context.Background(), id, storage.BookingStatusCancelled); err != nil {
			slog.Error("Failed to cancel booking", "id", id, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Booking %d cancelled.\n", id)
	},
}

var bookingConfirmCmd = &cobra.Command{
	Use:   "confirm [id]",
	Short: "Re-confirm a cancelled booking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseBookingID(args[0])
		if _, err := newManager().ToggleBookingStatus(context.Background(), id, storage.BookingStatusConfirmed); err != nil {
			slog.Error("Failed to confirm booking", "id", id, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Booking %d confirmed.\n", id)
	},
}

var bookingDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a booking by ID",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseBookingID(args[0])
		if err := newManager().DeleteBooking(context.Background(), id); err != nil {
			slog.Error("Failed to delete booking", "id", id, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Booking %d deleted.\n", id)
	},
}

var bookingReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute slot status from confirmed bookings",
	Run: func(cmd *cobra.Command, args []string) {
		changed, err := newManager().ReconcileSlots(context.Background())
		if err != nil {
			slog.Error("Failed to reconcile slots", "error", err)
			os.Exit(1)
		}
		fmt.Printf("%d slots updated.\n", changed)
	},
}

func init() {
	rootCmd.AddCommand(bookingCmd)
	bookingCmd.AddCommand(bookingListCmd)
	bookingCmd.AddCommand(bookingCancelCmd)
	bookingCmd.AddCommand(bookingConfirmCmd)
	bookingCmd.AddCommand(bookingDeleteCmd)
	bookingCmd.AddCommand(bookingReconcileCmd)
}
