package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	"parkwise/internal/storage"

	"github.com/gin-gonic/gin"
)

type bookingDetailsRequest struct {
	Email        string `json:"email"`
	LicensePlate string `json:"license_plate"`
}

type bookingStatusRequest struct {
	Status storage.BookingStatus `json:"status"`
}

// AdminAPI is the operator surface. It is mounted behind the admin network
// restriction.
func AdminAPI(r *gin.RouterGroup) {

	r.GET("/slots", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		slots, err := svc.Bookings.ListSlots(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, slots)
	})

	r.POST("/slots/reconcile", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		changed, err := svc.Bookings.ReconcileSlots(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": changed})
	})

	r.GET("/bookings", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		bookings, err := svc.Bookings.ListBookings(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookings)
	})

	r.PUT("/bookings/:id", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		id, err := paramID(c, "id")
		if err != nil {
			AbortWithError(c, err)
			return
		}

		var req bookingDetailsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("Invalid booking update", "booking_id", id, "error", err)
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		b, err := svc.Bookings.UpdateBookingDetails(c.Request.Context(), id, req.Email, req.LicensePlate)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookingResponse{Success: true, Booking: b})
	})

	r.PUT("/bookings/:id/status", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		id, err := paramID(c, "id")
		if err != nil {
			AbortWithError(c, err)
			return
		}

		var req bookingStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("Invalid booking status update", "booking_id", id, "error", err)
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if req.Status == "" {
			AbortWithError(c, fmt.Errorf("%w: status", ErrMissingParameter))
			return
		}

		b, err := svc.Bookings.ToggleBookingStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookingResponse{Success: true, Booking: b})
	})

	r.DELETE("/bookings/:id", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		id, err := paramID(c, "id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if err := svc.Bookings.DeleteBooking(c.Request.Context(), id); err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// Manual override for the operator
	r.POST("/barrier/open", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		svc.Barrier.SetOpen()
		slog.Info("Barrier opened manually", "ip", c.ClientIP())
		c.JSON(http.StatusOK, gin.H{"success": true, "command": svc.Barrier.Peek()})
	})
}
