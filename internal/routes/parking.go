package routes

import (
	"log/slog"
	"net/http"
	"strconv"

	"parkwise/internal/booking"
	"parkwise/internal/email"
	"parkwise/internal/entry"
	"parkwise/internal/storage"
	"parkwise/internal/utils"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 100

type bookingResponse struct {
	Success   bool             `json:"success"`
	Booking   *storage.Booking `json:"booking"`
	CancelURL string           `json:"cancel_url,omitempty"`
	Message   string           `json:"message,omitempty"`
}

type checkResponse struct {
	entry.Decision
	Message string `json:"message"`
}

func decisionMessage(d entry.Decision) string {
	switch {
	case d.Admitted:
		return "Access granted"
	case d.Reason == entry.ReasonNoPlateDetected:
		return "No license plate detected"
	default:
		return "No confirmed reservation for today"
	}
}

// CameraAPI serves the gate camera: frame upload and barrier polling.
func CameraAPI(r *gin.RouterGroup) {

	// Camera posts a frame, either as multipart "image" or as raw JPEG body
	r.POST("/check-reservation", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}

		image, err := readImage(c, svc.MaxUploadBytes)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		decision, err := svc.Entry.Check(c.Request.Context(), image)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		status := http.StatusOK
		if !decision.Admitted {
			status = http.StatusNotFound
		}
		c.JSON(status, checkResponse{Decision: decision, Message: decisionMessage(decision)})
	})

	// Barrier controller polls this. Reading "open" resets the command.
	r.GET("/barrier-command", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, string(svc.Barrier.PollAndConsume()))
	})
}

// ParkingAPI is the public booking surface used by the website.
func ParkingAPI(r *gin.RouterGroup) {

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

	r.POST("/bookings", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}

		var req booking.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("Invalid booking request", "error", err)
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		b, err := svc.Bookings.CreateBooking(c.Request.Context(), req)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, bookingResponse{
			Success:   true,
			Booking:   b,
			CancelURL: email.CancelURL(utils.GetBaseURL(c, svc.BaseURL), b.CancellationToken),
			Message:   "Booking confirmed",
		})
	})

	// Link from the confirmation email
	r.GET("/bookings/cancel/:token", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}
		b, err := svc.Bookings.CancelByToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookingResponse{Success: true, Booking: b, Message: "Booking cancelled"})
	})

	r.GET("/parking/history", func(c *gin.Context) {
		svc, ok := services(c)
		if !ok {
			return
		}

		limit := defaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				AbortWithError(c, ErrInvalidParameter)
				return
			}
			limit = n
		}

		entries, err := svc.Entry.History(c.Request.Context(), limit)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	})
}
