package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"parkwise/internal/booking"
	"parkwise/internal/entry"
	"parkwise/internal/plate"
	"parkwise/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &booking.ValidationError{Field: "email", Reason: "must be a valid email"}, http.StatusBadRequest},
		{"invalid image", plate.ErrInvalidImage, http.StatusBadRequest},
		{"booking not found", booking.ErrBookingNotFound, http.StatusNotFound},
		{"slot not found", booking.ErrSlotNotFound, http.StatusNotFound},
		{"slot unavailable", booking.ErrSlotUnavailable, http.StatusConflict},
		{"slot sync", &booking.SyncError{Op: "create booking", Entity: "slot", ID: 1, Err: errors.New("disk I/O error")}, http.StatusInternalServerError},
		{"slot sync wrapping not found", &booking.SyncError{Op: "create booking", Entity: "slot", ID: 1, Err: storage.ErrNotFound}, http.StatusInternalServerError},
		{"store unavailable", fmt.Errorf("%w: %w", entry.ErrStoreUnavailable, storage.ErrNotFound), http.StatusInternalServerError},
		{"missing parameter", fmt.Errorf("%w: status", ErrMissingParameter), http.StatusBadRequest},
		{"too large", fmt.Errorf("%w: limit is 10 bytes", ErrPayloadTooLarge), http.StatusRequestEntityTooLarge},
		{"http error", NewHTTPError(http.StatusTeapot, nil, "teapot"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorStatus(tt.err))
		})
	}
}

func TestGetErrorInfo(t *testing.T) {
	info := GetErrorInfo(&booking.ValidationError{Field: "license_plate", Reason: "must be a license plate"})
	assert.Equal(t, "invalid license_plate: must be a license plate", info.Message)
	assert.Equal(t, []string{"VALIDATION_FAILED"}, info.StopCodes)

	info = GetErrorInfo(&booking.SyncError{Op: "create booking", Entity: "slot", ID: 3, Err: errors.New("locked")})
	assert.Equal(t, []string{"SLOT_SYNC_FAILED"}, info.StopCodes)
	assert.NotContains(t, info.Message, "locked")

	// Internal details are not leaked
	info = GetErrorInfo(errors.New("sql: connection refused"))
	assert.Equal(t, "An internal error occurred", info.Message)
}

func TestErrorHandler_JSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		AbortWithError(c, booking.ErrSlotUnavailable)
	})
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.Equal(t, http.StatusConflict, w.Code)

	var body errorStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Succeed)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "Parking slot is already reserved", body.Message)
	assert.Equal(t, []string{"SLOT_UNAVAILABLE"}, body.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fine", w.Body.String())
}

func TestGetServices_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetServices(c)
	assert.ErrorIs(t, err, ErrInternalServer)

	svc := &Services{}
	c.Set(servicesKey, svc)
	got, err := GetServices(c)
	require.NoError(t, err)
	assert.Same(t, svc, got)
}
