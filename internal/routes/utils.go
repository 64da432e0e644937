package routes

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"parkwise/internal/barrier"
	"parkwise/internal/booking"
	"parkwise/internal/entry"
	"parkwise/internal/plate"

	"github.com/gin-gonic/gin"
)

const servicesKey = "Services"

// imageField is the multipart form field the camera uploads to.
const imageField = "image"

// Services holds what the handlers need. It is attached to every request
// by InjectServices.
type Services struct {
	Bookings *booking.Manager
	Entry    *entry.Pipeline
	Barrier  *barrier.Channel

	// Configured public base URL, empty to derive it from the request.
	BaseURL        string
	MaxUploadBytes int64
}

func InjectServices(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, svc)
		c.Next()
	}
}

func GetServices(c *gin.Context) (*Services, error) {
	value, exists := c.Get(servicesKey)
	if !exists {
		return nil, fmt.Errorf("%w: services not found in context", ErrInternalServer)
	}
	svc, ok := value.(*Services)
	if !ok {
		return nil, fmt.Errorf("%w: invalid services type in context", ErrInternalServer)
	}
	return svc, nil
}

// services fetches Services or aborts the request.
func services(c *gin.Context) (*Services, bool) {
	svc, err := GetServices(c)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return svc, true
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidParameter, name)
	}
	return id, nil
}

// Room for the multipart boundary and part headers on top of the image limit.
const multipartOverhead = 64 << 10

// readImage returns the uploaded frame. Multipart requests carry it in the
// "image" field, anything else is read as the raw body.
func readImage(c *gin.Context, maxBytes int64) ([]byte, error) {
	multipartBody := strings.HasPrefix(c.ContentType(), "multipart/")
	if maxBytes > 0 {
		limit := maxBytes
		if multipartBody {
			limit += multipartOverhead
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var (
		data []byte
		err  error
	)
	if multipartBody {
		var fh *multipart.FileHeader
		fh, err = c.FormFile(imageField)
		if err == nil {
			data, err = readFormFile(fh)
		}
	} else {
		data, err = io.ReadAll(c.Request.Body)
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, maxErr.Limit)
	case errors.Is(err, http.ErrMissingFile):
		return nil, fmt.Errorf("%w: missing %q field", plate.ErrInvalidImage, imageField)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	case len(data) == 0:
		return nil, plate.ErrInvalidImage
	case maxBytes > 0 && int64(len(data)) > maxBytes:
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, maxBytes)
	}
	return data, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
