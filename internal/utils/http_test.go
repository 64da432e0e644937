package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newContext(target string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestUrlFor(t *testing.T) {
	c := newContext("http://parking.local:3000/x", nil)
	assert.Equal(t, "http://parking.local:3000/api/slots", UrlFor(c, "api/slots"))
	assert.Equal(t, "http://parking.local:3000/api/slots", UrlFor(c, "/api/slots"))

	c = newContext("http://parking.local/x", map[string]string{"X-Forwarded-Proto": "https"})
	assert.Equal(t, "https://parking.local/", UrlFor(c, "/"))
}

func TestGetBaseURL(t *testing.T) {
	c := newContext("http://parking.local:3000/x", nil)
	assert.Equal(t, "http://parking.local:3000", GetBaseURL(c, ""))
	assert.Equal(t, "https://parking.example.com", GetBaseURL(c, "https://parking.example.com/"))
}

func TestGetVersion(t *testing.T) {
	BuildVersion = "v1.2.3"
	defer func() { BuildVersion = "" }()
	assert.Equal(t, "v1.2.3", GetVersion())
}
