package utils

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

func requestScheme(c *gin.Context) string {
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}

// Helper function to generate a URL for a given path
func UrlFor(c *gin.Context, path string) string {
	// Check for "/" prefix in path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s%s", requestScheme(c), c.Request.Host, path)
}

// GetBaseURL returns the configured base URL, or detects it from the request
func GetBaseURL(c *gin.Context, configBaseURL string) string {
	if configBaseURL != "" {
		return strings.TrimRight(configBaseURL, "/")
	}
	return strings.TrimSuffix(UrlFor(c, "/"), "/")
}
