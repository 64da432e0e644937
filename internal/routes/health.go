package routes

import (
	"net/http"

	"parkwise/internal/utils"

	"github.com/gin-gonic/gin"
)

func Health(r *gin.RouterGroup) {

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": utils.GetVersion(),
		})
	})
}
