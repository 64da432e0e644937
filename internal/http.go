package app

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"parkwise/internal/config"
	"parkwise/internal/routes"

	"github.com/gin-gonic/gin"
)

const readHeaderTimeout = 10 * time.Second

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")

	// Disable caching
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// Middleware to check if the IP is allowed.
func IPAccessControl(allowedCIDRs []string) gin.HandlerFunc {
	// Parse allowed CIDRs
	var parsedCIDRs []*net.IPNet

	// Allow local networks in debug mode
	if os.Getenv("GIN_MODE") != "release" {
		localhostCIDRs := []string{"127.0.0.1/8", "::1/128"}
		allowedCIDRs = append(allowedCIDRs, localhostCIDRs...)
	}

	for _, cidr := range allowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("Invalid CIDR", "cidr", cidr)
			continue
		}
		slog.Debug("Allowed CIDR", "cidr", cidr)
		parsedCIDRs = append(parsedCIDRs, network)
	}

	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			// Should not happen
			slog.Warn("Invalid client IP", "ip", c.ClientIP())
			routes.AbortWithError(c, routes.ErrForbidden)
			return
		}

		for _, cidr := range parsedCIDRs {
			if cidr.Contains(clientIP) {
				c.Next()
				return
			}
		}
		slog.Warn("IP not allowed", "ip", clientIP, "path", c.Request.URL.Path)
		routes.AbortWithError(c, routes.ErrForbidden)
	}
}

// HTTPServer builds the gin engine with every route mounted.
func HTTPServer(cfg *config.Config, svc *routes.Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if err := r.SetTrustedProxies(config.SplitList(cfg.TrustedProxies)); err != nil {
		slog.Warn("Invalid trusted proxies", "trusted_proxies", cfg.TrustedProxies, "error", err)
	}

	// Error handler must wrap everything that may abort
	r.Use(routes.ErrorHandler())

	if cfg.AllowedNetworks != "" {
		slog.Debug("Enabling IP access control", "allowed_networks", cfg.AllowedNetworks)
		r.Use(IPAccessControl(config.SplitList(cfg.AllowedNetworks)))
	}
	r.Use(securityHeaders)
	r.Use(routes.InjectServices(svc))

	r.NoRoute(func(c *gin.Context) {
		routes.AbortWithError(c, routes.ErrNotFound)
	})

	routes.Health(r.Group(""))

	api := r.Group("/api")
	routes.CameraAPI(api)
	routes.ParkingAPI(api)

	admin := r.Group("/admin", IPAccessControl(config.SplitList(cfg.AdminNetworks)))
	routes.AdminAPI(admin)

	slog.Debug("HTTP routes registered", "routes", len(r.Routes()))
	return r
}

// Server wraps the engine in an http.Server listening on the configured address.
func Server(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
