package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"recipehub/api/internal/config"
)

func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{HeaderRequestID, HeaderIdempotentReplayed},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge.Seconds()) * time.Second,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
		}
	}
	if !c.AllowAllOrigins {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(c)
}
