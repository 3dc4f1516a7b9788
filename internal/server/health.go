package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// HealthCheck probes one backing service for readiness.
type HealthCheck struct {
	Component string
	Check     func(ctx context.Context) error
}

// PostgresCheck pings the pool.
func PostgresCheck(pool *pgxpool.Pool) HealthCheck {
	return HealthCheck{Component: "postgres", Check: pool.Ping}
}

// MinIOCheck verifies the export bucket is reachable.
func MinIOCheck(client *minio.Client, bucket string) HealthCheck {
	return HealthCheck{Component: "minio", Check: func(ctx context.Context) error {
		_, err := client.BucketExists(ctx, bucket)
		return err
	}}
}

// RedisCheck pings the session store.
func RedisCheck(client *redis.Client) HealthCheck {
	return HealthCheck{Component: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

func registerHealthRoutes(router *gin.Engine, checks []HealthCheck) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "degraded",
					"component": hc.Component,
					"error":     err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
