package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports DB and Redis connectivity plus the state of the e-mail
// pipeline. SMTP trouble degrades the report but never fails the check.
func Health(db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var parked int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			parked, _ = worker.DLQLength(ctx, rdb, worker.QueueEmail)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":        status == http.StatusOK,
			"db":        dbStatus,
			"redis":     redisStatus,
			"email_dlq": parked,
		}
		if smtpCB != nil {
			body["smtp_breaker"] = smtpCB.State().String()
		}
		c.JSON(status, body)
	}
}
