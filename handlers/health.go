package handlers

import (
	"net/http"

	"papermerge/database"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness plus DB and redis reachability.
func Health(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK

	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["database"] = "unreachable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if database.RedisClient == nil || database.RedisClient.Ping(c.Request.Context()).Err() != nil {
		status["redis"] = "unreachable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	utils.Success(c, code, status)
}
