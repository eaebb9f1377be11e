package handlers

import (
	"net/http"
	"strconv"

	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

func ListAuditLog(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page_number", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	tableName := c.Query("table_name")

	out, err := getServices().AuditLog.List(c.Request.Context(), tableName, page, size)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, out)
}
