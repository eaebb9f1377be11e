package handlers

import (
	"net/http"

	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

func SearchDocuments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var params services.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	out, err := getServices().Search.SearchDocuments(c.Request.Context(), actor, params)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, out)
}

func SearchDocumentsByType(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	typeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var params services.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	out, err := getServices().Search.SearchDocumentsByType(c.Request.Context(), actor, typeID, params)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, out)
}
