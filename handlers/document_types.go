package handlers

import (
	"net/http"

	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

func ListDocumentTypes(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	types, err := getServices().DocumentTypes.ListDocumentTypes(c.Request.Context(), actor)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, types)
}

func GetDocumentType(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dt, err := getServices().DocumentTypes.GetDocumentType(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, dt)
}

func CreateDocumentType(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req services.DocumentTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	dt, err := getServices().DocumentTypes.CreateDocumentType(c.Request.Context(), actor, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, dt)
}

func UpdateDocumentType(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.DocumentTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	dt, err := getServices().DocumentTypes.UpdateDocumentType(c.Request.Context(), actor, id, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, dt)
}

func DeleteDocumentType(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().DocumentTypes.DeleteDocumentType(c.Request.Context(), actor, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
