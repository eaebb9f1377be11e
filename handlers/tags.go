package handlers

import (
	"net/http"

	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

func ListTags(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	tags, err := getServices().Tags.ListTags(c.Request.Context(), actor)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, tags)
}

func CreateTag(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req services.TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	tag, err := getServices().Tags.CreateTag(c.Request.Context(), actor, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, tag)
}

func UpdateTag(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	tag, err := getServices().Tags.UpdateTag(c.Request.Context(), actor, id, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, tag)
}

func DeleteTag(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().Tags.DeleteTag(c.Request.Context(), actor, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
