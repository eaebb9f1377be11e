package handlers

import (
	"net/http"

	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

func ListCustomFields(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	fields, err := getServices().CustomFields.ListCustomFields(c.Request.Context(), actor)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, fields)
}

func GetCustomField(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	field, err := getServices().CustomFields.GetCustomField(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, field)
}

func CreateCustomField(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req services.CustomFieldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	field, err := getServices().CustomFields.CreateCustomField(c.Request.Context(), actor, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, field)
}

func UpdateCustomField(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.CustomFieldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	field, err := getServices().CustomFields.UpdateCustomField(c.Request.Context(), actor, id, req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, field)
}

func DeleteCustomField(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().CustomFields.DeleteCustomField(c.Request.Context(), actor, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
